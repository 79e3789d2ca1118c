//go:build integration

package repository

import (
	"context"
	"log"
	"os"
	"strconv"
	"testing"
	"time"

	"legal_consult_service/internal/document/domain"
	"legal_consult_service/pkg/database"
	"legal_consult_service/pkg/logger"
	testtool "legal_consult_service/pkg/test_tool"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()
	logger.SetNewNop()

	// **啟動 PostgreSQL**
	pgContainer, host, port, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "postgres:16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "documents",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start PostgreSQL container: %v", err)
	}

	p, _ := strconv.Atoi(port)
	testPool, err = database.NewDatabaseConnection(database.Connection{
		ConnectStr:    database.PostgresDSN(host, p, "test", "test", "documents"),
		RetryCount:    5,
		RetryInterval: 2,
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to PostgreSQL: %v", err)
	}
	if err := NewDocumentRepository(testPool).Migrate(ctx); err != nil {
		log.Fatalf("❌ Failed to migrate: %v", err)
	}

	code := m.Run()

	testPool.Close()
	pgContainer.Terminate(ctx)
	os.Exit(code)
}

func newDocument(owner, folder string) *domain.Document {
	id := uuid.NewString()
	return &domain.Document{
		ID:          id,
		Name:        "nda.pdf",
		ContentType: "application/pdf",
		Size:        8,
		ObjectKey:   "documents/" + owner + "/" + id + "-nda.pdf",
		URL:         "https://minio/" + id,
		UploadedBy:  owner,
		Folder:      folder,
		Status:      domain.StatusUploaded,
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestDocumentRepository_ShareAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository(testPool)
	owner, other := "u-"+uuid.NewString(), "c-"+uuid.NewString()

	contract := newDocument(owner, "contracts")
	memo := newDocument(owner, "")
	require.NoError(t, repo.CreateDocument(ctx, contract))
	require.NoError(t, repo.CreateDocument(ctx, memo))

	docs, err := repo.FindForUser(ctx, owner, "")
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = repo.FindForUser(ctx, owner, "contracts")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, contract.ID, docs[0].ID)

	docs, err = repo.FindForUser(ctx, other, "")
	require.NoError(t, err)
	assert.Empty(t, docs)

	require.NoError(t, repo.UpdateSharedWith(ctx, contract.ID, []string{other}))
	docs, err = repo.FindForUser(ctx, other, "")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, []string{other}, docs[0].SharedWith)

	require.NoError(t, repo.SoftDelete(ctx, contract.ID, time.Now()))
	assert.ErrorIs(t, repo.SoftDelete(ctx, contract.ID, time.Now()), ErrNotFound)
	assert.ErrorIs(t, repo.UpdateSharedWith(ctx, contract.ID, nil), ErrNotFound)
	_, err = repo.FindByID(ctx, contract.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	docs, err = repo.FindForUser(ctx, other, "")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDocumentRepository_SaveSignature(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository(testPool)

	doc := newDocument("u-"+uuid.NewString(), "")
	require.NoError(t, repo.CreateDocument(ctx, doc))

	sig := &domain.Signature{
		ID:          uuid.NewString(),
		DocumentID:  doc.ID,
		SignerID:    "signer",
		SignerName:  "Alice",
		SignedAt:    time.Now().UTC().Truncate(time.Millisecond),
		ObjectKey:   "signatures/" + doc.ID + "/x",
		Fingerprint: "abc",
	}
	require.NoError(t, repo.SaveSignature(ctx, sig))

	found, err := repo.FindByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSigned, found.Status)
	assert.Equal(t, sig.ID, found.SignatureID)
	require.NotNil(t, found.SignedAt)

	stored, err := repo.FindSignature(ctx, sig.ID)
	require.NoError(t, err)
	assert.Equal(t, "abc", stored.Fingerprint)

	// 第二次簽署
	again := *sig
	again.ID = uuid.NewString()
	assert.ErrorIs(t, repo.SaveSignature(ctx, &again), ErrAlreadySigned)
	_, err = repo.FindSignature(ctx, again.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	missing := *sig
	missing.ID = uuid.NewString()
	missing.DocumentID = uuid.NewString()
	assert.ErrorIs(t, repo.SaveSignature(ctx, &missing), ErrNotFound)
}
