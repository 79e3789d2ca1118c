package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"legal_consult_service/internal/document/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

var (
	// ErrNotFound 文件不存在或已刪除
	ErrNotFound = errors.New("document not found")
	// ErrAlreadySigned 文件已經簽署過
	ErrAlreadySigned = errors.New("document already signed")
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id           VARCHAR(36) PRIMARY KEY,
	name         TEXT NOT NULL,
	content_type TEXT NOT NULL,
	size         BIGINT NOT NULL,
	object_key   TEXT NOT NULL,
	url          TEXT NOT NULL DEFAULT '',
	uploaded_by  TEXT NOT NULL,
	folder       TEXT NOT NULL DEFAULT '',
	shared_with  TEXT[] NOT NULL DEFAULT '{}',
	status       TEXT NOT NULL DEFAULT 'uploaded',
	signature_id TEXT NOT NULL DEFAULT '',
	signed_at    TIMESTAMPTZ,
	deleted      BOOLEAN NOT NULL DEFAULT FALSE,
	deleted_at   TIMESTAMPTZ,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_documents_uploaded_by ON documents (uploaded_by);
CREATE INDEX IF NOT EXISTS idx_documents_shared_with ON documents USING GIN (shared_with);

CREATE TABLE IF NOT EXISTS signatures (
	id          VARCHAR(36) PRIMARY KEY,
	document_id VARCHAR(36) NOT NULL REFERENCES documents(id),
	signer_id   TEXT NOT NULL,
	signer_name TEXT NOT NULL,
	signed_at   TIMESTAMPTZ NOT NULL,
	ip_address  TEXT NOT NULL DEFAULT '',
	user_agent  TEXT NOT NULL DEFAULT '',
	object_key  TEXT NOT NULL,
	fingerprint TEXT NOT NULL
);
`

const documentColumns = `id, name, content_type, size, object_key, url, uploaded_by, folder,
	shared_with, status, signature_id, signed_at, deleted, deleted_at, created_at`

// DocumentRepository 文件與簽名存取
type DocumentRepository interface {
	Migrate(ctx context.Context) error
	CreateDocument(ctx context.Context, d *domain.Document) error
	FindByID(ctx context.Context, id string) (*domain.Document, error)
	FindForUser(ctx context.Context, userID, folder string) ([]domain.Document, error)
	UpdateSharedWith(ctx context.Context, id string, userIDs []string) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	SaveSignature(ctx context.Context, s *domain.Signature) error
	FindSignature(ctx context.Context, id string) (*domain.Signature, error)
}

type documentRepository struct {
	db *pgxpool.Pool
}

// NewDocumentRepository create a DocumentRepository
func NewDocumentRepository(db *pgxpool.Pool) DocumentRepository {
	return &documentRepository{db: db}
}

// Migrate 建立 documents / signatures 資料表
func (r *documentRepository) Migrate(ctx context.Context) error {
	_, err := r.db.Exec(ctx, schema)
	return err
}

func (r *documentRepository) CreateDocument(ctx context.Context, d *domain.Document) error {
	sharedWith := d.SharedWith
	if sharedWith == nil {
		sharedWith = []string{}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO documents(id, name, content_type, size, object_key, url, uploaded_by, folder, shared_with, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		d.ID, d.Name, d.ContentType, d.Size, d.ObjectKey, d.URL, d.UploadedBy, d.Folder, sharedWith, d.Status, d.CreatedAt,
	)
	return err
}

// FindByID 已刪除的文件視為不存在
func (r *documentRepository) FindByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRow(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = $1 AND deleted = FALSE", id)
	d, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// FindForUser 自己上傳或被分享的文件，folder 為空時不過濾
func (r *documentRepository) FindForUser(ctx context.Context, userID, folder string) ([]domain.Document, error) {
	queryStr := "SELECT " + documentColumns + " FROM documents WHERE deleted = FALSE AND (uploaded_by = $1 OR $1 = ANY(shared_with))"
	params := []interface{}{userID}
	paramCount := 2

	if folder != "" {
		queryStr += fmt.Sprintf(" AND folder = $%d", paramCount)
		params = append(params, folder)
	}
	queryStr += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, queryStr, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

func (r *documentRepository) UpdateSharedWith(ctx context.Context, id string, userIDs []string) error {
	if userIDs == nil {
		userIDs = []string{}
	}
	tag, err := r.db.Exec(ctx, "UPDATE documents SET shared_with = $1 WHERE id = $2 AND deleted = FALSE", userIDs, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *documentRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	tag, err := r.db.Exec(ctx, "UPDATE documents SET deleted = TRUE, deleted_at = $1 WHERE id = $2 AND deleted = FALSE", at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveSignature 同一個 transaction 內標記文件已簽署並寫入簽名紀錄
func (r *documentRepository) SaveSignature(ctx context.Context, s *domain.Signature) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE documents SET status = $1, signature_id = $2, signed_at = $3
		WHERE id = $4 AND deleted = FALSE AND status = $5`,
		domain.StatusSigned, s.ID, s.SignedAt, s.DocumentID, domain.StatusUploaded,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// 區分不存在與已簽署
		var deleted bool
		err := tx.QueryRow(ctx, "SELECT deleted FROM documents WHERE id = $1", s.DocumentID).Scan(&deleted)
		if errors.Is(err, pgx.ErrNoRows) || (err == nil && deleted) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return ErrAlreadySigned
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO signatures(id, document_id, signer_id, signer_name, signed_at, ip_address, user_agent, object_key, fingerprint)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.DocumentID, s.SignerID, s.SignerName, s.SignedAt, s.IPAddress, s.UserAgent, s.ObjectKey, s.Fingerprint,
	)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *documentRepository) FindSignature(ctx context.Context, id string) (*domain.Signature, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, document_id, signer_id, signer_name, signed_at, ip_address, user_agent, object_key, fingerprint
		FROM signatures WHERE id = $1`, id)

	var s domain.Signature
	err := row.Scan(&s.ID, &s.DocumentID, &s.SignerID, &s.SignerName, &s.SignedAt, &s.IPAddress, &s.UserAgent, &s.ObjectKey, &s.Fingerprint)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var d domain.Document
	err := row.Scan(
		&d.ID, &d.Name, &d.ContentType, &d.Size, &d.ObjectKey, &d.URL, &d.UploadedBy, &d.Folder,
		&d.SharedWith, &d.Status, &d.SignatureID, &d.SignedAt, &d.Deleted, &d.DeletedAt, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
