//go:build integration

package repository

import (
	"context"
	"log"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"legal_consult_service/internal/calendar/domain"
	"legal_consult_service/pkg/database"
	"legal_consult_service/pkg/logger"
	testtool "legal_consult_service/pkg/test_tool"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

var testDB *gorm.DB

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
			"POSTGRES_DB":       "calendar",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start PostgreSQL container: %v", err)
	}

	p, _ := strconv.Atoi(port)
	testDB, err = database.NewPGConnection(database.Connection{
		ConnectStr:    database.PostgresDSN(host, p, "test", "test", "calendar"),
		RetryCount:    5,
		RetryInterval: 2,
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to PostgreSQL: %v", err)
	}
	if err := NewAppointmentRepository(testDB).AutoMigrate(); err != nil {
		log.Fatalf("❌ Failed to migrate: %v", err)
	}

	code := m.Run()

	pgContainer.Terminate(ctx)
	os.Exit(code)
}

func appointment(consultant string, start time.Time, d time.Duration) *domain.Appointment {
	return &domain.Appointment{
		ID:            uuid.NewString(),
		ConsultantID:  consultant,
		ClientID:      "client-" + uuid.NewString(),
		StartTime:     start,
		EndTime:       start.Add(d),
		Duration:      d,
		Status:        domain.StatusScheduled,
		Type:          domain.TypeConsultation,
		ContactEmails: []string{"client@example.com"},
		CreatedAt:     time.Now(),
	}
}

func TestAppointmentRepository_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentRepository(testDB)
	consultant := "c-" + uuid.NewString()
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		overlaps int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := repo.CreateIfFree(ctx, appointment(consultant, start.Add(time.Duration(i)*5*time.Minute), time.Hour))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if err == ErrOverlap {
				overlaps++
			}
		}(i)
	}
	wg.Wait()

	// 10:00 ~ 10:35 之間開始的一小時預約互相重疊，只能成功一筆
	assert.Equal(t, 1, ok)
	assert.Equal(t, 7, overlaps)

	list, err := repo.FindScheduledBetween(ctx, consultant, start, start.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAppointmentRepository_CancelAndStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentRepository(testDB)
	consultant := "c-" + uuid.NewString()
	start := time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC)

	a := appointment(consultant, start, time.Hour)
	require.NoError(t, repo.CreateIfFree(ctx, a))

	// 相鄰時段不算重疊
	require.NoError(t, repo.CreateIfFree(ctx, appointment(consultant, start.Add(time.Hour), time.Hour)))

	at := time.Now().UTC().Truncate(time.Second)
	changed, err := repo.Cancel(ctx, a.ID, at)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.Cancel(ctx, a.ID, at.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, changed)

	found, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, found.Status)
	require.NotNil(t, found.CancelledAt)
	assert.True(t, found.CancelledAt.Equal(at))
	assert.Equal(t, []string{"client@example.com"}, found.ContactEmails)

	// 取消後時段可重新預約
	require.NoError(t, repo.CreateIfFree(ctx, appointment(consultant, start, time.Hour)))

	changed, err = repo.UpdateStatus(ctx, a.ID, domain.StatusScheduled, domain.StatusCompleted)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	byClient, err := repo.FindByUser(ctx, domain.RoleClient, a.ClientID)
	require.NoError(t, err)
	assert.Len(t, byClient, 1)

	byConsultant, err := repo.FindByUser(ctx, domain.RoleConsultant, consultant)
	require.NoError(t, err)
	assert.Len(t, byConsultant, 3)
}
