package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"legal_consult_service/internal/calendar/domain"
	"legal_consult_service/internal/calendar/repository"
	errprocess "legal_consult_service/pkg/err"
	"legal_consult_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.SetNewNop()
}

func scheduled(id string, start time.Time, d time.Duration) *domain.Appointment {
	return &domain.Appointment{
		ID:           id,
		ConsultantID: "c1",
		ClientID:     "u1",
		StartTime:    start,
		EndTime:      start.Add(d),
		Duration:     d,
		Status:       domain.StatusScheduled,
		Type:         domain.TypeConsultation,
	}
}

func TestGetAvailableSlots(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	from := day.Add(9 * time.Hour)
	to := day.Add(18 * time.Hour)

	t.Run("booked 10:00-11:00", func(t *testing.T) {
		repo := new(MockAppointmentRepository)
		repo.On("FindScheduledBetween", ctx, "c1", from, to).
			Return([]domain.Appointment{*scheduled("a1", day.Add(10*time.Hour), time.Hour)}, nil)

		slots, err := NewCalendarUseCase(repo, nil, time.UTC).GetAvailableSlots(ctx, "c1", "2024-06-01")
		require.NoError(t, err)
		require.Len(t, slots, 9)
		assert.Equal(t, "09:00", slots[0].Time)
		assert.Equal(t, "17:00", slots[8].Time)
		for _, s := range slots {
			assert.Equal(t, s.Time != "10:00", s.Available, s.Time)
		}
		repo.AssertExpectations(t)
	})

	t.Run("half hour booking blocks two slots", func(t *testing.T) {
		repo := new(MockAppointmentRepository)
		repo.On("FindScheduledBetween", ctx, "c1", from, to).
			Return([]domain.Appointment{*scheduled("a1", day.Add(10*time.Hour+30*time.Minute), time.Hour)}, nil)

		slots, err := NewCalendarUseCase(repo, nil, time.UTC).GetAvailableSlots(ctx, "c1", "2024-06-01")
		require.NoError(t, err)
		for _, s := range slots {
			busy := s.Time == "10:00" || s.Time == "11:00"
			assert.Equal(t, !busy, s.Available, s.Time)
		}
	})

	t.Run("slots use configured timezone", func(t *testing.T) {
		taipei := time.FixedZone("CST", 8*3600)
		local := time.Date(2024, 6, 1, 0, 0, 0, 0, taipei)
		repo := new(MockAppointmentRepository)
		repo.On("FindScheduledBetween", ctx, "c1", local.Add(9*time.Hour), local.Add(18*time.Hour)).
			Return([]domain.Appointment{*scheduled("a1", time.Date(2024, 6, 1, 1, 0, 0, 0, time.UTC), time.Hour)}, nil)

		slots, err := NewCalendarUseCase(repo, nil, taipei).GetAvailableSlots(ctx, "c1", "2024-06-01")
		require.NoError(t, err)
		assert.False(t, slots[0].Available)
		assert.True(t, slots[1].Available)
	})

	t.Run("bad input", func(t *testing.T) {
		uc := NewCalendarUseCase(new(MockAppointmentRepository), nil, time.UTC)
		_, err := uc.GetAvailableSlots(ctx, "c1", "06/01/2024")
		assert.ErrorIs(t, err, errprocess.ErrValidation)
		_, err = uc.GetAvailableSlots(ctx, "", "2024-06-01")
		assert.ErrorIs(t, err, errprocess.ErrValidation)
	})

	t.Run("store unavailable", func(t *testing.T) {
		repo := new(MockAppointmentRepository)
		repo.On("FindScheduledBetween", ctx, "c1", from, to).Return(nil, errors.New("connection reset"))
		_, err := NewCalendarUseCase(repo, nil, time.UTC).GetAvailableSlots(ctx, "c1", "2024-06-01")
		assert.ErrorIs(t, err, errprocess.ErrRemoteUnavailable)
	})
}

func validRequest() domain.ScheduleAppointmentReq {
	return domain.ScheduleAppointmentReq{
		ConsultantID: "c1",
		ClientID:     "u1",
		StartTime:    time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		Duration:     time.Hour,
		Type:         domain.TypeConsultation,
		NotifyEmails: []string{"client@example.com"},
	}
}

func TestScheduleAppointment(t *testing.T) {
	ctx := context.Background()

	t.Run("success publishes notification", func(t *testing.T) {
		repo := new(MockAppointmentRepository)
		rabbit := new(MockRabbitRepo)
		repo.On("CreateIfFree", ctx, mock.MatchedBy(func(a *domain.Appointment) bool {
			return a.Status == domain.StatusScheduled &&
				a.EndTime.Equal(time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC)) &&
				len(a.ContactEmails) == 1
		})).Return(nil)
		rabbit.On("Publish", "", domain.NotificationQueue, false, false, mock.Anything).Return(nil)

		id, err := NewCalendarUseCase(repo, rabbit, time.UTC).ScheduleAppointment(ctx, validRequest())
		require.NoError(t, err)
		assert.NotEmpty(t, id)
		repo.AssertExpectations(t)
		rabbit.AssertExpectations(t)
	})

	t.Run("overlap is conflict", func(t *testing.T) {
		repo := new(MockAppointmentRepository)
		rabbit := new(MockRabbitRepo)
		repo.On("CreateIfFree", ctx, mock.Anything).Return(repository.ErrOverlap)

		_, err := NewCalendarUseCase(repo, rabbit, time.UTC).ScheduleAppointment(ctx, validRequest())
		assert.ErrorIs(t, err, errprocess.ErrConflict)
		rabbit.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("notification failure does not fail scheduling", func(t *testing.T) {
		repo := new(MockAppointmentRepository)
		rabbit := new(MockRabbitRepo)
		repo.On("CreateIfFree", ctx, mock.Anything).Return(nil)
		rabbit.On("Publish", "", domain.NotificationQueue, false, false, mock.Anything).Return(errors.New("channel closed"))

		id, err := NewCalendarUseCase(repo, rabbit, time.UTC).ScheduleAppointment(ctx, validRequest())
		require.NoError(t, err)
		assert.NotEmpty(t, id)
	})

	t.Run("store failure", func(t *testing.T) {
		repo := new(MockAppointmentRepository)
		repo.On("CreateIfFree", ctx, mock.Anything).Return(errors.New("deadlock detected"))

		_, err := NewCalendarUseCase(repo, nil, time.UTC).ScheduleAppointment(ctx, validRequest())
		assert.ErrorIs(t, err, errprocess.ErrRemoteUnavailable)
	})

	invalid := map[string]func(r *domain.ScheduleAppointmentReq){
		"zero duration":   func(r *domain.ScheduleAppointmentReq) { r.Duration = 0 },
		"negative":        func(r *domain.ScheduleAppointmentReq) { r.Duration = -time.Hour },
		"unknown type":    func(r *domain.ScheduleAppointmentReq) { r.Type = "coffee" },
		"no consultant":   func(r *domain.ScheduleAppointmentReq) { r.ConsultantID = "" },
		"no start":        func(r *domain.ScheduleAppointmentReq) { r.StartTime = time.Time{} },
		"self booking":    func(r *domain.ScheduleAppointmentReq) { r.ClientID = r.ConsultantID },
		"malformed email": func(r *domain.ScheduleAppointmentReq) { r.NotifyEmails = []string{"not-an-email"} },
	}
	for name, mutate := range invalid {
		t.Run(name, func(t *testing.T) {
			repo := new(MockAppointmentRepository)
			req := validRequest()
			mutate(&req)

			_, err := NewCalendarUseCase(repo, nil, time.UTC).ScheduleAppointment(ctx, req)
			assert.ErrorIs(t, err, errprocess.ErrValidation)
			repo.AssertNotCalled(t, "CreateIfFree", mock.Anything, mock.Anything)
		})
	}
}

func TestGetAppointments(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAppointmentRepository)
	uc := NewCalendarUseCase(repo, nil, time.UTC)

	repo.On("FindByUser", ctx, domain.RoleConsultant, "c1").Return([]domain.Appointment{{ID: "a1"}}, nil)

	list, err := uc.GetAppointments(ctx, "c1", domain.RoleConsultant)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = uc.GetAppointments(ctx, "c1", "admin")
	assert.ErrorIs(t, err, errprocess.ErrValidation)
}

func TestGetAppointment(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	repo := new(MockAppointmentRepository)
	repo.On("FindByID", ctx, "a1").Return(scheduled("a1", start, time.Hour), nil)
	repo.On("FindByID", ctx, "missing").Return(nil, repository.ErrNotFound)
	uc := NewCalendarUseCase(repo, nil, time.UTC)

	a, err := uc.GetAppointment(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "u1", a.ClientID)

	_, err = uc.GetAppointment(ctx, "missing")
	assert.ErrorIs(t, err, errprocess.ErrNotFound)
	_, err = uc.GetAppointment(ctx, "")
	assert.ErrorIs(t, err, errprocess.ErrValidation)
}

func TestCancelAppointment(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("scheduled is cancelled and notified", func(t *testing.T) {
		repo := new(MockAppointmentRepository)
		rabbit := new(MockRabbitRepo)
		repo.On("FindByID", ctx, "a1").Return(scheduled("a1", start, time.Hour), nil)
		repo.On("Cancel", ctx, "a1", mock.AnythingOfType("time.Time")).Return(true, nil)
		rabbit.On("Publish", "", domain.NotificationQueue, false, false, mock.Anything).Return(nil)

		require.NoError(t, NewCalendarUseCase(repo, rabbit, time.UTC).CancelAppointment(ctx, "a1"))
		repo.AssertExpectations(t)
		rabbit.AssertExpectations(t)
	})

	t.Run("already cancelled keeps original stamp", func(t *testing.T) {
		repo := new(MockAppointmentRepository)
		a := scheduled("a1", start, time.Hour)
		a.Status = domain.StatusCancelled
		stamp := start.Add(-time.Hour)
		a.CancelledAt = &stamp
		repo.On("FindByID", ctx, "a1").Return(a, nil)

		require.NoError(t, NewCalendarUseCase(repo, nil, time.UTC).CancelAppointment(ctx, "a1"))
		repo.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("completed cannot be cancelled", func(t *testing.T) {
		repo := new(MockAppointmentRepository)
		a := scheduled("a1", start, time.Hour)
		a.Status = domain.StatusCompleted
		repo.On("FindByID", ctx, "a1").Return(a, nil)

		err := NewCalendarUseCase(repo, nil, time.UTC).CancelAppointment(ctx, "a1")
		assert.ErrorIs(t, err, errprocess.ErrValidation)
	})

	t.Run("unknown id", func(t *testing.T) {
		repo := new(MockAppointmentRepository)
		repo.On("FindByID", ctx, "nope").Return(nil, repository.ErrNotFound)

		err := NewCalendarUseCase(repo, nil, time.UTC).CancelAppointment(ctx, "nope")
		assert.ErrorIs(t, err, errprocess.ErrNotFound)
	})

	t.Run("concurrent cancel settles on store state", func(t *testing.T) {
		repo := new(MockAppointmentRepository)
		cancelled := scheduled("a1", start, time.Hour)
		cancelled.Status = domain.StatusCancelled
		repo.On("FindByID", ctx, "a1").Return(scheduled("a1", start, time.Hour), nil).Once()
		repo.On("Cancel", ctx, "a1", mock.Anything).Return(false, nil)
		repo.On("FindByID", ctx, "a1").Return(cancelled, nil).Once()

		require.NoError(t, NewCalendarUseCase(repo, nil, time.UTC).CancelAppointment(ctx, "a1"))
		repo.AssertExpectations(t)
	})
}

func TestCompleteAppointment(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	repo := new(MockAppointmentRepository)
	repo.On("FindByID", ctx, "a1").Return(scheduled("a1", start, time.Hour), nil)
	repo.On("UpdateStatus", ctx, "a1", domain.StatusScheduled, domain.StatusCompleted).Return(true, nil)
	require.NoError(t, NewCalendarUseCase(repo, nil, time.UTC).CompleteAppointment(ctx, "a1"))

	cancelled := scheduled("a2", start, time.Hour)
	cancelled.Status = domain.StatusCancelled
	repo.On("FindByID", ctx, "a2").Return(cancelled, nil)
	err := NewCalendarUseCase(repo, nil, time.UTC).CompleteAppointment(ctx, "a2")
	assert.ErrorIs(t, err, errprocess.ErrValidation)
}
