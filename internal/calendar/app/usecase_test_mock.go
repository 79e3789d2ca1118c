package app

import (
	"context"
	"time"

	"legal_consult_service/internal/calendar/domain"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/mock"
)

// MockAppointmentRepository Mock AppointmentRepository
type MockAppointmentRepository struct {
	mock.Mock
}

// AutoMigrate moke auto migrate
func (m *MockAppointmentRepository) AutoMigrate() error {
	return m.Called().Error(0)
}

// CreateIfFree moke create appointment
func (m *MockAppointmentRepository) CreateIfFree(ctx context.Context, a *domain.Appointment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

// FindByID moke find appointment by id
func (m *MockAppointmentRepository) FindByID(ctx context.Context, id string) (*domain.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Appointment), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindScheduledBetween moke find scheduled appointments
func (m *MockAppointmentRepository) FindScheduledBetween(ctx context.Context, consultantID string, from, to time.Time) ([]domain.Appointment, error) {
	args := m.Called(ctx, consultantID, from, to)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Appointment), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByUser moke find appointments of user
func (m *MockAppointmentRepository) FindByUser(ctx context.Context, role domain.Role, userID string) ([]domain.Appointment, error) {
	args := m.Called(ctx, role, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Appointment), args.Error(1)
	}
	return nil, args.Error(1)
}

// UpdateStatus moke update status
func (m *MockAppointmentRepository) UpdateStatus(ctx context.Context, id string, from, to domain.AppointmentStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

// Cancel moke cancel
func (m *MockAppointmentRepository) Cancel(ctx context.Context, id string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

// MockRabbitRepo Mock database.RabbitRepo
type MockRabbitRepo struct {
	mock.Mock
}

// GetRabbit moke get channel
func (m *MockRabbitRepo) GetRabbit() *amqp.Channel {
	args := m.Called()
	if args.Get(0) != nil {
		return args.Get(0).(*amqp.Channel)
	}
	return nil
}

// Publish moke publish
func (m *MockRabbitRepo) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

// MockMailer Mock mailer.Mailer
type MockMailer struct {
	mock.Mock
}

// Send moke send mail
func (m *MockMailer) Send(to []string, subject, body string) error {
	args := m.Called(to, subject, body)
	return args.Error(0)
}

// MockCalendarUseCase Mock CalendarUseCase
type MockCalendarUseCase struct {
	mock.Mock
}

// GetAvailableSlots moke get slots
func (m *MockCalendarUseCase) GetAvailableSlots(ctx context.Context, consultantID, date string) ([]domain.TimeSlot, error) {
	args := m.Called(ctx, consultantID, date)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.TimeSlot), args.Error(1)
	}
	return nil, args.Error(1)
}

// ScheduleAppointment moke schedule
func (m *MockCalendarUseCase) ScheduleAppointment(ctx context.Context, req domain.ScheduleAppointmentReq) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// GetAppointments moke list appointments
func (m *MockCalendarUseCase) GetAppointments(ctx context.Context, userID string, role domain.Role) ([]domain.Appointment, error) {
	args := m.Called(ctx, userID, role)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Appointment), args.Error(1)
	}
	return nil, args.Error(1)
}

// GetAppointment moke get one
func (m *MockCalendarUseCase) GetAppointment(ctx context.Context, appointmentID string) (*domain.Appointment, error) {
	args := m.Called(ctx, appointmentID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Appointment), args.Error(1)
	}
	return nil, args.Error(1)
}

// CancelAppointment moke cancel
func (m *MockCalendarUseCase) CancelAppointment(ctx context.Context, appointmentID string) error {
	return m.Called(ctx, appointmentID).Error(0)
}

// CompleteAppointment moke complete
func (m *MockCalendarUseCase) CompleteAppointment(ctx context.Context, appointmentID string) error {
	return m.Called(ctx, appointmentID).Error(0)
}
