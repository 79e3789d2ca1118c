package repository

import (
	"context"
	"errors"
	"time"

	"legal_consult_service/internal/calendar/domain"

	"gorm.io/gorm"
)

var (
	// ErrOverlap 顧問該時段已有預約
	ErrOverlap = errors.New("appointment overlaps an existing one")
	// ErrNotFound 查無預約
	ErrNotFound = errors.New("appointment not found")
)

// AppointmentRepository definition appointment store
type AppointmentRepository interface {
	AutoMigrate() error
	// CreateIfFree 在同一個 transaction 內檢查重疊後寫入
	CreateIfFree(ctx context.Context, a *domain.Appointment) error
	FindByID(ctx context.Context, id string) (*domain.Appointment, error)
	// FindScheduledBetween 回傳與 [from, to) 重疊的 scheduled 預約
	FindScheduledBetween(ctx context.Context, consultantID string, from, to time.Time) ([]domain.Appointment, error)
	FindByUser(ctx context.Context, role domain.Role, userID string) ([]domain.Appointment, error)
	// UpdateStatus 只在目前狀態為 from 時更新，回傳是否有更新
	UpdateStatus(ctx context.Context, id string, from, to domain.AppointmentStatus) (bool, error)
	// Cancel scheduled -> cancelled 並記錄 cancelled_at，回傳是否有更新
	Cancel(ctx context.Context, id string, at time.Time) (bool, error)
}

type appointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository create AppointmentRepository on gorm
func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

// AutoMigrate 依 Appointment model 建表/補欄位
func (r *appointmentRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Appointment{})
}

func (r *appointmentRepository) CreateIfFree(ctx context.Context, a *domain.Appointment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 同一顧問的預約依序處理，lock 在 transaction 結束時釋放
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", a.ConsultantID).Error; err != nil {
			return err
		}

		var n int64
		err := tx.Model(&domain.Appointment{}).
			Where("consultant_id = ? AND status = ? AND start_time < ? AND end_time > ?",
				a.ConsultantID, domain.StatusScheduled, a.EndTime, a.StartTime).
			Count(&n).Error
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrOverlap
		}

		return tx.Create(a).Error
	})
}

func (r *appointmentRepository) FindByID(ctx context.Context, id string) (*domain.Appointment, error) {
	var a domain.Appointment
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *appointmentRepository) FindScheduledBetween(ctx context.Context, consultantID string, from, to time.Time) ([]domain.Appointment, error) {
	var list []domain.Appointment
	err := r.db.WithContext(ctx).
		Where("consultant_id = ? AND status = ? AND start_time < ? AND end_time > ?",
			consultantID, domain.StatusScheduled, to, from).
		Order("start_time ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *appointmentRepository) FindByUser(ctx context.Context, role domain.Role, userID string) ([]domain.Appointment, error) {
	column := "client_id"
	if role == domain.RoleConsultant {
		column = "consultant_id"
	}

	var list []domain.Appointment
	err := r.db.WithContext(ctx).
		Where(column+" = ?", userID).
		Order("start_time ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id string, from, to domain.AppointmentStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected > 0, res.Error
}

func (r *appointmentRepository) Cancel(ctx context.Context, id string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("id = ? AND status = ?", id, domain.StatusScheduled).
		Updates(map[string]interface{}{
			"status":       domain.StatusCancelled,
			"cancelled_at": at,
		})
	return res.RowsAffected > 0, res.Error
}
