package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"legal_consult_service/internal/calendar/domain"
	"legal_consult_service/internal/calendar/repository"
	"legal_consult_service/pkg/database"
	errprocess "legal_consult_service/pkg/err"
	"legal_consult_service/pkg/logger"
	"legal_consult_service/pkg/validate"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	firstSlotHour = 9
	lastSlotHour  = 17
	slotLength    = time.Hour
	dateLayout    = "2006-01-02"
)

// CalendarUseCase 顧問時段與預約
type CalendarUseCase interface {
	GetAvailableSlots(ctx context.Context, consultantID, date string) ([]domain.TimeSlot, error)
	ScheduleAppointment(ctx context.Context, req domain.ScheduleAppointmentReq) (string, error)
	GetAppointment(ctx context.Context, appointmentID string) (*domain.Appointment, error)
	GetAppointments(ctx context.Context, userID string, role domain.Role) ([]domain.Appointment, error)
	CancelAppointment(ctx context.Context, appointmentID string) error
	CompleteAppointment(ctx context.Context, appointmentID string) error
}

type calendarUseCase struct {
	repo     repository.AppointmentRepository
	rabbit   database.RabbitRepo
	location *time.Location
	now      func() time.Time
}

// NewCalendarUseCase 建立 CalendarUseCase，時段以 location 的當地時間計算
func NewCalendarUseCase(repo repository.AppointmentRepository, rabbit database.RabbitRepo, location *time.Location) CalendarUseCase {
	if location == nil {
		location = time.UTC
	}
	return &calendarUseCase{
		repo:     repo,
		rabbit:   rabbit,
		location: location,
		now:      time.Now,
	}
}

// GetAvailableSlots 回傳當天 09:00 ~ 17:00 每小時的時段
func (uc *calendarUseCase) GetAvailableSlots(ctx context.Context, consultantID, date string) ([]domain.TimeSlot, error) {
	// 1. 檢查參數
	if consultantID == "" {
		return nil, errprocess.Validation("consultant id is required")
	}
	day, err := time.ParseInLocation(dateLayout, date, uc.location)
	if err != nil {
		return nil, errprocess.Validation("date %q must be YYYY-MM-DD", date)
	}

	// 2. 一次撈出當天營業時間內的預約
	at := func(hour int) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, uc.location)
	}
	from := at(firstSlotHour)
	to := at(lastSlotHour).Add(slotLength)
	booked, err := uc.repo.FindScheduledBetween(ctx, consultantID, from, to)
	if err != nil {
		return nil, errprocess.Set(errprocess.Remote(err, "load appointments of %s on %s", consultantID, date))
	}

	// 3. 逐一比對每個時段
	slots := make([]domain.TimeSlot, 0, lastSlotHour-firstSlotHour+1)
	for hour := firstSlotHour; hour <= lastSlotHour; hour++ {
		start := at(hour)
		end := start.Add(slotLength)

		available := true
		for _, a := range booked {
			if a.Status == domain.StatusScheduled && domain.Overlaps(a.StartTime, a.EndTime, start, end) {
				available = false
				break
			}
		}
		slots = append(slots, domain.TimeSlot{
			Time:      fmt.Sprintf("%02d:00", hour),
			Available: available,
		})
	}
	return slots, nil
}

// ScheduleAppointment 建立預約，時段重疊回傳 Conflict
func (uc *calendarUseCase) ScheduleAppointment(ctx context.Context, req domain.ScheduleAppointmentReq) (string, error) {
	// 1. 檢查參數
	if err := validate.Struct(req); err != nil {
		return "", err
	}
	if req.StartTime.IsZero() {
		return "", errprocess.Validation("start time is required")
	}
	if req.ConsultantID == req.ClientID {
		return "", errprocess.Validation("consultant and client must be different users")
	}

	// 2. 寫入，重疊檢查在 repository 的 transaction 內
	a := &domain.Appointment{
		ID:            uuid.New().String(),
		ConsultantID:  req.ConsultantID,
		ClientID:      req.ClientID,
		StartTime:     req.StartTime,
		EndTime:       req.StartTime.Add(req.Duration),
		Duration:      req.Duration,
		Status:        domain.StatusScheduled,
		Type:          req.Type,
		Notes:         req.Notes,
		ContactEmails: req.NotifyEmails,
		CreatedAt:     uc.now(),
	}
	if err := uc.repo.CreateIfFree(ctx, a); err != nil {
		if errors.Is(err, repository.ErrOverlap) {
			return "", errprocess.Conflict("consultant %s is already booked at %s", a.ConsultantID, a.StartTime.Format(time.RFC3339))
		}
		return "", errprocess.Set(errprocess.Remote(err, "create appointment"))
	}

	// 3. 通知失敗不影響預約結果
	uc.notify(a, domain.NotifyScheduled)
	return a.ID, nil
}

// GetAppointments 依身分查詢使用者的預約
func (uc *calendarUseCase) GetAppointments(ctx context.Context, userID string, role domain.Role) ([]domain.Appointment, error) {
	if userID == "" {
		return nil, errprocess.Validation("user id is required")
	}
	if role != domain.RoleClient && role != domain.RoleConsultant {
		return nil, errprocess.Validation("role must be client or consultant, got %q", role)
	}

	list, err := uc.repo.FindByUser(ctx, role, userID)
	if err != nil {
		return nil, errprocess.Set(errprocess.Remote(err, "list appointments of %s", userID))
	}
	return list, nil
}

// GetAppointment 讀取單筆預約
func (uc *calendarUseCase) GetAppointment(ctx context.Context, appointmentID string) (*domain.Appointment, error) {
	return uc.load(ctx, appointmentID)
}

// CancelAppointment scheduled -> cancelled，重複取消視為成功
func (uc *calendarUseCase) CancelAppointment(ctx context.Context, appointmentID string) error {
	a, err := uc.load(ctx, appointmentID)
	if err != nil {
		return err
	}

	switch a.Status {
	case domain.StatusCancelled:
		return nil
	case domain.StatusCompleted:
		return errprocess.Validation("appointment %s is completed and cannot be cancelled", appointmentID)
	}

	updated, err := uc.repo.Cancel(ctx, appointmentID, uc.now())
	if err != nil {
		return errprocess.Set(errprocess.Remote(err, "cancel appointment %s", appointmentID))
	}
	if !updated {
		// 同時有其他人改了狀態，以 store 為準
		return uc.settled(ctx, appointmentID, domain.StatusCancelled)
	}

	uc.notify(a, domain.NotifyCancelled)
	return nil
}

// CompleteAppointment scheduled -> completed，由外部事件觸發
func (uc *calendarUseCase) CompleteAppointment(ctx context.Context, appointmentID string) error {
	a, err := uc.load(ctx, appointmentID)
	if err != nil {
		return err
	}

	switch a.Status {
	case domain.StatusCompleted:
		return nil
	case domain.StatusCancelled:
		return errprocess.Validation("appointment %s is cancelled and cannot be completed", appointmentID)
	}

	updated, err := uc.repo.UpdateStatus(ctx, appointmentID, domain.StatusScheduled, domain.StatusCompleted)
	if err != nil {
		return errprocess.Set(errprocess.Remote(err, "complete appointment %s", appointmentID))
	}
	if !updated {
		return uc.settled(ctx, appointmentID, domain.StatusCompleted)
	}
	return nil
}

func (uc *calendarUseCase) load(ctx context.Context, appointmentID string) (*domain.Appointment, error) {
	if appointmentID == "" {
		return nil, errprocess.Validation("appointment id is required")
	}
	a, err := uc.repo.FindByID(ctx, appointmentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errprocess.NotFound("appointment %s not found", appointmentID)
	}
	if err != nil {
		return nil, errprocess.Set(errprocess.Remote(err, "load appointment %s", appointmentID))
	}
	return a, nil
}

// settled 條件更新沒命中時重讀，已是目標狀態就當作成功
func (uc *calendarUseCase) settled(ctx context.Context, appointmentID string, want domain.AppointmentStatus) error {
	a, err := uc.load(ctx, appointmentID)
	if err != nil {
		return err
	}
	if a.Status == want {
		return nil
	}
	return errprocess.Validation("appointment %s is %s and cannot become %s", appointmentID, a.Status, want)
}

// notify fire-and-forget，失敗只記錄
func (uc *calendarUseCase) notify(a *domain.Appointment, kind domain.NotificationKind) {
	if uc.rabbit == nil {
		return
	}
	n := domain.AppointmentNotification{
		AppointmentID: a.ID,
		ConsultantID:  a.ConsultantID,
		ClientID:      a.ClientID,
		StartTime:     a.StartTime,
		Duration:      a.Duration,
		Kind:          kind,
		Emails:        a.ContactEmails,
	}
	if err := database.PublishJSON(uc.rabbit, domain.NotificationQueue, n); err != nil {
		logger.Log.Error("publish appointment notification",
			zap.String("appointmentID", a.ID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}
