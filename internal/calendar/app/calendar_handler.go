package app

import (
	"time"

	"legal_consult_service/internal/calendar/domain"
	errprocess "legal_consult_service/pkg/err"
	"legal_consult_service/pkg/logger"
	"legal_consult_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CalendarHandler 处理预约相关的 HTTP 请求
type CalendarHandler struct {
	Usecase CalendarUseCase
}

// NewCalendarHandler 创建新的 CalendarHandler
func NewCalendarHandler(uc CalendarUseCase) *CalendarHandler {
	return &CalendarHandler{Usecase: uc}
}

// ScheduleRequest POST /appointments body
type ScheduleRequest struct {
	ConsultantID    string    `json:"consultant_id"`
	ClientID        string    `json:"client_id"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Type            string    `json:"type"`
	Notes           string    `json:"notes"`
}

// GetSlots 取得顧問某天的可預約時段
// @Summary Available hourly slots
// @Tags Calendar
// @Produce json
// @Param consultant_id query string true "Consultant ID"
// @Param date query string true "YYYY-MM-DD"
// @Success 200 {array} domain.TimeSlot
// @Failure 400 {object} map[string]string
// @Router /slots [get]
func (h *CalendarHandler) GetSlots(c *fiber.Ctx) error {
	slots, err := h.Usecase.GetAvailableSlots(c.UserContext(), c.Query("consultant_id"), c.Query("date"))
	if err != nil {
		return errprocess.Response(c, err)
	}
	return c.JSON(slots)
}

// Schedule 建立預約
// @Summary Schedule an appointment
// @Tags Calendar
// @Accept json
// @Produce json
// @Param request body ScheduleRequest true "appointment"
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /appointments [post]
func (h *CalendarHandler) Schedule(c *fiber.Ctx) error {
	var req ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	// client 本人預約時不用帶 client_id
	clientID := req.ClientID
	if clientID == "" {
		clientID = middlewares.MemberID(c)
	}
	var emails []string
	if email := middlewares.Local(c, middlewares.TokenEmail); email != "" {
		emails = append(emails, email)
	}

	id, err := h.Usecase.ScheduleAppointment(c.UserContext(), domain.ScheduleAppointmentReq{
		ConsultantID: req.ConsultantID,
		ClientID:     clientID,
		StartTime:    req.StartTime,
		Duration:     time.Duration(req.DurationMinutes) * time.Minute,
		Type:         domain.AppointmentType(req.Type),
		Notes:        req.Notes,
		NotifyEmails: emails,
	})
	if err != nil {
		logger.Log.Debug("schedule appointment", zap.String("consultantID", req.ConsultantID), zap.Error(err))
		return errprocess.Response(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

// List 查詢自己的預約
// @Summary List my appointments
// @Tags Calendar
// @Produce json
// @Param role query string false "client or consultant, defaults to token role"
// @Success 200 {array} domain.Appointment
// @Router /appointments [get]
func (h *CalendarHandler) List(c *fiber.Ctx) error {
	role := c.Query("role", middlewares.Local(c, middlewares.TokenRole))
	list, err := h.Usecase.GetAppointments(c.UserContext(), middlewares.MemberID(c), domain.Role(role))
	if err != nil {
		return errprocess.Response(c, err)
	}
	return c.JSON(list)
}

// Cancel 取消預約
// @Summary Cancel an appointment
// @Tags Calendar
// @Param id path string true "Appointment ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /appointments/{id}/cancel [post]
func (h *CalendarHandler) Cancel(c *fiber.Ctx) error {
	if err := h.authorize(c); err != nil {
		return errprocess.Response(c, err)
	}
	if err := h.Usecase.CancelAppointment(c.UserContext(), c.Params("id")); err != nil {
		return errprocess.Response(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Complete 諮詢結束後標記完成
// @Summary Complete an appointment
// @Tags Calendar
// @Param id path string true "Appointment ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Router /appointments/{id}/complete [post]
func (h *CalendarHandler) Complete(c *fiber.Ctx) error {
	if err := h.authorize(c); err != nil {
		return errprocess.Response(c, err)
	}
	if err := h.Usecase.CompleteAppointment(c.UserContext(), c.Params("id")); err != nil {
		return errprocess.Response(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// authorize 只有預約的顧問或客戶可以變更狀態
func (h *CalendarHandler) authorize(c *fiber.Ctx) error {
	a, err := h.Usecase.GetAppointment(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	memberID := middlewares.MemberID(c)
	if memberID != a.ClientID && memberID != a.ConsultantID {
		return errprocess.Forbidden("appointment %s does not belong to %s", a.ID, memberID)
	}
	return nil
}
