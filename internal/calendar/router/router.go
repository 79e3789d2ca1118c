package router

import (
	"legal_consult_service/internal/calendar/app"
	"legal_consult_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes 註冊預約相關路由，全部需要 JWT
func RegisterRoutes(r *fiber.App, h *app.CalendarHandler) {
	auth := middlewares.JWTMiddleware()

	r.Get("/slots", auth, h.GetSlots)
	r.Post("/appointments", auth, h.Schedule)
	r.Get("/appointments", auth, h.List)
	r.Post("/appointments/:id/cancel", auth, h.Cancel)
	r.Post("/appointments/:id/complete", auth, h.Complete)
}
