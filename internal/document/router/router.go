package router

import (
	"legal_consult_service/internal/document/app"
	"legal_consult_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes 註冊文件路由
func RegisterRoutes(r *fiber.App, h *app.DocumentHandler) {
	documents := r.Group("/documents", middlewares.JWTMiddleware())

	documents.Post("/", h.Upload)
	documents.Get("/", h.List)
	documents.Post("/:id/share", h.Share)
	documents.Delete("/:id", h.Delete)
	documents.Post("/:id/sign", h.Sign)
	documents.Get("/:id/verify", h.Verify)
}
