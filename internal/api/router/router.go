package router

import (
	"legal_consult_service/internal/api/handlers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// RegisterSharedRoutes 各服務共用的 health / debug / swagger 路由
// @title Legal Consult Service API
// @version 1.0
// @description Messaging, scheduling and document signing for client/consultant consultations
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func RegisterSharedRoutes(app *fiber.App, service string) {
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/", handlers.ConnectCheck(service))
	app.Post("/debug", handlers.DebugLogFlag(service))
}
