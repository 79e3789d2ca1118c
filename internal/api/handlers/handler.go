package handlers

import (
	"fmt"
	"strconv"

	"legal_consult_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ConnectCheck check service connect start
// @Summary Check service status
// @Description Returns a simple confirmation message
// @Tags Shared
// @Success 200 {string} string "chat_service start!"
// @Router / [get]
func ConnectCheck(service string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendString(service + " start!")
	}
}

// DebugLogFlag toggle debug log flag
// @Summary Toggle Debug Log Flag
// @Description Enable or disable debug logging for this service
// @Tags Shared
// @Param service query string false "Service name, must match this service when given"
// @Param status query bool true "Debug status"
// @Success 200 {string} string "Service debug mode updated"
// @Failure 400 {string} string "Invalid status value"
// @Router /debug [post]
func DebugLogFlag(service string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		target := c.Query("service", service)
		statusStr := c.Query("status")
		logger.Log.Info("debug", zap.String("service", target), zap.String("status", statusStr))

		status, err := strconv.ParseBool(statusStr)
		if err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		if target != service {
			return c.Status(fiber.StatusNotFound).SendString(fmt.Sprintf("service[%s] is not served here", target))
		}

		logger.Log.SetDebugMode(status)
		return c.SendString(fmt.Sprintf("service[%s]: debug mode is : %t", service, status))
	}
}
