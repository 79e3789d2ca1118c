package router

import (
	"context"

	"legal_consult_service/internal/chat/app"
	"legal_consult_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes 註冊聊天相關路由
func RegisterRoutes(r *fiber.App, chatWebsocket *app.ChatWebsocketHandler, chatHandler *app.ChatHandler) {
	chat := r.Group("/chat", middlewares.JWTMiddleware())

	chat.Post("/conversations", chatHandler.OpenConversation)
	chat.Get("/conversations/unread", chatHandler.GetUnread)
	chat.Post("/conversations/:id/read", chatHandler.MarkRead)

	chat.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	chat.Get("/ws", websocket.New(func(c *websocket.Conn) {
		chatWebsocket.HandleConnection(context.Background(), c)
	}))
}
