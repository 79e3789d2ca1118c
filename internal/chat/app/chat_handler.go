package app

import (
	errprocess "legal_consult_service/pkg/err"
	"legal_consult_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// ChatHandler REST 版本的對話操作，給不走 websocket 的 client
type ChatHandler struct {
	messageUC *MessageUseCase
}

// NewChatHandler create ChatHandler
func NewChatHandler(messageUC *MessageUseCase) *ChatHandler {
	return &ChatHandler{messageUC: messageUC}
}

// OpenConversationRequest POST /chat/conversations body
type OpenConversationRequest struct {
	ParticipantID string `json:"participant_id"`
}

// OpenConversation 開啟與對方的對話
// @Summary Open a private conversation
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body OpenConversationRequest true "participant"
// @Success 200 {object} domain.Conversation
// @Failure 400 {object} map[string]string
// @Router /chat/conversations [post]
func (h *ChatHandler) OpenConversation(c *fiber.Ctx) error {
	var req OpenConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	conv, err := h.messageUC.OpenConversation(c.UserContext(), middlewares.MemberID(c), req.ParticipantID)
	if err != nil {
		return errprocess.Response(c, err)
	}
	return c.JSON(conv)
}

// GetUnread 各對話未讀數
// @Summary Unread counts per conversation
// @Tags Chat
// @Produce json
// @Success 200 {object} map[string]int
// @Router /chat/conversations/unread [get]
func (h *ChatHandler) GetUnread(c *fiber.Ctx) error {
	counts, err := h.messageUC.GetUnreadCounts(c.UserContext(), middlewares.MemberID(c))
	if err != nil {
		return errprocess.Response(c, err)
	}
	return c.JSON(counts)
}

// MarkRead 對話標為已讀
// @Summary Mark a conversation read
// @Tags Chat
// @Param id path string true "Conversation ID"
// @Success 204
// @Router /chat/conversations/{id}/read [post]
func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	if err := h.messageUC.MarkConversationRead(c.UserContext(), c.Params("id"), middlewares.MemberID(c)); err != nil {
		return errprocess.Response(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
