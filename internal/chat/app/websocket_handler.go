package app

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"legal_consult_service/internal/chat/domain"
	errprocess "legal_consult_service/pkg/err"
	"legal_consult_service/pkg/logger"
	"legal_consult_service/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const pingInterval = 1 * time.Minute

// ChatWebsocketHandler websocket 入口，一條連線一個 session
type ChatWebsocketHandler struct {
	messageUC *MessageUseCase
	sendRate  rate.Limit
	sendBurst int
}

// NewChatWebsocketHandler create ChatWebsocketHandler
// sendRate 為每秒可送出的訊息數
func NewChatWebsocketHandler(messageUC *MessageUseCase, sendRate float64, sendBurst int) *ChatWebsocketHandler {
	if sendRate <= 0 {
		sendRate = 5
	}
	if sendBurst <= 0 {
		sendBurst = 10
	}
	return &ChatWebsocketHandler{
		messageUC: messageUC,
		sendRate:  rate.Limit(sendRate),
		sendBurst: sendBurst,
	}
}

type wsSession struct {
	conn       *websocket.Conn
	memberID   string
	memberName string
	limiter    *rate.Limiter

	// fasthttp websocket 不允許同時寫入
	writeMu sync.Mutex

	subsMu sync.Mutex
	subs   map[string]func()
}

// HandleConnection 是 WebSocket 連線的進入點
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	memberID, _ := conn.Locals(middlewares.TokenMemberID).(string)
	memberName, _ := conn.Locals(middlewares.TokenName).(string)
	if memberName == "" {
		memberName = memberID
	}
	logger.Log.Info("websocket connected", zap.String("userID", memberID))

	sess := &wsSession{
		conn:       conn,
		memberID:   memberID,
		memberName: memberName,
		limiter:    rate.NewLimiter(h.sendRate, h.sendBurst),
		subs:       make(map[string]func()),
	}

	ctxClose, cancel := context.WithCancel(ctx)
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		cancel()
		sess.unsubscribeAll()
		logger.Log.Info("websocket close", zap.String("userID", memberID))
		conn.Close()
	}()

	conn.SetCloseHandler(func(code int, text string) error {
		logger.Log.Debug("websocket closed by client", zap.String("userID", memberID), zap.Int("code", code))
		return nil
	})

	// 定期發送 Ping
	go func() {
		for {
			select {
			case <-ticker.C:
				sess.writeMu.Lock()
				err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
				sess.writeMu.Unlock()
				if err != nil {
					logger.Log.Errorf("Ping error:", err)
					return
				}
			case <-ctxClose.Done():
				return
			}
		}
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Debug("Connection closed", zap.String("userID", memberID))
			} else {
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}
		if mt != websocket.TextMessage {
			h.sendError(sess, "", "unsupported message type")
			continue
		}
		h.textMessageAction(ctxClose, sess, message)
	}
}

func (h *ChatWebsocketHandler) textMessageAction(ctx context.Context, sess *wsSession, msg []byte) {
	var req domain.WSRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		h.sendError(sess, "", "invalid json")
		return
	}

	resp := domain.WSResponse{Action: req.Action, RequestID: req.RequestID, Payload: map[string]interface{}{}}
	var err error

	switch domain.Action(req.Action) {
	// 開啟（或建立）與對方的對話
	case domain.OpenConversation:
		var conv *domain.Conversation
		if conv, err = h.messageUC.OpenConversation(ctx, sess.memberID, req.ParticipantID); err == nil {
			resp.Payload["conversation"] = conv
		}

	// 訂閱自己的對話列表
	case domain.SubscribeConversations:
		var sub *Subscription[[]domain.Conversation]
		if sub, err = h.messageUC.SubscribeToConversations(ctx, sess.memberID); err == nil {
			resp.Payload["subscription_id"] = sess.track(sub.Unsubscribe, func(id string) {
				forward(h, sess, id, domain.NotifyConversations, "conversations", sub)
			})
		}

	// 訂閱對話內訊息
	case domain.SubscribeMessages:
		err = h.requireParticipant(ctx, sess, req.ConversationID)
		if err == nil {
			var sub *Subscription[[]domain.ChatMessage]
			if sub, err = h.messageUC.SubscribeToMessages(ctx, req.ConversationID); err == nil {
				resp.Payload["subscription_id"] = sess.track(sub.Unsubscribe, func(id string) {
					forward(h, sess, id, domain.NotifyMessages, "messages", sub)
				})
			}
		}

	case domain.Unsubscribe:
		sess.untrack(req.SubscriptionID)
		resp.Payload["subscription_id"] = req.SubscriptionID

	// 傳送訊息
	case domain.SendMessage:
		if !sess.limiter.Allow() {
			resp.Error = "rate limit exceeded"
			resp.ErrorKind = "rate_limited"
			break
		}
		var uploads []domain.AttachmentUpload
		if uploads, err = decodeAttachments(req.Attachments); err != nil {
			break
		}
		var m *domain.ChatMessage
		m, err = h.messageUC.SendMessage(ctx, domain.SendMessageReq{
			ConversationID: req.ConversationID,
			SenderID:       sess.memberID,
			SenderName:     sess.memberName,
			Content:        req.Content,
			Attachments:    uploads,
			IdempotencyKey: req.IdempotencyKey,
		})
		if err == nil {
			resp.Payload["message"] = m
		}

	// 讀取訊息 將未讀訊息改為已讀
	case domain.ReadConversation:
		err = h.messageUC.MarkConversationRead(ctx, req.ConversationID, sess.memberID)

	// 搜尋所有未讀訊息
	case domain.GetUnread:
		var counts map[string]int
		if counts, err = h.messageUC.GetUnreadCounts(ctx, sess.memberID); err == nil {
			resp.Payload["unread"] = counts
		}

	default:
		h.sendError(sess, req.RequestID, "unknown action "+req.Action)
		return
	}

	if err != nil {
		resp.Error = err.Error()
		resp.ErrorKind = string(errprocess.KindOf(err))
	}
	resp.Success = resp.Error == ""
	if !resp.Success {
		logger.Log.Warn("websocket action failed", zap.String("MemberID", sess.memberID), zap.String("Action", req.Action), zap.String("err", resp.Error))
	}
	h.sendResponse(sess, resp)
}

func (h *ChatWebsocketHandler) requireParticipant(ctx context.Context, sess *wsSession, conversationID string) error {
	participants, err := h.messageUC.getParticipants(ctx, conversationID)
	if err != nil {
		return err
	}
	for _, p := range participants {
		if p == sess.memberID {
			return nil
		}
	}
	return errprocess.Validation("not a participant of conversation %s", conversationID)
}

func decodeAttachments(in []domain.WSAttachment) ([]domain.AttachmentUpload, error) {
	uploads := make([]domain.AttachmentUpload, 0, len(in))
	for _, a := range in {
		data, err := base64.StdEncoding.DecodeString(a.Data)
		if err != nil {
			return nil, errprocess.Validation("attachment %s is not valid base64", a.Name)
		}
		uploads = append(uploads, domain.AttachmentUpload{
			Name:        a.Name,
			ContentType: a.ContentType,
			Size:        int64(len(data)),
			Reader:      bytes.NewReader(data),
		})
	}
	return uploads, nil
}

// forward 把訂閱結果推給 client，直到訂閱結束
func forward[T any](h *ChatWebsocketHandler, sess *wsSession, id string, action domain.Action, key string, sub *Subscription[T]) {
	updates, errs := sub.Updates(), sub.Errors()
	for updates != nil || errs != nil {
		select {
		case v, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			h.sendResponse(sess, domain.WSResponse{
				Action:  string(action),
				Success: true,
				Payload: map[string]interface{}{"subscription_id": id, key: v},
			})
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			h.sendResponse(sess, domain.WSResponse{
				Action:    string(domain.NotifyError),
				Payload:   map[string]interface{}{"subscription_id": id},
				Error:     err.Error(),
				ErrorKind: string(errprocess.KindOf(err)),
			})
		}
	}
}

// track 登記訂閱並啟動推送 goroutine，回傳 subscription id
func (s *wsSession) track(unsubscribe func(), run func(id string)) string {
	id := uuid.New().String()
	s.subsMu.Lock()
	s.subs[id] = unsubscribe
	s.subsMu.Unlock()

	go run(id)
	return id
}

func (s *wsSession) untrack(id string) {
	s.subsMu.Lock()
	unsubscribe, ok := s.subs[id]
	delete(s.subs, id)
	s.subsMu.Unlock()

	if ok {
		unsubscribe()
	}
}

func (s *wsSession) unsubscribeAll() {
	s.subsMu.Lock()
	subs := s.subs
	s.subs = make(map[string]func())
	s.subsMu.Unlock()

	for _, unsubscribe := range subs {
		unsubscribe()
	}
}

// sendResponse - 發送 JSON 給前端
func (h *ChatWebsocketHandler) sendResponse(sess *wsSession, resp domain.WSResponse) {
	b, err := json.Marshal(resp)
	if err != nil {
		logger.Log.Errorf("marshal websocket response:", err)
		return
	}

	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()
	if err := sess.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		logger.Log.Errorf("write message error:", err)
	}
}

func (h *ChatWebsocketHandler) sendError(sess *wsSession, requestID, errorMsg string) {
	h.sendResponse(sess, domain.WSResponse{
		Action:    "error",
		RequestID: requestID,
		Success:   false,
		Error:     errorMsg,
	})
}
