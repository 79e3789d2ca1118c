package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"legal_consult_service/internal/chat/domain"
	"legal_consult_service/internal/chat/repository"
	"legal_consult_service/pkg"
	"legal_consult_service/pkg/database"
	errprocess "legal_consult_service/pkg/err"
	"legal_consult_service/pkg/logger"
	"legal_consult_service/pkg/validate"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	defaultAttachmentTTL  = 7 * 24 * time.Hour
)

// Options MessageUseCase 可調參數
type Options struct {
	IdempotencyTTL time.Duration
	AttachmentTTL  time.Duration
}

// MessageUseCase 負責對話與訊息同步
type MessageUseCase struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	pubsub   repository.PubSub
	idem     repository.IdempotencyRepository
	blob     database.MinIOClientRepo

	// 參與者名單不會變，只快取這個
	participants *cache.Cache
	opts         Options
}

// NewMessageUseCase init message use case
func NewMessageUseCase(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	pubsub repository.PubSub,
	idem repository.IdempotencyRepository,
	blob database.MinIOClientRepo,
	opts Options,
) *MessageUseCase {
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = defaultIdempotencyTTL
	}
	if opts.AttachmentTTL <= 0 {
		opts.AttachmentTTL = defaultAttachmentTTL
	}
	return &MessageUseCase{
		convRepo:     convRepo,
		msgRepo:      msgRepo,
		pubsub:       pubsub,
		idem:         idem,
		blob:         blob,
		participants: cache.New(1*time.Hour, 10*time.Minute),
		opts:         opts,
	}
}

// OpenConversation 取得兩人的 1 對 1 對話，不存在時建立
func (uc *MessageUseCase) OpenConversation(ctx context.Context, userA, userB string) (*domain.Conversation, error) {
	// 1. 檢查參數
	if userA == "" || userB == "" {
		return nil, errprocess.Validation("both participants are required")
	}
	if userA == userB {
		return nil, errprocess.Validation("cannot open a conversation with yourself")
	}

	// 2. 已存在直接回傳
	conv, err := uc.convRepo.FindPrivate(ctx, userA, userB)
	if err != nil {
		return nil, errprocess.Set(errprocess.Remote(err, "find conversation %s", domain.PairKey(userA, userB)))
	}
	if conv != nil {
		return conv, nil
	}

	// 3. 建立新對話
	participants := []string{userA, userB}
	sort.Strings(participants)
	now := pkg.NowMilli()
	conv = &domain.Conversation{
		ID:           uuid.New().String(),
		Participants: participants,
		PairKey:      domain.PairKey(userA, userB),
		UnreadCount:  map[string]int{userA: 0, userB: 0},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.convRepo.Create(ctx, conv); err != nil {
		if !errors.Is(err, repository.ErrConversationExists) {
			return nil, errprocess.Set(errprocess.Remote(err, "create conversation %s", conv.PairKey))
		}
		// 同時建立，以先寫入的為準
		existing, err := uc.convRepo.FindPrivate(ctx, userA, userB)
		if err != nil || existing == nil {
			return nil, errprocess.Set(errprocess.Remote(err, "reload conversation %s", conv.PairKey))
		}
		return existing, nil
	}

	// 4. 通知雙方對話列表
	uc.publish(ctx, domain.ChangeEvent{Kind: domain.ChangeConversation, ConversationID: conv.ID}, conv.Participants)
	return conv, nil
}

// SubscribeToConversations 訂閱使用者的對話列表（依 UpdatedAt 由新到舊）
// 每次推送後，別人送來且未讀的 last message 會被批次標為已讀
func (uc *MessageUseCase) SubscribeToConversations(ctx context.Context, userID string) (*Subscription[[]domain.Conversation], error) {
	if userID == "" {
		return nil, errprocess.Validation("user id is required")
	}

	// 先訂閱再讀快照，避免漏掉中間的變更
	listener, err := uc.pubsub.Subscribe(ctx, domain.UserChannel(userID))
	if err != nil {
		return nil, errprocess.Set(errprocess.Remote(err, "subscribe conversations of %s", userID))
	}

	sub := newSubscription[[]domain.Conversation](ctx, listener)
	go sub.run(
		func(ctx context.Context) ([]domain.Conversation, error) {
			convs, err := uc.convRepo.FindByParticipant(ctx, userID)
			if err != nil {
				return nil, err
			}
			sort.SliceStable(convs, func(i, j int) bool {
				return convs[i].UpdatedAt > convs[j].UpdatedAt
			})
			return convs, nil
		},
		func(ctx context.Context, convs []domain.Conversation) {
			uc.markDelivered(ctx, userID, convs)
		},
	)
	return sub, nil
}

// markDelivered best effort，失敗只記錄
func (uc *MessageUseCase) markDelivered(ctx context.Context, userID string, convs []domain.Conversation) {
	var (
		msgIDs    []string
		convIDs   []string
		delivered = map[string]string{}
		marked    []domain.Conversation
	)
	for _, c := range convs {
		if c.LastMessage == nil || c.LastMessage.Read || c.LastMessage.SenderID == userID {
			continue
		}
		msgIDs = append(msgIDs, c.LastMessage.ID)
		convIDs = append(convIDs, c.ID)
		delivered[c.ID] = c.LastMessage.ID
		marked = append(marked, c)
	}
	if len(msgIDs) == 0 {
		return
	}

	if _, err := uc.msgRepo.MarkRead(ctx, msgIDs); err != nil {
		logger.Log.Error("mark delivered messages read", zap.String("userID", userID), zap.Strings("messageIDs", msgIDs), zap.Error(err))
		return
	}
	// 快照之後才到的新訊息不會被這次標記影響
	if err := uc.convRepo.MarkLastMessageRead(ctx, delivered, userID); err != nil {
		logger.Log.Error("mark conversations read", zap.String("userID", userID), zap.Strings("conversationIDs", convIDs), zap.Error(err))
		return
	}

	for _, c := range marked {
		uc.publish(ctx, domain.ChangeEvent{Kind: domain.ChangeRead, ConversationID: c.ID, MessageID: c.LastMessage.ID}, c.Participants)
	}
}

// SubscribeToMessages 訂閱對話訊息，依 (timestamp, seq) 由舊到新
func (uc *MessageUseCase) SubscribeToMessages(ctx context.Context, conversationID string) (*Subscription[[]domain.ChatMessage], error) {
	if conversationID == "" {
		return nil, errprocess.Validation("conversation id is required")
	}
	if _, err := uc.getParticipants(ctx, conversationID); err != nil {
		return nil, err
	}

	listener, err := uc.pubsub.Subscribe(ctx, domain.ConversationChannel(conversationID))
	if err != nil {
		return nil, errprocess.Set(errprocess.Remote(err, "subscribe messages of %s", conversationID))
	}

	sub := newSubscription[[]domain.ChatMessage](ctx, listener)
	go sub.run(
		func(ctx context.Context) ([]domain.ChatMessage, error) {
			msgs, err := uc.msgRepo.FindByConversation(ctx, conversationID)
			if err != nil {
				return nil, err
			}
			sort.SliceStable(msgs, func(i, j int) bool {
				if msgs[i].Timestamp != msgs[j].Timestamp {
					return msgs[i].Timestamp < msgs[j].Timestamp
				}
				return msgs[i].Seq < msgs[j].Seq
			})
			return msgs, nil
		},
		nil,
	)
	return sub, nil
}

// SendMessage 上傳附件後寫入訊息，並更新對話摘要
// 任一附件上傳失敗則整筆失敗，不寫入訊息
func (uc *MessageUseCase) SendMessage(ctx context.Context, req domain.SendMessageReq) (*domain.ChatMessage, error) {
	// 1. 檢查參數
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Content) == "" && len(req.Attachments) == 0 {
		return nil, errprocess.Validation("content or attachments is required")
	}

	// 2. 檢查對話存在且 sender 是參與者
	participants, err := uc.getParticipants(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}
	if !pkg.Contains(participants, req.SenderID) {
		return nil, errprocess.Validation("sender %s is not a participant of conversation %s", req.SenderID, req.ConversationID)
	}

	// 3. 相同 idempotency key 只寫一次
	if req.IdempotencyKey != "" {
		claimed, existingID, err := uc.idem.Claim(ctx, req.SenderID, req.IdempotencyKey, uc.opts.IdempotencyTTL)
		if err != nil {
			return nil, errprocess.Set(errprocess.Remote(err, "claim idempotency key %s", req.IdempotencyKey))
		}
		if !claimed {
			return uc.replay(ctx, req, existingID)
		}
	}

	msg, err := uc.send(ctx, req, participants)

	if req.IdempotencyKey != "" {
		uc.settleIdempotency(ctx, req, msg)
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// send 回傳的 msg 不為 nil 代表訊息已寫入
func (uc *MessageUseCase) send(ctx context.Context, req domain.SendMessageReq, participants []string) (*domain.ChatMessage, error) {
	// 4. 上傳附件
	attachments, keys, err := uc.uploadAttachments(ctx, req.ConversationID, req.Attachments)
	if err != nil {
		return nil, err
	}

	// 5. 寫入訊息，timestamp 與 seq 由 store 指定
	msg := &domain.ChatMessage{
		ID:             uuid.New().String(),
		ConversationID: req.ConversationID,
		SenderID:       req.SenderID,
		SenderName:     req.SenderName,
		Content:        req.Content,
		Read:           false,
		Attachments:    attachments,
		IdempotencyKey: req.IdempotencyKey,
	}
	if err := uc.msgRepo.Insert(ctx, msg); err != nil {
		uc.removeObjects(ctx, keys)
		return nil, errprocess.Set(errprocess.Remote(err, "insert message into conversation %s", req.ConversationID))
	}

	// 6. 更新對話 last message 與未讀數
	if err := uc.convRepo.UpdateLastMessage(ctx, msg); err != nil {
		return msg, errprocess.Set(errprocess.Remote(err, "update last message of %s", req.ConversationID))
	}
	recipients := make([]string, 0, len(participants))
	for _, p := range participants {
		if p != req.SenderID {
			recipients = append(recipients, p)
		}
	}
	if err := uc.convRepo.IncrementUnread(ctx, req.ConversationID, recipients); err != nil {
		logger.Log.Error("increment unread", zap.String("conversationID", req.ConversationID), zap.Error(err))
	}

	// 7. 通知訂閱者
	uc.publish(ctx, domain.ChangeEvent{Kind: domain.ChangeMessage, ConversationID: msg.ConversationID, MessageID: msg.ID}, participants)
	return msg, nil
}

func (uc *MessageUseCase) settleIdempotency(ctx context.Context, req domain.SendMessageReq, msg *domain.ChatMessage) {
	if msg == nil {
		// 沒寫入就釋放，讓呼叫端可以重送
		if err := uc.idem.Release(ctx, req.SenderID, req.IdempotencyKey); err != nil {
			logger.Log.Error("release idempotency key", zap.String("key", req.IdempotencyKey), zap.Error(err))
		}
		return
	}
	if err := uc.idem.Complete(ctx, req.SenderID, req.IdempotencyKey, msg.ID, uc.opts.IdempotencyTTL); err != nil {
		logger.Log.Error("complete idempotency key", zap.String("key", req.IdempotencyKey), zap.Error(err))
	}
}

// replay 重複的送出回傳第一次寫入的訊息
func (uc *MessageUseCase) replay(ctx context.Context, req domain.SendMessageReq, messageID string) (*domain.ChatMessage, error) {
	if messageID == "" {
		return nil, errprocess.Conflict("message with idempotency key %s is still being sent", req.IdempotencyKey)
	}

	msg, err := uc.msgRepo.FindByID(ctx, messageID)
	if err != nil {
		return nil, errprocess.Set(errprocess.Remote(err, "load message %s", messageID))
	}
	if msg == nil {
		return nil, errprocess.NotFound("message %s for idempotency key %s", messageID, req.IdempotencyKey)
	}
	// 同一個 key 換到別的對話不能算成功
	if msg.ConversationID != req.ConversationID {
		return nil, errprocess.Conflict("idempotency key %s already used in conversation %s", req.IdempotencyKey, msg.ConversationID)
	}

	// 第一次送出若沒更新到摘要，這裡補上；條件式更新可重複執行
	if err := uc.convRepo.UpdateLastMessage(ctx, msg); err != nil {
		logger.Log.Error("replay update last message", zap.String("messageID", msg.ID), zap.Error(err))
	}
	return msg, nil
}

func (uc *MessageUseCase) uploadAttachments(ctx context.Context, conversationID string, uploads []domain.AttachmentUpload) ([]domain.Attachment, []string, error) {
	attachments := make([]domain.Attachment, 0, len(uploads))
	keys := make([]string, 0, len(uploads))

	for _, up := range uploads {
		fileID := uuid.New().String()
		key := domain.AttachmentKey(conversationID, fileID, pkg.SanitizeFileName(up.Name))

		size := up.Size
		if size <= 0 {
			size = -1
		}
		if err := uc.blob.UploadObject(ctx, key, up.Reader, size, up.ContentType); err != nil {
			uc.removeObjects(ctx, keys)
			return nil, nil, errprocess.Set(errprocess.PartialUpload(err, "upload attachment %s (%d of %d)", up.Name, len(keys)+1, len(uploads)))
		}
		keys = append(keys, key)

		url, err := uc.blob.PresignGetURL(ctx, key, uc.opts.AttachmentTTL)
		if err != nil {
			uc.removeObjects(ctx, keys)
			return nil, nil, errprocess.Set(errprocess.PartialUpload(err, "resolve url of attachment %s", up.Name))
		}

		attachments = append(attachments, domain.Attachment{
			ID:          fileID,
			Name:        up.Name,
			ContentType: up.ContentType,
			URL:         url,
		})
	}
	return attachments, keys, nil
}

// removeObjects 清掉已上傳但不會被引用的附件
func (uc *MessageUseCase) removeObjects(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := uc.blob.RemoveObject(ctx, key); err != nil {
			logger.Log.Warn("remove orphan attachment", zap.String("key", key), zap.Error(err))
		}
	}
}

// MarkConversationRead 把對話中別人送的訊息全部標為已讀
func (uc *MessageUseCase) MarkConversationRead(ctx context.Context, conversationID, userID string) error {
	participants, err := uc.getParticipants(ctx, conversationID)
	if err != nil {
		return err
	}
	if !pkg.Contains(participants, userID) {
		return errprocess.Validation("user %s is not a participant of conversation %s", userID, conversationID)
	}

	// 先記下目前的 last message，標記訊息後只更新這一則的摘要
	conv, err := uc.convRepo.FindByID(ctx, conversationID)
	if err != nil {
		return errprocess.Set(errprocess.Remote(err, "load conversation %s", conversationID))
	}

	n, err := uc.msgRepo.MarkConversationRead(ctx, conversationID, userID)
	if err != nil {
		return errprocess.Set(errprocess.Remote(err, "mark conversation %s read", conversationID))
	}
	if conv != nil && conv.LastMessage != nil {
		last := map[string]string{conversationID: conv.LastMessage.ID}
		if err := uc.convRepo.MarkLastMessageRead(ctx, last, userID); err != nil {
			return errprocess.Set(errprocess.Remote(err, "mark last message of %s read", conversationID))
		}
	}
	if err := uc.convRepo.ResetUnread(ctx, conversationID, userID); err != nil {
		return errprocess.Set(errprocess.Remote(err, "reset unread of %s", conversationID))
	}

	if n > 0 {
		uc.publish(ctx, domain.ChangeEvent{Kind: domain.ChangeRead, ConversationID: conversationID}, participants)
	}
	return nil
}

// GetUnreadCounts 回傳 conversation id -> 未讀數，只列出大於 0 的
func (uc *MessageUseCase) GetUnreadCounts(ctx context.Context, userID string) (map[string]int, error) {
	if userID == "" {
		return nil, errprocess.Validation("user id is required")
	}
	convs, err := uc.convRepo.FindByParticipant(ctx, userID)
	if err != nil {
		return nil, errprocess.Set(errprocess.Remote(err, "list conversations of %s", userID))
	}

	counts := make(map[string]int)
	for _, c := range convs {
		if n := c.UnreadCount[userID]; n > 0 {
			counts[c.ID] = n
		}
	}
	return counts, nil
}

func (uc *MessageUseCase) getParticipants(ctx context.Context, conversationID string) ([]string, error) {
	if v, ok := uc.participants.Get(conversationID); ok {
		return v.([]string), nil
	}

	conv, err := uc.convRepo.FindByID(ctx, conversationID)
	if err != nil {
		return nil, errprocess.Set(errprocess.Remote(err, "find conversation %s", conversationID))
	}
	if conv == nil {
		return nil, errprocess.NotFound("conversation %s not found", conversationID)
	}

	uc.participants.Set(conversationID, conv.Participants, cache.DefaultExpiration)
	return conv.Participants, nil
}

// publish 通知對話頻道與每位參與者，失敗只記錄
func (uc *MessageUseCase) publish(ctx context.Context, ev domain.ChangeEvent, participants []string) {
	channels := make([]string, 0, len(participants)+1)
	channels = append(channels, domain.ConversationChannel(ev.ConversationID))
	for _, p := range participants {
		channels = append(channels, domain.UserChannel(p))
	}

	for _, ch := range channels {
		if err := uc.pubsub.Publish(ctx, ch, ev); err != nil {
			logger.Log.Error(fmt.Sprintf("publish %s", ev.Kind), zap.String("channel", ch), zap.Error(err))
		}
	}
}
