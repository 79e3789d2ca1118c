package app

import (
	"context"
	"io"
	"time"

	"legal_consult_service/internal/chat/domain"
	"legal_consult_service/internal/chat/repository"

	"github.com/stretchr/testify/mock"
)

// MockConversationRepository Mock ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

// EnsureIndexes moke ensure indexes
func (m *MockConversationRepository) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Create moke create conversation
func (m *MockConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	args := m.Called(ctx, conv)
	return args.Error(0)
}

// FindByID moke find conversation by id
func (m *MockConversationRepository) FindByID(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindPrivate moke find private conversation
func (m *MockConversationRepository) FindPrivate(ctx context.Context, userA, userB string) (*domain.Conversation, error) {
	args := m.Called(ctx, userA, userB)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByParticipant moke list conversations of user
func (m *MockConversationRepository) FindByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// UpdateLastMessage moke update last message
func (m *MockConversationRepository) UpdateLastMessage(ctx context.Context, msg *domain.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// IncrementUnread moke increment unread
func (m *MockConversationRepository) IncrementUnread(ctx context.Context, conversationID string, userIDs []string) error {
	args := m.Called(ctx, conversationID, userIDs)
	return args.Error(0)
}

// MarkLastMessageRead moke mark last message read
func (m *MockConversationRepository) MarkLastMessageRead(ctx context.Context, lastMessageIDs map[string]string, readerID string) error {
	args := m.Called(ctx, lastMessageIDs, readerID)
	return args.Error(0)
}

// ResetUnread moke reset unread
func (m *MockConversationRepository) ResetUnread(ctx context.Context, conversationID, userID string) error {
	args := m.Called(ctx, conversationID, userID)
	return args.Error(0)
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// EnsureIndexes moke ensure indexes
func (m *MockMessageRepository) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Insert moke insert msg
func (m *MockMessageRepository) Insert(ctx context.Context, msg *domain.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// FindByID moke find msg by id
func (m *MockMessageRepository) FindByID(ctx context.Context, messageID string) (*domain.ChatMessage, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByConversation moke list conversation msg
func (m *MockMessageRepository) FindByConversation(ctx context.Context, conversationID string) ([]domain.ChatMessage, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ChatMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// MarkRead moke mark msg read
func (m *MockMessageRepository) MarkRead(ctx context.Context, messageIDs []string) (int64, error) {
	args := m.Called(ctx, messageIDs)
	return args.Get(0).(int64), args.Error(1)
}

// MarkConversationRead moke mark conversation msg read
func (m *MockMessageRepository) MarkConversationRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	args := m.Called(ctx, conversationID, readerID)
	return args.Get(0).(int64), args.Error(1)
}

// MockIdempotencyRepository Mock IdempotencyRepository
type MockIdempotencyRepository struct {
	mock.Mock
}

// Claim moke claim key
func (m *MockIdempotencyRepository) Claim(ctx context.Context, senderID, key string, ttl time.Duration) (bool, string, error) {
	args := m.Called(ctx, senderID, key, ttl)
	return args.Bool(0), args.String(1), args.Error(2)
}

// Complete moke complete key
func (m *MockIdempotencyRepository) Complete(ctx context.Context, senderID, key, messageID string, ttl time.Duration) error {
	args := m.Called(ctx, senderID, key, messageID, ttl)
	return args.Error(0)
}

// Release moke release key
func (m *MockIdempotencyRepository) Release(ctx context.Context, senderID, key string) error {
	args := m.Called(ctx, senderID, key)
	return args.Error(0)
}

// MockBlobStore Mock database.MinIOClientRepo
type MockBlobStore struct {
	mock.Mock
}

// UploadObject moke upload
func (m *MockBlobStore) UploadObject(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, objectName, reader, size, contentType)
	return args.Error(0)
}

// GetObject moke get object
func (m *MockBlobStore) GetObject(ctx context.Context, objectName string) ([]byte, error) {
	args := m.Called(ctx, objectName)
	if args.Get(0) != nil {
		return args.Get(0).([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

// RemoveObject moke remove object
func (m *MockBlobStore) RemoveObject(ctx context.Context, objectName string) error {
	args := m.Called(ctx, objectName)
	return args.Error(0)
}

// PresignGetURL moke presign url
func (m *MockBlobStore) PresignGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectName, expiry)
	return args.String(0), args.Error(1)
}

// MockPubSub Mock PubSub
type MockPubSub struct {
	mock.Mock
}

// Publish moke publish
func (m *MockPubSub) Publish(ctx context.Context, channel string, event domain.ChangeEvent) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

// Subscribe moke subscribe
func (m *MockPubSub) Subscribe(ctx context.Context, channel string) (repository.Listener, error) {
	args := m.Called(ctx, channel)
	if args.Get(0) != nil {
		return args.Get(0).(repository.Listener), args.Error(1)
	}
	return nil, args.Error(1)
}
