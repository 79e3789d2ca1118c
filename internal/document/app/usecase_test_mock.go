package app

import (
	"context"
	"io"
	"time"

	"legal_consult_service/internal/document/domain"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
)

// MockDocumentRepository Mock DocumentRepository
type MockDocumentRepository struct {
	mock.Mock
}

// Migrate moke migrate
func (m *MockDocumentRepository) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// CreateDocument moke create document
func (m *MockDocumentRepository) CreateDocument(ctx context.Context, d *domain.Document) error {
	return m.Called(ctx, d).Error(0)
}

// FindByID moke find document
func (m *MockDocumentRepository) FindByID(ctx context.Context, id string) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindForUser moke list documents
func (m *MockDocumentRepository) FindForUser(ctx context.Context, userID, folder string) ([]domain.Document, error) {
	args := m.Called(ctx, userID, folder)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

// UpdateSharedWith moke share
func (m *MockDocumentRepository) UpdateSharedWith(ctx context.Context, id string, userIDs []string) error {
	return m.Called(ctx, id, userIDs).Error(0)
}

// SoftDelete moke delete
func (m *MockDocumentRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

// SaveSignature moke save signature
func (m *MockDocumentRepository) SaveSignature(ctx context.Context, s *domain.Signature) error {
	return m.Called(ctx, s).Error(0)
}

// FindSignature moke find signature
func (m *MockDocumentRepository) FindSignature(ctx context.Context, id string) (*domain.Signature, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Signature), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockBlobStore Mock database.MinIOClientRepo
type MockBlobStore struct {
	mock.Mock
}

// UploadObject moke upload，會讀完 reader
func (m *MockBlobStore) UploadObject(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	if reader != nil {
		_, _ = io.Copy(io.Discard, reader)
	}
	return m.Called(ctx, objectName, reader, size, contentType).Error(0)
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
	return m.Called(ctx, objectName).Error(0)
}

// PresignGetURL moke presign
func (m *MockBlobStore) PresignGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectName, expiry)
	return args.String(0), args.Error(1)
}

// MockKafkaWriter Mock database.KafkaWriter
type MockKafkaWriter struct {
	mock.Mock
}

// WriteMessages moke write messages
func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return m.Called(ctx, msgs).Error(0)
}

// Close moke close
func (m *MockKafkaWriter) Close() error {
	return m.Called().Error(0)
}

// MockDocumentUseCase Mock DocumentUseCase
type MockDocumentUseCase struct {
	mock.Mock
}

// UploadDocument moke upload
func (m *MockDocumentUseCase) UploadDocument(ctx context.Context, req domain.UploadDocumentReq) (*domain.Document, error) {
	args := m.Called(ctx, req)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

// GetDocument moke get one
func (m *MockDocumentUseCase) GetDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

// GetDocuments moke list
func (m *MockDocumentUseCase) GetDocuments(ctx context.Context, userID, folder string) ([]domain.Document, error) {
	args := m.Called(ctx, userID, folder)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

// ShareDocument moke share
func (m *MockDocumentUseCase) ShareDocument(ctx context.Context, documentID string, userIDs []string) error {
	return m.Called(ctx, documentID, userIDs).Error(0)
}

// DeleteDocument moke delete
func (m *MockDocumentUseCase) DeleteDocument(ctx context.Context, documentID string) error {
	return m.Called(ctx, documentID).Error(0)
}

// SignDocument moke sign
func (m *MockDocumentUseCase) SignDocument(ctx context.Context, req domain.SignDocumentReq) (*domain.Signature, error) {
	args := m.Called(ctx, req)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Signature), args.Error(1)
	}
	return nil, args.Error(1)
}

// VerifySignature moke verify
func (m *MockDocumentUseCase) VerifySignature(ctx context.Context, documentID string) (bool, error) {
	args := m.Called(ctx, documentID)
	return args.Bool(0), args.Error(1)
}
