package app

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"legal_consult_service/internal/document/domain"
	"legal_consult_service/internal/document/repository"
	"legal_consult_service/pkg"
	"legal_consult_service/pkg/database"
	"legal_consult_service/pkg/encrypt"
	errprocess "legal_consult_service/pkg/err"
	"legal_consult_service/pkg/logger"
	"legal_consult_service/pkg/validate"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// DefaultURLExpiry presigned url 有效期
const DefaultURLExpiry = 7 * 24 * time.Hour

const publishTimeout = 3 * time.Second

// DocumentUseCase 文件上傳、分享與電子簽署
type DocumentUseCase interface {
	UploadDocument(ctx context.Context, req domain.UploadDocumentReq) (*domain.Document, error)
	GetDocument(ctx context.Context, documentID string) (*domain.Document, error)
	GetDocuments(ctx context.Context, userID, folder string) ([]domain.Document, error)
	ShareDocument(ctx context.Context, documentID string, userIDs []string) error
	DeleteDocument(ctx context.Context, documentID string) error
	SignDocument(ctx context.Context, req domain.SignDocumentReq) (*domain.Signature, error)
	VerifySignature(ctx context.Context, documentID string) (bool, error)
}

type documentUseCase struct {
	repo      repository.DocumentRepository
	blob      database.MinIOClientRepo
	events    database.KafkaWriter
	urlExpiry time.Duration
	now       func() time.Time
}

// NewDocumentUseCase 建立 DocumentUseCase，events 為 nil 時不送簽署事件
func NewDocumentUseCase(repo repository.DocumentRepository, blob database.MinIOClientRepo, events database.KafkaWriter, urlExpiry time.Duration) DocumentUseCase {
	if urlExpiry <= 0 {
		urlExpiry = DefaultURLExpiry
	}
	return &documentUseCase{
		repo:      repo,
		blob:      blob,
		events:    events,
		urlExpiry: urlExpiry,
		now:       time.Now,
	}
}

// UploadDocument 檢查大小與格式後上傳 MinIO 並寫入資料庫
func (uc *documentUseCase) UploadDocument(ctx context.Context, req domain.UploadDocumentReq) (*domain.Document, error) {
	// 1. 檢查參數
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Size > domain.MaxDocumentSize {
		return nil, errprocess.Validation("file size exceeds %dMB limit", domain.MaxDocumentSize>>20)
	}
	if !pkg.Contains(domain.AllowedContentTypes, req.ContentType) {
		return nil, errprocess.Validation("file type %s not supported", req.ContentType)
	}

	// 2. 上傳檔案
	id := uuid.New().String()
	key := fmt.Sprintf("documents/%s/%s-%s", req.UserID, id, pkg.SanitizeFileName(req.FileName))
	if err := uc.blob.UploadObject(ctx, key, req.Reader, req.Size, req.ContentType); err != nil {
		return nil, errprocess.Set(errprocess.Remote(err, "upload document %s", req.FileName))
	}

	url, err := uc.blob.PresignGetURL(ctx, key, uc.urlExpiry)
	if err != nil {
		uc.removeObject(key)
		return nil, errprocess.Set(errprocess.Remote(err, "presign document %s", key))
	}

	// 3. 寫入資料庫，失敗時清掉已上傳的檔案
	doc := &domain.Document{
		ID:          id,
		Name:        req.FileName,
		ContentType: req.ContentType,
		Size:        req.Size,
		ObjectKey:   key,
		URL:         url,
		UploadedBy:  req.UserID,
		Folder:      req.Folder,
		SharedWith:  []string{},
		Status:      domain.StatusUploaded,
		CreatedAt:   uc.now(),
	}
	if err := uc.repo.CreateDocument(ctx, doc); err != nil {
		uc.removeObject(key)
		return nil, errprocess.Set(errprocess.Remote(err, "save document %s", id))
	}
	return doc, nil
}

// GetDocuments 使用者上傳或被分享的文件，URL 每次重新簽發
func (uc *documentUseCase) GetDocuments(ctx context.Context, userID, folder string) ([]domain.Document, error) {
	if userID == "" {
		return nil, errprocess.Validation("user id is required")
	}

	docs, err := uc.repo.FindForUser(ctx, userID, folder)
	if err != nil {
		return nil, errprocess.Set(errprocess.Remote(err, "load documents of %s", userID))
	}

	for i := range docs {
		url, err := uc.blob.PresignGetURL(ctx, docs[i].ObjectKey, uc.urlExpiry)
		if err != nil {
			logger.Log.Warn("refresh document url", zap.String("documentID", docs[i].ID), zap.Error(err))
			continue
		}
		docs[i].URL = url
	}
	return docs, nil
}

// GetDocument 讀取單一文件，已刪除視為不存在
func (uc *documentUseCase) GetDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	if documentID == "" {
		return nil, errprocess.Validation("document id is required")
	}
	doc, err := uc.repo.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errprocess.NotFound("document %s not found", documentID)
		}
		return nil, errprocess.Set(errprocess.Remote(err, "load document %s", documentID))
	}
	return doc, nil
}

// ShareDocument 以 userIDs 取代分享名單
func (uc *documentUseCase) ShareDocument(ctx context.Context, documentID string, userIDs []string) error {
	if documentID == "" {
		return errprocess.Validation("document id is required")
	}

	shared := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		id = strings.TrimSpace(id)
		if id != "" && !pkg.Contains(shared, id) {
			shared = append(shared, id)
		}
	}

	if err := uc.repo.UpdateSharedWith(ctx, documentID, shared); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errprocess.NotFound("document %s not found", documentID)
		}
		return errprocess.Set(errprocess.Remote(err, "share document %s", documentID))
	}
	return nil
}

// DeleteDocument 軟刪除，檔案保留在 MinIO
func (uc *documentUseCase) DeleteDocument(ctx context.Context, documentID string) error {
	if documentID == "" {
		return errprocess.Validation("document id is required")
	}
	if err := uc.repo.SoftDelete(ctx, documentID, uc.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errprocess.NotFound("document %s not found", documentID)
		}
		return errprocess.Set(errprocess.Remote(err, "delete document %s", documentID))
	}
	return nil
}

// SignDocument 上傳簽名圖檔、寫入簽名紀錄並標記文件已簽署
func (uc *documentUseCase) SignDocument(ctx context.Context, req domain.SignDocumentReq) (*domain.Signature, error) {
	// 1. 檢查參數
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	contentType, image, err := decodeDataURL(req.Signature)
	if err != nil {
		return nil, err
	}

	doc, err := uc.repo.FindByID(ctx, req.DocumentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errprocess.NotFound("document %s not found", req.DocumentID)
		}
		return nil, errprocess.Set(errprocess.Remote(err, "load document %s", req.DocumentID))
	}
	if doc.Status == domain.StatusSigned {
		return nil, errprocess.Conflict("document %s already signed", req.DocumentID)
	}

	// 2. 上傳簽名圖檔
	sig := &domain.Signature{
		ID:          uuid.New().String(),
		DocumentID:  req.DocumentID,
		SignerID:    req.SignerID,
		SignerName:  req.SignerName,
		SignedAt:    uc.now(),
		IPAddress:   req.IPAddress,
		UserAgent:   req.UserAgent,
		Fingerprint: encrypt.Fingerprint(image),
	}
	sig.ObjectKey = fmt.Sprintf("signatures/%s/%s", sig.DocumentID, sig.ID)
	if err := uc.blob.UploadObject(ctx, sig.ObjectKey, bytes.NewReader(image), int64(len(image)), contentType); err != nil {
		return nil, errprocess.Set(errprocess.Remote(err, "upload signature of %s", req.DocumentID))
	}

	// 3. 寫入簽名並更新文件狀態
	if err := uc.repo.SaveSignature(ctx, sig); err != nil {
		uc.removeObject(sig.ObjectKey)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, errprocess.NotFound("document %s not found", req.DocumentID)
		case errors.Is(err, repository.ErrAlreadySigned):
			return nil, errprocess.Conflict("document %s already signed", req.DocumentID)
		}
		return nil, errprocess.Set(errprocess.Remote(err, "save signature of %s", req.DocumentID))
	}

	// 4. 事件失敗不影響簽署結果
	uc.publishSigned(doc, sig)
	return sig, nil
}

// VerifySignature 文件已簽署且簽名圖檔與紀錄的指紋一致
func (uc *documentUseCase) VerifySignature(ctx context.Context, documentID string) (bool, error) {
	if documentID == "" {
		return false, errprocess.Validation("document id is required")
	}

	doc, err := uc.repo.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, errprocess.Set(errprocess.Remote(err, "load document %s", documentID))
	}
	if doc.Status != domain.StatusSigned || doc.SignatureID == "" {
		return false, nil
	}

	sig, err := uc.repo.FindSignature(ctx, doc.SignatureID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, errprocess.Set(errprocess.Remote(err, "load signature %s", doc.SignatureID))
	}

	image, err := uc.blob.GetObject(ctx, sig.ObjectKey)
	if err != nil {
		return false, errprocess.Set(errprocess.Remote(err, "read signature %s", sig.ObjectKey))
	}
	if err := encrypt.VerifyFingerprint(image, sig.Fingerprint); err != nil {
		logger.Log.Warn("signature fingerprint mismatch", zap.String("documentID", documentID), zap.String("signatureID", sig.ID))
		return false, nil
	}
	return true, nil
}

func (uc *documentUseCase) publishSigned(doc *domain.Document, sig *domain.Signature) {
	if uc.events == nil {
		return
	}

	value, err := json.Marshal(domain.SignedEvent{
		DocumentID:  doc.ID,
		SignatureID: sig.ID,
		SignerID:    sig.SignerID,
		SignerName:  sig.SignerName,
		UploadedBy:  doc.UploadedBy,
		Fingerprint: sig.Fingerprint,
		SignedAt:    sig.SignedAt,
	})
	if err != nil {
		logger.Log.Errorf("marshal signed event", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := uc.events.WriteMessages(ctx, kafka.Message{Key: []byte(doc.ID), Value: value}); err != nil {
		logger.Log.Error("publish signed event", zap.String("documentID", doc.ID), zap.Error(err))
	}
}

func (uc *documentUseCase) removeObject(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := uc.blob.RemoveObject(ctx, key); err != nil {
		logger.Log.Error("remove orphan object", zap.String("key", key), zap.Error(err))
	}
}

// decodeDataURL 解析 data:image/png;base64,... 格式的簽名
func decodeDataURL(s string) (string, []byte, error) {
	meta, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(meta, "data:") || !strings.HasSuffix(meta, ";base64") {
		return "", nil, errprocess.Validation("signature must be a base64 data url")
	}
	contentType := strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64")
	if !strings.HasPrefix(contentType, "image/") {
		return "", nil, errprocess.Validation("signature must be an image, got %q", contentType)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errprocess.Validation("signature is not valid base64")
	}
	if len(data) == 0 {
		return "", nil, errprocess.Validation("signature is empty")
	}
	if len(data) > domain.MaxSignatureSize {
		return "", nil, errprocess.Validation("signature exceeds %dKB", domain.MaxSignatureSize>>10)
	}
	return contentType, data, nil
}
