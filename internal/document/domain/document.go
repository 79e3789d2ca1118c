package domain

import (
	"io"
	"time"
)

// DocumentStatus 文件狀態
type DocumentStatus string

const (
	// StatusUploaded 已上傳，尚未簽署
	StatusUploaded DocumentStatus = "uploaded"
	// StatusSigned 已簽署
	StatusSigned DocumentStatus = "signed"
)

// MaxDocumentSize 單一文件上限 25MB
const MaxDocumentSize int64 = 25 << 20

// MaxSignatureSize 簽名圖檔上限
const MaxSignatureSize = 1 << 20

// AllowedContentTypes 可上傳的文件格式 pdf / doc / docx
var AllowedContentTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Document 上傳的文件
type Document struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ContentType string         `json:"type"`
	Size        int64          `json:"size"`
	ObjectKey   string         `json:"-"`
	URL         string         `json:"url"`
	UploadedBy  string         `json:"uploaded_by"`
	Folder      string         `json:"folder,omitempty"`
	SharedWith  []string       `json:"shared_with"`
	Status      DocumentStatus `json:"status"`
	SignatureID string         `json:"signature_id,omitempty"`
	SignedAt    *time.Time     `json:"signed_at,omitempty"`
	Deleted     bool           `json:"-"`
	DeletedAt   *time.Time     `json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Signature 簽名紀錄，Fingerprint 為簽名圖檔的 sha3-256
type Signature struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"document_id"`
	SignerID    string    `json:"signer_id"`
	SignerName  string    `json:"signer_name"`
	SignedAt    time.Time `json:"signed_at"`
	IPAddress   string    `json:"ip_address"`
	UserAgent   string    `json:"user_agent"`
	ObjectKey   string    `json:"-"`
	Fingerprint string    `json:"fingerprint"`
}

// SignedEvent 簽署完成後送往 kafka 的事件
type SignedEvent struct {
	DocumentID  string    `json:"document_id"`
	SignatureID string    `json:"signature_id"`
	SignerID    string    `json:"signer_id"`
	SignerName  string    `json:"signer_name"`
	UploadedBy  string    `json:"uploaded_by"`
	Fingerprint string    `json:"fingerprint"`
	SignedAt    time.Time `json:"signed_at"`
}

// UploadDocumentReq 上傳文件參數
type UploadDocumentReq struct {
	UserID      string    `validate:"required"`
	FileName    string    `validate:"required,max=255"`
	ContentType string    `validate:"required"`
	Size        int64     `validate:"gt=0"`
	Folder      string    `validate:"max=255"`
	Reader      io.Reader `validate:"required"`
}

// SignDocumentReq 簽署參數，Signature 為 data URL (data:image/png;base64,...)
type SignDocumentReq struct {
	DocumentID string `validate:"required"`
	SignerID   string `validate:"required"`
	SignerName string `validate:"required,max=255"`
	Signature  string `validate:"required"`
	IPAddress  string
	UserAgent  string
}
