package domain

import "io"

// ChatMessage 表示一則聊天訊息
// 同一對話內以 (Timestamp, Seq) 排序，只有 Read 會被更新
type ChatMessage struct {
	ID             string       `bson:"_id" json:"id"`
	ConversationID string       `bson:"conversation_id" json:"conversation_id"`
	SenderID       string       `bson:"sender_id" json:"sender_id"`
	SenderName     string       `bson:"sender_name" json:"sender_name"`
	Content        string       `bson:"content" json:"content"`
	Timestamp      int64        `bson:"timestamp" json:"timestamp"` // unix ms，由 server 指定
	Seq            int64        `bson:"seq" json:"seq"`
	Read           bool         `bson:"read" json:"read"`
	Attachments    []Attachment `bson:"attachments" json:"attachments"`
	IdempotencyKey string       `bson:"idempotency_key,omitempty" json:"idempotency_key,omitempty"`
}

// Attachment 已上傳的附件
type Attachment struct {
	ID          string `bson:"id" json:"id"`
	Name        string `bson:"name" json:"name"`
	ContentType string `bson:"content_type" json:"type"`
	URL         string `bson:"url" json:"url"`
}

// AttachmentUpload 待上傳的附件
type AttachmentUpload struct {
	Name        string    `validate:"required"`
	ContentType string    `validate:"required"`
	Size        int64     `validate:"gte=0"`
	Reader      io.Reader `validate:"required"`
}

// SendMessageReq 送出訊息參數
type SendMessageReq struct {
	ConversationID string             `validate:"required"`
	SenderID       string             `validate:"required"`
	SenderName     string             `validate:"required"`
	Content        string             `validate:"max=10000"`
	Attachments    []AttachmentUpload `validate:"dive"`
	IdempotencyKey string             `validate:"omitempty,max=128"`
}

// AttachmentKey minio object key of a message attachment
func AttachmentKey(conversationID, fileID, name string) string {
	return "messages/" + conversationID + "/" + fileID + "-" + name
}
