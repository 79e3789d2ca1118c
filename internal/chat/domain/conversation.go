package domain

import (
	"sort"
	"strings"
)

// Conversation 兩位參與者之間的對話
// LastMessage 永遠是 timestamp 最大的訊息
type Conversation struct {
	ID           string         `bson:"_id" json:"id"`
	Participants []string       `bson:"participants" json:"participants"`
	PairKey      string         `bson:"pair_key" json:"-"`
	LastMessage  *ChatMessage   `bson:"last_message,omitempty" json:"last_message,omitempty"`
	UnreadCount  map[string]int `bson:"unread_count" json:"unread_count"`
	CreatedAt    int64          `bson:"created_at" json:"created_at"`
	UpdatedAt    int64          `bson:"updated_at" json:"updated_at"`
}

// PairKey 1 對 1 對話的唯一鍵，與參與者順序無關
func PairKey(a, b string) string {
	p := []string{a, b}
	sort.Strings(p)
	return strings.Join(p, "|")
}

// HasParticipant check user in conversation
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// ChangeKind 變更事件種類
type ChangeKind string

const (
	// ChangeMessage 新訊息
	ChangeMessage ChangeKind = "message"
	// ChangeRead 已讀狀態變更
	ChangeRead ChangeKind = "read"
	// ChangeConversation 對話建立
	ChangeConversation ChangeKind = "conversation"
)

// ChangeEvent 透過 pub/sub 通知訂閱者重新查詢
type ChangeEvent struct {
	Kind           ChangeKind `json:"kind"`
	ConversationID string     `json:"conversation_id"`
	MessageID      string     `json:"message_id,omitempty"`
}

// ConversationChannel pub/sub channel of a conversation
func ConversationChannel(conversationID string) string {
	return "chat:conversation:" + conversationID
}

// UserChannel pub/sub channel of a user
func UserChannel(userID string) string {
	return "chat:user:" + userID
}
