package domain

// Action websocket request action
type Action string

const (
	// OpenConversation websocket action open_conversation
	OpenConversation Action = "open_conversation"
	// SubscribeConversations websocket action subscribe_conversations
	SubscribeConversations Action = "subscribe_conversations"
	// SubscribeMessages websocket action subscribe_messages
	SubscribeMessages Action = "subscribe_messages"
	// Unsubscribe websocket action unsubscribe
	Unsubscribe Action = "unsubscribe"
	// SendMessage websocket action send_message
	SendMessage Action = "send_message"
	// ReadConversation websocket action read_conversation
	ReadConversation Action = "read_conversation"
	// GetUnread websocket action get_unread
	GetUnread Action = "get_unread"

	// NotifyConversations push conversation list snapshot
	NotifyConversations Action = "conversations"
	// NotifyMessages push message list snapshot
	NotifyMessages Action = "messages"
	// NotifyError push subscription error
	NotifyError Action = "subscription_error"
)

// WSAttachment base64 encoded attachment in a websocket request
type WSAttachment struct {
	Name        string `json:"name"`
	ContentType string `json:"type"`
	Data        string `json:"data"`
}

// WSRequest websocket Request
type WSRequest struct {
	Action         string         `json:"action"`
	RequestID      string         `json:"request_id,omitempty"`
	ConversationID string         `json:"conversation_id"`
	ParticipantID  string         `json:"participant_id"`
	Content        string         `json:"content"`
	Attachments    []WSAttachment `json:"attachments"`
	IdempotencyKey string         `json:"idempotency_key"`
	SubscriptionID string         `json:"subscription_id"`
}

// WSResponse websocket Response
type WSResponse struct {
	Action    string                 `json:"action"`
	RequestID string                 `json:"request_id,omitempty"`
	Success   bool                   `json:"success"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Error     string                 `json:"error,omitempty"`
	ErrorKind string                 `json:"error_kind,omitempty"`
}
