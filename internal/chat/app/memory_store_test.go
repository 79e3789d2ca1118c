package app

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"legal_consult_service/internal/chat/domain"
	"legal_consult_service/internal/chat/repository"
	"legal_consult_service/pkg"
)

// memStore 記憶體版的 conversations / messages，行為對齊 mongo repository
type memStore struct {
	mu       sync.Mutex
	convs    map[string]*domain.Conversation
	msgs     map[string][]*domain.ChatMessage
	counters map[string]struct{ seq, ts int64 }

	insertErr error
}

func newMemStore() *memStore {
	return &memStore{
		convs:    make(map[string]*domain.Conversation),
		msgs:     make(map[string][]*domain.ChatMessage),
		counters: make(map[string]struct{ seq, ts int64 }),
	}
}

func copyMessage(m *domain.ChatMessage) *domain.ChatMessage {
	c := *m
	c.Attachments = append([]domain.Attachment{}, m.Attachments...)
	return &c
}

func copyConversation(c *domain.Conversation) domain.Conversation {
	out := *c
	out.Participants = append([]string{}, c.Participants...)
	out.UnreadCount = make(map[string]int, len(c.UnreadCount))
	for k, v := range c.UnreadCount {
		out.UnreadCount[k] = v
	}
	if c.LastMessage != nil {
		out.LastMessage = copyMessage(c.LastMessage)
	}
	return out
}

func (s *memStore) seed(conv *domain.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv.UnreadCount == nil {
		conv.UnreadCount = map[string]int{}
	}
	s.convs[conv.ID] = conv
}

func (s *memStore) messages(conversationID string) []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChatMessage, 0, len(s.msgs[conversationID]))
	for _, m := range s.msgs[conversationID] {
		out = append(out, *copyMessage(m))
	}
	return out
}

func (s *memStore) conversation(id string) *domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok {
		return nil
	}
	out := copyConversation(c)
	return &out
}

type memConversationRepo struct{ s *memStore }

func (r memConversationRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (r memConversationRepo) Create(ctx context.Context, conv *domain.Conversation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.convs {
		if c.PairKey == conv.PairKey {
			return repository.ErrConversationExists
		}
	}
	c := copyConversation(conv)
	r.s.convs[conv.ID] = &c
	return nil
}

func (r memConversationRepo) FindByID(ctx context.Context, id string) (*domain.Conversation, error) {
	return r.s.conversation(id), nil
}

func (r memConversationRepo) FindPrivate(ctx context.Context, a, b string) (*domain.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := domain.PairKey(a, b)
	for _, c := range r.s.convs {
		if c.PairKey == key {
			out := copyConversation(c)
			return &out, nil
		}
	}
	return nil, nil
}

func (r memConversationRepo) FindByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.Conversation{}
	for _, c := range r.s.convs {
		if c.HasParticipant(userID) {
			out = append(out, copyConversation(c))
		}
	}
	return out, nil
}

func (r memConversationRepo) UpdateLastMessage(ctx context.Context, msg *domain.ChatMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.convs[msg.ConversationID]
	if !ok {
		return nil
	}
	if c.LastMessage == nil || c.LastMessage.Seq < msg.Seq {
		c.LastMessage = copyMessage(msg)
		if msg.Timestamp > c.UpdatedAt {
			c.UpdatedAt = msg.Timestamp
		}
	}
	return nil
}

func (r memConversationRepo) IncrementUnread(ctx context.Context, id string, userIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.convs[id]; ok {
		for _, u := range userIDs {
			c.UnreadCount[u]++
		}
	}
	return nil
}

func (r memConversationRepo) MarkLastMessageRead(ctx context.Context, lastMessageIDs map[string]string, readerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, msgID := range lastMessageIDs {
		c, ok := r.s.convs[id]
		if !ok || c.LastMessage == nil || c.LastMessage.ID != msgID || c.LastMessage.SenderID == readerID {
			continue
		}
		c.LastMessage.Read = true
		c.UnreadCount[readerID] = 0
	}
	return nil
}

func (r memConversationRepo) ResetUnread(ctx context.Context, id, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.convs[id]; ok {
		c.UnreadCount[userID] = 0
	}
	return nil
}

type memMessageRepo struct{ s *memStore }

func (r memMessageRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (r memMessageRepo) Insert(ctx context.Context, msg *domain.ChatMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.insertErr != nil {
		return r.s.insertErr
	}
	pos := r.s.counters[msg.ConversationID]
	pos.seq++
	if now := pkg.NowMilli(); now > pos.ts {
		pos.ts = now
	}
	r.s.counters[msg.ConversationID] = pos

	msg.Seq = pos.seq
	msg.Timestamp = pos.ts
	if msg.Attachments == nil {
		msg.Attachments = []domain.Attachment{}
	}
	r.s.msgs[msg.ConversationID] = append(r.s.msgs[msg.ConversationID], copyMessage(msg))
	return nil
}

func (r memMessageRepo) FindByID(ctx context.Context, id string) (*domain.ChatMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, list := range r.s.msgs {
		for _, m := range list {
			if m.ID == id {
				return copyMessage(m), nil
			}
		}
	}
	return nil, nil
}

func (r memMessageRepo) FindByConversation(ctx context.Context, id string) ([]domain.ChatMessage, error) {
	return r.s.messages(id), nil
}

func (r memMessageRepo) MarkRead(ctx context.Context, ids []string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, list := range r.s.msgs {
		for _, m := range list {
			if !m.Read && pkg.Contains(ids, m.ID) {
				m.Read = true
				n++
			}
		}
	}
	return n, nil
}

func (r memMessageRepo) MarkConversationRead(ctx context.Context, id, readerID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, m := range r.s.msgs[id] {
		if !m.Read && m.SenderID != readerID {
			m.Read = true
			n++
		}
	}
	return n, nil
}

// memPubSub 事件滿了就丟，訂閱端本來就會合併事件重新查詢
type memPubSub struct {
	mu        sync.Mutex
	listeners map[string][]*memListener
}

func newMemPubSub() *memPubSub {
	return &memPubSub{listeners: make(map[string][]*memListener)}
}

func (p *memPubSub) Publish(ctx context.Context, channel string, ev domain.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, l := range p.listeners[channel] {
		l.send(ev)
	}
	return nil
}

func (p *memPubSub) Subscribe(ctx context.Context, channel string) (repository.Listener, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l := &memListener{events: make(chan domain.ChangeEvent, 16)}
	p.listeners[channel] = append(p.listeners[channel], l)
	return l, nil
}

func (p *memPubSub) subscribers(channel string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, l := range p.listeners[channel] {
		if !l.isClosed() {
			n++
		}
	}
	return n
}

type memListener struct {
	mu     sync.Mutex
	events chan domain.ChangeEvent
	closed bool
}

func (l *memListener) send(ev domain.ChangeEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	select {
	case l.events <- ev:
	default:
	}
}

func (l *memListener) Events() <-chan domain.ChangeEvent { return l.events }

func (l *memListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		close(l.events)
	}
	return nil
}

func (l *memListener) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

type memIdempotency struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{keys: make(map[string]string)}
}

func (m *memIdempotency) Claim(ctx context.Context, senderID, key string, ttl time.Duration) (bool, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := senderID + ":" + key
	if v, ok := m.keys[k]; ok {
		return false, v, nil
	}
	m.keys[k] = ""
	return true, "", nil
}

func (m *memIdempotency) Complete(ctx context.Context, senderID, key, messageID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[senderID+":"+key] = messageID
	return nil
}

func (m *memIdempotency) Release(ctx context.Context, senderID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, senderID+":"+key)
	return nil
}

type memBlob struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemBlob() *memBlob {
	return &memBlob{objects: make(map[string][]byte)}
}

func (b *memBlob) UploadObject(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[name] = data
	return nil
}

func (b *memBlob) GetObject(ctx context.Context, name string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.objects[name]), nil
}

func (b *memBlob) RemoveObject(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, name)
	return nil
}

func (b *memBlob) PresignGetURL(ctx context.Context, name string, expiry time.Duration) (string, error) {
	return "http://minio.local/" + name, nil
}

type chatFixture struct {
	store  *memStore
	pubsub *memPubSub
	idem   *memIdempotency
	blob   *memBlob
	uc     *MessageUseCase
}

func newChatFixture() *chatFixture {
	f := &chatFixture{
		store:  newMemStore(),
		pubsub: newMemPubSub(),
		idem:   newMemIdempotency(),
		blob:   newMemBlob(),
	}
	f.uc = NewMessageUseCase(
		memConversationRepo{f.store},
		memMessageRepo{f.store},
		f.pubsub,
		f.idem,
		f.blob,
		Options{},
	)
	return f
}
