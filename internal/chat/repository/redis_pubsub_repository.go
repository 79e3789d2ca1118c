package repository

import (
	"context"
	"encoding/json"
	"sync"

	"legal_consult_service/internal/chat/domain"
	"legal_consult_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// PubSub change stream，Subscribe 回傳時訂閱已生效
type PubSub interface {
	Publish(ctx context.Context, channel string, event domain.ChangeEvent) error
	Subscribe(ctx context.Context, channel string) (Listener, error)
}

// Listener 一個 channel 的訂閱，Events 在 Close 後或連線中斷時關閉
type Listener interface {
	Events() <-chan domain.ChangeEvent
	Close() error
}

// RedisPubSub definition redis pub/sub
type RedisPubSub struct {
	client *redis.Client
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{client: client}
}

// Publish 將 event 序列化後，發布到指定 channel
func (r *RedisPubSub) Publish(ctx context.Context, channel string, event domain.ChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, channel, data).Err()
}

// Subscribe 訂閱 channel，等待 redis 確認後才回傳
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string) (Listener, error) {
	sub := r.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, err
	}

	l := &redisListener{
		sub:    sub,
		events: make(chan domain.ChangeEvent, 16),
		done:   make(chan struct{}),
	}
	go l.loop(channel)
	return l, nil
}

type redisListener struct {
	sub    *redis.PubSub
	events chan domain.ChangeEvent
	done   chan struct{}
	once   sync.Once
	err    error
}

func (l *redisListener) loop(channel string) {
	defer close(l.events)
	ch := l.sub.Channel()

	for {
		select {
		case m, ok := <-ch:
			if !ok {
				return
			}

			var ev domain.ChangeEvent
			if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
				logger.Log.Error("decode change event", zap.String("channel", channel), zap.Error(err))
				continue
			}

			select {
			case l.events <- ev:
			case <-l.done:
				return
			}
		case <-l.done:
			logger.Log.Debug("sub close", zap.String("channel", channel))
			return
		}
	}
}

func (l *redisListener) Events() <-chan domain.ChangeEvent {
	return l.events
}

func (l *redisListener) Close() error {
	l.once.Do(func() {
		close(l.done)
		l.err = l.sub.Close()
	})
	return l.err
}
