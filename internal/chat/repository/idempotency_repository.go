package repository

import (
	"context"
	"errors"
	"time"

	"legal_consult_service/pkg/database"
)

// pendingSend 佔位值，代表同一個 key 的送出還在進行中
const pendingSend = ""

// IdempotencyRepository 以 caller 提供的 key 去除重複送出
type IdempotencyRepository interface {
	// Claim 搶到 key 回傳 true；已存在時回傳 false 與已完成的 message id（進行中為空字串）
	Claim(ctx context.Context, senderID, key string, ttl time.Duration) (bool, string, error)
	Complete(ctx context.Context, senderID, key, messageID string, ttl time.Duration) error
	Release(ctx context.Context, senderID, key string) error
}

type idempotencyRepository struct {
	store database.RedisRepository[string]
}

// NewIdempotencyRepository create IdempotencyRepository on redis
func NewIdempotencyRepository(store database.RedisRepository[string]) IdempotencyRepository {
	return &idempotencyRepository{store: store}
}

func idempotencyKey(senderID, key string) string {
	return "chat:idem:" + senderID + ":" + key
}

func (r *idempotencyRepository) Claim(ctx context.Context, senderID, key string, ttl time.Duration) (bool, string, error) {
	k := idempotencyKey(senderID, key)
	ok, err := r.store.SetNX(ctx, k, pendingSend, ttl)
	if err != nil || ok {
		return ok, "", err
	}

	msgID, err := r.store.Get(ctx, k)
	if errors.Is(err, database.ErrRedisNil) {
		// 剛好過期，再搶一次
		ok, err = r.store.SetNX(ctx, k, pendingSend, ttl)
		return ok, "", err
	}
	if err != nil {
		return false, "", err
	}
	return false, msgID, nil
}

func (r *idempotencyRepository) Complete(ctx context.Context, senderID, key, messageID string, ttl time.Duration) error {
	return r.store.Set(ctx, idempotencyKey(senderID, key), messageID, ttl)
}

func (r *idempotencyRepository) Release(ctx context.Context, senderID, key string) error {
	return r.store.Del(ctx, idempotencyKey(senderID, key))
}
