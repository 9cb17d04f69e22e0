package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// SessionRepository tracks issued refresh tokens so they can be revoked.
// Keys expire on their own once the refresh TTL passes.
type SessionRepository interface {
	Save(ctx context.Context, refreshToken, userID string, ttl time.Duration) error
	Resolve(ctx context.Context, refreshToken string) (string, error)
	Delete(ctx context.Context, refreshToken string) error
}

type redisSessionRepository struct {
	client *redis.Client
}

func NewRedisSessionRepository(client *redis.Client) SessionRepository {
	return &redisSessionRepository{client: client}
}

func (r *redisSessionRepository) Save(ctx context.Context, refreshToken, userID string, ttl time.Duration) error {
	return r.client.Set(ctx, refreshToken, userID, ttl).Err()
}

func (r *redisSessionRepository) Resolve(ctx context.Context, refreshToken string) (string, error) {
	userID, err := r.client.Get(ctx, refreshToken).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (r *redisSessionRepository) Delete(ctx context.Context, refreshToken string) error {
	deleted, err := r.client.Del(ctx, refreshToken).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}
