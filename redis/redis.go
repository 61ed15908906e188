package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rukhmanov/kwadro-backend/config"
)

type RedisClient struct {
	Client *redis.Client
}

func NewRedisClient(cfg *config.RedisConfig) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("redis client connection test failed: %w", err)
	}

	return &RedisClient{Client: client}, nil
}

func (r *RedisClient) Close() error {
	return r.Client.Close()
}

func presenceKey(sessionID string) string {
	return fmt.Sprintf("chat:session:%s:online", sessionID)
}

// AddOnline records a live connection in the session's presence hash. Keys
// expire so crashed processes do not leave ghosts forever.
func (r *RedisClient) AddOnline(ctx context.Context, sessionID, connID string) error {
	key := presenceKey(sessionID)
	if err := r.Client.HSet(ctx, key, connID, time.Now().Unix()).Err(); err != nil {
		return err
	}
	return r.Client.Expire(ctx, key, 24*time.Hour).Err()
}

func (r *RedisClient) RemoveOnline(ctx context.Context, sessionID, connID string) error {
	return r.Client.HDel(ctx, presenceKey(sessionID), connID).Err()
}

// CountOnline reports how many live connections watch the session.
func (r *RedisClient) CountOnline(ctx context.Context, sessionID string) (int64, error) {
	return r.Client.HLen(ctx, presenceKey(sessionID)).Result()
}
