package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"quill-server-go/internal/domain/session/model"
)

type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedis constructs a redis-backed credential store. Each user maps to one
// hash keyed by token string; per-record expiry lives inside the payload, so
// sweeping walks the hashes rather than relying on key TTLs.
func NewRedis(cfg Config) (Store, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis configuration missing")
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Redis.Prefix
	if prefix == "" {
		prefix = "session:credentials:"
	}
	return &redisStore{client: client, prefix: prefix}, nil
}

func (s *redisStore) key(userID uint) string {
	return s.prefix + strconv.FormatUint(uint64(userID), 10)
}

func (s *redisStore) Append(ctx context.Context, cred model.RefreshCredential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, s.key(cred.UserID), cred.Token, data).Err()
}

func (s *redisStore) Replace(ctx context.Context, userID uint, oldToken string, cred model.RefreshCredential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	key := s.key(userID)

	// WATCH makes the remove+append pair exclusive: if two rotations race on
	// the same token, the transaction of the loser aborts and retries into
	// the not-found branch.
	for attempt := 0; attempt < 3; attempt++ {
		err = s.client.Watch(ctx, func(tx *redis.Tx) error {
			exists, err := tx.HExists(ctx, key, oldToken).Result()
			if err != nil {
				return err
			}
			if !exists {
				return ErrNotFound
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HDel(ctx, key, oldToken)
				pipe.HSet(ctx, key, cred.Token, data)
				return nil
			})
			return err
		}, key)
		if err != redis.TxFailedErr {
			return err
		}
	}
	return err
}

func (s *redisStore) RemoveByToken(ctx context.Context, userID uint, token string) (bool, error) {
	removed, err := s.client.HDel(ctx, s.key(userID), token).Result()
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}

func (s *redisStore) ClearAll(ctx context.Context, userID uint) error {
	return s.client.Del(ctx, s.key(userID)).Err()
}

func (s *redisStore) ExistsWithToken(ctx context.Context, userID uint, token string) (bool, error) {
	_, ok, err := s.FindLive(ctx, userID, token)
	return ok, err
}

func (s *redisStore) FindLive(ctx context.Context, userID uint, token string) (model.RefreshCredential, bool, error) {
	raw, err := s.client.HGet(ctx, s.key(userID), token).Bytes()
	if err == redis.Nil {
		return model.RefreshCredential{}, false, nil
	}
	if err != nil {
		return model.RefreshCredential{}, false, err
	}
	var cred model.RefreshCredential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return model.RefreshCredential{}, false, err
	}
	if cred.Expired(time.Now()) {
		return model.RefreshCredential{}, false, nil
	}
	return cred, true, nil
}

func (s *redisStore) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	var removed int64
	var cursor uint64
	pattern := s.prefix + "*"
	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return removed, err
		}
		for _, key := range keys {
			fields, err := s.client.HGetAll(ctx, key).Result()
			if err != nil {
				return removed, err
			}
			expired := make([]string, 0)
			for token, raw := range fields {
				var cred model.RefreshCredential
				if err := json.Unmarshal([]byte(raw), &cred); err != nil || cred.Expired(now) {
					expired = append(expired, token)
				}
			}
			if len(expired) > 0 {
				n, err := s.client.HDel(ctx, key, expired...).Result()
				if err != nil {
					return removed, err
				}
				removed += n
			}
		}
		if nextCursor == 0 {
			break
		}
		cursor = nextCursor
	}
	return removed, nil
}

func (s *redisStore) Stats(ctx context.Context) (map[string]any, error) {
	size, err := s.client.DBSize(ctx).Result()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"type":  "redis",
		"users": size,
	}, nil
}

func (s *redisStore) Close(context.Context) error {
	return s.client.Close()
}
