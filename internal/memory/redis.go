package memory

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"neuroflow/pkg"
)

const redisKeyPrefix = "intake:mem:"

// RedisStore keeps each session's long-term items in a Redis list keyed
// "intake:mem:{session}".  Context is the ordered items joined by newlines,
// so it grows monotonically within a session.
type RedisStore struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedisStore constructs a RedisStore from an existing client.  The caller
// owns the client lifecycle.
func NewRedisStore(client *redis.Client, log *zap.Logger) *RedisStore {
	return &RedisStore{client: client, log: log}
}

func redisKey(sessionID string) string { return redisKeyPrefix + sessionID }

// GetContext returns all stored items for the session, oldest first, joined
// by newlines.
func (s *RedisStore) GetContext(ctx context.Context, sessionID string) (string, error) {
	items, err := s.client.LRange(ctx, redisKey(sessionID), 0, -1).Result()
	if err != nil {
		return "", err
	}
	return strings.Join(items, "\n"), nil
}

// Write appends each long-term item with one RPUSH per item, preserving
// input order.  Per-item failures are soft: logged, collected, and the
// remaining items still written.
func (s *RedisStore) Write(ctx context.Context, sessionID string, mc pkg.MemoryCandidates) error {
	if len(mc.LongTerm) == 0 {
		return nil
	}
	var failed int
	var errs error
	for _, item := range mc.LongTerm {
		if err := s.client.RPush(ctx, redisKey(sessionID), item).Err(); err != nil {
			failed++
			errs = errors.Join(errs, err)
			s.log.Warn("redis memory write failed",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	if failed > 0 {
		return &WriteError{SessionID: sessionID, Failed: failed, Err: errs}
	}
	return nil
}
