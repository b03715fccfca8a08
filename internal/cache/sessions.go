// Package cache holds the Redis-backed session token index.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionPrefix     = "session:"
	userSessionPrefix = "user_sessions:"
	opTimeout         = 5 * time.Second
)

// Open parses a redis:// URL and pings the server.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	opt.PoolSize = 100
	opt.MinIdleConns = 2
	opt.DialTimeout = 5 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

// RedisSessions maps session:<token> to a user ID and keeps a
// user_sessions:<id> set so every token of a user can be dropped at once.
type RedisSessions struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisSessions(client redis.Cmdable, ttl time.Duration) *RedisSessions {
	return &RedisSessions{client: client, ttl: ttl}
}

func (s *RedisSessions) Lookup(ctx context.Context, token string) (uuid.UUID, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	val, err := s.client.Get(ctx, sessionPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}

	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupt session entry: %w", err)
	}
	return id, true, nil
}

func (s *RedisSessions) Store(ctx context.Context, token string, userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	index := userSessionPrefix + userID.String()
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionPrefix+token, userID.String(), s.ttl)
	pipe.SAdd(ctx, index, token)
	pipe.Expire(ctx, index, s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisSessions) Forget(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	userID, err := s.client.Get(ctx, sessionPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.SRem(ctx, userSessionPrefix+userID, token)
	pipe.Del(ctx, sessionPrefix+token)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisSessions) ForgetUser(ctx context.Context, userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	index := userSessionPrefix + userID.String()
	tokens, err := s.client.SMembers(ctx, index).Result()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, sessionPrefix+t)
	}
	keys = append(keys, index)
	return s.client.Del(ctx, keys...).Err()
}
