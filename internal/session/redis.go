package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	json "github.com/goccy/go-json"
)

const keyPrefix = "memobot:session:"

// RedisStore keeps sessions in Redis so they survive restarts.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to the Redis instance at url (redis://host:port/db)
// and checks it is reachable.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("session: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("session: connect redis: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (r *RedisStore) Load(ctx context.Context, userID string) (Session, error) {
	data, err := r.client.Get(ctx, key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{UserID: userID, State: Idle}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("session: load %s: %w", userID, err)
	}
	return decode(userID, data), nil
}

func (r *RedisStore) Save(ctx context.Context, s Session) error {
	if s.State == Idle {
		return r.Clear(ctx, s.UserID)
	}
	s.UpdatedAt = time.Now()
	data, err := encode(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key(s.UserID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("session: save %s: %w", s.UserID, err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("session: clear %s: %w", userID, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func key(userID string) string {
	return keyPrefix + userID
}

func encode(s Session) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("session: encode %s: %w", s.UserID, err)
	}
	return data, nil
}

// decode treats a corrupt entry as no session so a bad write cannot lock a
// user out of the bot.
func decode(userID string, data []byte) Session {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil || s.UserID != userID {
		return Session{UserID: userID, State: Idle}
	}
	return s
}
