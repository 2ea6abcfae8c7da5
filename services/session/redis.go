package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"meetbot/models"

	"github.com/go-redis/redis/v8"
)

const sessionPrefix = "meetbot:session:"

// RedisStore keeps sessions as JSON in Redis with a sliding TTL. Mutate is
// serialized per identity within this process.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	keys   *KeyedMutex
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, keys: NewKeyedMutex()}
}

func (s *RedisStore) GetOrCreate(ctx context.Context, identity string) (*models.Session, error) {
	sess, err := s.load(ctx, identity)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		return sess, nil
	}

	sess = models.NewSession()
	b, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	// SETNX so a concurrent first contact does not clobber a session created meanwhile.
	created, err := s.client.SetNX(ctx, sessionPrefix+identity, b, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	if !created {
		return s.GetOrCreate(ctx, identity)
	}
	return sess, nil
}

func (s *RedisStore) Replace(ctx context.Context, identity string, sess *models.Session) error {
	if sess == nil {
		sess = models.NewSession()
	}
	sess.UpdatedAt = time.Now()

	unlock := s.keys.Lock(identity)
	defer unlock()
	return s.save(ctx, identity, sess)
}

func (s *RedisStore) Mutate(ctx context.Context, identity string, fn func(*models.Session) error) error {
	unlock := s.keys.Lock(identity)
	defer unlock()

	sess, err := s.GetOrCreate(ctx, identity)
	if err != nil {
		return err
	}
	if err := fn(sess); err != nil {
		return err
	}
	sess.UpdatedAt = time.Now()
	return s.save(ctx, identity, sess)
}

// Clear removes the identity's session.
func (s *RedisStore) Clear(ctx context.Context, identity string) error {
	return s.client.Del(ctx, sessionPrefix+identity).Err()
}

func (s *RedisStore) load(ctx context.Context, identity string) (*models.Session, error) {
	data, err := s.client.Get(ctx, sessionPrefix+identity).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	var sess models.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) save(ctx context.Context, identity string, sess *models.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionPrefix+identity, b, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}
