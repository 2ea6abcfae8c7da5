package directory

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	membersKey = "meetbot:participants:set"
	orderKey   = "meetbot:participants:list"
)

// RedisDirectory stores membership in a set and insertion order in a list.
type RedisDirectory struct {
	client *redis.Client
}

func NewRedisDirectory(client *redis.Client) *RedisDirectory {
	return &RedisDirectory{client: client}
}

// Seed adds every email, ignoring ones already present.
func (d *RedisDirectory) Seed(ctx context.Context, emails ...string) error {
	for _, email := range emails {
		if _, err := d.AddParticipant(ctx, email); err != nil {
			return err
		}
	}
	return nil
}

func (d *RedisDirectory) AddParticipant(ctx context.Context, email string) (bool, error) {
	added, err := d.client.SAdd(ctx, membersKey, email).Result()
	if err != nil {
		return false, fmt.Errorf("failed to add participant: %w", err)
	}
	if added == 0 {
		return false, nil
	}
	// SADD decides membership, so only one caller ever appends a given email.
	if err := d.client.RPush(ctx, orderKey, email).Err(); err != nil {
		return false, fmt.Errorf("failed to record participant order: %w", err)
	}
	return true, nil
}

func (d *RedisDirectory) List(ctx context.Context) ([]string, error) {
	emails, err := d.client.LRange(ctx, orderKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return emails, nil
}
