package session

import (
	"context"
	"testing"
	"time"

	"meetbot/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, time.Hour), mr
}

func TestRedisStore_Lifecycle(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	sess, err := s.GetOrCreate(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, models.StepMainMenu, sess.Step)
	assert.True(t, mr.Exists(sessionPrefix+"U1"))

	require.NoError(t, s.Mutate(ctx, "U1", func(sess *models.Session) error {
		sess.Step = models.StepEnterName
		sess.Draft = &models.MeetingDraft{}
		return nil
	}))
	require.NoError(t, s.Mutate(ctx, "U1", func(sess *models.Session) error {
		sess.Draft.Name = "Sprint Review"
		sess.Step = models.StepSelectDate
		return nil
	}))

	sess, err = s.GetOrCreate(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, models.StepSelectDate, sess.Step)
	require.NotNil(t, sess.Draft)
	assert.Equal(t, "Sprint Review", sess.Draft.Name)

	require.NoError(t, s.Replace(ctx, "U1", models.NewSession()))
	sess, err = s.GetOrCreate(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, models.StepMainMenu, sess.Step)
	assert.Nil(t, sess.Draft)
}

func TestRedisStore_TTL(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	_, err := s.GetOrCreate(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL(sessionPrefix+"U1"))

	mr.FastForward(2 * time.Hour)
	assert.False(t, mr.Exists(sessionPrefix+"U1"))
}

func TestRedisStore_CorruptPayload(t *testing.T) {
	s, mr := newTestRedisStore(t)
	require.NoError(t, mr.Set(sessionPrefix+"U1", "{not json"))

	_, err := s.GetOrCreate(context.Background(), "U1")
	assert.ErrorContains(t, err, "failed to parse session")
}

func TestRedisStore_Clear(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()
	_, err := s.GetOrCreate(ctx, "U1")
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx, "U1"))
	assert.False(t, mr.Exists(sessionPrefix+"U1"))
}
