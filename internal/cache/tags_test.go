package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisTagsMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisTags(client, time.Minute)

	mock.ExpectGet(KeyTags).RedisNil()

	tags, ok, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisTagsHit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisTags(client, time.Minute)

	mock.ExpectGet(KeyTags).SetVal(`["dragons","training"]`)

	tags, ok, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"dragons", "training"}, tags)
}

func TestRedisTagsEmptyListIsAHit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisTags(client, time.Minute)

	mock.ExpectGet(KeyTags).SetVal(`[]`)

	tags, ok, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{}, tags)
}

func TestRedisTagsError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisTags(client, time.Minute)

	mock.ExpectGet(KeyTags).SetErr(errors.New("connection refused"))

	_, ok, err := c.Get(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisTagsSetAndInvalidate(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisTags(client, 5*time.Minute)

	mock.ExpectSet(KeyTags, `["dragons"]`, 5*time.Minute).SetVal("OK")
	mock.ExpectDel(KeyTags).SetVal(1)

	require.NoError(t, c.Set(context.Background(), []string{"dragons"}))
	require.NoError(t, c.Invalidate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocalTagsExpire(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLocalTags(time.Minute)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, []string{"dragons"}))
	tags, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"dragons"}, tags)

	now = now.Add(time.Minute)
	_, ok, err = c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalTagsInvalidate(t *testing.T) {
	c := NewLocalTags(time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, []string{"dragons"}))
	require.NoError(t, c.Invalidate(ctx))

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
