// Package cache holds the global tag list outside the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mdobak/go-xerrors"
	"github.com/redis/go-redis/v9"
	"github.com/siahsang/conduit/internal/core"
	"github.com/siahsang/conduit/internal/utils/collectionutils"
)

const KeyTags = "conduit:tags"

// RedisTags stores the tag list as one JSON encoded value with a TTL.
type RedisTags struct {
	client *redis.Client
	ttl    time.Duration
}

var _ core.TagCache = (*RedisTags)(nil)

func NewRedisTags(client *redis.Client, ttl time.Duration) *RedisTags {
	return &RedisTags{client: client, ttl: ttl}
}

func (c *RedisTags) Get(ctx context.Context) ([]string, bool, error) {
	data, err := c.client.Get(ctx, KeyTags).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, xerrors.New(err)
	}

	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return nil, false, xerrors.New(err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, true, nil
}

func (c *RedisTags) Set(ctx context.Context, tags []string) error {
	data, err := json.Marshal(tags)
	if err != nil {
		return xerrors.New(err)
	}
	if err := c.client.Set(ctx, KeyTags, string(data), c.ttl).Err(); err != nil {
		return xerrors.New(err)
	}
	return nil
}

func (c *RedisTags) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, KeyTags).Err(); err != nil {
		return xerrors.New(err)
	}
	return nil
}

type localEntry struct {
	tags    []string
	expires time.Time
}

// LocalTags keeps the tag list in process memory. It only suits a single
// instance, since other instances never see its invalidations.
type LocalTags struct {
	entries *collectionutils.SafeMap[string, localEntry]
	ttl     time.Duration
	now     func() time.Time
}

var _ core.TagCache = (*LocalTags)(nil)

func NewLocalTags(ttl time.Duration) *LocalTags {
	return &LocalTags{
		entries: collectionutils.NewSafeMap[string, localEntry](),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *LocalTags) expired(e localEntry) bool {
	return !c.now().Before(e.expires)
}

func (c *LocalTags) Get(_ context.Context) ([]string, bool, error) {
	e, ok := c.entries.Get(KeyTags)
	if !ok {
		return nil, false, nil
	}
	if c.expired(e) {
		c.entries.DeleteIf(KeyTags, c.expired)
		return nil, false, nil
	}
	return append([]string{}, e.tags...), true, nil
}

func (c *LocalTags) Set(_ context.Context, tags []string) error {
	c.entries.Store(KeyTags, localEntry{
		tags:    append([]string{}, tags...),
		expires: c.now().Add(c.ttl),
	})
	return nil
}

func (c *LocalTags) Invalidate(_ context.Context) error {
	c.entries.Delete(KeyTags)
	return nil
}
