package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AzielCF/az-console/infrastructure/valkey"
	"github.com/AzielCF/az-console/workspace/domain/workspace"
)

// ValkeyPageCache implements PageCache using Valkey. Each tag is a set holding
// the page keys that depend on it.
type ValkeyPageCache struct {
	client *valkey.Client
	ttl    time.Duration
	prefix string
	tagKey string
}

func NewValkeyPageCache(client *valkey.Client, ttl time.Duration) *ValkeyPageCache {
	return &ValkeyPageCache{
		client: client,
		ttl:    ttl,
		prefix: client.Key("wspage") + ":",
		tagKey: client.Key("wstag") + ":",
	}
}

func (s *ValkeyPageCache) Get(ctx context.Context, key string) (workspace.ListPage, bool, error) {
	cmd := s.client.Inner().B().Get().Key(s.prefix + key).Build()
	data, err := s.client.Inner().Do(ctx, cmd).AsBytes()
	if err != nil {
		if valkey.IsNil(err) {
			return workspace.ListPage{}, false, nil
		}
		return workspace.ListPage{}, false, fmt.Errorf("failed to get page from valkey: %w", err)
	}

	var page workspace.ListPage
	if err := json.Unmarshal(data, &page); err != nil {
		return workspace.ListPage{}, false, fmt.Errorf("failed to unmarshal page: %w", err)
	}
	return page, true, nil
}

func (s *ValkeyPageCache) Set(ctx context.Context, key string, page workspace.ListPage, tags []string) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to marshal page: %w", err)
	}

	inner := s.client.Inner()
	full := s.prefix + key
	set := inner.B().Set().Key(full).Value(string(data))
	var setErr error
	if s.ttl > 0 {
		setErr = inner.Do(ctx, set.Ex(s.ttl).Build()).Error()
	} else {
		setErr = inner.Do(ctx, set.Build()).Error()
	}
	if setErr != nil {
		return fmt.Errorf("failed to save page to valkey: %w", setErr)
	}

	for _, tag := range tags {
		tagKey := s.tagKey + tag
		if err := inner.Do(ctx, inner.B().Sadd().Key(tagKey).Member(full).Build()).Error(); err != nil {
			return fmt.Errorf("failed to tag page %s: %w", tag, err)
		}
		// a tag set outlives its newest page by at most one ttl
		if s.ttl > 0 {
			expire := inner.B().Expire().Key(tagKey).Seconds(tagTTLSeconds(s.ttl)).Build()
			if err := inner.Do(ctx, expire).Error(); err != nil {
				return fmt.Errorf("failed to expire cache tag %s: %w", tag, err)
			}
		}
	}
	return nil
}

// tagTTLSeconds rounds up so a sub-second ttl still expires the set.
func tagTTLSeconds(ttl time.Duration) int64 {
	secs := int64((ttl + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

func (s *ValkeyPageCache) Invalidate(ctx context.Context, tags ...string) error {
	inner := s.client.Inner()
	for _, tag := range tags {
		tagKey := s.tagKey + tag
		members, err := inner.Do(ctx, inner.B().Smembers().Key(tagKey).Build()).AsStrSlice()
		if err != nil && !valkey.IsNil(err) {
			return fmt.Errorf("failed to read cache tag %s: %w", tag, err)
		}
		keys := append(members, tagKey)
		if err := inner.Do(ctx, inner.B().Del().Key(keys...).Build()).Error(); err != nil {
			return fmt.Errorf("failed to invalidate cache tag %s: %w", tag, err)
		}
	}
	return nil
}
