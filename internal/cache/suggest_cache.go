package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	redisv9 "github.com/redis/go-redis/v9"

	"faqdesk/internal/model"
)

const defaultSuggestTTL = 2 * time.Minute

// RedisSuggestCache stores suggestion results per normalized query.
type RedisSuggestCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewRedisSuggestCache(client *redisv9.Client, ttl time.Duration) *RedisSuggestCache {
	if ttl <= 0 {
		ttl = defaultSuggestTTL
	}
	return &RedisSuggestCache{client: client, ttl: ttl}
}

func (c *RedisSuggestCache) Get(ctx context.Context, query string) ([]model.FAQ, bool, error) {
	raw, err := c.client.Get(ctx, suggestKey(query)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get suggestions failed: %w", err)
	}

	var items []model.FAQ
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached suggestions failed: %w", err)
	}
	return items, true, nil
}

func (c *RedisSuggestCache) Set(ctx context.Context, query string, items []model.FAQ) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal suggestions cache failed: %w", err)
	}
	if err := c.client.Set(ctx, suggestKey(query), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set suggestions failed: %w", err)
	}
	return nil
}

// MemorySuggestCache is a per-process cache bounded by size and age.
type MemorySuggestCache struct {
	entries *expirable.LRU[string, []model.FAQ]
}

func NewMemorySuggestCache(size int, ttl time.Duration) *MemorySuggestCache {
	if size <= 0 {
		size = 1024
	}
	if ttl <= 0 {
		ttl = defaultSuggestTTL
	}
	return &MemorySuggestCache{entries: expirable.NewLRU[string, []model.FAQ](size, nil, ttl)}
}

func (c *MemorySuggestCache) Get(_ context.Context, query string) ([]model.FAQ, bool, error) {
	items, ok := c.entries.Get(suggestKey(query))
	return items, ok, nil
}

func (c *MemorySuggestCache) Set(_ context.Context, query string, items []model.FAQ) error {
	c.entries.Add(suggestKey(query), items)
	return nil
}

func suggestKey(query string) string {
	return "faq:suggest:" + strings.ToLower(strings.TrimSpace(query))
}
