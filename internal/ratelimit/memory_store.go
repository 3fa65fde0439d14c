package ratelimit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const memoryShards = 16

// MemoryStore keeps hit timestamps in LRU-bounded shards. When a shard is
// full the least recently used key is forgotten.
type MemoryStore struct {
	shards [memoryShards]*memoryShard
}

type memoryShard struct {
	mu   sync.Mutex
	hits *lru.Cache[string, []time.Time]
}

func NewMemoryStore(maxKeys int) (*MemoryStore, error) {
	perShard := maxKeys / memoryShards
	if perShard < 1 {
		perShard = 1
	}
	s := &MemoryStore{}
	for i := range s.shards {
		cache, err := lru.New[string, []time.Time](perShard)
		if err != nil {
			return nil, err
		}
		s.shards[i] = &memoryShard{hits: cache}
	}
	return s, nil
}

func (s *MemoryStore) Hit(_ context.Context, key string, limit int, window time.Duration, now time.Time) (Decision, error) {
	shard := s.shard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	prev, _ := shard.hits.Get(key)
	kept := make([]time.Time, 0, len(prev)+1)
	for _, t := range prev {
		if now.Sub(t) < window {
			kept = append(kept, t)
		}
	}

	if len(kept) >= limit {
		shard.hits.Add(key, kept)
		return Decision{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: kept[0].Add(window).Sub(now),
		}, nil
	}

	kept = append(kept, now)
	shard.hits.Add(key, kept)
	return Decision{Allowed: true, Remaining: limit - len(kept)}, nil
}

// Len reports the number of tracked keys.
func (s *MemoryStore) Len() int {
	n := 0
	for _, shard := range s.shards {
		shard.mu.Lock()
		n += shard.hits.Len()
		shard.mu.Unlock()
	}
	return n
}

func (s *MemoryStore) shard(key string) *memoryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%memoryShards]
}
