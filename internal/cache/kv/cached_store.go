package kv

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	kvrepo "blockvibe/internal/gateway/repository/kv"
)

type Store = kvrepo.Store

type CacheConfig struct {
	MaxEntries int
	TTL        time.Duration
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MaxEntries: 256,
		TTL:        5 * time.Minute,
	}
}

type MetricsSnapshot struct {
	Hits           uint64
	Misses         uint64
	OriginReads    uint64
	OriginWrites   uint64
	OriginReadErr  uint64
	OriginWriteErr uint64
}

type Metrics struct {
	hits           atomic.Uint64
	misses         atomic.Uint64
	originReads    atomic.Uint64
	originWrites   atomic.Uint64
	originReadErr  atomic.Uint64
	originWriteErr atomic.Uint64
}

func (m *Metrics) snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		Hits:           m.hits.Load(),
		Misses:         m.misses.Load(),
		OriginReads:    m.originReads.Load(),
		OriginWrites:   m.originWrites.Load(),
		OriginReadErr:  m.originReadErr.Load(),
		OriginWriteErr: m.originWriteErr.Load(),
	}
}

// CachedStore is a read-through, write-through cache in front of a slow
// origin. Misses for absent keys are not cached.
type CachedStore struct {
	origin  Store
	cache   *expirable.LRU[string, []byte]
	metrics Metrics
}

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = def.MaxEntries
	}
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	return &CachedStore{
		origin: origin,
		cache:  expirable.NewLRU[string, []byte](cfg.MaxEntries, nil, cfg.TTL),
	}
}

func (s *CachedStore) Put(ctx context.Context, key string, value []byte) error {
	s.metrics.originWrites.Add(1)
	if err := s.origin.Put(ctx, key, value); err != nil {
		s.metrics.originWriteErr.Add(1)
		s.cache.Remove(key)
		return err
	}
	s.cache.Add(key, append([]byte(nil), value...))
	return nil
}

func (s *CachedStore) Get(ctx context.Context, key string) ([]byte, error) {
	if raw, ok := s.cache.Get(key); ok {
		s.metrics.hits.Add(1)
		return append([]byte(nil), raw...), nil
	}
	s.metrics.misses.Add(1)
	s.metrics.originReads.Add(1)

	raw, err := s.origin.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kvrepo.ErrNotFound) {
			s.metrics.originReadErr.Add(1)
		}
		return nil, err
	}
	copied := append([]byte(nil), raw...)
	s.cache.Add(key, copied)
	return append([]byte(nil), copied...), nil
}

func (s *CachedStore) Delete(ctx context.Context, key string) error {
	s.cache.Remove(key)
	s.metrics.originWrites.Add(1)
	if err := s.origin.Delete(ctx, key); err != nil {
		s.metrics.originWriteErr.Add(1)
		return err
	}
	return nil
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{}
	}
	return s.metrics.snapshot()
}
