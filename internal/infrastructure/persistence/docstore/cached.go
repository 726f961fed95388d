package docstore

import (
	"context"
	"errors"

	lru "github.com/hashicorp/golang-lru"

	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/pkg/logger"
)

// CachedStore is a read-through LRU cache in front of a remote backend.
// Writes go to the backend first; the cache only learns versions the backend
// accepted, and a conflict evicts the key so the next read is fresh.
type CachedStore struct {
	next  Store
	cache *lru.Cache
	log   *logger.Logger
}

// NewCachedStore wraps next with an LRU of the given size.
func NewCachedStore(next Store, size int, log *logger.Logger) (*CachedStore, error) {
	if size <= 0 {
		size = 512
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CachedStore{next: next, cache: cache, log: log.Named("docstore.cache")}, nil
}

func (c *CachedStore) Name() string { return c.next.Name() + "+lru" }

func (c *CachedStore) Get(ctx context.Context, key string) (Document, error) {
	if v, ok := c.cache.Get(key); ok {
		doc := v.(Document)
		doc.Data = append([]byte(nil), doc.Data...)
		return doc, nil
	}

	doc, err := c.next.Get(ctx, key)
	if err != nil {
		return Document{}, err
	}
	c.cache.Add(key, Document{Key: key, Data: append([]byte(nil), doc.Data...), Version: doc.Version})
	return doc, nil
}

func (c *CachedStore) Put(ctx context.Context, key string, data []byte, expectedVersion int64) (int64, error) {
	version, err := c.next.Put(ctx, key, data, expectedVersion)
	if err != nil {
		if errors.Is(err, shared.ErrConcurrentModification) {
			c.log.Debug("evicting stale entry", logger.DocumentKey(key))
		}
		c.cache.Remove(key)
		return 0, err
	}
	c.cache.Add(key, Document{Key: key, Data: append([]byte(nil), data...), Version: version})
	return version, nil
}

func (c *CachedStore) Delete(ctx context.Context, key string) error {
	c.cache.Remove(key)
	return c.next.Delete(ctx, key)
}

func (c *CachedStore) List(ctx context.Context, prefix string) ([]string, error) {
	return c.next.List(ctx, prefix)
}

// Ping forwards to the backend when it supports health checks.
func (c *CachedStore) Ping(ctx context.Context) error {
	if p, ok := c.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Purge drops every cached document.
func (c *CachedStore) Purge() {
	c.cache.Purge()
}

// Evict drops one cached document.
func (c *CachedStore) Evict(key string) {
	c.cache.Remove(key)
}
