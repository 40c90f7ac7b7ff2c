package common

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// CacheRepository defines a minimal interface for a key/value cache.
// The values are stored as raw []byte, which you can marshal/unmarshal
// from JSON or other formats as needed.
type CacheRepository interface {
	Get(key string) (value []byte, found bool)
	Set(key string, value []byte, expiration time.Duration)
	Delete(key string)
}

const (
	DefaultExpiration = 5 * time.Minute
	cleanupInterval   = 10 * time.Minute
)

var _ CacheRepository = (*cacheStore)(nil)

type cacheStore struct {
	cache *cache.Cache
}

// NewCacheStore returns an in-process CacheRepository backed by go-cache.
func NewCacheStore() CacheRepository {
	return &cacheStore{
		cache: cache.New(DefaultExpiration, cleanupInterval),
	}
}

func (c *cacheStore) Get(key string) ([]byte, bool) {
	value, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	b, ok := value.([]byte)
	return b, ok
}

func (c *cacheStore) Delete(key string) {
	c.cache.Delete(key)
}

func (c *cacheStore) Set(key string, value []byte, expiration time.Duration) {
	c.cache.Set(key, value, expiration)
}
