package cache

import (
	"crypto/md5"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// TTL is a small wrapper around an in-memory cache with a fixed freshness
// window. Entries older than the window are treated as absent; eviction is
// lazy and handled by the underlying library's janitor.
type TTL struct {
	store *gocache.Cache
}

// NewTTL creates a TTL cache whose entries expire after the given window.
func NewTTL(window time.Duration) *TTL {
	return &TTL{store: gocache.New(window, 2*window)}
}

// Get returns the cached value for key, if present and still fresh.
func (t *TTL) Get(key string) (interface{}, bool) {
	return t.store.Get(key)
}

// Set stores value under key with the default freshness window.
func (t *TTL) Set(key string, value interface{}) {
	t.store.SetDefault(key, value)
}

// Key derives a stable cache key from the raw request content.
func Key(prefix string, content []byte) string {
	sum := md5.Sum(content)
	return prefix + ":" + hex.EncodeToString(sum[:])
}
