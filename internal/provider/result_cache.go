package provider

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

func init() {
	// LoadFile decodes interface values; the concrete type must be registered first.
	gob.Register(Record{})
}

// ResultCache stores classification results keyed by path, engine and model.
// It is safe for concurrent use.
type ResultCache struct {
	cache *cache.Cache
	file  string
}

// NewResultCache creates a cache whose entries expire after ttl. When file
// is not empty, previously saved entries are loaded from it.
func NewResultCache(ttl time.Duration, file string) *ResultCache {
	c := &ResultCache{
		cache: cache.New(ttl, 10*time.Minute),
		file:  file,
	}

	if file != "" {
		if _, err := os.Stat(file); err == nil {
			_ = c.cache.LoadFile(file)
		}
	}

	return c
}

// ResultCacheKey builds the cache key for a path classified by the given
// engine and model. Paths are compared case-insensitively.
func ResultCacheKey(path, engine, model string) string {
	return fmt.Sprintf("%s|%s|%s", strings.ToLower(path), engine, model)
}

// Get returns a cached result.
func (c *ResultCache) Get(key string) (Result, bool) {
	if c == nil {
		return Result{}, false
	}
	v, found := c.cache.Get(key)
	if !found {
		return Result{}, false
	}
	rec, ok := v.(Record)
	if !ok {
		return Result{}, false
	}
	return rec.Result(), true
}

// Set stores a result using the default expiration.
func (c *ResultCache) Set(key string, res Result) {
	if c == nil {
		return
	}
	c.cache.Set(key, res.Record(), cache.DefaultExpiration)
}

// Len returns the number of cached entries, including expired ones not yet
// evicted.
func (c *ResultCache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.ItemCount()
}

// Save persists the cache to its backing file, if one was configured.
func (c *ResultCache) Save() error {
	if c == nil || c.file == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.file), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := c.cache.SaveFile(c.file); err != nil {
		return fmt.Errorf("failed to save result cache: %w", err)
	}
	return nil
}
