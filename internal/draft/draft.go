// Package draft caches unsent composer input per topic so it survives a
// relaunch. Drafts are a convenience: writes are best-effort, storage
// failures are swallowed, and they never trigger eviction of the topic set.
package draft

import (
	"go.uber.org/zap"

	"vedchat/internal/kv"
)

// LandingKey is the sentinel draft key used when no topic is active.
const LandingKey = "landing"

// Cache stores drafts in the shared bounded adapter under their own keys.
type Cache struct {
	kv     kv.Store
	logger *zap.Logger
}

// New creates a draft cache over the given adapter.
func New(kvs kv.Store, logger *zap.Logger) *Cache {
	return &Cache{kv: kvs, logger: logger}
}

// Set stores the draft text for key. Empty text clears the draft instead
// of storing an empty entry.
func (c *Cache) Set(key, text string) {
	if text == "" {
		c.Clear(key)
		return
	}
	if err := c.kv.Set(kv.DraftPrefix+normalize(key), []byte(text)); err != nil {
		c.logger.Debug("draft write dropped", zap.String("key", key), zap.Error(err))
	}
}

// Get returns the draft text for key, or "" when none is stored.
func (c *Cache) Get(key string) string {
	v, ok, err := c.kv.Get(kv.DraftPrefix + normalize(key))
	if err != nil {
		c.logger.Debug("draft read failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	if !ok {
		return ""
	}
	return string(v)
}

// Clear removes the draft for key.
func (c *Cache) Clear(key string) {
	if err := c.kv.Delete(kv.DraftPrefix + normalize(key)); err != nil {
		c.logger.Debug("draft clear failed", zap.String("key", key), zap.Error(err))
	}
}

func normalize(key string) string {
	if key == "" {
		return LandingKey
	}
	return key
}
