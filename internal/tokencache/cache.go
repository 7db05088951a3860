// Package tokencache keeps tokenized documents in Redis, or in a bounded
// in-process LRU, so that re-running a corpus skips tokenizing unchanged
// texts.
package tokencache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/config"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/redis"
)

const keyPrefix = "tokens:"

// Cache maps (tokenizer settings, document text) to the token list.
type Cache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	prefix string
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cache for one tokenizer configuration, identified by
// fingerprint.
func New(client *pkgredis.Client, cfg config.RedisConfig, fingerprint string) *Cache {
	return &Cache{
		client: client,
		cfg:    cfg,
		prefix: namespace(fingerprint),
		logger: slog.Default().With("component", "token-cache", "fingerprint", fingerprint),
	}
}

// Get returns the cached tokens of text. Redis failures count as misses.
func (c *Cache) Get(ctx context.Context, text string) ([]string, bool) {
	key := c.buildKey(text)
	tokens, ok, err := c.client.GetTokens(ctx, key)
	if err != nil {
		c.logger.Error("cache get failed", "key", key, "error", err)
	}
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "key", key, "tokens", len(tokens))
	return tokens, true
}

// Set stores the tokens of text with the configured TTL.
func (c *Cache) Set(ctx context.Context, text string, tokens []string) {
	key := c.buildKey(text)
	if err := c.client.SetTokens(ctx, key, tokens, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrTokenize returns the cached tokens of text, or runs tokenize, stores
// the result and returns it. Concurrent calls for the same text share one
// tokenize call. The boolean reports a cache hit.
func (c *Cache) GetOrTokenize(ctx context.Context, text string, tokenize func(string) []string) ([]string, bool) {
	if tokens, ok := c.Get(ctx, text); ok {
		return tokens, true
	}
	key := c.buildKey(text)
	val, _, _ := c.group.Do(key, func() (any, error) {
		tokens := tokenize(text)
		c.Set(ctx, text, tokens)
		return tokens, nil
	})
	return val.([]string), false
}

// Invalidate drops the token lists cached for this tokenizer
// configuration. Entries of other configurations are kept.
func (c *Cache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.DeleteByPrefix(ctx, c.prefix)
	if err != nil {
		return fmt.Errorf("invalidating token cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *Cache) buildKey(text string) string {
	return c.prefix + digest(text)
}

// namespace is the key prefix shared by every entry of one tokenizer
// configuration: tokens:<fingerprint digest>:
func namespace(fingerprint string) string {
	return keyPrefix + digest(fingerprint)[:12] + ":"
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:16])
}
