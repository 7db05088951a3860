package tokencache

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Memory is an in-process token cache bounded to a number of documents.
// It lives only as long as the process and is used when no Redis address is
// configured.
type Memory struct {
	cache  *lru.Cache[string, []string]
	prefix string
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

func NewMemory(size int, fingerprint string) (*Memory, error) {
	if size <= 0 {
		return nil, fmt.Errorf("token cache size must be positive, got %d", size)
	}
	cache, err := lru.New[string, []string](size)
	if err != nil {
		return nil, fmt.Errorf("creating token cache: %w", err)
	}
	return &Memory{
		cache:  cache,
		prefix: namespace(fingerprint),
		logger: slog.Default().With("component", "token-cache", "backend", "memory"),
	}, nil
}

func (m *Memory) Get(text string) ([]string, bool) {
	tokens, ok := m.cache.Get(m.key(text))
	if !ok {
		m.misses.Add(1)
		return nil, false
	}
	m.hits.Add(1)
	return slices.Clone(tokens), true
}

func (m *Memory) Set(text string, tokens []string) {
	if tokens == nil {
		tokens = []string{}
	}
	if evicted := m.cache.Add(m.key(text), slices.Clone(tokens)); evicted {
		m.logger.Debug("cache eviction", "size", m.cache.Len())
	}
}

// GetOrTokenize has the same contract as Cache.GetOrTokenize. The context
// is unused.
func (m *Memory) GetOrTokenize(_ context.Context, text string, tokenize func(string) []string) ([]string, bool) {
	if tokens, ok := m.Get(text); ok {
		return tokens, true
	}
	val, _, _ := m.group.Do(m.key(text), func() (any, error) {
		tokens := tokenize(text)
		m.Set(text, tokens)
		return tokens, nil
	})
	return val.([]string), false
}

func (m *Memory) Purge() {
	m.cache.Purge()
}

func (m *Memory) Len() int {
	return m.cache.Len()
}

func (m *Memory) Stats() (hits, misses int64) {
	return m.hits.Load(), m.misses.Load()
}

func (m *Memory) key(text string) string {
	return m.prefix + digest(text)
}
