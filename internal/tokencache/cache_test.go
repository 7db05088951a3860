package tokencache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/config"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/redis"
)

func newCache(t *testing.T, fingerprint string) (*Cache, *miniredis.Miniredis, *pkgredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg := config.RedisConfig{Addr: mr.Addr(), PoolSize: 4, CacheTTL: time.Hour}
	client, err := pkgredis.NewClient(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return New(client, cfg, fingerprint), mr, client
}

func TestGetOrTokenize(t *testing.T) {
	c, _, _ := newCache(t, "default")
	ctx := context.Background()
	calls := 0
	fn := func(s string) []string {
		calls++
		return strings.Fields(s)
	}

	tokens, hit := c.GetOrTokenize(ctx, "a short text", fn)
	assert.False(t, hit)
	assert.Equal(t, []string{"a", "short", "text"}, tokens)

	tokens, hit = c.GetOrTokenize(ctx, "a short text", fn)
	assert.True(t, hit)
	assert.Equal(t, []string{"a", "short", "text"}, tokens)
	assert.Equal(t, 1, calls)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestEmptyTokenListIsCached(t *testing.T) {
	c, _, _ := newCache(t, "default")
	ctx := context.Background()
	c.GetOrTokenize(ctx, "", func(string) []string { return nil })
	tokens, hit := c.Get(ctx, "")
	assert.True(t, hit)
	assert.Empty(t, tokens)
}

func TestFingerprintSeparatesKeys(t *testing.T) {
	c, _, client := newCache(t, "lower=true")
	other := New(client, config.RedisConfig{CacheTTL: time.Hour}, "lower=false")
	ctx := context.Background()

	c.Set(ctx, "Text", []string{"text"})
	_, hit := other.Get(ctx, "Text")
	assert.False(t, hit)
}

func TestTTLExpiry(t *testing.T) {
	c, mr, _ := newCache(t, "default")
	ctx := context.Background()
	c.Set(ctx, "doc", []string{"doc"})
	mr.FastForward(2 * time.Hour)
	_, hit := c.Get(ctx, "doc")
	assert.False(t, hit)
}

func TestConcurrentMissesShareWork(t *testing.T) {
	c, _, _ := newCache(t, "default")
	ctx := context.Background()
	var calls atomic.Int32
	release := make(chan struct{})
	fn := func(s string) []string {
		calls.Add(1)
		<-release
		return []string{s}
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tokens, _ := c.GetOrTokenize(ctx, "same", fn)
			assert.Equal(t, []string{"same"}, tokens)
		}()
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestInvalidate(t *testing.T) {
	c, mr, _ := newCache(t, "default")
	ctx := context.Background()
	c.Set(ctx, "one", []string{"one"})
	c.Set(ctx, "two", []string{"two"})
	require.NoError(t, mr.Set("unrelated", "x"))

	require.NoError(t, c.Invalidate(ctx))
	assert.True(t, mr.Exists("unrelated"))
	_, hit := c.Get(ctx, "one")
	assert.False(t, hit)
}

func TestInvalidateKeepsOtherSettings(t *testing.T) {
	c, _, client := newCache(t, "lower=true")
	other := New(client, config.RedisConfig{CacheTTL: time.Hour}, "lower=false")
	ctx := context.Background()
	c.Set(ctx, "Text", []string{"text"})
	other.Set(ctx, "Text", []string{"Text"})

	require.NoError(t, c.Invalidate(ctx))
	_, hit := c.Get(ctx, "Text")
	assert.False(t, hit)
	tokens, hit := other.Get(ctx, "Text")
	assert.True(t, hit)
	assert.Equal(t, []string{"Text"}, tokens)
}
