// Package integration contains tests that run the corpus store, token cache
// and event producer against real PostgreSQL, Redis and Kafka. Each test
// skips when its backend is unreachable.
//
// Run with:
//
//	go test -v ./test/integration/...
package integration

import (
	"context"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/preprocess/bow"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/preprocess/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/store"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/tokencache"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/kafka"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/redis"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// skipIfNoPostgres skips the test when PostgreSQL is unavailable.
func skipIfNoPostgres(t *testing.T) *store.Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := store.Open(ctx, config.StoreConfig{Driver: "postgres", Postgres: testPostgresConfig()})
	if err != nil {
		t.Skipf("skipping integration test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testPostgresConfig() config.PostgresConfig {
	return config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            envOrDefaultInt("TEST_POSTGRES_PORT", 5432),
		Database:        envOrDefault("TEST_POSTGRES_DB", "topicprep_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "topicprep"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

func skipIfNoRedis(t *testing.T) (*pkgredis.Client, config.RedisConfig) {
	t.Helper()
	cfg := config.RedisConfig{
		Addr:     envOrDefault("TEST_REDIS_ADDR", "localhost:6379"),
		DB:       envOrDefaultInt("TEST_REDIS_DB", 15),
		PoolSize: 4,
		CacheTTL: time.Minute,
	}
	client, err := pkgredis.NewClient(context.Background(), cfg)
	if err != nil {
		t.Skipf("skipping integration test: redis unavailable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, cfg
}

func skipIfNoKafka(t *testing.T) config.KafkaConfig {
	t.Helper()
	broker := envOrDefault("TEST_KAFKA_BROKER", "localhost:9092")
	conn, err := kafkago.Dial("tcp", broker)
	if err != nil {
		t.Skipf("skipping integration test: kafka unavailable: %v", err)
	}
	conn.Close()
	return config.KafkaConfig{
		Brokers: []string{broker},
		Topics:  config.KafkaTopics{CorpusExported: envOrDefault("TEST_KAFKA_TOPIC", "corpus-exported-test")},
	}
}

func sampleCorpus(t *testing.T, name string) store.Corpus {
	t.Helper()
	labels := []string{"scandal", "league", "empty"}
	docs := [][]string{
		strings.Fields("photograph king photograph adler"),
		strings.Fields("league red headed league wilson"),
		nil,
	}
	types := dictionary.BuildNested(docs)
	documents := dictionary.BuildDocuments(labels)
	tbl, err := bow.Count(labels, docs, types, documents)
	require.NoError(t, err)
	return store.Corpus{Name: name, Types: types, Documents: documents, Table: tbl}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestPostgresStoreRoundTrip(t *testing.T) {
	s := skipIfNoPostgres(t)
	ctx := context.Background()
	name := "integration-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	c := sampleCorpus(t, name)
	t.Cleanup(func() { _ = s.Delete(context.Background(), name) })

	require.NoError(t, s.SaveCorpus(ctx, c))
	got, err := s.LoadCorpus(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, c.Types.Tokens(), got.Types.Tokens())
	assert.Equal(t, c.Documents.Tokens(), got.Documents.Tokens())
	assert.Equal(t, c.Table.Rows(), got.Table.Rows())

	list, err := s.List(ctx)
	require.NoError(t, err)
	var found bool
	for _, sm := range list {
		if sm.Name == name {
			found = true
			assert.Equal(t, 3, sm.Documents)
		}
	}
	assert.True(t, found, "saved corpus is listed")
}

func TestRedisTokenCache(t *testing.T) {
	client, cfg := skipIfNoRedis(t)
	ctx := context.Background()
	cache := tokencache.New(client, cfg, "integration")
	t.Cleanup(func() { _ = cache.Invalidate(context.Background()) })

	calls := 0
	fn := func(s string) []string {
		calls++
		return strings.Fields(s)
	}
	first, hit := cache.GetOrTokenize(ctx, "the speckled band", fn)
	assert.False(t, hit)
	second, hit := cache.GetOrTokenize(ctx, "the speckled band", fn)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestKafkaCorpusEvent(t *testing.T) {
	cfg := skipIfNoKafka(t)
	p := kafka.NewProducer(cfg, cfg.Topics.CorpusExported)
	t.Cleanup(func() { p.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	err := p.Publish(ctx, kafka.Event{
		Type:  "corpus.exported",
		Key:     "integration",
		Value: map[string]any{"corpus": "integration", "documents": 3},
	})
	require.NoError(t, err)
}

// ---------------------------------------------------------------------------
// Env helpers
// ---------------------------------------------------------------------------

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
