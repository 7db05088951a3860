package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/pkg/profile"
	"github.com/spf13/afero"

	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/pipeline"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/store"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/tokencache"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/logger"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/redis"
)

type commandContext struct {
	configPath  string
	logLevel    string
	logFormat   string
	profileMode string
	profileDir  string

	fs afero.Fs

	configOnce sync.Once
	config     *config.Config
	configErr  error

	profiler interface{ Stop() }
}

func newCommandContext() *commandContext {
	return &commandContext{fs: afero.NewOsFs()}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load(strings.TrimSpace(c.configPath))
		if err != nil {
			c.configErr = apperrors.New(apperrors.ErrInvalidInput, apperrors.ExitUsage, err.Error())
			return
		}
		if c.logLevel != "" {
			cfg.Logging.Level = c.logLevel
		}
		if c.logFormat != "" {
			cfg.Logging.Format = c.logFormat
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) setupLogging(w io.Writer) {
	slog.SetDefault(slog.New(logger.NewHandler(w, c.config.Logging.Level, c.config.Logging.Format)))
}

func (c *commandContext) startProfile() error {
	opts := []func(*profile.Profile){profile.ProfilePath(c.profileDir), profile.NoShutdownHook, profile.Quiet}
	switch c.profileMode {
	case "":
		return nil
	case "cpu":
		opts = append(opts, profile.CPUProfile)
	case "mem":
		opts = append(opts, profile.MemProfile)
	default:
		return apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitUsage, "unknown profile mode %q (want cpu or mem)", c.profileMode)
	}
	c.profiler = profile.Start(opts...)
	return nil
}

func (c *commandContext) stopProfile() {
	if c.profiler != nil {
		c.profiler.Stop()
		c.profiler = nil
	}
}

// sinks holds the optional collaborators a pipeline run is wired with.
type sinks struct {
	options []pipeline.Option
	store   *store.Store
	closers []func() error
}

func (s *sinks) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			slog.Warn("closing sink failed", "error", err)
		}
	}
}

// openSinks connects whatever the configuration enables. The token cache
// is an optimisation, so an unreachable Redis only disables it.
func (c *commandContext) openSinks(ctx context.Context, cfg *config.Config, withStore bool) (*sinks, error) {
	s := &sinks{}

	tok, err := pipeline.NewTokenizer(cfg.Tokenizer)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrInvalidInput, apperrors.ExitUsage, err.Error())
	}
	switch {
	case cfg.Redis.Addr != "":
		client, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("token cache disabled", "addr", cfg.Redis.Addr, "error", err)
			break
		}
		s.closers = append(s.closers, client.Close)
		s.options = append(s.options, pipeline.WithTokenCache(tokencache.New(client, cfg.Redis, tok.Fingerprint())))
	case cfg.Tokenizer.CacheSize > 0:
		mem, err := tokencache.NewMemory(cfg.Tokenizer.CacheSize, tok.Fingerprint())
		if err != nil {
			return nil, err
		}
		s.options = append(s.options, pipeline.WithTokenCache(mem))
	}

	if withStore && cfg.Store.Enabled() {
		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("opening corpus store: %w", err)
		}
		s.store = st
		s.closers = append(s.closers, st.Close)
		s.options = append(s.options, pipeline.WithStore(st))
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.CorpusExported)
		s.closers = append(s.closers, producer.Close)
		s.options = append(s.options, pipeline.WithPublisher(producer))
	}
	return s, nil
}

// openStore opens the configured store for commands that only read or
// manage stored corpora.
func (c *commandContext) openStore(ctx context.Context) (*store.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Store.Enabled() {
		return nil, apperrors.New(apperrors.ErrInvalidInput, apperrors.ExitUsage, "no store configured (set store.driver)")
	}
	return store.Open(ctx, cfg.Store)
}
