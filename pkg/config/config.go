// Package config loads and validates toolkit configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// stage of the preprocessing pipeline and for the optional sinks (store,
// Redis token cache, Kafka events, metrics textfile).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Input     InputConfig     `yaml:"input"`
	Tokenizer TokenizerConfig `yaml:"tokenizer"`
	Segment   SegmentConfig   `yaml:"segment"`
	Counter   CounterConfig   `yaml:"counter"`
	Filter    FilterConfig    `yaml:"filter"`
	Export    ExportConfig    `yaml:"export"`
	Topics    TopicsConfig    `yaml:"topics"`
	Store     StoreConfig     `yaml:"store"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// InputConfig selects the corpus reader.
type InputConfig struct {
	Format  string   `yaml:"format" validate:"oneof=txt tei csv"`
	Dir     string   `yaml:"dir"`
	Ext     string   `yaml:"ext"`
	Glob    string   `yaml:"glob"`
	Columns []string `yaml:"columns" validate:"omitempty,dive,required"`
	POSTags []string `yaml:"posTags"`
}

// TokenizerConfig mirrors the tokenizer options.
type TokenizerConfig struct {
	Pattern   string `yaml:"pattern"`
	Lower     bool   `yaml:"lower"`
	Simple    bool   `yaml:"simple"`
	CacheSize int    `yaml:"cacheSize" validate:"gte=0"`
}

// SegmentConfig controls the optional segmentation pre-step. Tolerance is a
// fraction of Size when in (0,1), absolute otherwise, and forbids splitting
// chunks when negative.
type SegmentConfig struct {
	Enabled            bool    `yaml:"enabled"`
	Size               int     `yaml:"size"`
	Tolerance          float64 `yaml:"tolerance"`
	ParagraphSeparator string  `yaml:"paragraphSeparator"`
}

// CounterConfig controls the sparse counter fan-out.
type CounterConfig struct {
	Workers int `yaml:"workers"`
}

// FilterConfig decides which features are removed. When Stoplist is set the
// file is tokenized and used instead of the computed stopwords and hapax
// legomena.
type FilterConfig struct {
	MostFrequent int    `yaml:"mostFrequent" validate:"gte=0"`
	RemoveHapax  bool   `yaml:"removeHapax"`
	Stoplist     string `yaml:"stoplist"`
}

// ExportConfig names the output artifacts.
type ExportConfig struct {
	OutputDir  string `yaml:"outputDir"`
	MatrixName string `yaml:"matrixName"`
	MalletDir  string `yaml:"malletDir"`
}

// TopicsConfig parameterises the LDA collaborator.
type TopicsConfig struct {
	NumTopics  int `yaml:"numTopics" validate:"gte=1"`
	Iterations int `yaml:"iterations" validate:"gte=1"`
	Keywords   int `yaml:"keywords" validate:"gte=1"`
	Workers    int `yaml:"workers"`
}

// StoreConfig selects where a finished corpus is persisted. Driver is
// "sqlite" or "postgres"; an empty driver disables the store.
type StoreConfig struct {
	Driver     string         `yaml:"driver" validate:"omitempty,oneof=sqlite postgres"`
	Path       string         `yaml:"path"`
	CorpusName string         `yaml:"corpusName"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

// Enabled reports whether a store driver has been configured.
func (s StoreConfig) Enabled() bool {
	return s.Driver != ""
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// RedisConfig holds the token cache connection. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds broker and topic settings for corpus events. No brokers
// means no events are published.
type KafkaConfig struct {
	Brokers []string    `yaml:"brokers"`
	Topics  KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	CorpusExported string `yaml:"corpusExported"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// MetricsConfig controls where run metrics are written. Textfile is a
// node-exporter textfile collector path.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Textfile string `yaml:"textfile"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Format:  "txt",
			Dir:     "corpus",
			Ext:     ".txt",
			Columns: []string{"ParagraphId", "TokenId", "Lemma", "CPOS", "NamedEntity"},
			POSTags: []string{"ADJ", "V", "NN"},
		},
		Tokenizer: TokenizerConfig{
			Lower: true,
		},
		Segment: SegmentConfig{
			Size:               1000,
			Tolerance:          0,
			ParagraphSeparator: `\n`,
		},
		Counter: CounterConfig{
			Workers: 1,
		},
		Filter: FilterConfig{
			MostFrequent: 200,
			RemoveHapax:  true,
		},
		Export: ExportConfig{
			OutputDir:  "out",
			MatrixName: "corpus",
			MalletDir:  "mallet_input",
		},
		Topics: TopicsConfig{
			NumTopics:  10,
			Iterations: 200,
			Keywords:   10,
			Workers:    1,
		},
		Store: StoreConfig{
			Path:       "topicprep.db",
			CorpusName: "corpus",
			Postgres: PostgresConfig{
				Host:            "localhost",
				Port:            5432,
				Database:        "topicprep",
				User:            "topicprep",
				Password:        "localdev",
				SSLMode:         "disable",
				MaxOpenConns:    5,
				MaxIdleConns:    2,
				ConnMaxLifetime: 5 * time.Minute,
			},
		},
		Redis: RedisConfig{
			PoolSize: 10,
			CacheTTL: 24 * time.Hour,
		},
		Kafka: KafkaConfig{
			Topics: KafkaTopics{
				CorpusExported: "corpus-exported",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate rejects combinations the pipeline cannot run with.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("invalid config field %s: %q fails %s %s", fe.Namespace(), fmt.Sprint(fe.Value()), fe.Tag(), fe.Param())
		}
		return fmt.Errorf("validating config: %w", err)
	}
	if c.Segment.Enabled && c.Segment.Size <= 0 {
		return fmt.Errorf("segment.size must be positive, got %d", c.Segment.Size)
	}
	if c.Counter.Workers < 1 {
		c.Counter.Workers = 1
	}
	return nil
}

// applyEnvOverrides reads TP_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TP_INPUT_FORMAT"); v != "" {
		cfg.Input.Format = v
	}
	if v := os.Getenv("TP_INPUT_DIR"); v != "" {
		cfg.Input.Dir = v
	}
	if v := os.Getenv("TP_INPUT_GLOB"); v != "" {
		cfg.Input.Glob = v
	}
	if v := os.Getenv("TP_TOKENIZER_PATTERN"); v != "" {
		cfg.Tokenizer.Pattern = v
	}
	if v := os.Getenv("TP_TOKENIZER_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Tokenizer.CacheSize = n
		}
	}
	if v := os.Getenv("TP_FILTER_MOST_FREQUENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Filter.MostFrequent = n
		}
	}
	if v := os.Getenv("TP_FILTER_STOPLIST"); v != "" {
		cfg.Filter.Stoplist = v
	}
	if v := os.Getenv("TP_COUNTER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Counter.Workers = n
		}
	}
	if v := os.Getenv("TP_EXPORT_OUTPUT_DIR"); v != "" {
		cfg.Export.OutputDir = v
	}
	if v := os.Getenv("TP_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("TP_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("TP_POSTGRES_HOST"); v != "" {
		cfg.Store.Postgres.Host = v
	}
	if v := os.Getenv("TP_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Store.Postgres.Port = port
		}
	}
	if v := os.Getenv("TP_POSTGRES_PASSWORD"); v != "" {
		cfg.Store.Postgres.Password = v
	}
	if v := os.Getenv("TP_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("TP_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("TP_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("TP_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TP_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("TP_METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Textfile = v
	}
}
