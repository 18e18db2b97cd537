// Package config defines all configuration structures for the lexipipe
// annotation platform.  No I/O or parsing logic lives here — only plain data
// types and validation; loading is handled by loader.go.
package config

import (
	"fmt"
	"time"
)

// ServerConfig holds HTTP server tunables for the job-control API.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters for the classification caches.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// Neo4jConfig holds synonym-graph connection parameters.
type Neo4jConfig struct {
	URI                   string        `mapstructure:"uri"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
	Database              string        `mapstructure:"database"`
}

// KafkaConfig holds producer/consumer parameters for the continuation queue
// and annotation events.
type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	GroupID         string        `mapstructure:"group_id"`
	AutoOffsetReset string        `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	ProducerRetries int           `mapstructure:"producer_retries"`
	BatchSize       int           `mapstructure:"batch_size"`
	BatchTimeout    time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
}

// MinIOConfig holds object-storage parameters for lexicon source files.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// OpenSearchConfig holds reference-corpus cluster parameters for the keyness
// engine.
type OpenSearchConfig struct {
	Addresses          []string `mapstructure:"addresses"`
	User               string   `mapstructure:"user"`
	Password           string   `mapstructure:"password"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	Index              string   `mapstructure:"index"`
	TermField          string   `mapstructure:"term_field"`
}

// WorkerConfig holds continuation-worker execution parameters.
type WorkerConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	QueueDepth     int           `mapstructure:"queue_depth"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
	HandlerTimeout time.Duration `mapstructure:"handler_timeout"`
	HealthPort     int           `mapstructure:"health_port"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string   `mapstructure:"format"` // "json" | "console"
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// IntelligenceConfig holds external model parameters: the Gemini classifier
// and the statistical POS tagger.
type IntelligenceConfig struct {
	GeminiAPIKey        string        `mapstructure:"gemini_api_key"`
	GeminiModel         string        `mapstructure:"gemini_model"`
	Temperature         float64       `mapstructure:"temperature"`
	MaxOutputTokens     int           `mapstructure:"max_output_tokens"`
	LLMBatchSize        int           `mapstructure:"llm_batch_size"`
	LLMTimeout          time.Duration `mapstructure:"llm_timeout"`
	LLMMaxRetries       int           `mapstructure:"llm_max_retries"`
	LLMRetryBackoff     time.Duration `mapstructure:"llm_retry_backoff"`
	TaggerBaseURL       string        `mapstructure:"tagger_base_url"`
	TaggerTimeout       time.Duration `mapstructure:"tagger_timeout"`
	TaggerMinConfidence float64       `mapstructure:"tagger_min_confidence"`
}

// PipelineConfig holds the annotation pipeline's behavioural knobs.  The
// defaults mirror the documented production settings.
type PipelineConfig struct {
	// DisambiguationThreshold is the word-only confidence below which the
	// classifier consults (and writes) word+context records.
	DisambiguationThreshold float64 `mapstructure:"disambiguation_threshold"`

	// ForwardDecay multiplies confidence per hop when a classified word
	// pushes its domain to synonym neighbours.
	ForwardDecay float64 `mapstructure:"forward_decay"`

	// ReverseDecay multiplies confidence when an unclassified word inherits
	// from classified neighbours.
	ReverseDecay float64 `mapstructure:"reverse_decay"`

	// PropagationFloor stops BFS branch expansion once decayed confidence
	// drops below it.
	PropagationFloor float64 `mapstructure:"propagation_floor"`

	// ChunkSize is the number of candidate words pulled per orchestrator
	// chunk.
	ChunkSize int `mapstructure:"chunk_size"`

	// TimeBudget is the wall-clock ceiling for a single orchestrator
	// invocation; the job pauses and schedules a continuation when the
	// remaining budget cannot fit another chunk.
	TimeBudget time.Duration `mapstructure:"time_budget"`
}

// Config is the root configuration structure for the platform.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Neo4j        Neo4jConfig        `mapstructure:"neo4j"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	MinIO        MinIOConfig        `mapstructure:"minio"`
	OpenSearch   OpenSearchConfig   `mapstructure:"opensearch"`
	Worker       WorkerConfig       `mapstructure:"worker"`
	Log          LogConfig          `mapstructure:"log"`
	Intelligence IntelligenceConfig `mapstructure:"intelligence"`
	Pipeline     PipelineConfig     `mapstructure:"pipeline"`
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("config: database.max_conns must be ≥ 1, got %d", c.Database.MaxConns)
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.GroupID == "" {
		return fmt.Errorf("config: kafka.group_id is required")
	}

	if c.Neo4j.URI == "" {
		return fmt.Errorf("config: neo4j.uri is required")
	}

	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be ≥ 1, got %d", c.Worker.Concurrency)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	if c.Intelligence.GeminiModel == "" {
		return fmt.Errorf("config: intelligence.gemini_model is required")
	}
	if c.Intelligence.Temperature < 0 || c.Intelligence.Temperature > 2 {
		return fmt.Errorf("config: intelligence.temperature %.2f is out of range [0, 2]", c.Intelligence.Temperature)
	}
	if c.Intelligence.LLMBatchSize < 1 || c.Intelligence.LLMBatchSize > 50 {
		return fmt.Errorf("config: intelligence.llm_batch_size %d is out of range [1, 50]", c.Intelligence.LLMBatchSize)
	}
	if c.Intelligence.TaggerMinConfidence < 0 || c.Intelligence.TaggerMinConfidence > 1 {
		return fmt.Errorf("config: intelligence.tagger_min_confidence must be in [0, 1]")
	}

	if c.Pipeline.DisambiguationThreshold <= 0 || c.Pipeline.DisambiguationThreshold > 1 {
		return fmt.Errorf("config: pipeline.disambiguation_threshold must be in (0, 1]")
	}
	if c.Pipeline.ForwardDecay <= 0 || c.Pipeline.ForwardDecay >= 1 {
		return fmt.Errorf("config: pipeline.forward_decay must be in (0, 1)")
	}
	if c.Pipeline.ReverseDecay <= 0 || c.Pipeline.ReverseDecay >= 1 {
		return fmt.Errorf("config: pipeline.reverse_decay must be in (0, 1)")
	}
	if c.Pipeline.PropagationFloor <= 0 || c.Pipeline.PropagationFloor >= 1 {
		return fmt.Errorf("config: pipeline.propagation_floor must be in (0, 1)")
	}
	if c.Pipeline.ChunkSize < 1 {
		return fmt.Errorf("config: pipeline.chunk_size must be ≥ 1, got %d", c.Pipeline.ChunkSize)
	}
	if c.Pipeline.TimeBudget <= 0 {
		return fmt.Errorf("config: pipeline.time_budget must be positive")
	}

	return nil
}
