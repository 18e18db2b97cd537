package config

import "time"

// Default value constants.  The pipeline defaults reproduce the documented
// production behaviour: 15-word LLM batches at temperature 0.2, a 90%
// disambiguation threshold, 0.85/0.80 propagation decay with a 0.60 floor.
const (
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "lexipipe"
	DefaultDBMaxConns = 25

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "lexipipe:"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "lexipipe-workers"

	DefaultNeo4jURI = "bolt://localhost:7687"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "lexicon-sources"

	DefaultOpenSearchAddress   = "http://localhost:9200"
	DefaultOpenSearchIndex     = "reference-corpus"
	DefaultOpenSearchTermField = "tokens"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultWorkerConcurrency = 4
	DefaultWorkerHealthPort  = 8081

	DefaultGeminiModel     = "gemini-2.0-flash"
	DefaultLLMTemperature  = 0.2
	DefaultLLMBatchSize    = 15
	DefaultTaggerMinConf   = 0.90

	DefaultDisambiguationThreshold = 0.90
	DefaultForwardDecay            = 0.85
	DefaultReverseDecay            = 0.80
	DefaultPropagationFloor        = 0.60
	DefaultChunkSize               = 50
	DefaultTimeBudget              = 50 * time.Second
)

// ApplyDefaults fills every zero-value field in cfg with the platform
// default.  Fields already set by the caller are left unchanged so explicit
// configuration always wins.  Call after unmarshalling and before Validate.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// Server
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	// Database
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = "file://migrations"
	}

	// Redis
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = 24 * time.Hour
	}

	// Kafka
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = time.Second
	}

	// Neo4j
	if cfg.Neo4j.URI == "" {
		cfg.Neo4j.URI = DefaultNeo4jURI
	}
	if cfg.Neo4j.Database == "" {
		cfg.Neo4j.Database = "neo4j"
	}
	if cfg.Neo4j.ConnectionTimeout == 0 {
		cfg.Neo4j.ConnectionTimeout = 10 * time.Second
	}

	// MinIO
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// OpenSearch
	if len(cfg.OpenSearch.Addresses) == 0 {
		cfg.OpenSearch.Addresses = []string{DefaultOpenSearchAddress}
	}
	if cfg.OpenSearch.Index == "" {
		cfg.OpenSearch.Index = DefaultOpenSearchIndex
	}
	if cfg.OpenSearch.TermField == "" {
		cfg.OpenSearch.TermField = DefaultOpenSearchTermField
	}

	// Worker
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.QueueDepth == 0 {
		cfg.Worker.QueueDepth = cfg.Worker.Concurrency * 2
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}
	if cfg.Worker.RetryBackoff == 0 {
		cfg.Worker.RetryBackoff = time.Second
	}
	if cfg.Worker.HandlerTimeout == 0 {
		cfg.Worker.HandlerTimeout = 5 * time.Minute
	}
	if cfg.Worker.HealthPort == 0 {
		cfg.Worker.HealthPort = DefaultWorkerHealthPort
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// Intelligence
	if cfg.Intelligence.GeminiModel == "" {
		cfg.Intelligence.GeminiModel = DefaultGeminiModel
	}
	if cfg.Intelligence.Temperature == 0 {
		cfg.Intelligence.Temperature = DefaultLLMTemperature
	}
	if cfg.Intelligence.MaxOutputTokens == 0 {
		cfg.Intelligence.MaxOutputTokens = 2048
	}
	if cfg.Intelligence.LLMBatchSize == 0 {
		cfg.Intelligence.LLMBatchSize = DefaultLLMBatchSize
	}
	if cfg.Intelligence.LLMTimeout == 0 {
		cfg.Intelligence.LLMTimeout = 60 * time.Second
	}
	if cfg.Intelligence.LLMMaxRetries == 0 {
		cfg.Intelligence.LLMMaxRetries = 1
	}
	if cfg.Intelligence.LLMRetryBackoff == 0 {
		cfg.Intelligence.LLMRetryBackoff = 2 * time.Second
	}
	if cfg.Intelligence.TaggerTimeout == 0 {
		cfg.Intelligence.TaggerTimeout = 10 * time.Second
	}
	if cfg.Intelligence.TaggerMinConfidence == 0 {
		cfg.Intelligence.TaggerMinConfidence = DefaultTaggerMinConf
	}

	// Pipeline
	if cfg.Pipeline.DisambiguationThreshold == 0 {
		cfg.Pipeline.DisambiguationThreshold = DefaultDisambiguationThreshold
	}
	if cfg.Pipeline.ForwardDecay == 0 {
		cfg.Pipeline.ForwardDecay = DefaultForwardDecay
	}
	if cfg.Pipeline.ReverseDecay == 0 {
		cfg.Pipeline.ReverseDecay = DefaultReverseDecay
	}
	if cfg.Pipeline.PropagationFloor == 0 {
		cfg.Pipeline.PropagationFloor = DefaultPropagationFloor
	}
	if cfg.Pipeline.ChunkSize == 0 {
		cfg.Pipeline.ChunkSize = DefaultChunkSize
	}
	if cfg.Pipeline.TimeBudget == 0 {
		cfg.Pipeline.TimeBudget = DefaultTimeBudget
	}
}
