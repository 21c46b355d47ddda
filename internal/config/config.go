package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/aescanero/autogent/pkg/domain"
)

// Backend names for storage, events and vector search
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNeo4j  = "neo4j"
)

// Config holds all configuration for the workflow orchestrator
type Config struct {
	// Server configuration
	HTTPPort int    `env:"AUTOGENT_HTTP_PORT" envDefault:"8080"`
	GRPCPort int    `env:"AUTOGENT_GRPC_PORT" envDefault:"9090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// APIKey guards /api/v1 when set
	APIKey string `env:"AUTOGENT_API_KEY"`

	// Backend selection
	StorageBackend string        `env:"AUTOGENT_STORAGE" envDefault:"memory"`
	EventsBackend  string        `env:"AUTOGENT_EVENTS" envDefault:"memory"`
	ReportTTL      time.Duration `env:"AUTOGENT_REPORT_TTL" envDefault:"24h"`

	Redis      RedisConfig
	LLM        LLMConfig
	Embedding  EmbeddingConfig
	Vector     VectorConfig
	Neo4j      Neo4jConfig
	Simulators SimulatorConfig
	Engine     EngineConfig
	Workers    WorkerConfig
	Timeouts   TimeoutConfig
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`

	// Event streams. An empty consumer group broadcasts every event to
	// every subscriber, which live run streams rely on.
	ConsumerGroup string `env:"REDIS_CONSUMER_GROUP"`
	ConsumerName  string `env:"REDIS_CONSUMER_NAME" envDefault:"autogent-0"`
	StreamMaxLen  int64  `env:"REDIS_STREAM_MAX_LEN" envDefault:"10000"`
}

// LLMConfig holds LLM provider configuration. A provider is enabled when
// its API key is set.
type LLMConfig struct {
	DefaultProvider string `env:"LLM_DEFAULT_PROVIDER" envDefault:"openai"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string `env:"OPENAI_BASE_URL"`
}

// EmbeddingConfig selects the embedding backend
type EmbeddingConfig struct {
	// Provider is "openai" or "hash". openai falls back to hash without a key.
	Provider string `env:"EMBEDDING_PROVIDER" envDefault:"hash"`
}

// VectorConfig selects the vector search backend
type VectorConfig struct {
	Backend string `env:"VECTOR_BACKEND" envDefault:"memory"`
}

// Neo4jConfig holds Neo4j connection configuration for vector search
type Neo4jConfig struct {
	URI       string `env:"NEO4J_URI" envDefault:"neo4j://localhost:7687"`
	Username  string `env:"NEO4J_USERNAME" envDefault:"neo4j"`
	Password  string `env:"NEO4J_PASSWORD"`
	Database  string `env:"NEO4J_DATABASE" envDefault:"neo4j"`
	Index     string `env:"NEO4J_VECTOR_INDEX" envDefault:"document_embeddings"`
	Dimension int    `env:"NEO4J_VECTOR_DIMENSION" envDefault:"1536"`
}

// SimulatorConfig toggles the local simulated backends
type SimulatorConfig struct {
	Enabled      bool     `env:"SIMULATORS_ENABLED" envDefault:"true"`
	ImageBaseURL string   `env:"SIMULATOR_IMAGE_BASE_URL" envDefault:"https://images.autogent.local"`
	Blocklist    []string `env:"SAFETY_BLOCKLIST" envSeparator:","`
}

// EngineConfig holds defaults applied to runs that do not set them
type EngineConfig struct {
	FailurePolicy string `env:"ENGINE_FAILURE_POLICY" envDefault:"halt"`
	Parallel      bool   `env:"ENGINE_PARALLEL" envDefault:"false"`
	MaxParallel   int    `env:"ENGINE_MAX_PARALLEL" envDefault:"4"`
	MaxNodes      int    `env:"ENGINE_MAX_NODES" envDefault:"500"`
	MaxEdges      int    `env:"ENGINE_MAX_EDGES" envDefault:"2000"`
}

// WorkerConfig holds worker pool configuration
type WorkerConfig struct {
	PoolSize            int           `env:"WORKER_POOL_SIZE" envDefault:"5"`
	QueueSize           int           `env:"WORKER_QUEUE_SIZE" envDefault:"100"`
	HealthCheckInterval time.Duration `env:"WORKER_HEALTH_CHECK_INTERVAL" envDefault:"30s"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	RunTimeout      time.Duration `env:"TIMEOUT_RUN" envDefault:"3600s"`
	NodeTimeout     time.Duration `env:"TIMEOUT_NODE" envDefault:"300s"`
	ShutdownTimeout time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}

	if err := oneOf("storage backend", c.StorageBackend, BackendMemory, BackendRedis); err != nil {
		return err
	}
	if err := oneOf("events backend", c.EventsBackend, BackendMemory, BackendRedis); err != nil {
		return err
	}
	if err := oneOf("vector backend", c.Vector.Backend, BackendMemory, BackendRedis, BackendNeo4j); err != nil {
		return err
	}
	if err := oneOf("embedding provider", c.Embedding.Provider, "openai", "hash"); err != nil {
		return err
	}
	if err := oneOf("default LLM provider", c.LLM.DefaultProvider, "openai", "anthropic"); err != nil {
		return err
	}

	if c.UsesRedis() && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}
	if c.Vector.Backend == BackendNeo4j && c.Neo4j.URI == "" {
		return fmt.Errorf("neo4j URI is required for the neo4j vector backend")
	}

	if _, err := domain.ParseFailurePolicy(c.Engine.FailurePolicy); err != nil {
		return err
	}
	if c.Engine.MaxParallel < 1 {
		return fmt.Errorf("engine max parallel must be at least 1")
	}

	if c.Workers.PoolSize < 1 {
		return fmt.Errorf("worker pool size must be at least 1")
	}
	if c.Workers.QueueSize < 0 {
		return fmt.Errorf("worker queue size must not be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// UsesRedis reports whether any backend needs a Redis connection
func (c *Config) UsesRedis() bool {
	return c.StorageBackend == BackendRedis || c.EventsBackend == BackendRedis || c.Vector.Backend == BackendRedis
}

// RunDefaults returns the run options applied when a request sets none
func (c *Config) RunDefaults() domain.Options {
	policy, _ := domain.ParseFailurePolicy(c.Engine.FailurePolicy)
	return domain.Options{
		PerNodeTimeout: c.Timeouts.NodeTimeout,
		FailurePolicy:  policy,
		Parallel:       c.Engine.Parallel,
		MaxParallel:    c.Engine.MaxParallel,
	}
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

func oneOf(name, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s: %q (must be one of %v)", name, value, allowed)
}
