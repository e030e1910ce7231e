// Package config defines every configuration structure the kernel's
// binaries (kernelserver, kernelworker, kernelctl) load at startup. No I/O
// or parsing logic lives here — only plain data types and validation; see
// loader.go for the viper-backed loading machinery.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Server
// ─────────────────────────────────────────────────────────────────────────────

// HTTPConfig holds the host-UI bridge's HTTP listener tunables.
type HTTPConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// GRPCConfig holds the programmatic Evaluate/ApplyEdit surface's listener
// tunables (spec.md §6-EXP).
type GRPCConfig struct {
	Port           int `mapstructure:"port"`
	MaxRecvMsgSize int `mapstructure:"max_recv_msg_size"`
	MaxSendMsgSize int `mapstructure:"max_send_msg_size"`
}

// ServerConfig groups the kernel's two host-UI bridge listeners.
type ServerConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
	GRPC GRPCConfig `mapstructure:"grpc"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Database
// ─────────────────────────────────────────────────────────────────────────────

// PostgresConfig holds project-store connection parameters.
type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// Neo4jConfig holds the node/wire mirror graph's connection parameters.
type Neo4jConfig struct {
	URI                          string        `mapstructure:"uri"`
	User                         string        `mapstructure:"user"`
	Password                     string        `mapstructure:"password"`
	Database                     string        `mapstructure:"database"`
	MaxConnectionPoolSize        int           `mapstructure:"max_connection_pool_size"`
	ConnectionAcquisitionTimeout time.Duration `mapstructure:"connection_acquisition_timeout"`
}

// DatabaseConfig groups every persistent-store connection the kernel opens.
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Neo4j    Neo4jConfig    `mapstructure:"neo4j"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Cache
// ─────────────────────────────────────────────────────────────────────────────

// RedisConfig holds the evaluation-result/view cache connection parameters.
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

// CacheConfig groups the kernel's cache backends.
type CacheConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Search
// ─────────────────────────────────────────────────────────────────────────────

// OpenSearchConfig holds the node/motif full-text index's connection
// parameters.
type OpenSearchConfig struct {
	Addresses          []string `mapstructure:"addresses"`
	User               string   `mapstructure:"user"`
	Password           string   `mapstructure:"password"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	MaxRetries         int      `mapstructure:"max_retries"`
	BulkBatchSize      int      `mapstructure:"bulk_batch_size"`
	ScrollSize         int      `mapstructure:"scroll_size"`
	IndexPrefix        string   `mapstructure:"index_prefix"`
}

// SearchConfig groups the kernel's search backends.
type SearchConfig struct {
	OpenSearch OpenSearchConfig `mapstructure:"opensearch"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Messaging
// ─────────────────────────────────────────────────────────────────────────────

// KafkaConfig holds the async AtomFill job queue's producer/consumer
// parameters.
type KafkaConfig struct {
	Brokers           []string      `mapstructure:"brokers"`
	ConsumerGroup     string        `mapstructure:"consumer_group"`
	AutoOffsetReset   string        `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	MaxBytes          int           `mapstructure:"max_bytes"`
	SessionTimeout    time.Duration `mapstructure:"session_timeout"`
	ProducerRetries   int           `mapstructure:"producer_retries"`
	BatchSize         int           `mapstructure:"batch_size"`
	AutoCreateTopics  bool          `mapstructure:"auto_create_topics"`
	ReplicationFactor int           `mapstructure:"replication_factor"`
	NumPartitions     int           `mapstructure:"num_partitions"`
}

// MessagingConfig groups the kernel's message-queue backends.
type MessagingConfig struct {
	Kafka KafkaConfig `mapstructure:"kafka"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Storage
// ─────────────────────────────────────────────────────────────────────────────

// MinIOConfig holds blob-storage parameters for exported SVG/XYZ artifacts
// and AtomFill job payloads.
type MinIOConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	BucketName    string        `mapstructure:"bucket_name"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PartSize      int64         `mapstructure:"part_size"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// StorageConfig groups the kernel's object-storage backends.
type StorageConfig struct {
	MinIO MinIOConfig `mapstructure:"minio"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Auth
// ─────────────────────────────────────────────────────────────────────────────

// AuthConfig configures the host-UI bridge's bearer-token provider
// (internal/infrastructure/auth/apitoken). A single-operator kernel signs
// and verifies tokens against one shared secret rather than federating with
// an external identity provider.
type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	Issuer     string        `mapstructure:"issuer"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Worker
// ─────────────────────────────────────────────────────────────────────────────

// WorkerConfig holds kernelworker's AtomFill-consumer execution parameters.
type WorkerConfig struct {
	Mode              string        `mapstructure:"mode"` // "local" | "distributed"
	Concurrency       int           `mapstructure:"concurrency"`
	QueueDepth        int           `mapstructure:"queue_depth"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Monitoring
// ─────────────────────────────────────────────────────────────────────────────

// PrometheusConfig holds metrics-endpoint parameters.
type PrometheusConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Port      int    `mapstructure:"port"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

// LoggingConfig holds structured-logging parameters.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format     string `mapstructure:"format"` // "json" | "console"
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// MonitoringConfig groups the kernel's observability backends.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for kernelserver, kernelworker,
// and kernelctl. Every infrastructure component and application service
// reads its settings from the relevant sub-struct.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Search     SearchConfig     `mapstructure:"search"`
	Messaging  MessagingConfig  `mapstructure:"messaging"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Derived accessors
// ─────────────────────────────────────────────────────────────────────────────

// PostgresDSN formats the project store's libpq connection string.
func (c *Config) PostgresDSN() string {
	p := c.Database.Postgres
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Neo4jURI returns the node/wire mirror graph's bolt URI.
func (c *Config) Neo4jURI() string { return c.Database.Neo4j.URI }

// RedisAddr returns the cache backend's address.
func (c *Config) RedisAddr() string { return c.Cache.Redis.Addr }

// KafkaBrokers returns the AtomFill job queue's broker list.
func (c *Config) KafkaBrokers() []string { return c.Messaging.Kafka.Brokers }

// IsProduction reports whether the configured log level indicates a
// production deployment (debug logging left on is treated as non-production).
func (c *Config) IsProduction() bool {
	return c.Monitoring.Logging.Level != "debug"
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config. It
// returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	if c.Server.HTTP.Port < 1 || c.Server.HTTP.Port > 65535 {
		return fmt.Errorf("config: server.http.port %d is out of range [1, 65535]", c.Server.HTTP.Port)
	}

	if c.Database.Postgres.Host == "" {
		return fmt.Errorf("config: database.postgres.host is required")
	}
	if c.Database.Postgres.Port < 1 || c.Database.Postgres.Port > 65535 {
		return fmt.Errorf("config: database.postgres.port %d is out of range [1, 65535]", c.Database.Postgres.Port)
	}
	if c.Database.Postgres.User == "" {
		return fmt.Errorf("config: database.postgres.user is required")
	}
	if c.Database.Postgres.DBName == "" {
		return fmt.Errorf("config: database.postgres.dbname is required")
	}

	if c.Database.Neo4j.URI == "" {
		return fmt.Errorf("config: database.neo4j.uri is required")
	}

	if c.Cache.Redis.Addr == "" {
		return fmt.Errorf("config: cache.redis.addr is required")
	}

	if len(c.Messaging.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: messaging.kafka.brokers must contain at least one broker address")
	}

	switch c.Monitoring.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: monitoring.logging.level %q is invalid; expected debug|info|warn|error", c.Monitoring.Logging.Level)
	}
	switch c.Monitoring.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: monitoring.logging.format %q is invalid; expected json|console", c.Monitoring.Logging.Format)
	}

	return nil
}
