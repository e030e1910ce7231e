package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultHTTPHost           = "0.0.0.0"
	DefaultHTTPPort           = 8080
	DefaultHTTPReadTimeout    = 15 * time.Second
	DefaultHTTPWriteTimeout   = 15 * time.Second
	DefaultHTTPMaxHeaderBytes = 1 << 20
	DefaultHTTPShutdownTimeout = 10 * time.Second

	DefaultGRPCPort           = 9090
	DefaultGRPCMaxRecvMsgSize = 16 << 20
	DefaultGRPCMaxSendMsgSize = 16 << 20

	DefaultPostgresHost            = "localhost"
	DefaultPostgresPort            = 5432
	DefaultPostgresDBName          = "latticeforge"
	DefaultPostgresSSLMode         = "disable"
	DefaultPostgresMaxOpenConns    = 25
	DefaultPostgresMaxIdleConns    = 5
	DefaultPostgresConnMaxLifetime = 30 * time.Minute

	DefaultNeo4jMaxPoolSize        = 50
	DefaultNeo4jAcquisitionTimeout = 60 * time.Second
	DefaultNeo4jDatabase           = "neo4j"

	DefaultRedisAddr         = "localhost:6379"
	DefaultRedisDB           = 0
	DefaultRedisPoolSize     = 10
	DefaultRedisMinIdleConns = 2
	DefaultRedisDialTimeout  = 5 * time.Second
	DefaultRedisReadTimeout  = 3 * time.Second
	DefaultRedisWriteTimeout = 3 * time.Second
	DefaultRedisTTL          = 1 * time.Hour

	DefaultOpenSearchMaxRetries    = 3
	DefaultOpenSearchBulkBatchSize = 500
	DefaultOpenSearchScrollSize    = 1000

	DefaultKafkaBroker          = "localhost:9092"
	DefaultKafkaConsumerGroup   = "latticeforge-group"
	DefaultKafkaAutoOffsetReset = "earliest"
	DefaultKafkaMaxBytes        = 1 << 20
	DefaultKafkaSessionTimeout  = 10 * time.Second
	DefaultKafkaProducerRetries = 3
	DefaultKafkaBatchSize       = 100
	DefaultKafkaNumPartitions   = 3

	DefaultMinIOEndpoint      = "localhost:9000"
	DefaultMinIOBucketName    = "latticeforge-artifacts"
	DefaultMinIOPartSize      = 5 * 1024 * 1024
	DefaultMinIOPresignExpiry = 15 * time.Minute

	DefaultAuthIssuer   = "latticeforge-kernel"
	DefaultAuthTokenTTL = 24 * time.Hour

	DefaultWorkerMode              = "local"
	DefaultWorkerConcurrency       = 10
	DefaultWorkerQueueDepth        = 1000
	DefaultWorkerHeartbeatInterval = 10 * time.Second
	DefaultWorkerMaxRetries        = 3
	DefaultWorkerRetryBackoff      = 2 * time.Second

	DefaultPrometheusPort      = 9100
	DefaultPrometheusPath      = "/metrics"
	DefaultPrometheusNamespace = "latticeforge"

	DefaultLogLevel      = "info"
	DefaultLogFormat     = "json"
	DefaultLogOutput     = "stdout"
	DefaultLogMaxSize    = 100
	DefaultLogMaxBackups = 5
	DefaultLogMaxAge     = 30
)

// NewDefaultConfig returns a Config populated entirely with platform
// defaults. It passes Validate once the required fields that have no
// default (database.postgres.user and database.neo4j.uri) are set.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every zero-value field in cfg with the platform
// default. Fields already set by the caller (non-zero values) are left
// unchanged so explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server.HTTP ───────────────────────────────────────────────────────
	if cfg.Server.HTTP.Host == "" {
		cfg.Server.HTTP.Host = DefaultHTTPHost
	}
	if cfg.Server.HTTP.Port == 0 {
		cfg.Server.HTTP.Port = DefaultHTTPPort
	}
	if cfg.Server.HTTP.ReadTimeout == 0 {
		cfg.Server.HTTP.ReadTimeout = DefaultHTTPReadTimeout
	}
	if cfg.Server.HTTP.WriteTimeout == 0 {
		cfg.Server.HTTP.WriteTimeout = DefaultHTTPWriteTimeout
	}
	if cfg.Server.HTTP.MaxHeaderBytes == 0 {
		cfg.Server.HTTP.MaxHeaderBytes = DefaultHTTPMaxHeaderBytes
	}
	if cfg.Server.HTTP.ShutdownTimeout == 0 {
		cfg.Server.HTTP.ShutdownTimeout = DefaultHTTPShutdownTimeout
	}

	// ── Server.GRPC ───────────────────────────────────────────────────────
	if cfg.Server.GRPC.Port == 0 {
		cfg.Server.GRPC.Port = DefaultGRPCPort
	}
	if cfg.Server.GRPC.MaxRecvMsgSize == 0 {
		cfg.Server.GRPC.MaxRecvMsgSize = DefaultGRPCMaxRecvMsgSize
	}
	if cfg.Server.GRPC.MaxSendMsgSize == 0 {
		cfg.Server.GRPC.MaxSendMsgSize = DefaultGRPCMaxSendMsgSize
	}

	// ── Database.Postgres ─────────────────────────────────────────────────
	if cfg.Database.Postgres.Host == "" {
		cfg.Database.Postgres.Host = DefaultPostgresHost
	}
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = DefaultPostgresPort
	}
	if cfg.Database.Postgres.DBName == "" {
		cfg.Database.Postgres.DBName = DefaultPostgresDBName
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = DefaultPostgresSSLMode
	}
	if cfg.Database.Postgres.MaxOpenConns == 0 {
		cfg.Database.Postgres.MaxOpenConns = DefaultPostgresMaxOpenConns
	}
	if cfg.Database.Postgres.MaxIdleConns == 0 {
		cfg.Database.Postgres.MaxIdleConns = DefaultPostgresMaxIdleConns
	}
	if cfg.Database.Postgres.ConnMaxLifetime == 0 {
		cfg.Database.Postgres.ConnMaxLifetime = DefaultPostgresConnMaxLifetime
	}

	// ── Database.Neo4j ────────────────────────────────────────────────────
	if cfg.Database.Neo4j.MaxConnectionPoolSize == 0 {
		cfg.Database.Neo4j.MaxConnectionPoolSize = DefaultNeo4jMaxPoolSize
	}
	if cfg.Database.Neo4j.ConnectionAcquisitionTimeout == 0 {
		cfg.Database.Neo4j.ConnectionAcquisitionTimeout = DefaultNeo4jAcquisitionTimeout
	}
	if cfg.Database.Neo4j.Database == "" {
		cfg.Database.Neo4j.Database = DefaultNeo4jDatabase
	}

	// ── Cache.Redis ───────────────────────────────────────────────────────
	if cfg.Cache.Redis.Addr == "" {
		cfg.Cache.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Cache.Redis.PoolSize == 0 {
		cfg.Cache.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Cache.Redis.MinIdleConns == 0 {
		cfg.Cache.Redis.MinIdleConns = DefaultRedisMinIdleConns
	}
	if cfg.Cache.Redis.DialTimeout == 0 {
		cfg.Cache.Redis.DialTimeout = DefaultRedisDialTimeout
	}
	if cfg.Cache.Redis.ReadTimeout == 0 {
		cfg.Cache.Redis.ReadTimeout = DefaultRedisReadTimeout
	}
	if cfg.Cache.Redis.WriteTimeout == 0 {
		cfg.Cache.Redis.WriteTimeout = DefaultRedisWriteTimeout
	}
	if cfg.Cache.Redis.DefaultTTL == 0 {
		cfg.Cache.Redis.DefaultTTL = DefaultRedisTTL
	}

	// ── Search.OpenSearch ─────────────────────────────────────────────────
	if len(cfg.Search.OpenSearch.Addresses) == 0 {
		cfg.Search.OpenSearch.Addresses = []string{"http://localhost:9200"}
	}
	if cfg.Search.OpenSearch.MaxRetries == 0 {
		cfg.Search.OpenSearch.MaxRetries = DefaultOpenSearchMaxRetries
	}
	if cfg.Search.OpenSearch.BulkBatchSize == 0 {
		cfg.Search.OpenSearch.BulkBatchSize = DefaultOpenSearchBulkBatchSize
	}
	if cfg.Search.OpenSearch.ScrollSize == 0 {
		cfg.Search.OpenSearch.ScrollSize = DefaultOpenSearchScrollSize
	}

	// ── Messaging.Kafka ───────────────────────────────────────────────────
	if len(cfg.Messaging.Kafka.Brokers) == 0 {
		cfg.Messaging.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Messaging.Kafka.ConsumerGroup == "" {
		cfg.Messaging.Kafka.ConsumerGroup = DefaultKafkaConsumerGroup
	}
	if cfg.Messaging.Kafka.AutoOffsetReset == "" {
		cfg.Messaging.Kafka.AutoOffsetReset = DefaultKafkaAutoOffsetReset
	}
	if cfg.Messaging.Kafka.MaxBytes == 0 {
		cfg.Messaging.Kafka.MaxBytes = DefaultKafkaMaxBytes
	}
	if cfg.Messaging.Kafka.SessionTimeout == 0 {
		cfg.Messaging.Kafka.SessionTimeout = DefaultKafkaSessionTimeout
	}
	if cfg.Messaging.Kafka.ProducerRetries == 0 {
		cfg.Messaging.Kafka.ProducerRetries = DefaultKafkaProducerRetries
	}
	if cfg.Messaging.Kafka.BatchSize == 0 {
		cfg.Messaging.Kafka.BatchSize = DefaultKafkaBatchSize
	}
	if cfg.Messaging.Kafka.NumPartitions == 0 {
		cfg.Messaging.Kafka.NumPartitions = DefaultKafkaNumPartitions
	}

	// ── Storage.MinIO ─────────────────────────────────────────────────────
	if cfg.Storage.MinIO.Endpoint == "" {
		cfg.Storage.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.Storage.MinIO.BucketName == "" {
		cfg.Storage.MinIO.BucketName = DefaultMinIOBucketName
	}
	if cfg.Storage.MinIO.PartSize == 0 {
		cfg.Storage.MinIO.PartSize = DefaultMinIOPartSize
	}
	if cfg.Storage.MinIO.PresignExpiry == 0 {
		cfg.Storage.MinIO.PresignExpiry = DefaultMinIOPresignExpiry
	}

	// ── Auth ──────────────────────────────────────────────────────────────
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = DefaultAuthIssuer
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = DefaultAuthTokenTTL
	}

	// ── Worker ────────────────────────────────────────────────────────────
	if cfg.Worker.Mode == "" {
		cfg.Worker.Mode = DefaultWorkerMode
	}
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.QueueDepth == 0 {
		cfg.Worker.QueueDepth = DefaultWorkerQueueDepth
	}
	if cfg.Worker.HeartbeatInterval == 0 {
		cfg.Worker.HeartbeatInterval = DefaultWorkerHeartbeatInterval
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = DefaultWorkerMaxRetries
	}
	if cfg.Worker.RetryBackoff == 0 {
		cfg.Worker.RetryBackoff = DefaultWorkerRetryBackoff
	}

	// ── Monitoring.Prometheus ─────────────────────────────────────────────
	if cfg.Monitoring.Prometheus.Port == 0 {
		cfg.Monitoring.Prometheus.Port = DefaultPrometheusPort
	}
	if cfg.Monitoring.Prometheus.Path == "" {
		cfg.Monitoring.Prometheus.Path = DefaultPrometheusPath
	}
	if cfg.Monitoring.Prometheus.Namespace == "" {
		cfg.Monitoring.Prometheus.Namespace = DefaultPrometheusNamespace
	}

	// ── Monitoring.Logging ────────────────────────────────────────────────
	if cfg.Monitoring.Logging.Level == "" {
		cfg.Monitoring.Logging.Level = DefaultLogLevel
	}
	if cfg.Monitoring.Logging.Format == "" {
		cfg.Monitoring.Logging.Format = DefaultLogFormat
	}
	if cfg.Monitoring.Logging.Output == "" {
		cfg.Monitoring.Logging.Output = DefaultLogOutput
	}
	if cfg.Monitoring.Logging.MaxSize == 0 {
		cfg.Monitoring.Logging.MaxSize = DefaultLogMaxSize
	}
	if cfg.Monitoring.Logging.MaxBackups == 0 {
		cfg.Monitoring.Logging.MaxBackups = DefaultLogMaxBackups
	}
	if cfg.Monitoring.Logging.MaxAge == 0 {
		cfg.Monitoring.Logging.MaxAge = DefaultLogMaxAge
	}
}
