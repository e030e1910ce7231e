// Phase 12 - File #286: cmd/kernelserver/main.go
// Kernel server entry point: hosts the §6-EXP HTTP bridge over the
// in-process project.Service, plus a gRPC listener that has no service
// registered on it.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/latticeforge/kernel/internal/config"
	"github.com/latticeforge/kernel/internal/application/filljob"
	"github.com/latticeforge/kernel/internal/application/project"
	"github.com/latticeforge/kernel/internal/infrastructure/auth/apitoken"
	infraNeo4j "github.com/latticeforge/kernel/internal/infrastructure/database/neo4j"
	neo4jRepositories "github.com/latticeforge/kernel/internal/infrastructure/database/neo4j/repositories"
	"github.com/latticeforge/kernel/internal/infrastructure/database/postgres"
	"github.com/latticeforge/kernel/internal/infrastructure/database/postgres/repositories"
	"github.com/latticeforge/kernel/internal/infrastructure/database/redis"
	"github.com/latticeforge/kernel/internal/infrastructure/messaging/kafka"
	"github.com/latticeforge/kernel/internal/infrastructure/monitoring/logging"
	httpserver "github.com/latticeforge/kernel/internal/interfaces/http"
	"github.com/latticeforge/kernel/internal/interfaces/http/handlers"
	"github.com/latticeforge/kernel/internal/interfaces/http/middleware"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

const (
	defaultConfigPath = "configs/config.yaml"
	defaultHTTPPort   = 8080
	defaultGRPCPort   = 9090
	shutdownTimeout   = 30 * time.Second
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	grpcPort := flag.Int("grpc-port", 0, "gRPC server port (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: using default configuration: %v\n", err)
		cfg = config.NewDefaultConfig()
	}

	actualHTTPPort := cfg.Server.HTTP.Port
	if *httpPort > 0 {
		actualHTTPPort = *httpPort
	}
	if actualHTTPPort == 0 {
		actualHTTPPort = defaultHTTPPort
	}

	actualGRPCPort := cfg.Server.GRPC.Port
	if *grpcPort > 0 {
		actualGRPCPort = *grpcPort
	}
	if actualGRPCPort == 0 {
		actualGRPCPort = defaultGRPCPort
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:  cfg.Monitoring.Logging.Level,
		Format: cfg.Monitoring.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	logger.Info("starting kernel server",
		logging.String("version", version),
		logging.String("commit", commit),
		logging.Int("http_port", actualHTTPPort),
		logging.Int("grpc_port", actualGRPCPort),
	)

	pgPool, err := postgres.NewConnectionPool(cfg.Database.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect to postgres", logging.Err(err))
	}
	defer postgres.Close(pgPool)

	redisClient, err := redis.NewClient(&redis.RedisConfig{
		Addr:         cfg.Cache.Redis.Addr,
		Password:     cfg.Cache.Redis.Password,
		DB:           cfg.Cache.Redis.DB,
		PoolSize:     cfg.Cache.Redis.PoolSize,
		MinIdleConns: cfg.Cache.Redis.MinIdleConns,
		DialTimeout:  cfg.Cache.Redis.DialTimeout,
		ReadTimeout:  cfg.Cache.Redis.ReadTimeout,
		WriteTimeout: cfg.Cache.Redis.WriteTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("failed to connect to redis", logging.Err(err))
	}
	defer redisClient.Close()

	repo := repositories.NewProjectRepository(pgPool, logger)
	svc := project.NewService(repo, logger)

	neo4jDriver, err := infraNeo4j.NewDriver(infraNeo4j.Neo4jConfig{
		URI:                   cfg.Neo4jURI(),
		Username:              cfg.Database.Neo4j.User,
		Password:              cfg.Database.Neo4j.Password,
		Database:              cfg.Database.Neo4j.Database,
		MaxConnectionPoolSize: cfg.Database.Neo4j.MaxConnectionPoolSize,
	}, logger)
	if err != nil {
		logger.Warn("failed to reach neo4j; node/wire topology mirror disabled", logging.Err(err))
	} else {
		defer neo4jDriver.Close()
		graphRepo := neo4jRepositories.NewNeo4jNetworkGraphRepo(neo4jDriver, logger)
		if err := graphRepo.EnsureConstraints(context.Background()); err != nil {
			logger.Warn("failed to ensure neo4j constraints", logging.Err(err))
		}
		if err := graphRepo.EnsureIndexes(context.Background()); err != nil {
			logger.Warn("failed to ensure neo4j indexes", logging.Err(err))
		}
		svc = svc.WithGraphMirror(graphRepo)
	}

	var fillJobHandler *handlers.FillJobHandler
	topicManager, err := kafka.NewTopicManager(cfg.KafkaBrokers(), logger)
	if err != nil {
		logger.Warn("failed to reach kafka; async fill-job submission will fail", logging.Err(err))
	} else {
		defer topicManager.Close()
		if err := topicManager.EnsureDefaultTopics(context.Background()); err != nil {
			logger.Warn("failed to provision atomfill topics", logging.Err(err))
		}
		producer, err := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:         cfg.Messaging.Kafka.Brokers,
			Acks:            "all",
			MaxRetries:      cfg.Messaging.Kafka.ProducerRetries,
			BatchSize:       cfg.Messaging.Kafka.BatchSize,
			MaxMessageBytes: cfg.Messaging.Kafka.MaxBytes,
		}, logger)
		if err != nil {
			logger.Warn("failed to start kafka producer; async fill-job submission will fail", logging.Err(err))
		} else {
			defer producer.Close()
			jobCache := redis.NewRedisCache(redisClient, logger, redis.WithPrefix("lf:"))
			jobStore := filljob.NewRedisStore(jobCache, 24*time.Hour)
			jobSvc := filljob.NewService(jobStore, filljob.NewKafkaEnqueuer(producer, "kernelserver"), logger)
			fillJobHandler = handlers.NewFillJobHandler(jobSvc)
		}
	}

	authProvider, err := apitoken.NewAPITokenProvider(apitoken.Config{
		SigningKey: []byte(cfg.Auth.SigningKey),
		Issuer:     cfg.Auth.Issuer,
		TokenTTL:   cfg.Auth.TokenTTL,
	}, logger)
	if err != nil {
		logger.Fatal("failed to build auth provider", logging.Err(err))
	}
	authMiddleware := apitoken.NewAuthMiddleware(authProvider, logger, apitoken.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/readyz", "/healthz/detail"},
	})

	corsMiddleware := middleware.NewCORSMiddleware(middleware.DefaultCORSConfig())
	rateLimiter := middleware.NewTokenBucketLimiter(50, 100, time.Minute)

	healthHandler := handlers.NewHealthHandler(version,
		&postgresHealthAdapter{pool: pgPool},
		&redisHealthAdapter{client: redisClient},
	)

	routerCfg := httpserver.RouterConfig{
		NetworkHandler: handlers.NewNetworkHandler(svc),
		ProjectHandler: handlers.NewProjectHandler(svc),
		FillJobHandler: fillJobHandler,
		HealthHandler:  healthHandler,
		AuthMiddleware: authMiddleware,
		CORSMiddleware: corsMiddleware,
		Logger:         logger,
		RateLimiter:    rateLimiter,
		RateLimitConfig: middleware.RateLimitConfig{
			RequestsPerSecond: 50,
			BurstSize:         100,
		},
	}
	httpRouter := httpserver.NewRouter(routerCfg)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", actualHTTPPort),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
	}

	// TODO: register the Evaluate/ApplyEdit gRPC service (internal/interfaces/grpc)
	// once its generated stubs land; until then this is a bare server so the
	// process still exposes a dial-able gRPC port for health/reflection tooling.
	grpcSrv := grpc.NewServer()

	go func() {
		logger.Info("HTTP server listening", logging.Int("port", actualHTTPPort))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", logging.Err(err))
		}
	}()

	go func() {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", actualGRPCPort))
		if err != nil {
			logger.Error("failed to listen for gRPC", logging.Err(err))
			return
		}
		logger.Info("gRPC server listening", logging.Int("port", actualGRPCPort))
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("gRPC server error", logging.Err(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
	}
	grpcSrv.GracefulStop()

	logger.Info("servers stopped")
}

// loadConfig attempts to load configuration from file, returns error if not found.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	return config.LoadFromFile(path)
}
