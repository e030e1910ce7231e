// Phase 12 - File #288: cmd/kernelworker/main.go
// kernelworker consumes the asynchronous AtomFill job queue (SPEC_FULL.md
// §4.5-EXP): it evaluates the requested node through the same project.Service
// an interactive client would use, serializes the resulting AtomicStructure
// to XYZ, uploads it to object storage, and publishes the outcome back onto
// the event bus for the API server to relay to callers polling GET
// /fill-jobs/:id.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	miniogo "github.com/minio/minio-go/v7"

	"github.com/latticeforge/kernel/internal/application/filljob"
	"github.com/latticeforge/kernel/internal/application/project"
	"github.com/latticeforge/kernel/internal/config"
	"github.com/latticeforge/kernel/internal/domain/xyzio"
	"github.com/latticeforge/kernel/internal/infrastructure/database/postgres"
	"github.com/latticeforge/kernel/internal/infrastructure/database/postgres/repositories"
	"github.com/latticeforge/kernel/internal/infrastructure/database/redis"
	"github.com/latticeforge/kernel/internal/infrastructure/messaging/kafka"
	"github.com/latticeforge/kernel/internal/infrastructure/monitoring/logging"
	"github.com/latticeforge/kernel/internal/infrastructure/storage/minio"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: using default configuration: %v\n", err)
		cfg = config.NewDefaultConfig()
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

	logger.Info("starting kernelworker",
		logging.String("version", version),
		logging.String("commit", commit),
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

	minioClient, err := minio.NewMinIOClient(&minio.MinIOConfig{
		Endpoint:        cfg.Storage.MinIO.Endpoint,
		AccessKeyID:     cfg.Storage.MinIO.AccessKey,
		SecretAccessKey: cfg.Storage.MinIO.SecretKey,
		UseSSL:          cfg.Storage.MinIO.UseSSL,
		DefaultBucket:   cfg.Storage.MinIO.BucketName,
		Buckets:         minio.BucketConfig{Exports: cfg.Storage.MinIO.BucketName},
		PartSize:        cfg.Storage.MinIO.PartSize,
		PresignExpiry:   cfg.Storage.MinIO.PresignExpiry,
	}, logger)
	if err != nil {
		logger.Fatal("failed to connect to minio", logging.Err(err))
	}
	defer minioClient.Close()

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:         cfg.Messaging.Kafka.Brokers,
		Acks:            "all",
		MaxRetries:      cfg.Messaging.Kafka.ProducerRetries,
		BatchSize:       cfg.Messaging.Kafka.BatchSize,
		MaxMessageBytes: cfg.Messaging.Kafka.MaxBytes,
	}, logger)
	if err != nil {
		logger.Fatal("failed to start kafka producer", logging.Err(err))
	}
	defer producer.Close()

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:         cfg.Messaging.Kafka.Brokers,
		GroupID:         cfg.Messaging.Kafka.ConsumerGroup,
		Topics:          []string{kafka.TopicAtomFillJobs},
		AutoOffsetReset: cfg.Messaging.Kafka.AutoOffsetReset,
		FetchMaxBytes:   cfg.Messaging.Kafka.MaxBytes,
		RetryConfig: kafka.RetryConfig{
			MaxRetries:      cfg.Worker.MaxRetries,
			RetryBackoff:    cfg.Worker.RetryBackoff,
			DeadLetterTopic: kafka.TopicDeadLetterFill,
		},
	}, logger)
	if err != nil {
		logger.Fatal("failed to start kafka consumer", logging.Err(err))
	}
	defer consumer.Close()

	repo := repositories.NewProjectRepository(pgPool, logger)
	svc := project.NewService(repo, logger)

	jobCache := redis.NewRedisCache(redisClient, logger, redis.WithPrefix("lf:"))
	jobStore := filljob.NewRedisStore(jobCache, 24*time.Hour)

	w := &fillJobWorker{
		svc:      svc,
		jobs:     jobStore,
		producer: producer,
		minio:    minioClient,
		log:      logger,
		bucket:   cfg.Storage.MinIO.BucketName,
	}

	if err := consumer.Subscribe(kafka.TopicAtomFillJobs, w.handle); err != nil {
		logger.Fatal("failed to subscribe to atomfill.jobs", logging.Err(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := consumer.Start(ctx); err != nil {
		logger.Fatal("failed to start consumer loop", logging.Err(err))
	}

	logger.Info("kernelworker ready", logging.String("group", cfg.Messaging.Kafka.ConsumerGroup))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down kernelworker...")
	cancel()
}

// fillJobWorker evaluates one AtomFill node per consumed job message.
type fillJobWorker struct {
	svc      *project.Service
	jobs     filljob.Store
	producer *kafka.Producer
	minio    *minio.MinIOClient
	log      logging.Logger
	bucket   string
}

// handle is the kafka.MessageHandler bound to atomfill.jobs. It evaluates
// the job's node, uploads the resulting structure, and publishes a
// FillCompletedPayload on atomfill.events regardless of outcome — failures
// are reported events too, not silently dropped messages.
func (w *fillJobWorker) handle(ctx context.Context, msg *kafka.Message) error {
	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		return err
	}
	var payload kafka.FillJobPayload
	if err := env.DecodePayload(&payload); err != nil {
		return err
	}

	w.log.Info("processing fill job",
		logging.String("job_id", payload.JobID),
		logging.String("network", payload.NetworkName),
	)

	job, err := w.jobs.Get(ctx, payload.JobID)
	if err != nil {
		job = &filljob.Job{ID: payload.JobID, NetworkName: payload.NetworkName, NodeID: payload.NodeID}
	}
	job.Status = filljob.StatusRunning
	_ = w.jobs.Update(ctx, job)

	structure, evalErr := w.svc.EvaluateAtomic(ctx, payload.NetworkName, payload.NodeID)
	if evalErr != nil {
		return w.complete(ctx, job, "", evalErr)
	}

	doc := xyzio.Write(structure, fmt.Sprintf("fill job %s", payload.JobID))
	objectName := fmt.Sprintf("fill-jobs/%s.xyz", payload.JobID)
	_, err = w.minio.GetClient().PutObject(ctx, w.bucket, objectName,
		strings.NewReader(doc), int64(len(doc)), miniogo.PutObjectOptions{ContentType: "chemical/x-xyz"})
	if err != nil {
		return w.complete(ctx, job, "", err)
	}

	return w.complete(ctx, job, fmt.Sprintf("%s/%s", w.bucket, objectName), nil)
}

// complete updates the job's terminal state and publishes the matching
// FillCompletedPayload event.
func (w *fillJobWorker) complete(ctx context.Context, job *filljob.Job, resultURI string, runErr error) error {
	job.CompletedAt = time.Now().UTC()
	if runErr != nil {
		job.Status = filljob.StatusFailed
		job.ErrorMessage = runErr.Error()
	} else {
		job.Status = filljob.StatusSucceeded
		job.ResultURI = resultURI
	}
	if err := w.jobs.Update(ctx, job); err != nil {
		w.log.Error("failed to persist fill job completion", logging.Err(err))
	}

	completed := kafka.FillCompletedPayload{
		JobID:       job.ID,
		Success:     runErr == nil,
		ResultURI:   resultURI,
		CompletedAt: job.CompletedAt,
	}
	if runErr != nil {
		completed.ErrorMessage = runErr.Error()
	}
	env, err := kafka.NewEventEnvelope("atomfill.job.completed", "kernelworker", completed)
	if err != nil {
		return err
	}
	pmsg, err := env.ToMessage(kafka.TopicAtomFillEvents)
	if err != nil {
		return err
	}
	pmsg.Key = []byte(job.ID)
	if pubErr := w.producer.Publish(ctx, pmsg); pubErr != nil {
		w.log.Error("failed to publish fill completion event", logging.Err(pubErr))
	}

	if runErr != nil {
		w.log.Error("fill job failed", logging.String("job_id", job.ID), logging.Err(runErr))
		return runErr
	}
	w.log.Info("fill job completed", logging.String("job_id", job.ID), logging.String("result_uri", resultURI))
	return nil
}

// loadConfig attempts to load configuration from file, returns error if not found.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	return config.LoadFromFile(path)
}
