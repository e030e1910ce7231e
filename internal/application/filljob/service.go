// Package filljob implements SPEC_FULL.md §4.5-EXP's asynchronous AtomFill
// job queue: a HTTP-triggered re-evaluation of a single AtomFill node that
// runs off the interactive thread instead of blocking the mutating request
// that provoked it, following the shape of project.Service (plain
// input/output structs, a narrow Store/Enqueuer boundary injected by main).
package filljob

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/latticeforge/kernel/internal/infrastructure/monitoring/logging"
	"github.com/latticeforge/kernel/pkg/errors"
)

// Status mirrors pkg/client's FillJobStatus wire enum.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Job is the server-side record of one asynchronous AtomFill evaluation.
type Job struct {
	ID           string    `json:"id"`
	NetworkName  string    `json:"network_name"`
	NodeID       uint64    `json:"node_id"`
	Status       Status    `json:"status"`
	ResultURI    string    `json:"result_uri,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	RequestedAt  time.Time `json:"requested_at"`
	CompletedAt  time.Time `json:"completed_at,omitempty"`
}

// Store persists Job records across the API server that accepts submissions
// and the worker process that completes them. Backed by Redis in production
// (internal/infrastructure/database/redis), since job state is ephemeral and
// needs no durability beyond the job's own lifetime.
type Store interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	Update(ctx context.Context, job *Job) error
}

// Enqueuer hands a newly-submitted Job to the broker (Kafka in production)
// for kernelworker to pick up.
type Enqueuer interface {
	Enqueue(ctx context.Context, job *Job) error
}

// Service implements job submission and status lookup for the §4.5-EXP
// /fill-jobs HTTP surface.
type Service struct {
	store    Store
	enqueuer Enqueuer
	log      logging.Logger
}

// NewService constructs a Service. log may be nil, in which case a no-op
// logger is used (matching project.NewService's tolerance).
func NewService(store Store, enqueuer Enqueuer, log logging.Logger) *Service {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Service{store: store, enqueuer: enqueuer, log: log}
}

// Submit creates a pending Job for nodeID in networkName, persists it, and
// enqueues it for kernelworker. The caller gets back the pending Job
// immediately; Get polls for completion.
func (s *Service) Submit(ctx context.Context, networkName string, nodeID uint64) (*Job, error) {
	if networkName == "" {
		return nil, errors.New(errors.CodeInvalidParam, "network_name is required")
	}
	job := &Job{
		ID:          uuid.New().String(),
		NetworkName: networkName,
		NodeID:      nodeID,
		Status:      StatusPending,
		RequestedAt: time.Now().UTC(),
	}
	if err := s.store.Create(ctx, job); err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "failed to persist fill job")
	}
	if err := s.enqueuer.Enqueue(ctx, job); err != nil {
		job.Status = StatusFailed
		job.ErrorMessage = "failed to enqueue job"
		_ = s.store.Update(ctx, job)
		return nil, errors.Wrap(err, errors.CodeFillJobFailed, "failed to enqueue fill job")
	}
	s.log.Info("fill job submitted",
		logging.String("job_id", job.ID),
		logging.String("network", networkName),
	)
	return job, nil
}

// Get returns the current state of a previously submitted job.
func (s *Service) Get(ctx context.Context, id string) (*Job, error) {
	job, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNotFound, "fill job not found")
	}
	return job, nil
}
