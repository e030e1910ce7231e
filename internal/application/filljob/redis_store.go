package filljob

import (
	"context"
	"time"

	"github.com/latticeforge/kernel/internal/infrastructure/database/redis"
	"github.com/latticeforge/kernel/pkg/errors"
)

// redisStore implements Store over the shared Redis cache, the same backend
// kernelserver already wires for rate limiting and the host-UI session
// cache. Jobs expire after ttl so a forgotten poll loop doesn't leak keys.
type redisStore struct {
	cache redis.Cache
	ttl   time.Duration
}

// NewRedisStore returns a Store backed by cache. ttl bounds how long a job
// record stays queryable after its most recent Create or Update (every write
// resets the expiry); zero selects a day.
func NewRedisStore(cache redis.Cache, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisStore{cache: cache, ttl: ttl}
}

func jobKey(id string) string { return "filljob:" + id }

func (s *redisStore) Create(ctx context.Context, job *Job) error {
	return s.cache.Set(ctx, jobKey(job.ID), job, s.ttl)
}

func (s *redisStore) Get(ctx context.Context, id string) (*Job, error) {
	var job Job
	if err := s.cache.Get(ctx, jobKey(id), &job); err != nil {
		if err == redis.ErrCacheMiss {
			return nil, errors.New(errors.CodeNotFound, "fill job not found: "+id)
		}
		return nil, err
	}
	return &job, nil
}

func (s *redisStore) Update(ctx context.Context, job *Job) error {
	return s.cache.Set(ctx, jobKey(job.ID), job, s.ttl)
}
