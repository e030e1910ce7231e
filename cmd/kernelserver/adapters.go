package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/latticeforge/kernel/internal/infrastructure/database/postgres"
	"github.com/latticeforge/kernel/internal/infrastructure/database/redis"
)

// Adapters for HealthHandler

type postgresHealthAdapter struct {
	pool *pgxpool.Pool
}

func (a *postgresHealthAdapter) Name() string {
	return "postgres"
}

func (a *postgresHealthAdapter) Check(ctx context.Context) error {
	return postgres.HealthCheck(ctx, a.pool)
}

type redisHealthAdapter struct {
	client *redis.Client
}

func (a *redisHealthAdapter) Name() string {
	return "redis"
}

func (a *redisHealthAdapter) Check(ctx context.Context) error {
	return a.client.GetUnderlyingClient().Ping(ctx).Err()
}
