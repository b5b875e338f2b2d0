package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/runevale/server/internal/config"
	"go.uber.org/zap"
)

// DB wraps the pgx pool backing the loot audit log. The pool is shared by
// every repository; repositories never open their own connections.
type DB struct {
	Pool *pgxpool.Pool
	log  *zap.Logger
}

// Open connects and verifies the database described by cfg. The caller owns
// the returned DB and must Close it; a failed ping closes the pool itself.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime.Duration

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	log.Info("database connected",
		zap.Int("max_conns", cfg.MaxOpenConns),
		zap.Duration("conn_lifetime", cfg.ConnMaxLifetime.Duration),
	)
	return &DB{Pool: pool, log: log}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}
