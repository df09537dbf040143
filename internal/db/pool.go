package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Pool is the report log connection pool
type Pool = pgxpool.Pool

// NewPool creates the report log connection pool
func NewPool(lc fx.Lifecycle, logger *zap.Logger, databaseURL string) (*Pool, error) {
	logger.Info("initializing database connection pool", zap.String("url", MaskPassword(databaseURL)))

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("[DATABASE] failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("[DATABASE] failed to create connection pool: %w", err)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("attempting to connect to database...")
			if err := pool.Ping(ctx); err != nil {
				logger.Error("database ping failed", zap.Error(err), zap.String("url", MaskPassword(databaseURL)))
				return fmt.Errorf("[DATABASE CONNECTION FAILED] cannot reach database. Please check DATABASE_URL or unset it to disable the report log. Error: %w", err)
			}
			logger.Info("database connection established successfully")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			pool.Close()
			logger.Info("database connection closed")
			return nil
		},
	})

	return pool, nil
}

// MaskPassword hides the password in a database URL for logging.
// Keyword/value connection strings are hidden entirely.
func MaskPassword(databaseURL string) string {
	if databaseURL == "" {
		return "<empty>"
	}
	if !strings.Contains(databaseURL, "://") {
		return "<redacted>"
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "<redacted>"
	}
	return u.Redacted()
}
