package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/talentvault/talentvault-backend/pkg/config"
	"github.com/talentvault/talentvault-backend/pkg/logger"
)

const healthTimeout = time.Second

// DB is the candidate store's connection pool
type DB struct {
	*sqlx.DB
	logger *logger.Logger
}

// New opens the pool described by cfg and pings it
func New(ctx context.Context, cfg *config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database %s: %w", cfg.Redacted(), err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	log.Info().
		Str("target", cfg.Redacted()).
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("connected to database")

	return Wrap(db, log), nil
}

// Wrap adapts an existing sqlx handle, e.g. one backed by sqlmock or a test container
func Wrap(db *sqlx.DB, log *logger.Logger) *DB {
	return &DB{DB: db, logger: log.WithComponent("database")}
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// Health pings the database and reports pool usage for /health
func (db *DB) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	stats := db.Stats()
	status := map[string]string{
		"status":           "up",
		"open_connections": strconv.Itoa(stats.OpenConnections),
		"in_use":           strconv.Itoa(stats.InUse),
	}

	if err := db.PingContext(ctx); err != nil {
		db.logger.Warn().Err(err).Msg("database health check failed")
		status["status"] = "down"
		status["error"] = err.Error()
	}

	return status
}
