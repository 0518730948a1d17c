// Package testutil holds the fixtures, fakes and database harness shared by
// the candidate service tests.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/talentvault/talentvault-backend/pkg/config"
	"github.com/talentvault/talentvault-backend/pkg/database"
	"github.com/talentvault/talentvault-backend/pkg/logger"
)

// TestDatabaseURLEnv points the integration tests at an existing server
// instead of starting a container, e.g. a CI service database.
const TestDatabaseURLEnv = "TALENTVAULT_TEST_DATABASE_URL"

const (
	postgresImage    = "postgres:15-alpine"
	postgresDatabase = "talentvault_test"
	postgresUser     = "test"
	postgresPassword = "test"
)

// Postgres is a disposable database for integration tests
type Postgres struct {
	Config    config.DatabaseConfig
	container *postgres.PostgresContainer
}

// StartPostgres returns the server named by TALENTVAULT_TEST_DATABASE_URL,
// or starts a postgres container when it is unset.
func StartPostgres(ctx context.Context) (*Postgres, error) {
	if url := GetEnv(TestDatabaseURLEnv); url != "" {
		return &Postgres{Config: testDatabaseConfig(config.DatabaseConfig{URL: url})}, nil
	}

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(postgresImage),
		postgres.WithDatabase(postgresDatabase),
		postgres.WithUsername(postgresUser),
		postgres.WithPassword(postgresPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to resolve container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to resolve container port: %w", err)
	}

	return &Postgres{
		Config: testDatabaseConfig(config.DatabaseConfig{
			Host:     host,
			Port:     port.Int(),
			User:     postgresUser,
			Password: postgresPassword,
			Database: postgresDatabase,
			SSLMode:  "disable",
		}),
		container: container,
	}, nil
}

func testDatabaseConfig(cfg config.DatabaseConfig) config.DatabaseConfig {
	cfg.MaxOpenConns = 5
	cfg.MaxIdleConns = 2
	cfg.ConnMaxLifetime = time.Minute
	return cfg
}

// Open connects through the same path the service uses
func (p *Postgres) Open(ctx context.Context, log *logger.Logger) (*database.DB, error) {
	return database.New(ctx, &p.Config, log)
}

// Terminate removes the container, if one was started
func (p *Postgres) Terminate(ctx context.Context) error {
	if p.container == nil {
		return nil
	}
	return p.container.Terminate(ctx)
}
