package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/talentvault/talentvault-backend/pkg/database"
	"github.com/talentvault/talentvault-backend/pkg/logger"
)

// one database per test binary
var (
	sharedOnce sync.Once
	sharedPG   *Postgres
	sharedDB   *database.DB
	sharedErr  error
)

// MigrateFunc applies a package's schema
type MigrateFunc func(ctx context.Context, db *sqlx.DB) error

// IntegrationSuite is a migrated database shared by a package's tests
type IntegrationSuite struct {
	DB       *database.DB
	Fixtures *FixtureFactory
}

// NewIntegrationSuite starts (or reuses) the test database and applies
// migrations. Call from TestMain and pair with TerminateShared.
//
//	func TestMain(m *testing.M) {
//	    flag.Parse()
//	    if !testing.Short() {
//	        suite, err = testutil.NewIntegrationSuite(ctx, repository.Migrate)
//	    }
//	    code := m.Run()
//	    testutil.TerminateShared(ctx)
//	    os.Exit(code)
//	}
func NewIntegrationSuite(ctx context.Context, migrations ...MigrateFunc) (*IntegrationSuite, error) {
	sharedOnce.Do(func() {
		sharedPG, sharedErr = StartPostgres(ctx)
		if sharedErr != nil {
			return
		}
		sharedDB, sharedErr = sharedPG.Open(ctx, logger.Nop())
	})
	if sharedErr != nil {
		return nil, sharedErr
	}

	for _, migrate := range migrations {
		if err := migrate(ctx, sharedDB.DB); err != nil {
			return nil, fmt.Errorf("failed to migrate test database: %w", err)
		}
	}

	return &IntegrationSuite{DB: sharedDB, Fixtures: NewFixtureFactory()}, nil
}

// Truncate empties tables and resets their id sequences
func (s *IntegrationSuite) Truncate(t *testing.T, ctx context.Context, tables ...string) {
	t.Helper()
	if len(tables) == 0 {
		return
	}

	query := fmt.Sprintf("TRUNCATE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", "))
	if _, err := s.DB.ExecContext(ctx, query); err != nil {
		t.Fatalf("failed to truncate %v: %v", tables, err)
	}
}

// TerminateShared closes the shared database and removes its container
func TerminateShared(ctx context.Context) {
	if sharedDB != nil {
		sharedDB.Close()
	}
	if sharedPG != nil {
		sharedPG.Terminate(ctx)
	}
}
