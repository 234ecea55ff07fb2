package infra

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoDatabase is returned by NewHarness when neither DATABASE_URL, docker
// nor a local PostgreSQL is available. Tests skip on it.
var ErrNoDatabase = errors.New("infra: no postgres available")

// Harness owns a migrated database for one test package or run.
type Harness struct {
	container *PGContainer
	pool      *pgxpool.Pool
	teardown  func(context.Context) error
	dsn       string
}

// NewHarness picks a database in this order: DATABASE_URL (isolated in a
// throwaway schema), a Postgres 16 test container, a local PostgreSQL
// database called name.
func NewHarness(ctx context.Context, name string) (*Harness, error) {
	var (
		h       = &Harness{container: &PGContainer{}}
		isolate bool
		err     error
	)

	switch {
	case os.Getenv("DATABASE_URL") != "":
		h.dsn = os.Getenv("DATABASE_URL")
		isolate = true
	case DockerAvailable(ctx):
		h.container, h.dsn, err = StartPostgres16(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("start postgres container: %w", err)
		}
	default:
		h.dsn, err = InitLocalDatabase(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoDatabase, err)
		}
	}

	h.pool, h.teardown, err = OpenMigrated(ctx, h.dsn, isolate)
	if err != nil {
		_ = h.container.Terminate(ctx)
		return nil, err
	}
	return h, nil
}

// Pool exposes the configured pgx pool.
func (h *Harness) Pool() *pgxpool.Pool {
	return h.pool
}

// DSN returns the connection string for direct connections.
func (h *Harness) DSN() string {
	return h.dsn
}

// Reset empties the houses table and restarts its id sequence.
func (h *Harness) Reset(ctx context.Context) error {
	if _, err := h.pool.Exec(ctx, "TRUNCATE TABLE houses RESTART IDENTITY"); err != nil {
		return fmt.Errorf("truncate houses: %w", err)
	}
	return nil
}

// Close tears down resources.
func (h *Harness) Close(ctx context.Context) {
	if h.pool != nil {
		h.pool.Close()
	}
	if h.teardown != nil {
		_ = h.teardown(ctx)
	}
	_ = h.container.Terminate(ctx)
}
