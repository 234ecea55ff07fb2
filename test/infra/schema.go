package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rental/migrations"
)

// OpenMigrated connects a pool to dsn and brings the schema up to date with
// the embedded migrations. With isolate set the pool works inside a fresh
// schema, dropped again by the returned teardown.
func OpenMigrated(ctx context.Context, dsn string, isolate bool) (*pgxpool.Pool, func(context.Context) error, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("parse pool config: %w", err)
	}

	teardown := func(context.Context) error { return nil }
	if isolate {
		schema, err := createSchema(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		setPath := "SET search_path TO " + schema
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, setPath)
			return err
		}
		teardown = func(ctx context.Context) error { return dropSchema(ctx, dsn, schema) }
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		_ = teardown(ctx)
		return nil, nil, fmt.Errorf("connect pool: %w", err)
	}
	if _, err := migrations.Apply(ctx, pool); err != nil {
		pool.Close()
		_ = teardown(ctx)
		return nil, nil, err
	}
	return pool, teardown, nil
}

// createSchema makes a per-run schema and returns its quoted identifier.
func createSchema(ctx context.Context, dsn string) (string, error) {
	ident := pgx.Identifier{fmt.Sprintf("rental_run_%d", time.Now().UnixNano())}.Sanitize()

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return "", fmt.Errorf("connect for schema: %w", err)
	}
	defer conn.Close(ctx)
	if _, err := conn.Exec(ctx, "CREATE SCHEMA "+ident); err != nil {
		return "", fmt.Errorf("create schema %s: %w", ident, err)
	}
	return ident, nil
}

func dropSchema(ctx context.Context, dsn, ident string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)
	_, err = conn.Exec(ctx, "DROP SCHEMA IF EXISTS "+ident+" CASCADE")
	return err
}
