// Package postgres implements repository.Store on PostgreSQL using pgx.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/tern/v2/migrate"

	"github.com/grafixr/site/pkg/logger"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const (
	// migrationLockID is a PostgreSQL advisory lock ID for coordinating migrations.
	// Value: 0x67726166 ("graf" in ASCII hex)
	migrationLockID             = 0x67726166
	migrationLockReleaseTimeout = 5 * time.Second
	versionTable                = "public.schema_version"
)

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string, log logger.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	log.Info(ctx, "database ssl mode", logger.String("sslmode", extractSSLMode(databaseURL)))

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info(ctx, "database connected",
		logger.Int("min_conns", int(poolCfg.MinConns)),
		logger.Int("max_conns", int(poolCfg.MaxConns)))
	return pool, nil
}

func extractSSLMode(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "unknown"
	}
	mode := strings.ToLower(u.Query().Get("sslmode"))
	if mode == "" {
		return "prefer (default)"
	}
	return mode
}

// RunMigrationsWithLock applies the embedded migrations while holding an
// advisory lock, so concurrent replicas migrate one at a time.
func RunMigrationsWithLock(ctx context.Context, pool *pgxpool.Pool, log logger.Logger) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection for migration: %w", err)
	}
	defer conn.Release()

	unlock, err := migrationLock(ctx, conn.Conn(), log)
	if err != nil {
		return err
	}
	defer unlock()

	log.Info(ctx, "running database migrations")
	return runMigrations(ctx, conn.Conn(), log)
}

func runMigrations(ctx context.Context, conn *pgx.Conn, log logger.Logger) error {
	migrationFS, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	migrator, err := migrate.NewMigrator(ctx, conn, versionTable)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := migrator.LoadMigrations(migrationFS); err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	currentVersion, err := migrator.GetCurrentVersion(ctx)
	if err != nil {
		log.Debug(ctx, "could not get current schema version", logger.Error(err))
	} else {
		log.Info(ctx, "current schema version",
			logger.Int("version", int(currentVersion)),
			logger.Int("target", len(migrator.Migrations)))
	}

	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func migrationLock(ctx context.Context, conn *pgx.Conn, log logger.Logger) (func(), error) {
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockID); err != nil {
		return nil, fmt.Errorf("failed to acquire migration lock: %w", err)
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), migrationLockReleaseTimeout)
		defer cancel()

		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", migrationLockID); err != nil {
			log.Error(ctx, "failed to release migration lock", logger.Error(err))
		}
	}, nil
}
