package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"time"

	"github.com/gomantics/gitdesk/config"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:embed schema/*.sql
var embedSchema embed.FS

// schemaLockID keys the advisory lock held while the schema is applied, so
// replicas starting together do not race on CREATE statements.
const schemaLockID = 0x67697464 // "gitd"

var defaultPool *pgxpool.Pool

var errNoPool = errors.New("database pool not initialized")

// Init connects to config.Database.Dsn(), applies the embedded schema and
// closes the pool when the application stops.
func Init(lc fx.Lifecycle, l *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), config.Database.ConnectTimeout())
	defer cancel()

	pool, err := open(ctx)
	if err != nil {
		return err
	}
	defaultPool = pool

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			l.Info("closing database pool")
			pool.Close()
			return nil
		},
	})

	l.Info("database pool initialized",
		zap.Int32("max_conns", pool.Config().MaxConns),
		zap.Int32("min_conns", pool.Config().MinConns),
	)

	files, err := ApplySchema(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	l.Info("database schema applied", zap.Strings("files", files))
	return nil
}

func open(ctx context.Context) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(config.Database.Dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	poolConfig.MaxConns = config.Database.MaxConns()
	poolConfig.MinConns = min(config.Database.MinConns(), poolConfig.MaxConns)
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Ping reports whether the pool can reach the database.
func Ping(ctx context.Context) error {
	if defaultPool == nil {
		return errNoPool
	}
	return defaultPool.Ping(ctx)
}

// ApplySchema runs every embedded schema file in lexical order inside one
// transaction and returns the file names. Files are written to be
// re-runnable.
func ApplySchema(ctx context.Context) ([]string, error) {
	if defaultPool == nil {
		return nil, errNoPool
	}

	files, err := schemaFiles()
	if err != nil {
		return nil, err
	}

	err = pgx.BeginFunc(ctx, defaultPool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", int64(schemaLockID)); err != nil {
			return fmt.Errorf("failed to lock schema: %w", err)
		}
		for _, name := range files {
			content, err := embedSchema.ReadFile(path.Join("schema", name))
			if err != nil {
				return fmt.Errorf("failed to read schema file %s: %w", name, err)
			}
			if _, err := tx.Exec(ctx, string(content)); err != nil {
				return fmt.Errorf("failed to execute schema %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func schemaFiles() ([]string, error) {
	entries, err := fs.ReadDir(embedSchema, "schema")
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && path.Ext(entry.Name()) == ".sql" {
			files = append(files, entry.Name())
		}
	}
	slices.Sort(files)
	return files, nil
}
