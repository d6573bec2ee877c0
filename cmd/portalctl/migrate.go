package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const migrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    VARCHAR(255) PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

func runMigrate(ctx context.Context, args []string) error {
	fs := newFlagSet("migrate")
	dir := fs.String("dir", filepath.Join("db", "migrations"), "directory holding *.sql migrations")
	if err := fs.Parse(args); err != nil {
		return err
	}
	db, log, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer log.Sync() //nolint:errcheck

	applied, err := migrate(ctx, db, *dir, log)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		color.Cyan("schema is up to date")
		return nil
	}
	for _, name := range applied {
		color.Green("applied %s", name)
	}
	return nil
}

// migrate applies every pending migration in lexical order, one transaction per file.
func migrate(ctx context.Context, db *sqlx.DB, dir string, log *zap.Logger) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	if _, err := db.ExecContext(ctx, migrationsTable); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations: %w", err)
	}
	var done []string
	if err := db.SelectContext(ctx, &done, `SELECT version FROM schema_migrations`); err != nil {
		return nil, fmt.Errorf("read applied migrations: %w", err)
	}
	seen := make(map[string]struct{}, len(done))
	for _, v := range done {
		seen[v] = struct{}{}
	}

	var applied []string
	for _, path := range files {
		version := strings.TrimSuffix(filepath.Base(path), ".sql")
		if _, ok := seen[version]; ok {
			continue
		}
		body, err := os.ReadFile(path)
		if err != nil {
			return applied, fmt.Errorf("read %s: %w", path, err)
		}
		if err := applyMigration(ctx, db, version, string(body)); err != nil {
			return applied, err
		}
		log.Info("migration applied", zap.String("version", version))
		applied = append(applied, version)
	}
	return applied, nil
}

func applyMigration(ctx context.Context, db *sqlx.DB, version, body string) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", version, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, body); err != nil {
		return fmt.Errorf("apply %s: %w", version, err)
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		return fmt.Errorf("record %s: %w", version, err)
	}
	return tx.Commit()
}
