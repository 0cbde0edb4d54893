package postgres

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/crowdspark/crowdspark-api/internal/observability/logger"
	migrations "github.com/crowdspark/crowdspark-api/migrations/postgres"
)

// Formato de archivo: {version}_{nombre}.sql
var migrationFilePattern = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

type migration struct {
	version int
	name    string
	sql     string
}

// Migrate aplica las migraciones embebidas pendientes, en orden de versión.
// Lleva registro en schema_migrations; re-ejecutar es seguro.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INT PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("postgres: crear schema_migrations: %w", err)
	}

	migs, err := parseMigrations()
	if err != nil {
		return err
	}

	log := logger.Named("migrate")
	for _, m := range migs {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`,
			m.version).Scan(&exists); err != nil {
			return fmt.Errorf("postgres: consultar schema_migrations: %w", err)
		}
		if exists {
			continue
		}

		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("postgres: begin migración %d: %w", m.version, err)
		}
		if _, err := tx.Exec(ctx, m.sql); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("postgres: migración %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
			m.version, m.name); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("postgres: registrar migración %d: %w", m.version, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("postgres: commit migración %d: %w", m.version, err)
		}

		log.Info("migración aplicada",
			logger.Int("version", m.version),
			logger.String("name", m.name))
	}
	return nil
}

func parseMigrations() ([]migration, error) {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("postgres: leer migraciones embebidas: %w", err)
	}

	var migs []migration
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := migrationFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		version, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("postgres: versión inválida en %s: %w", e.Name(), err)
		}
		b, err := migrations.FS.ReadFile(e.Name())
		if err != nil {
			return nil, fmt.Errorf("postgres: leer %s: %w", e.Name(), err)
		}
		migs = append(migs, migration{version: version, name: m[2], sql: string(b)})
	}

	sort.Slice(migs, func(i, j int) bool { return migs[i].version < migs[j].version })
	return migs, nil
}
