package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/docexport/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Store struct {
	pool        *pgxpool.Pool
	invocations *InvocationRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:        pool,
		invocations: NewInvocationRepo(pool),
	}, nil
}

// Migrate applies the embedded schema files in lexical order. Every file is
// idempotent so Migrate is safe to run on each start.
func (s *Store) Migrate(ctx context.Context) error {
	names, err := migrationFiles()
	if err != nil {
		return fmt.Errorf("postgres.Store.Migrate: %w", err)
	}

	for _, name := range names {
		sql, readErr := migrations.ReadFile(name)
		if readErr != nil {
			return fmt.Errorf("postgres.Store.Migrate: read %s: %w", name, readErr)
		}
		if _, execErr := s.pool.Exec(ctx, string(sql)); execErr != nil {
			return fmt.Errorf("postgres.Store.Migrate: apply %s: %w", name, execErr)
		}
	}

	return nil
}

func migrationFiles() ([]string, error) {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Invocations() domain.InvocationRepository { return s.invocations }
