// Package store persists jobs, their status projection and user credits in
// Postgres.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/cheercheung/chatrecap-sub001/internal/processor"
	"github.com/cheercheung/chatrecap-sub001/internal/store/migrations"
)

var (
	_ processor.JobStore     = (*Store)(nil)
	_ processor.CreditLedger = (*Store)(nil)
)

type Store struct {
	pool *pgxpool.Pool
	log  zerolog.Logger

	startingCredits int
}

func New(ctx context.Context, databaseURL string, log zerolog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool, log: log.With().Str("component", "store").Logger()}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// SetStartingCredits sets the balance a user without a balance row starts
// with.
func (s *Store) SetStartingCredits(n int) {
	s.startingCredits = n
}

// Healthy reports whether the database answers a ping.
func (s *Store) Healthy(ctx context.Context) bool {
	return s.pool.Ping(ctx) == nil
}

// Migrate applies every embedded migration that has not run yet.
func (s *Store) Migrate() error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	drv, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", drv)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			s.log.Info().Msg("schema up to date")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}
	s.log.Info().Msg("migrations applied")
	return nil
}
