// Package artifact stores upload blobs and derived results in SQLite, keyed
// by file id and artifact kind.
package artifact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/cheercheung/chatrecap-sub001/internal/artifact/migrations"
	"github.com/cheercheung/chatrecap-sub001/internal/errs"
	"github.com/cheercheung/chatrecap-sub001/internal/job"
	"github.com/cheercheung/chatrecap-sub001/internal/processor"

	_ "modernc.org/sqlite"
)

var _ processor.ArtifactStore = (*Store)(nil)

type Store struct {
	db  *sqlx.DB
	log zerolog.Logger
}

type row struct {
	FileID    string    `db:"file_id"`
	Kind      string    `db:"kind"`
	Content   []byte    `db:"content"`
	Size      int64     `db:"size"`
	CreatedAt time.Time `db:"created_at"`
}

// Open connects to the SQLite file at path and applies migrations.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("connect to artifact db: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db, log: log.With().Str("component", "artifact").Logger()}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.log.Info().Str("path", path).Msg("artifact store ready")
	return s, nil
}

func (s *Store) migrate() error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}
	drv, err := sqlite.WithInstance(s.db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply artifact migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Key is the storage key recorded on the job for an artifact.
func Key(fileID string, kind job.ArtifactKind) string {
	return fileID + "/" + string(kind)
}

// Put writes content, replacing any earlier artifact of the same kind.
func (s *Store) Put(ctx context.Context, fileID string, kind job.ArtifactKind, content []byte) (string, error) {
	if content == nil {
		content = []byte{}
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO artifacts (file_id, kind, content, size, created_at)
		VALUES (:file_id, :kind, :content, :size, :created_at)
		ON CONFLICT (file_id, kind)
		DO UPDATE SET content = excluded.content, size = excluded.size, created_at = excluded.created_at`,
		row{FileID: fileID, Kind: string(kind), Content: content, Size: int64(len(content)), CreatedAt: time.Now().UTC()},
	)
	if err != nil {
		return "", errs.Wrapf(err, errs.StorageFailure, "could not save %s", kind)
	}
	return Key(fileID, kind), nil
}

// Get returns nil content when the artifact does not exist.
func (s *Store) Get(ctx context.Context, fileID string, kind job.ArtifactKind) ([]byte, error) {
	var content []byte
	err := s.db.GetContext(ctx, &content, `
		SELECT content FROM artifacts WHERE file_id = ? AND kind = ?`, fileID, string(kind))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrapf(err, errs.StorageFailure, "could not read %s", kind)
	}
	return content, nil
}

func (s *Store) Delete(ctx context.Context, fileID string, kind job.ArtifactKind) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE file_id = ? AND kind = ?`, fileID, string(kind))
	if err != nil {
		return errs.Wrapf(err, errs.StorageFailure, "could not delete %s", kind)
	}
	return nil
}

// Kinds lists the artifact kinds stored for a file.
func (s *Store) Kinds(ctx context.Context, fileID string) ([]job.ArtifactKind, error) {
	var kinds []string
	if err := s.db.SelectContext(ctx, &kinds, `SELECT kind FROM artifacts WHERE file_id = ? ORDER BY kind`, fileID); err != nil {
		return nil, errs.Wrap(err, errs.StorageFailure, "could not list artifacts")
	}
	out := make([]job.ArtifactKind, len(kinds))
	for i, k := range kinds {
		out[i] = job.ArtifactKind(k)
	}
	return out, nil
}
