package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
	"github.com/cheercheung/chatrecap-sub001/internal/errs"
	"github.com/cheercheung/chatrecap-sub001/internal/job"
)

const jobColumns = `id, user_id, platform, status, locale, error, retry_from, artifacts, created_at, updated_at`

func scanJob(row pgx.Row) (*job.FileJob, error) {
	var (
		j                job.FileJob
		platform, status string
		retryFrom        string
		artifacts        []byte
	)
	err := row.Scan(&j.ID, &j.UserID, &platform, &status, &j.Locale, &j.Error, &retryFrom, &artifacts, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	j.Platform = chat.Platform(platform)
	j.Status = job.Status(status)
	j.RetryFrom = job.Status(retryFrom)
	if err := json.Unmarshal(artifacts, &j.Artifacts); err != nil {
		return nil, fmt.Errorf("decode artifacts: %w", err)
	}
	return &j, nil
}

func notFound(err error, fileID string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.Newf(errs.NotFound, "file %s not found", fileID)
	}
	return errs.Wrap(err, errs.StorageFailure, "could not read file record")
}

// CreateJob inserts a job and its initial status row.
func (s *Store) CreateJob(ctx context.Context, j *job.FileJob) error {
	artifacts, err := json.Marshal(nonNil(j.Artifacts))
	if err != nil {
		return fmt.Errorf("encode artifacts: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errs.Wrap(err, errs.StorageFailure, "could not save file record")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO file_jobs (id, user_id, platform, status, locale, error, retry_from, artifacts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())`,
		j.ID, j.UserID, string(j.Platform), string(j.Status), j.Locale, j.Error, string(j.RetryFrom), artifacts,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return errs.Newf(errs.InvalidArgument, "file %s already exists", j.ID)
		}
		return errs.Wrap(err, errs.StorageFailure, "could not save file record")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO processing_status (file_id, status, current_step, updated_at)
		VALUES ($1, $2, 'uploaded', now())`,
		j.ID, string(j.Status),
	)
	if err != nil {
		return errs.Wrap(err, errs.StorageFailure, "could not save file status")
	}

	if err := tx.Commit(ctx); err != nil {
		return errs.Wrap(err, errs.StorageFailure, "could not save file record")
	}
	return nil
}

func (s *Store) GetJob(ctx context.Context, fileID string) (*job.FileJob, error) {
	j, err := scanJob(s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM file_jobs WHERE id = $1`, fileID))
	if err != nil {
		return nil, notFound(err, fileID)
	}
	return j, nil
}

// Transition locks the job row, checks it is still in from and writes the
// job and its status row in one transaction.
func (s *Store) Transition(ctx context.Context, fileID string, from, to job.Status, upd job.Update) (*job.FileJob, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, errs.Wrap(err, errs.StorageFailure, "could not update file record")
	}
	defer tx.Rollback(ctx)

	j, err := scanJob(tx.QueryRow(ctx, `SELECT `+jobColumns+` FROM file_jobs WHERE id = $1 FOR UPDATE`, fileID))
	if err != nil {
		return nil, notFound(err, fileID)
	}
	if j.Status != from {
		return nil, errs.Newf(errs.InvalidState, "file is %s, expected %s", j.Status, from)
	}
	if !job.CanTransition(from, to) {
		return nil, errs.Newf(errs.InvalidState, "cannot move file from %s to %s", from, to)
	}

	now := time.Now().UTC()
	upd.Apply(j, to, now)
	artifacts, err := json.Marshal(nonNil(j.Artifacts))
	if err != nil {
		return nil, fmt.Errorf("encode artifacts: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE file_jobs
		SET platform = $2, status = $3, locale = $4, error = $5, retry_from = $6, artifacts = $7, updated_at = $8
		WHERE id = $1`,
		j.ID, string(j.Platform), string(j.Status), j.Locale, j.Error, string(j.RetryFrom), artifacts, now,
	)
	if err != nil {
		return nil, errs.Wrap(err, errs.StorageFailure, "could not update file record")
	}
	if err := upsertStatus(ctx, tx, fileID, to, upd.Progress, upd.Error, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errs.Wrap(err, errs.StorageFailure, "could not update file record")
	}
	return j, nil
}

func upsertStatus(ctx context.Context, tx pgx.Tx, fileID string, status job.Status, p job.Progress, msg string, now time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO processing_status (file_id, status, cleaning_progress, analysis_progress, current_step, error, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (file_id)
		DO UPDATE SET
			status = $2,
			cleaning_progress = $3,
			analysis_progress = $4,
			current_step = $5,
			error = $6,
			updated_at = $7`,
		fileID, string(status), p.CleaningProgress, p.AnalysisProgress, p.CurrentStep, msg, now,
	)
	if err != nil {
		return errs.Wrap(err, errs.StorageFailure, "could not update file status")
	}
	return nil
}

// SetProgress updates progress fields only; the status is left alone.
func (s *Store) SetProgress(ctx context.Context, fileID string, p job.Progress) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE processing_status
		SET cleaning_progress = $2, analysis_progress = $3, current_step = $4, updated_at = now()
		WHERE file_id = $1`,
		fileID, p.CleaningProgress, p.AnalysisProgress, p.CurrentStep,
	)
	if err != nil {
		return errs.Wrap(err, errs.StorageFailure, "could not update progress")
	}
	if tag.RowsAffected() == 0 {
		return errs.Newf(errs.NotFound, "file %s not found", fileID)
	}
	return nil
}

func (s *Store) GetStatus(ctx context.Context, fileID string) (*job.ProcessingStatus, error) {
	var (
		st     job.ProcessingStatus
		status string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT file_id, status, cleaning_progress, analysis_progress, current_step, error, updated_at
		FROM processing_status WHERE file_id = $1`, fileID,
	).Scan(&st.FileID, &status, &st.CleaningProgress, &st.AnalysisProgress, &st.CurrentStep, &st.Error, &st.UpdatedAt)
	if err != nil {
		return nil, notFound(err, fileID)
	}
	st.Status = job.Status(status)
	return &st, nil
}

// FailStale fails running jobs whose status row has not moved for olderThan.
func (s *Store) FailStale(ctx context.Context, olderThan time.Duration, reason string) ([]*job.FileJob, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT file_id FROM processing_status
		WHERE status IN ('CLEANING', 'PROCESSING') AND updated_at < $1`,
		time.Now().UTC().Add(-olderThan),
	)
	if err != nil {
		return nil, errs.Wrap(err, errs.StorageFailure, "could not list stale files")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errs.Wrap(err, errs.StorageFailure, "could not list stale files")
	}

	var failed []*job.FileJob
	for _, id := range ids {
		j, err := s.GetJob(ctx, id)
		if err != nil {
			return failed, err
		}
		retry := job.StatusUploaded
		if j.Status == job.StatusProcessing {
			retry = job.StatusCompletedBasic
		}
		out, err := s.Transition(ctx, id, j.Status, job.StatusFailed, job.Update{
			Error:     reason,
			RetryFrom: retry,
			Progress:  job.Progress{CurrentStep: "failed"},
		})
		if errs.IsCode(err, errs.InvalidState) {
			// moved on since the scan
			continue
		}
		if err != nil {
			return failed, err
		}
		failed = append(failed, out)
	}
	return failed, nil
}

func nonNil(m map[job.ArtifactKind]string) map[job.ArtifactKind]string {
	if m == nil {
		return map[job.ArtifactKind]string{}
	}
	return m
}
