package processor

import (
	"context"
	"time"

	"github.com/cheercheung/chatrecap-sub001/internal/job"
)

// JobStore persists FileJob records and their polling projection. Transition
// is a compare-and-swap on the status: it fails with INVALID_STATE when the
// job is not in from, and writes the job and its status together.
type JobStore interface {
	CreateJob(ctx context.Context, j *job.FileJob) error
	GetJob(ctx context.Context, fileID string) (*job.FileJob, error)
	Transition(ctx context.Context, fileID string, from, to job.Status, upd job.Update) (*job.FileJob, error)
	SetProgress(ctx context.Context, fileID string, p job.Progress) error
	GetStatus(ctx context.Context, fileID string) (*job.ProcessingStatus, error)
	FailStale(ctx context.Context, olderThan time.Duration, reason string) ([]*job.FileJob, error)
}

// ArtifactStore holds per-file blobs. Get returns nil content when absent.
type ArtifactStore interface {
	Put(ctx context.Context, fileID string, kind job.ArtifactKind, content []byte) (string, error)
	Get(ctx context.Context, fileID string, kind job.ArtifactKind) ([]byte, error)
	Delete(ctx context.Context, fileID string, kind job.ArtifactKind) error
}

// CreditLedger gates the AI phase.
type CreditLedger interface {
	HasSufficientCredits(ctx context.Context, userID string, amount int) (bool, error)
	Consume(ctx context.Context, userID string, amount int, fileID, reason string) (bool, error)
}

// TextGenerator is a single request/response call to a language model.
type TextGenerator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Publisher emits lifecycle events. It may be nil.
type Publisher interface {
	Publish(subject string, data any) error
}
