// Package processor is the file job state machine. It runs the parsing
// chain and the AI analysis as detached background tasks and is the only
// component that writes durable state.
package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
	"github.com/cheercheung/chatrecap-sub001/internal/errs"
	"github.com/cheercheung/chatrecap-sub001/internal/events"
	"github.com/cheercheung/chatrecap-sub001/internal/insight"
	"github.com/cheercheung/chatrecap-sub001/internal/job"
	"github.com/cheercheung/chatrecap-sub001/internal/parser"
	"github.com/cheercheung/chatrecap-sub001/internal/stats"
)

// Options tune the processor.
type Options struct {
	CreditCost    int
	JobTimeout    time.Duration
	MaxConcurrent int64
	DefaultLocale string
	TextOptions   stats.TextOptions
}

// Deps are the processor's collaborators. Publisher may be nil.
type Deps struct {
	Jobs      JobStore
	Artifacts ArtifactStore
	Ledger    CreditLedger
	Generator TextGenerator
	Publisher Publisher
	Parser    *parser.Parser
	Prompts   *insight.Builder
}

// Processor orchestrates uploads through cleaning and AI analysis.
type Processor struct {
	jobs      JobStore
	artifacts ArtifactStore
	ledger    CreditLedger
	gen       TextGenerator
	pub       Publisher
	parser    *parser.Parser
	prompts   *insight.Builder
	opts      Options
	logger    zerolog.Logger

	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	base   context.Context
	cancel context.CancelFunc
}

func New(d Deps, opts Options, logger zerolog.Logger) *Processor {
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 5 * time.Minute
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	if opts.DefaultLocale == "" {
		opts.DefaultLocale = "en"
	}
	if opts.TextOptions.TopN == 0 {
		opts.TextOptions = stats.DefaultTextOptions()
	}
	if d.Parser == nil {
		d.Parser = parser.New(nil)
	}
	base, cancel := context.WithCancel(context.Background())
	return &Processor{
		jobs:      d.Jobs,
		artifacts: d.Artifacts,
		ledger:    d.Ledger,
		gen:       d.Generator,
		pub:       d.Publisher,
		parser:    d.Parser,
		prompts:   d.Prompts,
		opts:      opts,
		logger:    logger.With().Str("component", "processor").Logger(),
		sem:       semaphore.NewWeighted(opts.MaxConcurrent),
		base:      base,
		cancel:    cancel,
	}
}

// Upload stores the original export and creates an UPLOADED job.
func (p *Processor) Upload(ctx context.Context, userID string, platform chat.Platform, raw []byte) (*job.FileJob, error) {
	if len(raw) == 0 {
		return nil, errs.New(errs.InvalidArgument, "the uploaded file is empty")
	}
	if platform == "" {
		platform = chat.Auto
	}

	id := uuid.NewString()
	key, err := p.artifacts.Put(ctx, id, job.KindOriginal, raw)
	if err != nil {
		return nil, storageErr(err, "could not store the upload")
	}
	j := &job.FileJob{
		ID:        id,
		UserID:    userID,
		Platform:  platform,
		Status:    job.StatusUploaded,
		Artifacts: map[job.ArtifactKind]string{job.KindOriginal: key},
	}
	if err := p.jobs.CreateJob(ctx, j); err != nil {
		_ = p.artifacts.Delete(ctx, id, job.KindOriginal)
		return nil, storageErr(err, "could not create the file record")
	}

	p.logger.Info().Str("file_id", id).Str("user_id", userID).Str("platform", string(platform)).Int("bytes", len(raw)).Msg("file uploaded")
	p.publish(j, "", job.StatusUploaded, "")
	return p.jobs.GetJob(ctx, id)
}

// GetStatus returns the polling projection.
func (p *Processor) GetStatus(ctx context.Context, fileID string) (*job.ProcessingStatus, error) {
	st, err := p.jobs.GetStatus(ctx, fileID)
	if err != nil {
		return nil, storageErr(err, "could not load the file status")
	}
	return st, nil
}

// GetJob returns the durable job record.
func (p *Processor) GetJob(ctx context.Context, fileID string) (*job.FileJob, error) {
	j, err := p.jobs.GetJob(ctx, fileID)
	if err != nil {
		return nil, storageErr(err, "could not load the file")
	}
	return j, nil
}

// Retry moves a FAILED job back to the checkpoint it failed from so the
// failed stage can be triggered again.
func (p *Processor) Retry(ctx context.Context, fileID string) (*job.ProcessingStatus, error) {
	j, err := p.GetJob(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if j.Status != job.StatusFailed {
		return nil, errs.Newf(errs.InvalidState, "file is %s, retry requires %s", j.Status, job.StatusFailed)
	}
	to := j.RetryFrom
	if to != job.StatusCompletedBasic {
		to = job.StatusUploaded
	}
	prog := job.Progress{CurrentStep: "retry"}
	if to == job.StatusCompletedBasic {
		prog.CleaningProgress = 100
	}
	if _, err := p.transition(ctx, j, job.StatusFailed, to, job.Update{Progress: prog}); err != nil {
		return nil, err
	}
	p.logger.Info().Str("file_id", fileID).Str("status", string(to)).Msg("job reset for retry")
	return p.GetStatus(ctx, fileID)
}

// ErrWaitTimeout is returned by WaitForStatus when attempts run out. The
// background task keeps running.
var ErrWaitTimeout = errors.New("timed out waiting for file status")

// WaitForStatus polls until the job reaches one of targets or FAILED, for at
// most maxAttempts polls.
func (p *Processor) WaitForStatus(ctx context.Context, fileID string, interval time.Duration, maxAttempts int, targets ...job.Status) (*job.ProcessingStatus, error) {
	var st *job.ProcessingStatus
	for attempt := 0; attempt < maxAttempts; attempt++ {
		var err error
		st, err = p.GetStatus(ctx, fileID)
		if err != nil {
			return nil, err
		}
		if st.Status == job.StatusFailed {
			return st, nil
		}
		for _, t := range targets {
			if st.Status == t {
				return st, nil
			}
		}
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-time.After(interval):
		}
	}
	return st, ErrWaitTimeout
}

// ReapStale fails jobs stuck in a running state, e.g. after a restart.
func (p *Processor) ReapStale(ctx context.Context, olderThan time.Duration) (int, error) {
	failed, err := p.jobs.FailStale(ctx, olderThan, "processing was interrupted, please retry")
	if err != nil {
		return 0, storageErr(err, "could not reap stale jobs")
	}
	for _, j := range failed {
		p.logger.Warn().Str("file_id", j.ID).Str("retry_from", string(j.RetryFrom)).Msg("stale job failed")
		p.publish(j, "", job.StatusFailed, j.Error)
	}
	return len(failed), nil
}

// Shutdown waits for background tasks until ctx expires, then cancels them.
func (p *Processor) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return ctx.Err()
	}
}

// spawn runs fn detached from the caller's context, bounded by the
// concurrency semaphore and the job timeout.
func (p *Processor) spawn(fileID string, onAbort func(error), fn func(ctx context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.sem.Acquire(p.base, 1); err != nil {
			onAbort(errs.Wrap(err, errs.Internal, "the service is shutting down"))
			return
		}
		defer p.sem.Release(1)

		ctx, cancel := context.WithTimeout(p.base, p.opts.JobTimeout)
		defer cancel()
		ctx = p.logger.With().Str("file_id", fileID).Logger().WithContext(ctx)
		fn(ctx)
	}()
}

func (p *Processor) transition(ctx context.Context, j *job.FileJob, from, to job.Status, upd job.Update) (*job.FileJob, error) {
	updated, err := p.jobs.Transition(ctx, j.ID, from, to, upd)
	if err != nil {
		return nil, storageErr(err, "could not update the file status")
	}
	p.publish(updated, from, to, upd.Error)
	return updated, nil
}

// fail records a stage failure. It uses a fresh context because the task
// context may already be expired.
func (p *Processor) fail(j *job.FileJob, from, retryFrom job.Status, prog job.Progress, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cause = timeoutErr(cause)
	p.logger.Error().Err(cause).
		Str("file_id", j.ID).
		Str("code", string(errs.CodeOf(cause))).
		Str("stage", string(from)).
		Msg("stage failed")

	prog.CurrentStep = "failed"
	upd := job.Update{Error: errs.UserMessage(cause), RetryFrom: retryFrom, Progress: prog}
	if _, err := p.transition(ctx, j, from, job.StatusFailed, upd); err != nil {
		p.logger.Error().Err(err).Str("file_id", j.ID).Msg("failed to persist FAILED status")
	}
}

func (p *Processor) progress(ctx context.Context, fileID string, prog job.Progress) {
	if err := p.jobs.SetProgress(ctx, fileID, prog); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("step", prog.CurrentStep).Msg("failed to record progress")
	}
}

func (p *Processor) publish(j *job.FileJob, from, to job.Status, errMsg string) {
	if p.pub == nil {
		return
	}
	evt := events.JobEvent{
		FileID:   j.ID,
		UserID:   j.UserID,
		Platform: string(j.Platform),
		From:     string(from),
		To:       string(to),
		Error:    errMsg,
		At:       time.Now().UTC(),
	}
	if err := p.pub.Publish(events.JobSubject(string(to)), evt); err != nil {
		p.logger.Error().Err(err).Str("file_id", j.ID).Msg("failed to publish job event")
	}
}

func (p *Processor) loadJSON(ctx context.Context, fileID string, kind job.ArtifactKind, v any) (bool, error) {
	raw, err := p.artifacts.Get(ctx, fileID, kind)
	if err != nil {
		return false, storageErr(err, fmt.Sprintf("could not load the %s artifact", kind))
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, errs.Wrapf(err, errs.StorageFailure, "the %s artifact is corrupt", kind)
	}
	return true, nil
}

func (p *Processor) putJSON(ctx context.Context, fileID string, kind job.ArtifactKind, v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", errs.Wrapf(err, errs.Internal, "could not encode the %s artifact", kind)
	}
	key, err := p.artifacts.Put(ctx, fileID, kind, raw)
	if err != nil {
		return "", storageErr(err, fmt.Sprintf("could not save the %s artifact", kind))
	}
	return key, nil
}

// discard removes artifacts written by a stage that did not complete.
func (p *Processor) discard(fileID string, kinds ...job.ArtifactKind) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, k := range kinds {
		if err := p.artifacts.Delete(ctx, fileID, k); err != nil {
			p.logger.Warn().Err(err).Str("file_id", fileID).Str("kind", string(k)).Msg("failed to discard artifact")
		}
	}
}

// storageErr keeps coded errors and classifies the rest as storage failures.
func storageErr(err error, msg string) error {
	if _, ok := errs.As(err); ok {
		return err
	}
	return errs.Wrap(err, errs.StorageFailure, msg)
}

func timeoutErr(err error) error {
	if _, ok := errs.As(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.Wrap(err, errs.Internal, "processing took too long and was stopped")
	}
	if errors.Is(err, context.Canceled) {
		return errs.Wrap(err, errs.Internal, "processing was cancelled")
	}
	return err
}
