// Package memstore keeps jobs, artifacts and credits in process memory. It
// backs the offline CLI and tests.
package memstore

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/cheercheung/chatrecap-sub001/internal/errs"
	"github.com/cheercheung/chatrecap-sub001/internal/job"
)

// Jobs is an in-memory job and status store.
type Jobs struct {
	mu     sync.RWMutex
	jobs   map[string]*job.FileJob
	status map[string]*job.ProcessingStatus
	now    func() time.Time
}

func NewJobs() *Jobs {
	return &Jobs{
		jobs:   make(map[string]*job.FileJob),
		status: make(map[string]*job.ProcessingStatus),
		now:    time.Now,
	}
}

// SetClock replaces the time source.
func (s *Jobs) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func cloneJob(j *job.FileJob) *job.FileJob {
	c := *j
	c.Artifacts = maps.Clone(j.Artifacts)
	return &c
}

func (s *Jobs) CreateJob(_ context.Context, j *job.FileJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[j.ID]; ok {
		return errs.Newf(errs.InvalidArgument, "file %s already exists", j.ID)
	}
	now := s.now()
	c := cloneJob(j)
	c.CreatedAt, c.UpdatedAt = now, now
	s.jobs[j.ID] = c
	s.status[j.ID] = &job.ProcessingStatus{
		FileID:    j.ID,
		Status:    c.Status,
		Progress:  job.Progress{CurrentStep: "uploaded"},
		UpdatedAt: now,
	}
	return nil
}

func (s *Jobs) GetJob(_ context.Context, fileID string) (*job.FileJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[fileID]
	if !ok {
		return nil, errs.Newf(errs.NotFound, "file %s not found", fileID)
	}
	return cloneJob(j), nil
}

// Transition moves a job from -> to only if it is currently in from.
func (s *Jobs) Transition(_ context.Context, fileID string, from, to job.Status, upd job.Update) (*job.FileJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[fileID]
	if !ok {
		return nil, errs.Newf(errs.NotFound, "file %s not found", fileID)
	}
	if j.Status != from {
		return nil, errs.Newf(errs.InvalidState, "file is %s, expected %s", j.Status, from)
	}
	if !job.CanTransition(from, to) {
		return nil, errs.Newf(errs.InvalidState, "cannot move file from %s to %s", from, to)
	}
	now := s.now()
	upd.Apply(j, to, now)
	s.status[fileID] = &job.ProcessingStatus{
		FileID:    fileID,
		Status:    to,
		Progress:  upd.Progress,
		Error:     upd.Error,
		UpdatedAt: now,
	}
	return cloneJob(j), nil
}

// SetProgress updates progress fields only; the status is left alone.
func (s *Jobs) SetProgress(_ context.Context, fileID string, p job.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.status[fileID]
	if !ok {
		return errs.Newf(errs.NotFound, "file %s not found", fileID)
	}
	st.Progress = p
	st.UpdatedAt = s.now()
	return nil
}

func (s *Jobs) GetStatus(_ context.Context, fileID string) (*job.ProcessingStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.status[fileID]
	if !ok {
		return nil, errs.Newf(errs.NotFound, "file %s not found", fileID)
	}
	c := *st
	return &c, nil
}

// FailStale fails running jobs whose last update is older than olderThan.
func (s *Jobs) FailStale(_ context.Context, olderThan time.Duration, reason string) ([]*job.FileJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	cutoff := now.Add(-olderThan)
	var failed []*job.FileJob
	for id, j := range s.jobs {
		st := s.status[id]
		if !j.Status.Running() || st.UpdatedAt.After(cutoff) {
			continue
		}
		retry := job.StatusUploaded
		if j.Status == job.StatusProcessing {
			retry = job.StatusCompletedBasic
		}
		job.Update{Error: reason, RetryFrom: retry, Progress: st.Progress}.Apply(j, job.StatusFailed, now)
		st.Status = job.StatusFailed
		st.Error = reason
		st.CurrentStep = "failed"
		st.UpdatedAt = now
		failed = append(failed, cloneJob(j))
	}
	return failed, nil
}
