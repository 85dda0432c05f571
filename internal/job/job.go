// Package job defines the file job lifecycle shared by the orchestrator and
// its stores.
package job

import (
	"time"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
)

// Status is a lifecycle state.
type Status string

const (
	StatusUploaded       Status = "UPLOADED"
	StatusCleaning       Status = "CLEANING"
	StatusCompletedBasic Status = "COMPLETED_BASIC"
	StatusProcessing     Status = "PROCESSING"
	StatusCompleteAI     Status = "COMPLETE_AI"
	StatusFailed         Status = "FAILED"
)

// Statuses lists every state in lifecycle order.
var Statuses = []Status{
	StatusUploaded, StatusCleaning, StatusCompletedBasic,
	StatusProcessing, StatusCompleteAI, StatusFailed,
}

// Terminal reports whether no further automatic transition follows.
func (s Status) Terminal() bool {
	return s == StatusCompleteAI || s == StatusFailed
}

// Running reports whether a background task owns the job.
func (s Status) Running() bool {
	return s == StatusCleaning || s == StatusProcessing
}

// Valid reports whether s is a known state.
func (s Status) Valid() bool {
	for _, k := range Statuses {
		if s == k {
			return true
		}
	}
	return false
}

// CanTransition reports whether from -> to is an edge of the lifecycle.
// FAILED -> UPLOADED and FAILED -> COMPLETED_BASIC are the explicit retry
// edges; everything else moves forward or into FAILED.
func CanTransition(from, to Status) bool {
	switch to {
	case StatusFailed:
		return !from.Terminal()
	case StatusCleaning:
		return from == StatusUploaded
	case StatusCompletedBasic:
		return from == StatusCleaning || from == StatusFailed
	case StatusProcessing:
		return from == StatusCompletedBasic
	case StatusCompleteAI:
		return from == StatusProcessing
	case StatusUploaded:
		return from == StatusFailed
	}
	return false
}

// ArtifactKind names a stored artifact.
type ArtifactKind string

const (
	KindOriginal    ArtifactKind = "original"
	KindCleaned     ArtifactKind = "cleaned"
	KindBasicResult ArtifactKind = "basic-result"
	KindAIResult    ArtifactKind = "ai-result"
)

// Kinds lists every artifact kind.
var Kinds = []ArtifactKind{KindOriginal, KindCleaned, KindBasicResult, KindAIResult}

// FileJob is the durable record of one upload.
type FileJob struct {
	ID       string        `json:"id"`
	UserID   string        `json:"userId"`
	Platform chat.Platform `json:"platform"`
	Status   Status        `json:"status"`
	Locale   string        `json:"locale,omitempty"`
	Error    string        `json:"error,omitempty"`
	// RetryFrom is the checkpoint a failed job returns to on retry.
	RetryFrom Status                  `json:"retryFrom,omitempty"`
	Artifacts map[ArtifactKind]string `json:"artifacts"`
	CreatedAt time.Time               `json:"createdAt"`
	UpdatedAt time.Time               `json:"updatedAt"`
}

// Artifact returns the key stored for kind, or "".
func (j *FileJob) Artifact(kind ArtifactKind) string {
	if j.Artifacts == nil {
		return ""
	}
	return j.Artifacts[kind]
}

// Progress is the polling projection's mutable part.
type Progress struct {
	CleaningProgress int    `json:"cleaningProgress"`
	AnalysisProgress int    `json:"analysisProgress"`
	CurrentStep      string `json:"currentStep"`
}

// ProcessingStatus is the lightweight projection clients poll.
type ProcessingStatus struct {
	FileID string `json:"fileId"`
	Status Status `json:"status"`
	Progress
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Update is applied together with a status transition. Error and RetryFrom
// are always overwritten; Artifacts entries are merged; empty Platform and
// Locale leave the stored values alone.
type Update struct {
	Platform  chat.Platform
	Locale    string
	Error     string
	RetryFrom Status
	Artifacts map[ArtifactKind]string
	Progress  Progress
}

// Apply mutates j as a store would for a transition to status at now.
func (u Update) Apply(j *FileJob, status Status, now time.Time) {
	j.Status = status
	j.Error = u.Error
	j.RetryFrom = u.RetryFrom
	if u.Platform != "" {
		j.Platform = u.Platform
	}
	if u.Locale != "" {
		j.Locale = u.Locale
	}
	if len(u.Artifacts) > 0 && j.Artifacts == nil {
		j.Artifacts = make(map[ArtifactKind]string, len(u.Artifacts))
	}
	for k, v := range u.Artifacts {
		j.Artifacts[k] = v
	}
	j.UpdatedAt = now
}
