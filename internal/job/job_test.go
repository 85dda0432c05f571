package job

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	allowed := map[[2]Status]bool{
		{StatusUploaded, StatusCleaning}:         true,
		{StatusCleaning, StatusCompletedBasic}:   true,
		{StatusCompletedBasic, StatusProcessing}: true,
		{StatusProcessing, StatusCompleteAI}:     true,
		{StatusUploaded, StatusFailed}:           true,
		{StatusCleaning, StatusFailed}:           true,
		{StatusCompletedBasic, StatusFailed}:     true,
		{StatusProcessing, StatusFailed}:         true,
		{StatusFailed, StatusUploaded}:           true,
		{StatusFailed, StatusCompletedBasic}:     true,
	}
	for _, from := range Statuses {
		for _, to := range Statuses {
			want := allowed[[2]Status{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("%s -> %s: got %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestUpdateApply(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	j := &FileJob{ID: "f", Status: StatusCleaning, Platform: "auto", Error: "old",
		Artifacts: map[ArtifactKind]string{KindOriginal: "f/original"}}

	Update{
		Platform:  "whatsapp",
		Artifacts: map[ArtifactKind]string{KindCleaned: "f/cleaned"},
	}.Apply(j, StatusCompletedBasic, now)

	if j.Status != StatusCompletedBasic || j.Platform != "whatsapp" || j.Error != "" {
		t.Errorf("unexpected job %+v", j)
	}
	if j.Artifact(KindOriginal) != "f/original" || j.Artifact(KindCleaned) != "f/cleaned" {
		t.Errorf("expected merged artifacts, got %v", j.Artifacts)
	}
	if !j.UpdatedAt.Equal(now) {
		t.Errorf("expected updated at %v", now)
	}
}

func TestStatusPredicates(t *testing.T) {
	if !StatusCompleteAI.Terminal() || !StatusFailed.Terminal() || StatusCompletedBasic.Terminal() {
		t.Error("unexpected terminal set")
	}
	if !StatusCleaning.Running() || StatusUploaded.Running() {
		t.Error("unexpected running set")
	}
	if Status("DONE").Valid() {
		t.Error("expected unknown status to be invalid")
	}
}
