//go:build integration

package events

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func skipWithoutNATS(t *testing.T) string {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set, skipping integration test")
	}
	return url
}

func TestIntegration_JobEventRoundTrip(t *testing.T) {
	natsURL := skipWithoutNATS(t)

	client, err := NewClient(context.Background(), natsURL, os.Getenv("NATS_TOKEN"), zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer client.Close()

	received := make(chan JobEvent, 1)
	err = client.WatchJobs(func(evt JobEvent) {
		if evt.To == "CLEANING" {
			received <- evt
		}
	})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	// Give subscription time to propagate
	time.Sleep(100 * time.Millisecond)

	if err := client.Publish(JobSubject("CLEANING"), JobEvent{FileID: "f-int", From: "UPLOADED", To: "CLEANING", At: time.Now()}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case evt := <-received:
		if evt.FileID != "f-int" {
			t.Errorf("expected f-int, got %+v", evt)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}
