// Package chat holds the canonical message model shared by the parsing
// pipeline, the statistics engine and the orchestrator.
package chat

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies the export format of an upload.
type Platform string

const (
	WhatsApp  Platform = "whatsapp"
	Discord   Platform = "discord"
	Instagram Platform = "instagram"
	Telegram  Platform = "telegram"
	Snapchat  Platform = "snapchat"

	// Auto asks the detector to sniff the content.
	Auto Platform = "auto"
)

// Platforms lists the concrete platforms in detection order.
var Platforms = []Platform{WhatsApp, Discord, Instagram, Telegram, Snapchat}

// ParsePlatform validates a platform hint. An empty hint means Auto.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return Auto, nil
	}
	if p == Auto {
		return p, nil
	}
	for _, known := range Platforms {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// RawEntry is one header line or record before merging and filtering.
type RawEntry struct {
	DatePart string `json:"datePart"`
	TimePart string `json:"timePart"`
	Sender   string `json:"sender"`
	Message  string `json:"message"`
}

// Message is the canonical unit every downstream stage consumes.
// Timestamp is a wall-clock time in UTC; nil when no date template matched.
type Message struct {
	Sender       string     `json:"sender"`
	Text         string     `json:"text"`
	Timestamp    *time.Time `json:"timestamp"`
	HasValidDate bool       `json:"hasValidDate"`
}

// Stats are the pipeline counters.
type Stats struct {
	TotalEntries               int `json:"totalEntries"`
	FilteredSystemMessages     int `json:"filteredSystemMessages"`
	FilteredMediaMessages      int `json:"filteredMediaMessages"`
	LinkOnlyMessages           int `json:"linkOnlyMessages"`
	ValidDateMessages          int `json:"validDateMessages"`
	DroppedOrphanContinuations int `json:"droppedOrphanContinuations"`
}

// ProcessResult is the output of the parsing chain.
type ProcessResult struct {
	Platform Platform  `json:"platform"`
	Messages []Message `json:"messages"`
	Warnings []string  `json:"warnings"`
	Stats    Stats     `json:"stats"`
}

// Conserved reports whether every processed entry is accounted for as a kept
// message, a filtered message or a dropped orphan.
func (r *ProcessResult) Conserved() bool {
	s := r.Stats
	return s.TotalEntries == len(r.Messages)+s.FilteredSystemMessages+s.FilteredMediaMessages+s.DroppedOrphanContinuations
}
