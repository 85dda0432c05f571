package parser

import (
	"fmt"
	"time"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
)

// Entry is a RawEntry plus what the extractor already knows about it.
// System marks records the platform itself labels as service events.
type Entry struct {
	chat.RawEntry
	System bool
}

// Extraction is the output of one platform extractor.
type Extraction struct {
	Entries  []Entry
	Orphans  int
	Warnings []string
}

// Extractor turns a raw export into entries. Implementations are the closed
// set returned by For.
type Extractor interface {
	Platform() chat.Platform
	Extract(raw []byte) (*Extraction, error)
}

// For returns the extractor of a concrete platform.
func For(p chat.Platform) (Extractor, error) {
	switch p {
	case chat.WhatsApp:
		return whatsApp{}, nil
	case chat.Discord:
		return discord{}, nil
	case chat.Instagram:
		return instagram{}, nil
	case chat.Telegram:
		return telegram{}, nil
	case chat.Snapchat:
		return snapchat{}, nil
	default:
		return nil, fmt.Errorf("no extractor for platform %q", p)
	}
}

// splitTimestamp renders t as the date and time parts the date normalizer
// reads, keeping the wall clock of t's own offset.
func splitTimestamp(t time.Time) (string, string) {
	return t.Format("2006-01-02"), t.Format("15:04:05")
}
