package parser

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
	"github.com/cheercheung/chatrecap-sub001/internal/noise"
)

// instagramExport is the Meta "Download your information" message_N.json
// layout shared by Instagram and Messenger.
type instagramExport struct {
	Participants []struct {
		Name string `json:"name"`
	} `json:"participants"`
	Messages []instagramMessage `json:"messages"`
}

type instagramMessage struct {
	SenderName  string            `json:"sender_name"`
	TimestampMs int64             `json:"timestamp_ms"`
	Content     string            `json:"content"`
	Photos      []json.RawMessage `json:"photos"`
	Videos      []json.RawMessage `json:"videos"`
	AudioFiles  []json.RawMessage `json:"audio_files"`
	Sticker     json.RawMessage   `json:"sticker"`
	Share       *struct {
		Link string `json:"link"`
	} `json:"share"`
	IsUnsent bool `json:"is_unsent"`
}

type instagram struct{}

func (instagram) Platform() chat.Platform { return chat.Instagram }

// Extract reads messages, which the export lists newest first, in
// chronological order.
func (instagram) Extract(raw []byte) (*Extraction, error) {
	var doc instagramExport
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode instagram export: %w", err)
	}

	ex := &Extraction{Entries: make([]Entry, 0, len(doc.Messages))}
	for i := len(doc.Messages) - 1; i >= 0; i-- {
		m := doc.Messages[i]
		text := fixMojibake(m.Content)
		if strings.TrimSpace(text) == "" {
			switch {
			case len(m.Photos) > 0 || len(m.Videos) > 0 || len(m.AudioFiles) > 0 || len(m.Sticker) > 0:
				text = noise.MediaPlaceholder
			case m.Share != nil && m.Share.Link != "":
				text = m.Share.Link
			}
		}
		e := Entry{RawEntry: chat.RawEntry{Sender: fixMojibake(m.SenderName), Message: text}, System: m.IsUnsent}
		if m.TimestampMs > 0 {
			e.DatePart, e.TimePart = splitTimestamp(time.UnixMilli(m.TimestampMs).UTC())
		}
		ex.Entries = append(ex.Entries, e)
	}
	return ex, nil
}

// fixMojibake repairs the export's habit of writing UTF-8 bytes as one
// \u00XX escape each.
func fixMojibake(s string) string {
	b := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xff {
			return s
		}
		b = append(b, byte(r))
	}
	if !utf8.Valid(b) {
		return s
	}
	return string(b)
}
