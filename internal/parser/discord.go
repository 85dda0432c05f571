package parser

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
	"github.com/cheercheung/chatrecap-sub001/internal/noise"
)

// discordExport is the DiscordChatExporter JSON layout.
type discordExport struct {
	Guild    json.RawMessage  `json:"guild"`
	Channel  json.RawMessage  `json:"channel"`
	Messages []discordMessage `json:"messages"`
}

type discordMessage struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Content   string `json:"content"`
	Author    struct {
		Name     string `json:"name"`
		Nickname string `json:"nickname"`
	} `json:"author"`
	Attachments []json.RawMessage `json:"attachments"`
	Stickers    []json.RawMessage `json:"stickers"`
	Embeds      []json.RawMessage `json:"embeds"`
}

type discord struct{}

func (discord) Platform() chat.Platform { return chat.Discord }

func (discord) Extract(raw []byte) (*Extraction, error) {
	var doc discordExport
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode discord export: %w", err)
	}

	ex := &Extraction{Entries: make([]Entry, 0, len(doc.Messages))}
	for _, m := range doc.Messages {
		sender := m.Author.Nickname
		if sender == "" {
			sender = m.Author.Name
		}
		text := m.Content
		if strings.TrimSpace(text) == "" && (len(m.Attachments) > 0 || len(m.Stickers) > 0 || len(m.Embeds) > 0) {
			text = noise.MediaPlaceholder
		}

		e := Entry{RawEntry: chat.RawEntry{Sender: sender, Message: text}}
		if ts, err := time.Parse(time.RFC3339Nano, m.Timestamp); err == nil {
			e.DatePart, e.TimePart = splitTimestamp(ts)
		} else {
			e.DatePart = m.Timestamp
		}
		switch m.Type {
		case "", "Default", "Reply":
		default:
			e.System = true
		}
		ex.Entries = append(ex.Entries, e)
	}
	return ex, nil
}
