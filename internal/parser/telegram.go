package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
	"github.com/cheercheung/chatrecap-sub001/internal/noise"
)

// telegramChat is a Telegram Desktop "Export chat history" JSON document.
type telegramChat struct {
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Messages []telegramMessage `json:"messages"`
}

// telegramAccount is the full-account export, which nests chats.
type telegramAccount struct {
	Chats struct {
		List []telegramChat `json:"list"`
	} `json:"chats"`
}

type telegramMessage struct {
	Type      string          `json:"type"`
	Date      string          `json:"date"`
	From      string          `json:"from"`
	Actor     string          `json:"actor"`
	Text      json.RawMessage `json:"text"`
	MediaType string          `json:"media_type"`
	Photo     string          `json:"photo"`
	File      string          `json:"file"`
}

type telegram struct{}

func (telegram) Platform() chat.Platform { return chat.Telegram }

func (telegram) Extract(raw []byte) (*Extraction, error) {
	var doc telegramChat
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode telegram export: %w", err)
	}

	ex := &Extraction{}
	if doc.Messages == nil {
		var acct telegramAccount
		if err := json.Unmarshal(raw, &acct); err == nil {
			for _, c := range acct.Chats.List {
				if len(c.Messages) > 0 {
					doc = c
					ex.Warnings = append(ex.Warnings, fmt.Sprintf("account export: using chat %q", c.Name))
					break
				}
			}
		}
	}

	ex.Entries = make([]Entry, 0, len(doc.Messages))
	for _, m := range doc.Messages {
		text := telegramText(m.Text)
		if strings.TrimSpace(text) == "" && (m.MediaType != "" || m.Photo != "" || m.File != "") {
			text = noise.MediaPlaceholder
		}
		e := Entry{RawEntry: chat.RawEntry{Sender: m.From, Message: text}}
		if m.Type == "service" {
			e.System = true
			e.Sender = m.Actor
		}
		date, clock, _ := strings.Cut(m.Date, "T")
		e.DatePart, e.TimePart = date, clock
		ex.Entries = append(ex.Entries, e)
	}
	return ex, nil
}

// telegramText flattens "text", which is either a string or an array of
// strings and {"type", "text"} entities.
func telegramText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var b strings.Builder
	for _, p := range parts {
		var str string
		if err := json.Unmarshal(p, &str); err == nil {
			b.WriteString(str)
			continue
		}
		var ent struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(p, &ent); err == nil {
			b.WriteString(ent.Text)
		}
	}
	return b.String()
}
