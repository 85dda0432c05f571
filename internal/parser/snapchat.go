package parser

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
	"github.com/cheercheung/chatrecap-sub001/internal/noise"
)

// snapRecord covers both the older "Saved Chat History" lists and the newer
// per-conversation chat_history.json layout.
type snapRecord struct {
	From      string `json:"From"`
	To        string `json:"To"`
	MediaType string `json:"Media Type"`
	Created   string `json:"Created"`
	Text      string `json:"Text"`
	Content   string `json:"Content"`
	IsSender  bool   `json:"IsSender"`
}

// snapOwner names the account owner on sent records that carry no From.
const snapOwner = "Me"

type snapchat struct{}

func (snapchat) Platform() chat.Platform { return chat.Snapchat }

func (snapchat) Extract(raw []byte) (*Extraction, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode snapchat export: %w", err)
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ex := &Extraction{}
	for _, k := range keys {
		var records []snapRecord
		if err := json.Unmarshal(doc[k], &records); err != nil {
			continue
		}
		for _, r := range records {
			ex.Entries = append(ex.Entries, snapEntry(r))
		}
	}
	return ex, nil
}

func snapEntry(r snapRecord) Entry {
	sender := r.From
	if sender == "" {
		sender = snapOwner
	}
	text := r.Content
	if text == "" {
		text = r.Text
	}
	kind := strings.ToUpper(r.MediaType)
	if strings.TrimSpace(text) == "" && kind != "" && kind != "TEXT" {
		text = noise.MediaPlaceholder
	}

	created := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(r.Created), "UTC"))
	date, clock, _ := strings.Cut(created, " ")

	return Entry{
		RawEntry: chat.RawEntry{DatePart: date, TimePart: clock, Sender: sender, Message: text},
		System:   strings.HasPrefix(kind, "STATUS"),
	}
}
