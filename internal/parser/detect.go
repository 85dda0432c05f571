package parser

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
	"github.com/cheercheung/chatrecap-sub001/internal/errs"
)

var telegramChatTypes = map[string]bool{
	"personal_chat": true, "private_group": true, "private_supergroup": true,
	"public_supergroup": true, "public_channel": true, "private_channel": true, "bot_chat": true,
	"saved_messages": true,
}

// Detect resolves hint to one concrete extractor. Auto parses JSON first and
// infers the platform from its keys; anything that is not JSON goes to the
// line-oriented WhatsApp extractor.
func Detect(raw []byte, hint chat.Platform) (Extractor, error) {
	if hint != chat.Auto && hint != "" {
		ex, err := For(hint)
		if err != nil {
			return nil, errs.Wrap(err, errs.UnsupportedFormat, "unsupported platform")
		}
		return ex, nil
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errs.New(errs.UnsupportedFormat, "the uploaded file is empty")
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return whatsApp{}, nil
	}

	var doc any
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return whatsApp{}, nil
	}
	p := inferJSON(doc)
	if p == "" {
		return nil, errs.New(errs.UnsupportedFormat, "this JSON export is not from a supported platform")
	}
	return For(p)
}

func inferJSON(doc any) chat.Platform {
	obj, ok := doc.(map[string]any)
	if !ok {
		return ""
	}
	msgs, _ := obj["messages"].([]any)
	first := firstObject(msgs)

	switch {
	case obj["guild"] != nil, has(first, "author") && has(first, "timestamp"):
		return chat.Discord
	case obj["participants"] != nil && (len(msgs) == 0 || has(first, "sender_name")):
		return chat.Instagram
	case has(first, "from") || has(first, "date_unixtime"):
		return chat.Telegram
	}
	if t, ok := obj["type"].(string); ok && telegramChatTypes[t] && msgs != nil {
		return chat.Telegram
	}
	if chats, ok := obj["chats"].(map[string]any); ok {
		if _, ok := chats["list"].([]any); ok {
			return chat.Telegram
		}
	}
	for k, v := range obj {
		if strings.Contains(k, "Chat History") {
			return chat.Snapchat
		}
		if has(firstObject(asSlice(v)), "Media Type") {
			return chat.Snapchat
		}
	}
	return ""
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func firstObject(items []any) map[string]any {
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			return m
		}
	}
	return nil
}

func has(obj map[string]any, key string) bool {
	if obj == nil {
		return false
	}
	_, ok := obj[key]
	return ok
}
