package parser

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
	"github.com/cheercheung/chatrecap-sub001/internal/errs"
)

func TestProcess_MultilineMessage(t *testing.T) {
	raw := "[1/2/24, 09:00:00] Alice: Hi\n[1/2/24, 09:00:05] Bob: Hello\nhow are you"

	res, err := New(nil).Process([]byte(raw), chat.Auto)
	require.NoError(t, err)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, chat.WhatsApp, res.Platform)
	assert.Equal(t, "Bob", res.Messages[1].Sender)
	assert.Equal(t, "Hello\nhow are you", res.Messages[1].Text)
	assert.Equal(t, 2, res.Stats.ValidDateMessages)
}

func TestProcess_MediaPlaceholderFiltered(t *testing.T) {
	raw := "[1/2/24, 09:00:00] Alice: Hi\n[1/2/24, 09:00:05] Bob: <Media omitted>"

	res, err := New(nil).Process([]byte(raw), chat.WhatsApp)
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, 1, res.Stats.FilteredMediaMessages)
	assert.Empty(t, res.Warnings, "filtered noise is not a warning")
}

func TestProcess_KeepsMessagesMentioningSystemPhrases(t *testing.T) {
	raw := strings.Join([]string{
		"[1/2/24, 09:00:00] Alice: I created group chats for the trip, check them",
		"[1/2/24, 09:00:05] Bob: lol Carl is now an admin of everything",
		"[1/2/24, 09:00:09] Alice: ok",
		"[1/2/24, 09:00:10] Carl is now an admin",
	}, "\n")

	res, err := New(nil).Process([]byte(raw), chat.WhatsApp)
	require.NoError(t, err)
	require.Len(t, res.Messages, 3)
	assert.Equal(t, "I created group chats for the trip, check them", res.Messages[0].Text)
	assert.Equal(t, "Bob", res.Messages[1].Sender)
	assert.Equal(t, 1, res.Stats.FilteredSystemMessages)
	assert.True(t, res.Conserved())
}

func TestProcess_CountConservation(t *testing.T) {
	raw := strings.Join([]string{
		"orphan before header",
		"[1/2/24, 09:00:00] Messages and calls are end-to-end encrypted.",
		"[1/2/24, 09:00:01] Alice: Hi",
		"[1/2/24, 09:00:02] Bob: <Media omitted>",
		"[1/2/24, 09:00:03] Bob: This message was deleted",
		"[1/2/24, 09:00:04] Bob: https://example.com",
		"[1/2/24, 09:00:05] Alice: bye",
		"second line",
	}, "\n")

	res, err := New(nil).Process([]byte(raw), chat.Auto)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Stats.TotalEntries)
	assert.Equal(t, 2, res.Stats.FilteredSystemMessages)
	assert.Equal(t, 1, res.Stats.FilteredMediaMessages)
	assert.Equal(t, 1, res.Stats.DroppedOrphanContinuations)
	assert.Equal(t, 1, res.Stats.LinkOnlyMessages)
	assert.Len(t, res.Messages, 3)
	assert.True(t, res.Conserved())
}

func TestProcess_Idempotent(t *testing.T) {
	raw := []byte("[1/2/24, 09:00:00] Alice: Hi\n[bad, 09:00:05] Bob: x\n[1/2/24, 09:00:05] Bob: Hello\nworld")

	p := New(nil)
	a, err := p.Process(raw, chat.Auto)
	require.NoError(t, err)
	b, err := p.Process(raw, chat.Auto)
	require.NoError(t, err)

	ja, _ := json.Marshal(a.Messages)
	jb, _ := json.Marshal(b.Messages)
	assert.Equal(t, string(ja), string(jb))
}

func TestProcess_OrdersValidDatesAndKeepsUndatedInPlace(t *testing.T) {
	raw := `{"participants":[{"name":"A"}],"messages":[
		{"sender_name":"A","timestamp_ms":1704186000000,"content":"at 09:00"},
		{"sender_name":"A","content":"undated"},
		{"sender_name":"A","timestamp_ms":1704189600000,"content":"at 10:00"},
		{"sender_name":"A","timestamp_ms":1704186600000,"content":"at 09:10"}
	]}`
	// Reversed by the extractor to 09:10, 10:00, undated, 09:00.
	res, err := New(nil).Process([]byte(raw), chat.Auto)
	require.NoError(t, err)
	require.Len(t, res.Messages, 4)

	assert.False(t, res.Messages[2].HasValidDate)
	assert.Equal(t, "undated", res.Messages[2].Text)

	var prev *time.Time
	for _, m := range res.Messages {
		if !m.HasValidDate {
			continue
		}
		if prev != nil {
			assert.False(t, m.Timestamp.Before(*prev), "valid-dated messages must be non-decreasing")
		}
		prev = m.Timestamp
	}
	require.Len(t, res.Warnings, 1)
}

func TestProcess_InvalidDateKeptAndWarned(t *testing.T) {
	raw := "[99/99/99, 09:00:00] Alice: Hi"

	res, err := New(nil).Process([]byte(raw), chat.Auto)
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	assert.False(t, res.Messages[0].HasValidDate)
	assert.Nil(t, res.Messages[0].Timestamp)
	require.Len(t, res.Warnings, 1)
}

func TestProcess_EmptyResult(t *testing.T) {
	raw := "[1/2/24, 09:00:00] Alice: <Media omitted>\n[1/2/24, 09:00:01] Bob: image omitted"

	_, err := New(nil).Process([]byte(raw), chat.Auto)
	require.Error(t, err)
	assert.True(t, errs.IsCode(err, errs.EmptyResult))
}

func TestProcess_UnsupportedFormat(t *testing.T) {
	_, err := New(nil).Process([]byte("just some notes\nwithout any headers"), chat.Auto)
	require.Error(t, err)
	assert.True(t, errs.IsCode(err, errs.UnsupportedFormat))

	_, err = New(nil).Process([]byte("not json"), chat.Discord)
	assert.True(t, errs.IsCode(err, errs.UnsupportedFormat))
}

func TestProcess_JSONPlatformsEndToEnd(t *testing.T) {
	for name, raw := range map[string]string{
		"discord":   discordFixture,
		"telegram":  telegramFixture,
		"instagram": instagramFixture,
		"snapchat":  snapchatFixture,
	} {
		t.Run(name, func(t *testing.T) {
			res, err := New(nil).Process([]byte(raw), chat.Auto)
			require.NoError(t, err)
			assert.Equal(t, chat.Platform(name), res.Platform)
			assert.True(t, res.Conserved())
			assert.Equal(t, len(res.Messages), res.Stats.ValidDateMessages)
		})
	}
}
