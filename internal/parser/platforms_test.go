package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cheercheung/chatrecap-sub001/internal/noise"
)

const discordFixture = `{
  "guild": {"id": "1", "name": "Direct Messages"},
  "channel": {"id": "2", "type": "DirectTextChat", "name": "alice"},
  "messages": [
    {"id": "10", "type": "Default", "timestamp": "2024-01-02T09:00:00.123+00:00", "content": "hey", "author": {"name": "alice", "nickname": "Alice"}, "attachments": []},
    {"id": "11", "type": "Call", "timestamp": "2024-01-02T09:01:00+00:00", "content": "", "author": {"name": "bob", "nickname": "Bob"}},
    {"id": "12", "type": "Reply", "timestamp": "2024-01-02T09:02:00+02:00", "content": "", "author": {"name": "bob", "nickname": ""}, "attachments": [{"id": "a"}]}
  ]
}`

const telegramFixture = `{
  "name": "Bob",
  "type": "personal_chat",
  "id": 42,
  "messages": [
    {"id": 1, "type": "service", "date": "2024-01-02T09:00:00", "actor": "Alice", "action": "phone_call", "text": ""},
    {"id": 2, "type": "message", "date": "2024-01-02T09:01:00", "from": "Alice", "text": ["see ", {"type": "link", "text": "https://t.me"}, " ok"]},
    {"id": 3, "type": "message", "date": "2024-01-02T09:02:00", "from": "Bob", "text": "", "photo": "photos/p1.jpg"},
    {"id": 4, "type": "message", "date": "2024-01-02T09:03:00", "from": "Bob", "text": "plain"}
  ]
}`

const instagramFixture = `{
  "participants": [{"name": "Alice"}, {"name": "Bob"}],
  "messages": [
    {"sender_name": "Bob", "timestamp_ms": 1704186120000, "content": "cafÃ© later?"},
    {"sender_name": "Alice", "timestamp_ms": 1704186060000, "photos": [{"uri": "p.jpg"}]},
    {"sender_name": "Alice", "timestamp_ms": 1704186000000, "content": "hi"}
  ],
  "title": "Bob",
  "thread_path": "inbox/bob_1"
}`

const snapchatLegacyFixture = `{
  "Received Saved Chat History": [
    {"From": "bob", "Media Type": "TEXT", "Created": "2024-01-02 09:00:00 UTC", "Text": "yo"}
  ],
  "Sent Saved Chat History": [
    {"To": "bob", "Media Type": "TEXT", "Created": "2024-01-02 09:01:00 UTC", "Text": "hey"}
  ]
}`

const snapchatFixture = `{
  "bob": [
    {"From": "bob", "Media Type": "MEDIA", "Created": "2024-01-02 09:00:00 UTC", "Content": "", "IsSender": false},
    {"From": "alice", "Media Type": "TEXT", "Created": "2024-01-02 09:01:00 UTC", "Content": "nice", "IsSender": true},
    {"From": "bob", "Media Type": "STATUSPARTICIPANTREMOVED", "Created": "2024-01-02 09:02:00 UTC", "Content": "", "IsSender": false}
  ]
}`

func TestDiscord_Extract(t *testing.T) {
	ex, err := discord{}.Extract([]byte(discordFixture))
	require.NoError(t, err)
	require.Len(t, ex.Entries, 3)

	assert.Equal(t, "Alice", ex.Entries[0].Sender)
	assert.Equal(t, "2024-01-02", ex.Entries[0].DatePart)
	assert.Equal(t, "09:00:00", ex.Entries[0].TimePart)
	assert.True(t, ex.Entries[1].System, "call records are system events")
	assert.Equal(t, "bob", ex.Entries[2].Sender, "falls back to account name")
	assert.Equal(t, noise.MediaPlaceholder, ex.Entries[2].Message)
	assert.Equal(t, "09:02:00", ex.Entries[2].TimePart, "keeps the wall clock of the export offset")
}

func TestTelegram_Extract(t *testing.T) {
	ex, err := telegram{}.Extract([]byte(telegramFixture))
	require.NoError(t, err)
	require.Len(t, ex.Entries, 4)

	assert.True(t, ex.Entries[0].System)
	assert.Equal(t, "Alice", ex.Entries[0].Sender)
	assert.Equal(t, "see https://t.me ok", ex.Entries[1].Message)
	assert.Equal(t, "2024-01-02", ex.Entries[1].DatePart)
	assert.Equal(t, "09:01:00", ex.Entries[1].TimePart)
	assert.Equal(t, noise.MediaPlaceholder, ex.Entries[2].Message)
	assert.Equal(t, "plain", ex.Entries[3].Message)
}

func TestTelegram_AccountExportPicksFirstChat(t *testing.T) {
	raw := `{"chats":{"list":[{"name":"empty","messages":[]},{"name":"Bob","type":"personal_chat","messages":[{"type":"message","date":"2024-01-02T09:00:00","from":"Bob","text":"hi"}]}]}}`
	ex, err := telegram{}.Extract([]byte(raw))
	require.NoError(t, err)
	require.Len(t, ex.Entries, 1)
	assert.Equal(t, "Bob", ex.Entries[0].Sender)
	require.Len(t, ex.Warnings, 1)
}

func TestInstagram_Extract(t *testing.T) {
	ex, err := instagram{}.Extract([]byte(instagramFixture))
	require.NoError(t, err)
	require.Len(t, ex.Entries, 3)

	assert.Equal(t, "hi", ex.Entries[0].Message, "oldest first")
	assert.Equal(t, noise.MediaPlaceholder, ex.Entries[1].Message)
	assert.Equal(t, "café later?", ex.Entries[2].Message, "mojibake repaired")
	assert.Equal(t, "2024-01-02", ex.Entries[0].DatePart)
	assert.Equal(t, "09:00:00", ex.Entries[0].TimePart)
}

func TestSnapchat_Extract(t *testing.T) {
	ex, err := snapchat{}.Extract([]byte(snapchatLegacyFixture))
	require.NoError(t, err)
	require.Len(t, ex.Entries, 2)
	assert.Equal(t, "bob", ex.Entries[0].Sender)
	assert.Equal(t, snapOwner, ex.Entries[1].Sender)
	assert.Equal(t, "hey", ex.Entries[1].Message)
	assert.Equal(t, "2024-01-02", ex.Entries[1].DatePart)
	assert.Equal(t, "09:01:00", ex.Entries[1].TimePart)

	ex, err = snapchat{}.Extract([]byte(snapchatFixture))
	require.NoError(t, err)
	require.Len(t, ex.Entries, 3)
	assert.Equal(t, noise.MediaPlaceholder, ex.Entries[0].Message)
	assert.Equal(t, "nice", ex.Entries[1].Message)
	assert.True(t, ex.Entries[2].System)
}

func TestFixMojibake(t *testing.T) {
	assert.Equal(t, "plain", fixMojibake("plain"))
	assert.Equal(t, "café", fixMojibake("café"), "already valid text is untouched")
	assert.Equal(t, "你好", fixMojibake("你好"))
}
