package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"see", "this", "it's", "great"}, tokenize("see this https://x.io/a?b=1 it's great!"))
	assert.Equal(t, []string{"我喜", "喜欢", "欢你", "ok"}, tokenize("我喜欢你 ok"))
}

func TestTextAnalysis_Filters(t *testing.T) {
	msgs := []chat.Message{
		undated("Alice", "The pizza was GREAT, pizza again 2024"),
		undated("Bob", "Pizza? 12 pizza"),
	}
	ta := ComputeTextAnalysis(msgs, DefaultTextOptions())

	require.Len(t, ta.Senders, 2)
	alice := ta.Senders[0]
	assert.Equal(t, "Alice", alice.Name)
	require.NotEmpty(t, alice.TopWords)
	assert.Equal(t, WordCount{Word: "pizza", Count: 2}, alice.TopWords[0])
	for _, w := range alice.TopWords {
		assert.NotEqual(t, "the", w.Word)
		assert.NotEqual(t, "2024", w.Word)
	}
	assert.Equal(t, WordCount{Word: "pizza", Count: 4}, ta.TopWords[0])
}

func TestTextAnalysis_CustomOptions(t *testing.T) {
	msgs := []chat.Message{undated("A", "go go 42 42 42 x")}
	ta := ComputeTextAnalysis(msgs, TextOptions{Stopwords: map[string]struct{}{}, MinLength: 1, TopN: 2})

	assert.Equal(t, []WordCount{{Word: "42", Count: 3}, {Word: "go", Count: 2}}, ta.TopWords)
}

func TestTextAnalysis_EmojiNotFiltered(t *testing.T) {
	msgs := []chat.Message{
		undated("A", "😂😂 the"),
		undated("B", "\u2764\uFE0F \u2764 \U0001F44D\U0001F3FD"),
	}
	ta := ComputeTextAnalysis(msgs, DefaultTextOptions())

	assert.Equal(t, 5, ta.EmojiTotal)
	assert.Equal(t, 2, ta.Senders[0].EmojiTotal)
	assert.Equal(t, []EmojiCount{{Emoji: "\u2764", Count: 2}, {Emoji: "😂", Count: 2}, {Emoji: "\U0001F44D\U0001F3FD", Count: 1}}, ta.TopEmojis)
}

func TestEmojis_Sequences(t *testing.T) {
	family := "\U0001F468\u200D\U0001F469\u200D\U0001F467"
	assert.Equal(t, []string{family, "🇯🇵", "1\u20E3"}, Emojis("a "+family+" b 🇯🇵 1\uFE0F\u20E3"))
	assert.Empty(t, Emojis("plain text ©"))
}

func TestSentiment(t *testing.T) {
	pos := ComputeTextAnalysis([]chat.Message{undated("A", "love this, thanks! 😍")}, DefaultTextOptions())
	assert.Equal(t, SentimentPositive, pos.Sentiment.Label)
	assert.Equal(t, 1.0, pos.Sentiment.Score)

	neg := ComputeTextAnalysis([]chat.Message{undated("A", "so sad 😭 but ok")}, DefaultTextOptions())
	assert.Equal(t, SentimentNegative, neg.Sentiment.Label)

	mixed := ComputeTextAnalysis([]chat.Message{undated("A", "good but bad")}, DefaultTextOptions())
	assert.Equal(t, 0.0, mixed.Sentiment.Score)
	assert.Equal(t, SentimentNeutral, mixed.Sentiment.Label)
}
