package stats

// Sentiment is a lexicon score in [-1, 1].
type Sentiment struct {
	Score    float64 `json:"score"`
	Label    string  `json:"label"`
	Positive int     `json:"positive"`
	Negative int     `json:"negative"`
}

const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

var positiveWords = setOf(
	"love", "like", "great", "good", "happy", "thanks", "thank", "awesome", "nice",
	"amazing", "haha", "hahaha", "lol", "cute", "beautiful", "yay", "glad", "wonderful",
	"best", "perfect", "excited", "fun", "sweet", "congrats", "cool", "proud",
	"gracias", "feliz", "amor", "genial", "bueno", "obrigado", "obrigada", "legal",
	"merci", "super", "génial", "heureux", "danke", "toll", "liebe",
	"喜欢", "开心", "谢谢", "哈哈", "可爱", "爱你",
)

var negativeWords = setOf(
	"hate", "sad", "angry", "bad", "sorry", "annoying", "terrible", "awful", "upset",
	"cry", "worst", "tired", "ugh", "mad", "hurt", "boring", "stupid", "lonely",
	"triste", "odio", "malo", "enojado", "ruim", "nul", "déteste", "traurig",
	"schlecht", "hasse",
	"难过", "生气", "讨厌", "伤心", "无聊",
)

var positiveEmojis = setOf(
	"😀", "😃", "😄", "😁", "😆", "😂", "🤣", "😊", "😍", "🥰", "😘", "❤", "👍",
	"🎉", "🙂", "😎", "💕", "💖", "✨", "🥳", "😻", "💯",
)

var negativeEmojis = setOf(
	"😢", "😭", "😡", "😠", "👎", "💔", "😞", "😔", "😩", "😤", "🙁", "☹", "😒", "😫",
)

func setOf(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// scoreSentiment folds lexicon hits into a Sentiment. Tokens must already
// be case-folded.
func scoreSentiment(tokens, emojis []string) Sentiment {
	var s Sentiment
	for _, t := range tokens {
		if _, ok := positiveWords[t]; ok {
			s.Positive++
		} else if _, ok := negativeWords[t]; ok {
			s.Negative++
		}
	}
	for _, e := range emojis {
		if _, ok := positiveEmojis[e]; ok {
			s.Positive++
		} else if _, ok := negativeEmojis[e]; ok {
			s.Negative++
		}
	}
	if total := s.Positive + s.Negative; total > 0 {
		s.Score = round2(float64(s.Positive-s.Negative) / float64(total))
	}
	switch {
	case s.Score >= 0.2:
		s.Label = SentimentPositive
	case s.Score <= -0.2:
		s.Label = SentimentNegative
	default:
		s.Label = SentimentNeutral
	}
	return s
}
