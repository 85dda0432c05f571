package stats

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
)

// TextOptions tunes word extraction.
type TextOptions struct {
	// Stopwords are compared after case folding. Nil selects DefaultStopwords.
	Stopwords map[string]struct{}
	// MinLength is the minimum token length in runes.
	MinLength int
	// ExcludeNumeric drops tokens made only of digits.
	ExcludeNumeric bool
	// TopN bounds every ranked list.
	TopN int
}

// DefaultTextOptions is what the pipeline uses.
func DefaultTextOptions() TextOptions {
	return TextOptions{MinLength: 2, ExcludeNumeric: true, TopN: 20}
}

// WordCount is one ranked word.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// EmojiCount is one ranked emoji.
type EmojiCount struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// SenderText is per-sender text detail.
type SenderText struct {
	Name       string       `json:"name"`
	Words      int          `json:"words"`
	TopWords   []WordCount  `json:"topWords"`
	EmojiTotal int          `json:"emojiTotal"`
	TopEmojis  []EmojiCount `json:"topEmojis"`
	Sentiment  Sentiment    `json:"sentiment"`
}

// TextAnalysis is the text aggregate. Senders are in first-appearance order.
type TextAnalysis struct {
	TotalWords int          `json:"totalWords"`
	TopWords   []WordCount  `json:"topWords"`
	TopEmojis  []EmojiCount `json:"topEmojis"`
	EmojiTotal int          `json:"emojiTotal"`
	Senders    []SenderText `json:"senders"`
	Sentiment  Sentiment    `json:"sentiment"`
}

var urlPattern = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)

type textAcc struct {
	name    string
	words   int
	counts  map[string]int
	emojis  map[string]int
	emojiN  int
	folded  []string
	emojiSq []string
}

func newTextAcc(name string) *textAcc {
	return &textAcc{name: name, counts: make(map[string]int), emojis: make(map[string]int)}
}

// ComputeTextAnalysis builds the TextAnalysis aggregate.
func ComputeTextAnalysis(msgs []chat.Message, opts TextOptions) TextAnalysis {
	if opts.Stopwords == nil {
		opts.Stopwords = DefaultStopwords
	}
	if opts.TopN <= 0 {
		opts.TopN = DefaultTextOptions().TopN
	}
	folder := cases.Fold()

	all := newTextAcc("")
	idx := make(map[string]*textAcc)
	var order []*textAcc

	for _, m := range msgs {
		acc, ok := idx[m.Sender]
		if !ok {
			acc = newTextAcc(m.Sender)
			idx[m.Sender] = acc
			order = append(order, acc)
		}
		words := CountChars(m.Text)
		acc.words += words
		all.words += words

		for _, e := range Emojis(m.Text) {
			acc.emojis[e]++
			acc.emojiN++
			acc.emojiSq = append(acc.emojiSq, e)
			all.emojis[e]++
			all.emojiN++
		}

		for _, tok := range tokenize(folder.String(norm.NFKC.String(m.Text))) {
			acc.folded = append(acc.folded, tok)
			if !keepToken(tok, opts) {
				continue
			}
			acc.counts[tok]++
			all.counts[tok]++
		}
	}

	ta := TextAnalysis{
		TotalWords: all.words,
		TopWords:   rankWords(all.counts, opts.TopN),
		TopEmojis:  rankEmojis(all.emojis, opts.TopN),
		EmojiTotal: all.emojiN,
	}
	var allTokens, allEmojis []string
	for _, acc := range order {
		ta.Senders = append(ta.Senders, SenderText{
			Name:       acc.name,
			Words:      acc.words,
			TopWords:   rankWords(acc.counts, opts.TopN),
			EmojiTotal: acc.emojiN,
			TopEmojis:  rankEmojis(acc.emojis, opts.TopN),
			Sentiment:  scoreSentiment(acc.folded, acc.emojiSq),
		})
		allTokens = append(allTokens, acc.folded...)
		allEmojis = append(allEmojis, acc.emojiSq...)
	}
	ta.Sentiment = scoreSentiment(allTokens, allEmojis)
	return ta
}

func keepToken(tok string, opts TextOptions) bool {
	if utf8.RuneCountInString(tok) < opts.MinLength {
		return false
	}
	if _, stop := opts.Stopwords[tok]; stop {
		return false
	}
	if opts.ExcludeNumeric && isNumeric(tok) {
		return false
	}
	return true
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// tokenize splits folded text into words. URLs are removed first. Runs of
// ideographic or kana script have no spaces, so they become overlapping
// bigrams.
func tokenize(s string) []string {
	s = urlPattern.ReplaceAllString(s, " ")
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '\'')
	})
	var out []string
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if f == "" {
			continue
		}
		out = append(out, splitScripts(f)...)
	}
	return out
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r)
}

func splitScripts(f string) []string {
	var out []string
	var latin strings.Builder
	var run []rune
	flushLatin := func() {
		if latin.Len() > 0 {
			out = append(out, latin.String())
			latin.Reset()
		}
	}
	flushRun := func() {
		switch {
		case len(run) == 1:
			out = append(out, string(run))
		case len(run) > 1:
			for i := 0; i+1 < len(run); i++ {
				out = append(out, string(run[i:i+2]))
			}
		}
		run = run[:0]
	}
	for _, r := range f {
		if isCJK(r) {
			flushLatin()
			run = append(run, r)
			continue
		}
		flushRun()
		latin.WriteRune(r)
	}
	flushLatin()
	flushRun()
	return out
}

func rankWords(counts map[string]int, n int) []WordCount {
	out := make([]WordCount, 0, len(counts))
	for w, c := range counts {
		out = append(out, WordCount{Word: w, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func rankEmojis(counts map[string]int, n int) []EmojiCount {
	out := make([]EmojiCount, 0, len(counts))
	for e, c := range counts {
		out = append(out, EmojiCount{Emoji: e, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Emoji < out[j].Emoji
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
