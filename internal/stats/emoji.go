package stats

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
)

var emojiRanges = [][2]rune{
	{0x1F000, 0x1FAFF},
	{0x2600, 0x27BF},
	{0x231A, 0x231B},
	{0x23E9, 0x23FA},
	{0x2B1B, 0x2B1C},
	{0x2B50, 0x2B50},
	{0x2B55, 0x2B55},
	{0x3030, 0x3030},
	{0x303D, 0x303D},
	{0x3297, 0x3297},
	{0x3299, 0x3299},
}

const (
	variationSelector16 = '\uFE0F'
	keycapCombiner      = '\u20E3'
)

// Emojis returns the emoji grapheme clusters of s in order. Skin-tone and
// ZWJ sequences stay whole; the presentation selector (U+FE0F) is dropped so
// text and emoji presentations count as the same emoji.
func Emojis(s string) []string {
	var out []string
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		runes := g.Runes()
		if !isEmojiCluster(runes) {
			continue
		}
		out = append(out, strings.ReplaceAll(g.Str(), string(variationSelector16), ""))
	}
	return out
}

func isEmojiCluster(runes []rune) bool {
	if len(runes) == 0 {
		return false
	}
	for _, r := range runes {
		if r == keycapCombiner {
			return true
		}
		for _, rg := range emojiRanges {
			if r >= rg[0] && r <= rg[1] {
				return true
			}
		}
	}
	first := runes[0]
	if len(runes) > 1 && runes[1] == variationSelector16 {
		return unicode.IsSymbol(first) || unicode.IsPunct(first)
	}
	return false
}
