// Package noise classifies message text as media placeholders, system
// events or link-only content across export locales.
package noise

import (
	"regexp"
	"sort"
	"strings"
)

// Class is the noise category of a message.
type Class int

const (
	None Class = iota
	Media
	System
	Link
)

func (c Class) String() string {
	switch c {
	case Media:
		return "media"
	case System:
		return "system"
	case Link:
		return "link"
	default:
		return "none"
	}
}

// MediaPlaceholder is the text extractors use for attachment-only records.
const MediaPlaceholder = "<attachment omitted>"

// Filter classifies text against the union of the selected locales.
type Filter struct {
	mediaExact  map[string]struct{}
	mediaRegex  []*regexp.Regexp
	systemExact map[string]struct{}
	systemRegex []*regexp.Regexp
}

// New builds a filter for the given locales; none selects every locale.
// Unknown locales are ignored.
func New(localeCodes ...string) *Filter {
	if len(localeCodes) == 0 {
		localeCodes = Locales()
	}
	f := &Filter{
		mediaExact:  make(map[string]struct{}),
		systemExact: make(map[string]struct{}),
	}
	for _, code := range localeCodes {
		lp, ok := locales[strings.ToLower(code)]
		if !ok {
			continue
		}
		for _, s := range lp.MediaExact {
			f.mediaExact[strings.ToLower(s)] = struct{}{}
		}
		for _, s := range lp.SystemExact {
			f.systemExact[strings.ToLower(s)] = struct{}{}
		}
		f.mediaRegex = append(f.mediaRegex, lp.MediaRegex...)
		f.systemRegex = append(f.systemRegex, lp.SystemRegex...)
	}
	return f
}

// Locales returns the supported locale codes, sorted.
func Locales() []string {
	out := make([]string, 0, len(locales))
	for k := range locales {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Classify returns the noise class of text. A message is system noise only
// when the whole text is a system event, and media only when every
// non-blank line is a media placeholder.
func (f *Filter) Classify(text string) Class {
	t := Clean(text)
	if t == "" {
		return None
	}
	lower := strings.ToLower(t)

	if _, ok := f.systemExact[lower]; ok {
		return System
	}
	for _, re := range f.systemRegex {
		if re.MatchString(t) {
			return System
		}
	}

	media := true
	for _, line := range strings.Split(t, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !f.isMediaLine(line) {
			media = false
			break
		}
	}
	if media {
		return Media
	}

	if linkOnly.MatchString(t) {
		return Link
	}
	return None
}

func (f *Filter) isMediaLine(line string) bool {
	if _, ok := f.mediaExact[strings.ToLower(line)]; ok {
		return true
	}
	for _, re := range f.mediaRegex {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

var invisibles = strings.NewReplacer(
	"\u200e", "", "\u200f", "", "\u202a", "", "\u202b", "", "\u202c", "", "\u202d", "", "\u202e", "",
	"\ufeff", "", "\u00a0", " ", "\u202f", " ",
)

// Clean strips bidi marks and BOMs and normalizes no-break spaces.
func Clean(s string) string {
	return strings.TrimSpace(invisibles.Replace(s))
}
