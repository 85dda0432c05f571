package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
)

const (
	datePat    = `(\d{1,4}[./-]\d{1,2}[./-]\d{1,4}|\d{4}年\s?\d{1,2}月\s?\d{1,2}日)`
	meridiem   = `(?:\s?[AaPp]\.?\s?[Mm]\.?)?`
	cjkPrefix  = `(?:上午|下午|午前|午後|오전|오후)?\s?`
	timeSecPat = `(` + cjkPrefix + `\d{1,2}:\d{2}:\d{2}` + meridiem + `)`
	timeMinPat = `(` + cjkPrefix + `\d{1,2}[:.]\d{2}` + meridiem + `)`
	timeAnyPat = `(` + cjkPrefix + `\d{1,2}[:.]\d{2}(?:[:.]\d{2})?` + meridiem + `)`
	bodyPat    = `(?:([^:]+?):(?:\s+|$))?(.*)$`
)

// headerPattern is one line shape a message can start with. Dated patterns
// capture date, time, optional sender and text; the generic pattern
// captures sender and text only.
type headerPattern struct {
	name  string
	re    *regexp.Regexp
	dated bool
}

// headerPatterns is evaluated in order and the first match wins, so the
// most specific shapes come first.
var headerPatterns = []headerPattern{
	{"bracketed date+seconds", regexp.MustCompile(`^\[` + datePat + `,?\s+` + timeSecPat + `\]\s*` + bodyPat), true},
	{"bracketed date", regexp.MustCompile(`^\[` + datePat + `,?\s+` + timeMinPat + `\]\s*` + bodyPat), true},
	{"parenthesized date", regexp.MustCompile(`^\(` + datePat + `,?\s+` + timeAnyPat + `\)\s*` + bodyPat), true},
	{"dash separated", regexp.MustCompile(`^` + datePat + `,?\s+` + timeAnyPat + `\s+[-–]\s+` + bodyPat), true},
	{"generic sender", regexp.MustCompile(`^([^:\[\]()]{1,40}?):\s+(.+)$`), false},
}

var lineCleaner = strings.NewReplacer(
	"\u200e", "", "\u200f", "", "\u202a", "", "\u202c", "", "\ufeff", "",
	"\u00a0", " ", "\u202f", " ",
)

type whatsApp struct{}

func (whatsApp) Platform() chat.Platform { return chat.WhatsApp }

// Extract matches every line against headerPatterns and folds each line that
// matches none of them into the message before it.
func (whatsApp) Extract(raw []byte) (*Extraction, error) {
	lines := strings.Split(strings.ReplaceAll(string(raw), "\r\n", "\n"), "\n")

	ex := &Extraction{}
	var current *Entry
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if e, ok := matchHeader(headerPatterns, lineCleaner.Replace(line)); ok {
			if current != nil {
				ex.Entries = append(ex.Entries, finishEntry(*current))
			}
			current = &e
			continue
		}
		if current == nil {
			if strings.TrimSpace(line) != "" {
				ex.Orphans++
			}
			continue
		}
		current.Message += "\n" + line
	}
	if current != nil {
		ex.Entries = append(ex.Entries, finishEntry(*current))
	}

	if ex.Orphans > 0 {
		ex.Warnings = append(ex.Warnings,
			fmt.Sprintf("dropped %d continuation line(s) found before the first message", ex.Orphans))
	}
	return ex, nil
}

func matchHeader(patterns []headerPattern, line string) (Entry, bool) {
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if !p.dated {
			return Entry{RawEntry: chat.RawEntry{Sender: cleanSender(m[1]), Message: m[2]}}, true
		}
		e := Entry{RawEntry: chat.RawEntry{
			DatePart: m[1],
			TimePart: m[2],
			Sender:   cleanSender(m[3]),
			Message:  m[4],
		}}
		// A dated line without a sender is a group or call event.
		e.System = e.Sender == ""
		return e, true
	}
	return Entry{}, false
}

// cleanSender drops the "~" WhatsApp puts before non-contact names.
func cleanSender(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "~")
	return strings.TrimSpace(s)
}

func finishEntry(e Entry) Entry {
	e.Message = strings.TrimRight(e.Message, "\n")
	return e
}
