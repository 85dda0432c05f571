// Package datefmt resolves the date and time text found in chat exports into
// a canonical timestamp using a fixed, ordered list of templates.
//
// The order of Templates is a contract. Year-first and CJK forms come first
// since they are unambiguous. Among slash dates, a 12-hour clock prefers
// month-first (US exports) and a 24-hour clock prefers day-first, so
// "01/02/24 09:00" is 1 February 2024 while "01/02/24 9:00 AM" is 2 January
// 2024. The other reading is only used when the preferred one is out of range.
package datefmt

import (
	"strings"
	"time"
)

// Clock is the hour convention a template expects.
type Clock int

const (
	Clock24 Clock = iota
	Clock12
)

// Template is one candidate date layout.
type Template struct {
	Name  string
	Date  string // Go reference layout for the date part
	Clock Clock
}

var templates = []Template{
	{"YYYY-M-D 24h", "2006-1-2", Clock24},
	{"YYYY/M/D 24h", "2006/1/2", Clock24},
	{"YYYY.M.D 24h", "2006.1.2", Clock24},
	{"YYYY年M月D日 24h", "2006年1月2日", Clock24},
	{"YYYY年M月D日 12h", "2006年1月2日", Clock12},
	{"YYYY-M-D 12h", "2006-1-2", Clock12},
	{"YYYY/M/D 12h", "2006/1/2", Clock12},
	{"M/D/YYYY 12h", "1/2/2006", Clock12},
	{"M/D/YY 12h", "1/2/06", Clock12},
	{"D/M/YYYY 24h", "2/1/2006", Clock24},
	{"D/M/YY 24h", "2/1/06", Clock24},
	{"D.M.YYYY 24h", "2.1.2006", Clock24},
	{"D.M.YY 24h", "2.1.06", Clock24},
	{"D-M-YYYY 24h", "2-1-2006", Clock24},
	{"D-M-YY 24h", "2-1-06", Clock24},
	{"M/D/YYYY 24h", "1/2/2006", Clock24},
	{"M/D/YY 24h", "1/2/06", Clock24},
	{"D/M/YYYY 12h", "2/1/2006", Clock12},
	{"D/M/YY 12h", "2/1/06", Clock12},
	{"D.M.YY 12h", "2.1.06", Clock12},
}

var clockLayouts = map[Clock][]string{
	Clock24: {"15:04:05", "15:04", "15.04.05", "15.04"},
	Clock12: {"3:04:05 PM", "3:04 PM"},
}

// Templates returns a copy of the ordered candidate list.
func Templates() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

// Parse resolves datePart and timePart. The result is a wall-clock time in
// UTC. ok is false when no template fits.
func Parse(datePart, timePart string) (time.Time, bool) {
	ts, _, ok := Match(datePart, timePart)
	return ts, ok
}

// Match is Parse that also reports the winning template.
func Match(datePart, timePart string) (time.Time, Template, bool) {
	d := normalizeDate(datePart)
	if d == "" {
		return time.Time{}, Template{}, false
	}
	clock, meridiem := normalizeClock(timePart)

	for _, tpl := range templates {
		if clock == "" {
			if tpl.Clock != Clock24 {
				continue
			}
			if ts, err := time.ParseInLocation(tpl.Date, d, time.UTC); err == nil {
				return ts, tpl, true
			}
			continue
		}
		if (tpl.Clock == Clock12) != meridiem {
			continue
		}
		for _, cl := range clockLayouts[tpl.Clock] {
			if ts, err := time.ParseInLocation(tpl.Date+" "+cl, d+" "+clock, time.UTC); err == nil {
				return ts, tpl, true
			}
		}
	}
	return time.Time{}, Template{}, false
}

var spaceFixer = strings.NewReplacer(
	"\u202f", " ", "\u00a0", " ", "\u200e", "", "\u200f", "", "\ufeff", "",
)

func normalizeDate(s string) string {
	s = strings.TrimSpace(spaceFixer.Replace(s))
	s = strings.TrimRight(s, ", ")
	if strings.ContainsAny(s, "年月日") {
		s = strings.ReplaceAll(s, " ", "")
	}
	return s
}

type marker struct {
	text string
	pm   bool
}

// Longer markers first so "a. m." wins over "am".
var meridiemMarkers = []marker{
	{"a. m.", false}, {"p. m.", true},
	{"a.m.", false}, {"p.m.", true},
	{"am", false}, {"pm", true},
	{"上午", false}, {"下午", true},
	{"午前", false}, {"午後", true},
	{"오전", false}, {"오후", true},
}

// normalizeClock returns the clock text in a Go-parseable shape and whether
// it carries a meridiem.
func normalizeClock(s string) (string, bool) {
	s = strings.TrimSpace(spaceFixer.Replace(s))
	if s == "" {
		return "", false
	}
	lower := strings.ToLower(s)
	for _, m := range meridiemMarkers {
		i := strings.Index(lower, m.text)
		if i < 0 {
			continue
		}
		rest := strings.TrimSpace(lower[:i] + lower[i+len(m.text):])
		if m.pm {
			return rest + " PM", true
		}
		return rest + " AM", true
	}
	return s, false
}
