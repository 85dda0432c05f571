// Package parser turns raw chat exports into canonical messages: format
// detection, per-platform extraction, multiline merging, noise filtering and
// date normalization.
package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
	"github.com/cheercheung/chatrecap-sub001/internal/datefmt"
	"github.com/cheercheung/chatrecap-sub001/internal/errs"
	"github.com/cheercheung/chatrecap-sub001/internal/noise"
)

// maxDateWarnings caps per-message date warnings; the rest are summarized.
const maxDateWarnings = 20

// Parser runs the parsing chain. It is safe for concurrent use.
type Parser struct {
	filter *noise.Filter
}

// New returns a parser using filter, or every noise locale when nil.
func New(filter *noise.Filter) *Parser {
	if filter == nil {
		filter = noise.New()
	}
	return &Parser{filter: filter}
}

// Process runs detection, extraction and normalization over raw.
func (p *Parser) Process(raw []byte, hint chat.Platform) (*chat.ProcessResult, error) {
	text, err := decode(raw)
	if err != nil {
		return nil, errs.Wrap(err, errs.UnsupportedFormat, "the uploaded file could not be read")
	}

	ext, err := Detect(text, hint)
	if err != nil {
		return nil, err
	}
	ex, err := ext.Extract(text)
	if err != nil {
		return nil, errs.Wrapf(err, errs.UnsupportedFormat, "the file is not a valid %s export", ext.Platform())
	}
	if len(ex.Entries) == 0 {
		return nil, errs.Newf(errs.UnsupportedFormat, "no %s messages were recognized in the file", ext.Platform())
	}

	res := p.Normalize(ex)
	res.Platform = ext.Platform()
	if len(res.Messages) == 0 {
		return nil, errs.New(errs.EmptyResult, "no messages remained after removing media and system notices")
	}
	return res, nil
}

// Normalize applies the noise filter and then the date normalizer to every
// entry and accounts for each one in the result stats.
func (p *Parser) Normalize(ex *Extraction) *chat.ProcessResult {
	res := &chat.ProcessResult{
		Messages: make([]chat.Message, 0, len(ex.Entries)),
		Warnings: append([]string{}, ex.Warnings...),
	}
	res.Stats.TotalEntries = len(ex.Entries) + ex.Orphans
	res.Stats.DroppedOrphanContinuations = ex.Orphans

	badDates := 0
	for _, e := range ex.Entries {
		class := p.filter.Classify(e.Message)
		switch {
		case e.System || class == noise.System:
			res.Stats.FilteredSystemMessages++
			continue
		case class == noise.Media:
			res.Stats.FilteredMediaMessages++
			continue
		case class == noise.Link:
			res.Stats.LinkOnlyMessages++
		}

		msg := chat.Message{
			Sender: noise.Clean(e.Sender),
			Text:   strings.TrimRight(e.Message, " \t\n"),
		}
		if ts, ok := datefmt.Parse(e.DatePart, e.TimePart); ok {
			msg.Timestamp = &ts
			msg.HasValidDate = true
			res.Stats.ValidDateMessages++
		} else {
			badDates++
			if badDates <= maxDateWarnings {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("unrecognized date %q %q for message from %s", e.DatePart, e.TimePart, msg.Sender))
			}
		}
		res.Messages = append(res.Messages, msg)
	}
	if badDates > maxDateWarnings {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("%d more messages have unrecognized dates", badDates-maxDateWarnings))
	}

	orderByTime(res.Messages)
	return res
}

// orderByTime stably sorts the valid-dated messages among the slots they
// already occupy; undated messages keep their positions.
func orderByTime(msgs []chat.Message) {
	var slots []int
	var dated []chat.Message
	for i, m := range msgs {
		if m.HasValidDate {
			slots = append(slots, i)
			dated = append(dated, m)
		}
	}
	sort.SliceStable(dated, func(a, b int) bool {
		return dated[a].Timestamp.Before(*dated[b].Timestamp)
	})
	for j, i := range slots {
		msgs[i] = dated[j]
	}
}
