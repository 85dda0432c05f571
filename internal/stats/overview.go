package stats

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
)

// SenderOverview is one participant's share of the conversation.
type SenderOverview struct {
	Name            string  `json:"name"`
	Messages        int     `json:"messages"`
	Words           int     `json:"words"`
	WordsPerMessage float64 `json:"wordsPerMessage"`
	Share           float64 `json:"share"`
}

// ResponseTime summarizes gaps between consecutive messages that change
// sender.
type ResponseTime struct {
	AverageSeconds float64          `json:"averageSeconds"`
	MedianSeconds  float64          `json:"medianSeconds"`
	Average        string           `json:"average"`
	Median         string           `json:"median"`
	Samples        int              `json:"samples"`
	BySender       []SenderResponse `json:"bySender"`
}

// SenderResponse is how quickly one participant answers the other.
type SenderResponse struct {
	Name           string  `json:"name"`
	AverageSeconds float64 `json:"averageSeconds"`
	Average        string  `json:"average"`
	Samples        int     `json:"samples"`
}

// Overview is the headline summary. Sender1 and Sender2 are the first two
// distinct senders in message order.
type Overview struct {
	TotalMessages     int              `json:"totalMessages"`
	TotalWords        int              `json:"totalWords"`
	WordsPerMessage   float64          `json:"wordsPerMessage"`
	Sender1           SenderOverview   `json:"sender1"`
	Sender2           SenderOverview   `json:"sender2"`
	Senders           []SenderOverview `json:"senders"`
	FirstMessageAt    *time.Time       `json:"firstMessageAt"`
	LastMessageAt     *time.Time       `json:"lastMessageAt"`
	DaysSpanned       int              `json:"daysSpanned"`
	ActiveDays        int              `json:"activeDays"`
	AvgMessagesPerDay float64          `json:"avgMessagesPerDay"` // dated messages over DaysSpanned
	MostActiveDay     string           `json:"mostActiveDay"`
	ResponseTime      ResponseTime     `json:"responseTime"`
}

// Weekdays lists weekday names Monday first, the order every weekday table
// in this package uses.
var Weekdays = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func mondayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// ComputeOverview builds the Overview aggregate.
func ComputeOverview(msgs []chat.Message) Overview {
	o := Overview{TotalMessages: len(msgs)}

	idx := make(map[string]int)
	var senders []SenderOverview
	var weekdays [7]int
	var dated int
	days := make(map[string]struct{})

	for _, m := range msgs {
		words := CountChars(m.Text)
		o.TotalWords += words

		i, ok := idx[m.Sender]
		if !ok {
			i = len(senders)
			idx[m.Sender] = i
			senders = append(senders, SenderOverview{Name: m.Sender})
		}
		senders[i].Messages++
		senders[i].Words += words

		if !m.HasValidDate {
			continue
		}
		dated++
		ts := *m.Timestamp
		if o.FirstMessageAt == nil || ts.Before(*o.FirstMessageAt) {
			o.FirstMessageAt = &ts
		}
		if o.LastMessageAt == nil || ts.After(*o.LastMessageAt) {
			o.LastMessageAt = &ts
		}
		weekdays[mondayIndex(ts)]++
		days[ts.Format("2006-01-02")] = struct{}{}
	}

	for i := range senders {
		senders[i].WordsPerMessage = ratio(senders[i].Words, senders[i].Messages)
		senders[i].Share = percent(senders[i].Messages, o.TotalMessages)
	}
	o.Senders = senders
	if len(senders) > 0 {
		o.Sender1 = senders[0]
	}
	if len(senders) > 1 {
		o.Sender2 = senders[1]
	}
	o.WordsPerMessage = ratio(o.TotalWords, o.TotalMessages)

	if o.FirstMessageAt != nil {
		first := civilDay(*o.FirstMessageAt)
		last := civilDay(*o.LastMessageAt)
		o.DaysSpanned = int(last.Sub(first).Hours()/24) + 1
		o.ActiveDays = len(days)
		o.AvgMessagesPerDay = ratio(dated, o.DaysSpanned)

		best := -1
		for i, n := range weekdays {
			if n > 0 && (best < 0 || n > weekdays[best]) {
				best = i
			}
		}
		if best >= 0 {
			o.MostActiveDay = Weekdays[best]
		}
	}

	o.ResponseTime = computeResponseTime(msgs)
	return o
}

func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// computeResponseTime measures gaps between consecutive valid-dated
// messages whose sender differs. Undated messages are skipped.
func computeResponseTime(msgs []chat.Message) ResponseTime {
	var gaps []float64
	perSender := make(map[string][]float64)
	var order []string

	var prev *chat.Message
	for i := range msgs {
		m := &msgs[i]
		if !m.HasValidDate {
			continue
		}
		if prev != nil && prev.Sender != m.Sender {
			gap := m.Timestamp.Sub(*prev.Timestamp).Seconds()
			gaps = append(gaps, gap)
			if _, ok := perSender[m.Sender]; !ok {
				order = append(order, m.Sender)
			}
			perSender[m.Sender] = append(perSender[m.Sender], gap)
		}
		prev = m
	}

	rt := ResponseTime{Samples: len(gaps)}
	if len(gaps) == 0 {
		return rt
	}
	rt.AverageSeconds = round2(mean(gaps))
	rt.MedianSeconds = round2(median(gaps))
	rt.Average = humanizeGap(rt.AverageSeconds)
	rt.Median = humanizeGap(rt.MedianSeconds)
	for _, name := range order {
		avg := round2(mean(perSender[name]))
		rt.BySender = append(rt.BySender, SenderResponse{
			Name:           name,
			AverageSeconds: avg,
			Average:        humanizeGap(avg),
			Samples:        len(perSender[name]),
		})
	}
	return rt
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func median(xs []float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

var gapMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Second, Format: "under a second", DivBy: time.Second},
	{D: 2 * time.Second, Format: "1 second", DivBy: 1},
	{D: time.Minute, Format: "%d seconds", DivBy: time.Second},
	{D: 2 * time.Minute, Format: "1 minute", DivBy: 1},
	{D: time.Hour, Format: "%d minutes", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "1 hour", DivBy: 1},
	{D: humanize.Day, Format: "%d hours", DivBy: time.Hour},
	{D: 2 * humanize.Day, Format: "1 day", DivBy: 1},
	{D: humanize.Week, Format: "%d days", DivBy: humanize.Day},
	{D: 2 * humanize.Week, Format: "1 week", DivBy: 1},
	{D: humanize.Month, Format: "%d weeks", DivBy: humanize.Week},
	{D: math.MaxInt64, Format: "over a month", DivBy: 1},
}

func humanizeGap(seconds float64) string {
	base := time.Unix(0, 0)
	d := time.Duration(seconds * float64(time.Second))
	return strings.TrimSpace(humanize.CustomRelTime(base, base.Add(d), "", "", gapMagnitudes))
}
