package stats

import (
	"sort"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
)

// DailyCount is the message count for one calendar date.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// TimeOfDay holds percentages of dated messages per period.
// Morning is 05-11, afternoon 12-16, evening 17-21, night 22-04.
type TimeOfDay struct {
	Morning   float64 `json:"morning"`
	Afternoon float64 `json:"afternoon"`
	Evening   float64 `json:"evening"`
	Night     float64 `json:"night"`
}

// TimeAnalysis aggregates valid-dated messages over the clock and the
// calendar. Weekday rows are Monday first.
type TimeAnalysis struct {
	DatedMessages     int          `json:"datedMessages"`
	Hourly            [24]int      `json:"hourly"`
	MostActiveHour    int          `json:"mostActiveHour"`
	Weekday           [7]int       `json:"weekday"`
	Heatmap           [7][24]int   `json:"heatmap"`
	Daily             []DailyCount `json:"daily"`
	MostActiveDate    string       `json:"mostActiveDate"`
	MostMessagesCount int          `json:"mostMessagesCount"`
	TimeOfDay         TimeOfDay    `json:"timeOfDay"`
}

// ComputeTimeAnalysis builds the TimeAnalysis aggregate. MostActiveHour is
// -1 when no message carries a valid date. Ties resolve to the earliest
// hour or date.
func ComputeTimeAnalysis(msgs []chat.Message) TimeAnalysis {
	ta := TimeAnalysis{MostActiveHour: -1}
	perDate := make(map[string]int)
	var morning, afternoon, evening, night int

	for _, m := range msgs {
		if !m.HasValidDate {
			continue
		}
		ts := *m.Timestamp
		h := ts.Hour()
		wd := mondayIndex(ts)

		ta.DatedMessages++
		ta.Hourly[h]++
		ta.Weekday[wd]++
		ta.Heatmap[wd][h]++
		perDate[ts.Format("2006-01-02")]++

		switch {
		case h >= 5 && h <= 11:
			morning++
		case h >= 12 && h <= 16:
			afternoon++
		case h >= 17 && h <= 21:
			evening++
		default:
			night++
		}
	}
	if ta.DatedMessages == 0 {
		return ta
	}

	for h, n := range ta.Hourly {
		if n > 0 && (ta.MostActiveHour < 0 || n > ta.Hourly[ta.MostActiveHour]) {
			ta.MostActiveHour = h
		}
	}

	ta.Daily = make([]DailyCount, 0, len(perDate))
	for d, n := range perDate {
		ta.Daily = append(ta.Daily, DailyCount{Date: d, Count: n})
	}
	sort.Slice(ta.Daily, func(i, j int) bool { return ta.Daily[i].Date < ta.Daily[j].Date })
	for _, d := range ta.Daily {
		if d.Count > ta.MostMessagesCount {
			ta.MostActiveDate = d.Date
			ta.MostMessagesCount = d.Count
		}
	}

	ta.TimeOfDay = TimeOfDay{
		Morning:   percent(morning, ta.DatedMessages),
		Afternoon: percent(afternoon, ta.DatedMessages),
		Evening:   percent(evening, ta.DatedMessages),
		Night:     percent(night, ta.DatedMessages),
	}
	return ta
}
