package stats

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
)

func at(sender, text string, ts time.Time) chat.Message {
	return chat.Message{Sender: sender, Text: text, Timestamp: &ts, HasValidDate: true}
}

func undated(sender, text string) chat.Message {
	return chat.Message{Sender: sender, Text: text}
}

// twoSenders builds 25 messages, 10 from Alice and 15 from Bob, Alice first.
func twoSenders() []chat.Message {
	base := time.Date(2024, 2, 5, 9, 0, 0, 0, time.UTC) // Monday
	var msgs []chat.Message
	for i := 0; i < 25; i++ {
		sender := "Bob"
		if i%5 == 0 || i%5 == 2 {
			sender = "Alice"
		}
		msgs = append(msgs, at(sender, fmt.Sprintf("message number %d", i), base.Add(time.Duration(i)*time.Minute)))
	}
	return msgs
}

func TestCountChars(t *testing.T) {
	assert.Equal(t, 3, CountChars("a b  c"))
	assert.Equal(t, 0, CountChars(" \t\n"))
	assert.Equal(t, 4, CountChars("你好 世界"))
}

func TestOverview_TwoSenders(t *testing.T) {
	o := ComputeOverview(twoSenders())

	assert.Equal(t, 25, o.TotalMessages)
	assert.Equal(t, "Alice", o.Sender1.Name)
	assert.Equal(t, 10, o.Sender1.Messages)
	assert.Equal(t, "Bob", o.Sender2.Name)
	assert.Equal(t, 15, o.Sender2.Messages)
	assert.Equal(t, 40.0, o.Sender1.Share)
	assert.Equal(t, 1, o.DaysSpanned)
	assert.Equal(t, 25.0, o.AvgMessagesPerDay)
	assert.Equal(t, "Monday", o.MostActiveDay)
}

func TestOverview_Empty(t *testing.T) {
	o := ComputeOverview(nil)
	assert.Equal(t, 0, o.TotalMessages)
	assert.Equal(t, 0.0, o.WordsPerMessage)
	assert.Equal(t, 0.0, o.AvgMessagesPerDay)
	assert.Nil(t, o.FirstMessageAt)
	assert.Empty(t, o.MostActiveDay)
}

func TestOverview_WordsAndSpan(t *testing.T) {
	d1 := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)
	msgs := []chat.Message{
		at("A", "hi there", d1),
		undated("B", "ok"),
		at("B", "sure", d1.Add(2*time.Hour)), // next calendar day
	}
	o := ComputeOverview(msgs)
	assert.Equal(t, 13, o.TotalWords)
	assert.Equal(t, 4.33, o.WordsPerMessage)
	assert.Equal(t, 2, o.DaysSpanned)
	assert.Equal(t, 2, o.ActiveDays)
	assert.Equal(t, 1.0, o.AvgMessagesPerDay, "undated messages are not spread over the dated span")
}

func TestResponseTime_OnlyAcrossSenderChanges(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msgs := []chat.Message{
		at("A", "1", base),
		at("A", "2", base.Add(10*time.Minute)), // same sender, ignored
		at("B", "3", base.Add(11*time.Minute)), // 60s
		undated("A", "skipped"),
		at("A", "4", base.Add(14*time.Minute)), // 180s
	}
	rt := ComputeOverview(msgs).ResponseTime

	assert.Equal(t, 2, rt.Samples)
	assert.Equal(t, 120.0, rt.AverageSeconds)
	assert.Equal(t, 120.0, rt.MedianSeconds)
	assert.Equal(t, "2 minutes", rt.Average)
	require.Len(t, rt.BySender, 2)
	assert.Equal(t, "B", rt.BySender[0].Name)
	assert.Equal(t, 60.0, rt.BySender[0].AverageSeconds)
	assert.Equal(t, "1 minute", rt.BySender[0].Average)
}

func TestHumanizeGap(t *testing.T) {
	assert.Equal(t, "under a second", humanizeGap(0.4))
	assert.Equal(t, "45 seconds", humanizeGap(45))
	assert.Equal(t, "3 hours", humanizeGap(3*3600+5))
	assert.Equal(t, "2 days", humanizeGap(2*86400+10))
}

func TestTimeAnalysis(t *testing.T) {
	mon := time.Date(2024, 2, 5, 8, 30, 0, 0, time.UTC)
	msgs := []chat.Message{
		at("A", "x", mon),
		at("B", "x", mon.Add(5*time.Minute)),
		at("A", "x", mon.Add(6*time.Hour)),               // 14:30 afternoon
		at("A", "x", mon.Add(24*time.Hour+15*time.Hour)), // Tue 23:30 night
		undated("B", "x"),
	}
	ta := ComputeTimeAnalysis(msgs)

	assert.Equal(t, 4, ta.DatedMessages)
	assert.Equal(t, 8, ta.MostActiveHour)
	assert.Equal(t, 2, ta.Hourly[8])
	assert.Equal(t, 2, ta.Heatmap[0][8])
	assert.Equal(t, 1, ta.Heatmap[1][23])
	assert.Equal(t, 3, ta.Weekday[0])
	assert.Equal(t, "2024-02-05", ta.MostActiveDate)
	assert.Equal(t, 3, ta.MostMessagesCount)
	require.Len(t, ta.Daily, 2)
	assert.Equal(t, TimeOfDay{Morning: 50, Afternoon: 25, Evening: 0, Night: 25}, ta.TimeOfDay)
}

func TestTimeAnalysis_NoDates(t *testing.T) {
	ta := ComputeTimeAnalysis([]chat.Message{undated("A", "x")})
	assert.Equal(t, -1, ta.MostActiveHour)
	assert.Empty(t, ta.Daily)
	assert.Equal(t, TimeOfDay{}, ta.TimeOfDay)
}

func TestCompute_Bundle(t *testing.T) {
	b, err := Compute(context.Background(), twoSenders(), DefaultTextOptions())
	require.NoError(t, err)
	assert.Equal(t, 25, b.Overview.TotalMessages)
	assert.Equal(t, 25, b.TimeAnalysis.DatedMessages)
	assert.Equal(t, b.Overview.TotalWords, b.TextAnalysis.TotalWords)
}

func TestCompute_Deterministic(t *testing.T) {
	a, err := Compute(context.Background(), twoSenders(), DefaultTextOptions())
	require.NoError(t, err)
	b, err := Compute(context.Background(), twoSenders(), DefaultTextOptions())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCompute_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Compute(ctx, twoSenders(), DefaultTextOptions())
	assert.ErrorIs(t, err, context.Canceled)
}
