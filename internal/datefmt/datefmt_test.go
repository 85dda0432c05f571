package datefmt

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, time.UTC)
}

func TestParse(t *testing.T) {
	cases := []struct {
		name     string
		datePart string
		timePart string
		want     time.Time
		tpl      string
	}{
		{"iso", "2024-01-02", "15:04:05", date(2024, 1, 2, 15, 4, 5), "YYYY-M-D 24h"},
		{"iso slash", "2024/1/2", "7:30", date(2024, 1, 2, 7, 30, 0), "YYYY/M/D 24h"},
		{"day first on 24h", "1/2/24", "09:00:00", date(2024, 2, 1, 9, 0, 0), "D/M/YY 24h"},
		{"month first on 12h", "1/2/24", "9:00 AM", date(2024, 1, 2, 9, 0, 0), "M/D/YY 12h"},
		{"pm", "1/2/24", "9:15 PM", date(2024, 1, 2, 21, 15, 0), "M/D/YY 12h"},
		{"narrow nbsp pm", "1/2/24", "9:15:07\u202fpm", date(2024, 1, 2, 21, 15, 7), "M/D/YY 12h"},
		{"spanish meridiem", "25/12/2023", "9:15 p. m.", date(2023, 12, 25, 21, 15, 0), "D/M/YYYY 12h"},
		{"month first fallback", "12/25/24", "10:00", date(2024, 12, 25, 10, 0, 0), "M/D/YY 24h"},
		{"dotted", "02.01.24", "09:00", date(2024, 1, 2, 9, 0, 0), "D.M.YY 24h"},
		{"dotted four digit", "02.01.2024", "21:05:09", date(2024, 1, 2, 21, 5, 9), "D.M.YYYY 24h"},
		{"dashed day first", "02-01-2024", "21:05", date(2024, 1, 2, 21, 5, 0), "D-M-YYYY 24h"},
		{"cjk 24h", "2024年1月2日", "14:05", date(2024, 1, 2, 14, 5, 0), "YYYY年M月D日 24h"},
		{"cjk 12h", "2024年1月2日", "下午3:05", date(2024, 1, 2, 15, 5, 0), "YYYY年M月D日 12h"},
		{"trailing comma", "1/2/2024,", "09:00", date(2024, 2, 1, 9, 0, 0), "D/M/YYYY 24h"},
		{"date only", "2024-03-04", "", date(2024, 3, 4, 0, 0, 0), "YYYY-M-D 24h"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, tpl, ok := Match(tc.datePart, tc.timePart)
			if !ok {
				t.Fatalf("expected %q %q to parse", tc.datePart, tc.timePart)
			}
			if !got.Equal(tc.want) {
				t.Errorf("got %s, want %s", got, tc.want)
			}
			if tpl.Name != tc.tpl {
				t.Errorf("matched %q, want %q", tpl.Name, tc.tpl)
			}
		})
	}
}

func TestParse_Failures(t *testing.T) {
	cases := [][2]string{
		{"nonsense", "09:00"},
		{"31/31/24", "09:00"},
		{"1/2/24", "25:00"},
		{"", "09:00"},
		{"1/2/24", "noon"},
	}
	for _, c := range cases {
		if _, ok := Parse(c[0], c[1]); ok {
			t.Errorf("expected %q %q to fail", c[0], c[1])
		}
	}
}

func TestParse_AmbiguousIsDeterministic(t *testing.T) {
	inputs := [][2]string{
		{"01/02/24", "09:00"},
		{"12/25/24", "10:00"},
		{"03/04/24", "11:00"},
	}
	first := make(map[string]time.Time)
	for _, in := range inputs {
		ts, _ := Parse(in[0], in[1])
		first[in[0]] = ts
	}
	// Same inputs in reverse order, many times.
	for run := 0; run < 50; run++ {
		for i := len(inputs) - 1; i >= 0; i-- {
			ts, ok := Parse(inputs[i][0], inputs[i][1])
			if !ok || !ts.Equal(first[inputs[i][0]]) {
				t.Fatalf("run %d: %q resolved to %s, first run gave %s", run, inputs[i][0], ts, first[inputs[i][0]])
			}
		}
	}
	if got := first["01/02/24"]; got.Day() != 1 || got.Month() != time.February {
		t.Errorf("expected day-first reading for 24h clock, got %s", got)
	}
}

func TestTemplates_ReturnsCopy(t *testing.T) {
	tpls := Templates()
	if len(tpls) != 20 {
		t.Fatalf("expected 20 templates, got %d", len(tpls))
	}
	tpls[0].Name = "mutated"
	if Templates()[0].Name == "mutated" {
		t.Error("Templates must not expose the internal list")
	}
}
