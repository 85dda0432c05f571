// Package stats derives the Overview, TimeAnalysis and TextAnalysis
// aggregates from a message sequence. Every function here is pure.
package stats

import (
	"context"
	"math"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
)

// Bundle is the basic-result artifact.
type Bundle struct {
	Overview     Overview     `json:"overview"`
	TextAnalysis TextAnalysis `json:"textAnalysis"`
	TimeAnalysis TimeAnalysis `json:"timeAnalysis"`
}

// Compute builds all three aggregates concurrently over the same snapshot.
func Compute(ctx context.Context, msgs []chat.Message, opts TextOptions) (*Bundle, error) {
	var b Bundle
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.Overview = ComputeOverview(msgs)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.TimeAnalysis = ComputeTimeAnalysis(msgs)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.TextAnalysis = ComputeTextAnalysis(msgs, opts)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &b, nil
}

// CountChars is the "word" count used throughout: characters with all
// whitespace removed.
func CountChars(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return round2(float64(num) / float64(den))
}

func percent(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return round2(float64(num) * 100 / float64(den))
}
