package processor

import (
	"context"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
	"github.com/cheercheung/chatrecap-sub001/internal/errs"
	"github.com/cheercheung/chatrecap-sub001/internal/insight"
	"github.com/cheercheung/chatrecap-sub001/internal/job"
	"github.com/cheercheung/chatrecap-sub001/internal/stats"
)

// BasicResult is the parse outcome together with its statistics.
type BasicResult struct {
	FileID string `json:"fileId"`
	chat.ProcessResult
	Analysis *stats.Bundle `json:"analysis"`
}

// GetBasicResult returns the cleaned messages and their statistics. When
// the stored statistics are missing they are recomputed from the cleaned
// messages, which needs no re-parse.
func (p *Processor) GetBasicResult(ctx context.Context, fileID string) (*BasicResult, error) {
	j, err := p.GetJob(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if j.Artifact(job.KindCleaned) == "" {
		return nil, errs.Newf(errs.InvalidState, "file is %s, results need %s", j.Status, job.StatusCompletedBasic)
	}

	out := &BasicResult{FileID: fileID}
	found, err := p.loadJSON(ctx, fileID, job.KindCleaned, &out.ProcessResult)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errs.New(errs.StorageFailure, "the cleaned messages are missing")
	}

	var bundle stats.Bundle
	found, err = p.loadJSON(ctx, fileID, job.KindBasicResult, &bundle)
	if err != nil {
		return nil, err
	}
	if found {
		out.Analysis = &bundle
		return out, nil
	}

	p.logger.Warn().Str("file_id", fileID).Msg("basic result missing, recomputing from cleaned messages")
	out.Analysis, err = stats.Compute(ctx, out.Messages, p.opts.TextOptions)
	if err != nil {
		return nil, errs.Wrap(err, errs.Internal, "could not compute statistics")
	}
	return out, nil
}

// GetInsights returns the validated AI report of a COMPLETE_AI file.
func (p *Processor) GetInsights(ctx context.Context, fileID string) (*insight.AIInsights, error) {
	j, err := p.GetJob(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if j.Status != job.StatusCompleteAI || j.Artifact(job.KindAIResult) == "" {
		return nil, errs.Newf(errs.InvalidState, "file is %s, insights need %s", j.Status, job.StatusCompleteAI)
	}
	var report insight.AIInsights
	found, err := p.loadJSON(ctx, fileID, job.KindAIResult, &report)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errs.New(errs.StorageFailure, "the AI report is missing")
	}
	return &report, nil
}
