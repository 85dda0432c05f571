package processor

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
	"github.com/cheercheung/chatrecap-sub001/internal/errs"
	"github.com/cheercheung/chatrecap-sub001/internal/insight"
	"github.com/cheercheung/chatrecap-sub001/internal/job"
)

const creditReason = "ai-analysis"

// AnalyzeWithAI starts the AI phase for a COMPLETED_BASIC file. Credits are
// checked before anything starts and consumed only after the reply passes
// validation. The report is read with GetInsights once the status is
// COMPLETE_AI.
func (p *Processor) AnalyzeWithAI(ctx context.Context, fileID, locale string) (*job.ProcessingStatus, error) {
	j, err := p.GetJob(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if j.Status != job.StatusCompletedBasic {
		return nil, errs.Newf(errs.InvalidState, "file is %s, analysis requires %s", j.Status, job.StatusCompletedBasic)
	}
	if p.gen == nil || p.prompts == nil {
		return nil, errs.New(errs.AIUnavailable, "AI analysis is not configured")
	}
	if locale == "" {
		locale = p.opts.DefaultLocale
	}

	ok, err := p.ledger.HasSufficientCredits(ctx, j.UserID, p.opts.CreditCost)
	if err != nil {
		return nil, storageErr(err, "could not check your credit balance")
	}
	if !ok {
		cause := errs.New(errs.InsufficientCredits, "not enough credits for AI analysis")
		prog := job.Progress{CleaningProgress: 100, CurrentStep: "failed"}
		if _, terr := p.transition(ctx, j, job.StatusCompletedBasic, job.StatusFailed, job.Update{
			Error:     cause.Message(),
			RetryFrom: job.StatusCompletedBasic,
			Progress:  prog,
		}); terr != nil {
			return nil, terr
		}
		p.logger.Warn().Str("file_id", fileID).Str("user_id", j.UserID).Msg("insufficient credits")
		return nil, cause
	}

	j, err = p.transition(ctx, j, job.StatusCompletedBasic, job.StatusProcessing, job.Update{
		Locale:   locale,
		Progress: job.Progress{CleaningProgress: 100, CurrentStep: "queued"},
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info().Str("file_id", fileID).Str("locale", locale).Msg("analysis started")
	p.spawn(fileID, func(err error) {
		p.fail(j, job.StatusProcessing, job.StatusCompletedBasic, job.Progress{CleaningProgress: 100}, err)
	}, func(ctx context.Context) {
		p.runAnalysis(ctx, j, locale)
	})
	return p.GetStatus(ctx, fileID)
}

func (p *Processor) runAnalysis(ctx context.Context, j *job.FileJob, locale string) {
	log := zerolog.Ctx(ctx)
	prog := job.Progress{CleaningProgress: 100, AnalysisProgress: 10, CurrentStep: "loading messages"}
	p.progress(ctx, j.ID, prog)

	fail := func(err error, written ...job.ArtifactKind) {
		p.discard(j.ID, written...)
		p.fail(j, job.StatusProcessing, job.StatusCompletedBasic, prog, err)
	}

	var res chat.ProcessResult
	found, err := p.loadJSON(ctx, j.ID, job.KindCleaned, &res)
	if err != nil {
		fail(err)
		return
	}
	if !found {
		fail(errs.New(errs.StorageFailure, "the cleaned messages are missing"))
		return
	}

	prog.AnalysisProgress, prog.CurrentStep = 25, "building prompt"
	p.progress(ctx, j.ID, prog)
	prompt, err := p.prompts.Build(res.Messages, locale)
	if err != nil {
		fail(errs.Wrap(err, errs.Internal, "could not build the analysis request"))
		return
	}
	log.Debug().Str("template_locale", prompt.Locale).Str("template_source", prompt.Source).Int("sampled", prompt.Sampled).Msg("prompt built")

	prog.AnalysisProgress, prog.CurrentStep = 40, "waiting for AI"
	p.progress(ctx, j.ID, prog)
	raw, err := p.gen.Generate(ctx, prompt.System, prompt.User)
	if err != nil {
		fail(errs.Wrap(err, errs.AIUnavailable, "the AI service did not respond"))
		return
	}

	prog.AnalysisProgress, prog.CurrentStep = 80, "validating response"
	p.progress(ctx, j.ID, prog)
	report, err := insight.Validate(raw)
	if err != nil {
		log.Warn().Err(err).Str("raw", raw).Msg("AI response rejected")
		fail(err)
		return
	}

	prog.AnalysisProgress, prog.CurrentStep = 90, "saving report"
	p.progress(ctx, j.ID, prog)
	key, err := p.putJSON(ctx, j.ID, job.KindAIResult, report)
	if err != nil {
		fail(err, job.KindAIResult)
		return
	}

	consumed, err := p.ledger.Consume(ctx, j.UserID, p.opts.CreditCost, j.ID, creditReason)
	if err != nil {
		fail(storageErr(err, "could not charge credits"), job.KindAIResult)
		return
	}
	if !consumed {
		fail(errs.New(errs.InsufficientCredits, "not enough credits for AI analysis"), job.KindAIResult)
		return
	}

	_, err = p.transition(ctx, j, job.StatusProcessing, job.StatusCompleteAI, job.Update{
		Artifacts: map[job.ArtifactKind]string{job.KindAIResult: key},
		Progress:  job.Progress{CleaningProgress: 100, AnalysisProgress: 100, CurrentStep: "completed"},
	})
	if err != nil {
		// Credits are already consumed here; the report stays stored so an
		// operator can recover it.
		log.Error().Err(err).Str("user_id", j.UserID).Int("credits", p.opts.CreditCost).Msg("credits consumed but COMPLETE_AI not persisted")
		p.fail(j, job.StatusProcessing, job.StatusCompletedBasic, prog, err)
		return
	}
	log.Info().Int("credits", p.opts.CreditCost).Msg("analysis completed")
}
