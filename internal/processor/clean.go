package processor

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
	"github.com/cheercheung/chatrecap-sub001/internal/errs"
	"github.com/cheercheung/chatrecap-sub001/internal/job"
	"github.com/cheercheung/chatrecap-sub001/internal/stats"
)

// Clean starts the parsing chain for an UPLOADED file and returns at once
// with the CLEANING status. An empty or auto platform uses the hint stored
// at upload time.
func (p *Processor) Clean(ctx context.Context, fileID string, platform chat.Platform) (*job.ProcessingStatus, error) {
	j, err := p.GetJob(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if j.Status != job.StatusUploaded {
		return nil, errs.Newf(errs.InvalidState, "file is %s, clean requires %s", j.Status, job.StatusUploaded)
	}
	if platform == "" || platform == chat.Auto {
		platform = j.Platform
	}

	j, err = p.transition(ctx, j, job.StatusUploaded, job.StatusCleaning, job.Update{
		Platform: platform,
		Progress: job.Progress{CurrentStep: "queued"},
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info().Str("file_id", fileID).Str("platform", string(platform)).Msg("clean started")
	p.spawn(fileID, func(err error) {
		p.fail(j, job.StatusCleaning, job.StatusUploaded, job.Progress{}, err)
	}, func(ctx context.Context) {
		p.runClean(ctx, j, platform)
	})
	return p.GetStatus(ctx, fileID)
}

func (p *Processor) runClean(ctx context.Context, j *job.FileJob, platform chat.Platform) {
	log := zerolog.Ctx(ctx)
	prog := job.Progress{CleaningProgress: 10, CurrentStep: "loading upload"}
	p.progress(ctx, j.ID, prog)

	fail := func(err error, written ...job.ArtifactKind) {
		p.discard(j.ID, written...)
		p.fail(j, job.StatusCleaning, job.StatusUploaded, prog, err)
	}

	raw, err := p.artifacts.Get(ctx, j.ID, job.KindOriginal)
	if err != nil {
		fail(storageErr(err, "could not load the upload"))
		return
	}
	if raw == nil {
		fail(errs.New(errs.StorageFailure, "the original upload is missing"))
		return
	}

	prog = job.Progress{CleaningProgress: 30, CurrentStep: "parsing messages"}
	p.progress(ctx, j.ID, prog)
	res, err := p.parser.Process(raw, platform)
	if err != nil {
		fail(err)
		return
	}
	log.Info().
		Str("platform", string(res.Platform)).
		Int("messages", len(res.Messages)).
		Int("filtered_system", res.Stats.FilteredSystemMessages).
		Int("filtered_media", res.Stats.FilteredMediaMessages).
		Int("orphans", res.Stats.DroppedOrphanContinuations).
		Int("warnings", len(res.Warnings)).
		Msg("chat parsed")

	prog = job.Progress{CleaningProgress: 70, CurrentStep: "computing statistics"}
	p.progress(ctx, j.ID, prog)
	bundle, err := stats.Compute(ctx, res.Messages, p.opts.TextOptions)
	if err != nil {
		fail(err)
		return
	}

	prog = job.Progress{CleaningProgress: 90, CurrentStep: "saving results"}
	p.progress(ctx, j.ID, prog)
	cleanedKey, err := p.putJSON(ctx, j.ID, job.KindCleaned, res)
	if err != nil {
		fail(err, job.KindCleaned)
		return
	}
	basicKey, err := p.putJSON(ctx, j.ID, job.KindBasicResult, bundle)
	if err != nil {
		fail(err, job.KindCleaned, job.KindBasicResult)
		return
	}

	_, err = p.transition(ctx, j, job.StatusCleaning, job.StatusCompletedBasic, job.Update{
		Platform: res.Platform,
		Artifacts: map[job.ArtifactKind]string{
			job.KindCleaned:     cleanedKey,
			job.KindBasicResult: basicKey,
		},
		Progress: job.Progress{CleaningProgress: 100, CurrentStep: "completed"},
	})
	if err != nil {
		fail(err, job.KindCleaned, job.KindBasicResult)
		return
	}
	log.Info().Int("messages", bundle.Overview.TotalMessages).Msg("clean completed")
}
