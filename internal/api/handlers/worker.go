package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/spendlens/internal/extract"
	"github.com/dvloznov/spendlens/internal/jobs"
	"github.com/dvloznov/spendlens/internal/logger"
	"github.com/dvloznov/spendlens/internal/oracle"
	"github.com/dvloznov/spendlens/internal/pipeline"
)

// FileProcessor runs one file through the pipeline.
type FileProcessor interface {
	ProcessFile(ctx context.Context, src pipeline.Source) pipeline.FileResult
}

var _ FileProcessor = (*pipeline.Processor)(nil)

// NewExtractJobHandler returns the queue handler for extraction jobs.
// persist, when not nil, is called after a job added transactions.
//
// Only fetch failures and image extraction are retried. Every other kind
// parses the same bytes the same way on each attempt.
func NewExtractJobHandler(proc FileProcessor, persist func() error, log zerolog.Logger) jobs.JobHandler {
	return func(ctx context.Context, job jobs.Job) error {
		fileJob, ok := job.(*jobs.ExtractFileJob)
		if !ok {
			return jobs.Permanent(fmt.Errorf("unexpected job type: %T", job))
		}

		jobLog := log.With().
			Str("job_id", fileJob.JobID).
			Str("batch_id", fileJob.BatchID).
			Logger()
		ctx = logger.WithContext(ctx, jobLog)

		res := proc.ProcessFile(ctx, pipeline.Source{
			URI:  fileJob.URI,
			Name: fileJob.SourceFile,
			Data: fileJob.Data,
		})

		if res.Err != nil {
			transient := res.Kind == "" || res.Kind == extract.KindImage
			if transient && !errors.Is(res.Err, extract.ErrUnsupportedSource) && !errors.Is(res.Err, oracle.ErrNotConfigured) {
				return res.Err
			}
			return jobs.Permanent(res.Err)
		}

		fileJob.Outcome = &jobs.Outcome{
			Kind:       string(res.Kind),
			Extracted:  res.Extracted,
			Rejected:   res.Rejected,
			Added:      res.Added,
			Duplicates: res.Duplicates,
		}

		if res.Added > 0 && persist != nil {
			if err := persist(); err != nil {
				jobLog.Error().Err(err).Msg("Failed to persist ledger")
			}
		}
		return nil
	}
}
