package batch

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"

	"docparse-desktop/internal/domain"
)

// Submitter creates one task on the parsing service for one file.
type Submitter interface {
	Submit(ctx context.Context, filePath string, cfg domain.ProcessingConfig) (string, error)
}

// Runner submits a list of files one at a time and records an independent
// outcome per file. One file's failure never aborts the rest of the batch.
type Runner struct {
	submitter Submitter
	logger    zerolog.Logger
}

// NewRunner creates a runner over the given submission client.
func NewRunner(submitter Submitter, logger zerolog.Logger) *Runner {
	return &Runner{
		submitter: submitter,
		logger:    logger,
	}
}

// Run processes files strictly sequentially: the next submission is not
// started until the previous one has resolved. The returned slice always
// has the same length and order as files, and every outcome is terminal.
// onOutcome, when set, is invoked after each outcome resolves.
func (r *Runner) Run(ctx context.Context, files []string, cfg domain.ProcessingConfig, onOutcome func(index int, outcome domain.SubmissionOutcome)) ([]domain.SubmissionOutcome, error) {
	if len(files) == 0 {
		return nil, ErrNoFilesSelected
	}

	outcomes := make([]domain.SubmissionOutcome, len(files))
	for i, file := range files {
		outcomes[i] = domain.SubmissionOutcome{FileName: filepath.Base(file)}
	}

	for i, file := range files {
		taskID, err := r.submitter.Submit(ctx, file, cfg)
		if err != nil {
			outcomes[i].Failed = true
			r.logger.Warn().
				Err(err).
				Str("file", outcomes[i].FileName).
				Int("index", i).
				Msg("submission failed, continuing batch")
		} else {
			outcomes[i].Succeeded = true
			outcomes[i].TaskID = taskID
		}

		if onOutcome != nil {
			onOutcome(i, outcomes[i])
		}
	}

	return outcomes, nil
}

// NavigationTarget returns the task-detail path to open after a batch, and
// whether navigation should happen at all: only when exactly one file was
// submitted and it succeeded.
func NavigationTarget(outcomes []domain.SubmissionOutcome) (string, bool) {
	if len(outcomes) != 1 || !outcomes[0].Succeeded {
		return "", false
	}
	return "/tasks/" + outcomes[0].TaskID, true
}
