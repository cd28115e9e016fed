// Package batch verifies many documents concurrently. Each worker owns one OCR
// engine handle for its whole lifetime.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"docverify/internal/ocr"
	"docverify/internal/orientation"
	"docverify/internal/verification/models"
	"docverify/pkg/requestcontext"
)

// DefaultWorkers is used when a Runner is built with a non-positive worker count.
const DefaultWorkers = 4

type Verifier interface {
	Verify(ctx context.Context, source orientation.LineSource, job models.Job) (*models.Outcome, error)
}

// Result is the outcome of one job. Exactly one of Outcome and Err is set.
type Result struct {
	Job     models.Job
	Outcome *models.Outcome
	Err     error
}

// Failed reports whether the job produced no outcome.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Report holds per-job results in job order plus their summary.
type Report struct {
	Results []Result
	Summary Summary
}

// Runner fans jobs out over a fixed number of workers.
type Runner struct {
	verifier Verifier
	factory  ocr.Factory
	workers  int
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Runner)

func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func NewRunner(verifier Verifier, factory ocr.Factory, opts ...Option) *Runner {
	r := &Runner{
		verifier: verifier,
		factory:  factory,
		workers:  DefaultWorkers,
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run verifies every job. A failed document is recorded in its Result and does not
// stop the batch; only a worker failing to build its engine, or ctx ending, does.
func (r *Runner) Run(ctx context.Context, jobs []models.Job) (*Report, error) {
	started := r.now()
	if len(jobs) == 0 {
		return &Report{Summary: Summarize(nil, started, started)}, nil
	}
	batchID := uuid.NewString()
	ctx = requestcontext.WithBatchID(ctx, batchID)
	results := make([]Result, len(jobs))
	indexes := make(chan int)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(indexes)
		for i := range jobs {
			if err := gctx.Err(); err != nil {
				return err
			}
			select {
			case indexes <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := range min(r.workers, len(jobs)) {
		g.Go(func() error {
			engine, err := r.factory(gctx)
			if err != nil {
				return fmt.Errorf("worker %d: build ocr engine: %w", w, err)
			}
			defer func() {
				if err := engine.Close(); err != nil {
					r.logger.WarnContext(gctx, "failed to close ocr engine", "worker", w, "error", err)
				}
			}()

			for i := range indexes {
				jobCtx := requestcontext.WithRequestID(gctx, fmt.Sprintf("%s-%d", batchID, i))
				outcome, err := r.verifier.Verify(jobCtx, engine, jobs[i])
				results[i] = Result{Job: jobs[i], Outcome: outcome, Err: err}
				if err != nil {
					r.logger.WarnContext(jobCtx, "batch document failed",
						"batch_id", batchID,
						"request_id", requestcontext.RequestID(jobCtx),
						"worker", w,
						"applicant_id", jobs[i].Reference.ApplicantID,
						"error", err,
					)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Results: results, Summary: Summarize(results, started, r.now())}
	r.logger.InfoContext(ctx, "batch completed",
		"batch_id", batchID,
		"total", report.Summary.Total,
		"accepted", report.Summary.Accepted,
		"manual_review", report.Summary.ManualReview,
		"failed", report.Summary.Failed,
		"duration_ms", report.Summary.Duration().Milliseconds(),
	)
	return report, nil
}
