package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"docverify/internal/reference"
	"docverify/internal/verification/models"
	audit "docverify/pkg/platform/audit"
)

// ErrAlreadyRunning is returned when a stored batch is requested while one runs.
var ErrAlreadyRunning = errors.New("batch already running")

type ReferenceLister interface {
	List(ctx context.Context) ([]reference.Record, error)
	ListPending(ctx context.Context) ([]reference.Record, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs batches over the applicant reference store, on demand or on a timer.
// At most one stored batch runs at a time.
type Service struct {
	runner      *Runner
	references  ReferenceLister
	auditor     AuditPublisher
	logger      *slog.Logger
	pendingOnly bool
	running     atomic.Bool
}

type ServiceOption func(*Service)

// WithPendingOnly restricts stored batches to applicants not yet verified.
func WithPendingOnly(pending bool) ServiceOption {
	return func(s *Service) { s.pendingOnly = pending }
}

func WithAuditPublisher(p AuditPublisher) ServiceOption {
	return func(s *Service) { s.auditor = p }
}

func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

func NewService(runner *Runner, references ReferenceLister, opts ...ServiceOption) *Service {
	s := &Service{
		runner:     runner,
		references: references,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunStored verifies every applicant in the reference store.
func (s *Service) RunStored(ctx context.Context) (*Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer s.running.Store(false)

	list := s.references.List
	if s.pendingOnly {
		list = s.references.ListPending
	}
	refs, err := list(ctx)
	if err != nil {
		return nil, fmt.Errorf("list applicants: %w", err)
	}

	jobs := make([]models.Job, len(refs))
	for i, ref := range refs {
		jobs[i] = models.Job{Reference: ref}
	}

	report, err := s.runner.Run(ctx, jobs)
	if err != nil {
		return nil, err
	}

	if s.auditor != nil {
		err := s.auditor.Emit(ctx, audit.Event{
			Action: string(audit.EventBatchCompleted),
			Reason: fmt.Sprintf("total=%d accepted=%d manual_review=%d failed=%d",
				report.Summary.Total, report.Summary.Accepted, report.Summary.ManualReview, report.Summary.Failed),
		})
		if err != nil {
			s.logger.WarnContext(ctx, "failed to emit batch audit event", "error", err)
		}
	}
	return report, nil
}

// Schedule runs a stored batch every interval until ctx is cancelled. A tick that
// finds a batch still running is skipped.
func (s *Service) Schedule(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			report, err := s.RunStored(ctx)
			switch {
			case errors.Is(err, ErrAlreadyRunning):
				s.logger.InfoContext(ctx, "scheduled batch skipped, previous run still active")
			case err != nil:
				s.logger.ErrorContext(ctx, "scheduled batch failed", "error", err)
			default:
				s.logger.InfoContext(ctx, "scheduled batch finished",
					"total", report.Summary.Total,
					"accepted", report.Summary.Accepted,
				)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
