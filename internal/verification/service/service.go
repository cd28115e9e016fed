// Package service runs the document verification pipeline: fetch, rasterize,
// per-page orientation selection, decision, reference number lookup, persistence
// and audit.
package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"docverify/internal/decision"
	"docverify/internal/document"
	"docverify/internal/extraction"
	"docverify/internal/orientation"
	"docverify/internal/reference"
	"docverify/internal/verification/metrics"
	"docverify/internal/verification/models"
	dErrors "docverify/pkg/domain-errors"
	audit "docverify/pkg/platform/audit"
	"docverify/pkg/platform/sentinel"
	"docverify/pkg/platform/upstream"
	"docverify/pkg/requestcontext"
)

// Pipeline stages, used as failure labels.
const (
	StageFetch     = "fetch"
	StageRasterize = "rasterize"
	StageOCR       = "ocr"
	StageIdentify  = "identify"
	StagePersist   = "persist"
)

type DocumentFetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

type Rasterizer interface {
	Pages(ctx context.Context, data []byte) ([]image.Image, error)
}

type PageSelector interface {
	Select(ctx context.Context, source orientation.LineSource, page image.Image, ref *reference.Record) (orientation.Result, error)
}

type Verifier interface {
	Verify(extracted extraction.Record, ref reference.Record) decision.MatchResult
}

type ReferenceStore interface {
	FindByIDNumber(ctx context.Context, idNumber string) (*reference.Record, error)
	MarkVerified(ctx context.Context, applicantID, refNumber string, at time.Time) error
}

type ResultStore interface {
	Save(ctx context.Context, outcome *models.Outcome) error
}

type RefNumLookup interface {
	Lookup(ctx context.Context, idNumber, documentURL string) (string, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Transactor runs the result save and the applicant update as one unit.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service orchestrates document verification. It holds no OCR engine; callers pass
// the line source so each worker can own its engine handle.
type Service struct {
	fetcher    DocumentFetcher
	rasterizer Rasterizer
	selector   PageSelector
	verifier   Verifier

	references ReferenceStore
	results    ResultStore
	refnum     RefNumLookup
	auditor    AuditPublisher
	tx         Transactor

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

type Option func(*Service)

func WithReferenceStore(store ReferenceStore) Option {
	return func(s *Service) { s.references = store }
}

func WithResultStore(store ResultStore) Option {
	return func(s *Service) { s.results = store }
}

// WithRefNumLookup enables reference number lookups for accepted documents.
func WithRefNumLookup(lookup RefNumLookup) Option {
	return func(s *Service) { s.refnum = lookup }
}

func WithTransactor(t Transactor) Option {
	return func(s *Service) { s.tx = t }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New constructs a Service. The four pipeline stages are required.
func New(fetcher DocumentFetcher, rasterizer Rasterizer, selector PageSelector, verifier Verifier, opts ...Option) (*Service, error) {
	switch {
	case fetcher == nil:
		return nil, errors.New("document fetcher is required")
	case rasterizer == nil:
		return nil, errors.New("rasterizer is required")
	case selector == nil:
		return nil, errors.New("page selector is required")
	case verifier == nil:
		return nil, errors.New("verifier is required")
	}

	s := &Service{
		fetcher:    fetcher,
		rasterizer: rasterizer,
		selector:   selector,
		verifier:   verifier,
		tracer:     otel.Tracer("docverify/verification"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s, nil
}

// Verify fetches the job's document and verifies it against the job's reference.
func (s *Service) Verify(ctx context.Context, source orientation.LineSource, job models.Job) (*models.Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "verification.Verify")
	defer span.End()

	start := s.now()
	applicantID := job.Reference.ApplicantID
	location := job.DocumentLocation()
	if location == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "document location is required")
	}

	data, err := s.fetcher.Fetch(ctx, location)
	if err != nil {
		span.RecordError(err)
		return nil, s.fail(ctx, StageFetch, applicantID, fetchError(err))
	}

	pages, err := s.pages(ctx, applicantID, data)
	if err != nil {
		return nil, err
	}
	return s.verifyPages(ctx, source, pages, job.Reference, location, start, audit.EventVerificationCompleted)
}

// VerifyDocument verifies already loaded document bytes against ref.
func (s *Service) VerifyDocument(ctx context.Context, source orientation.LineSource, data []byte, ref reference.Record) (*models.Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "verification.VerifyDocument")
	defer span.End()

	start := s.now()
	pages, err := s.pages(ctx, ref.ApplicantID, data)
	if err != nil {
		return nil, err
	}
	return s.verifyPages(ctx, source, pages, ref, "", start, audit.EventVerificationCompleted)
}

// Extract reads a document's fields without a reference record. It returns the
// index of the chosen page and that page's orientation result.
func (s *Service) Extract(ctx context.Context, source orientation.LineSource, data []byte) (int, orientation.Result, error) {
	ctx, span := s.tracer.Start(ctx, "verification.Extract")
	defer span.End()

	pages, err := s.pages(ctx, "", data)
	if err != nil {
		return 0, orientation.Result{}, err
	}
	page, res, err := s.bestPage(ctx, source, pages, nil)
	if err != nil {
		return 0, orientation.Result{}, s.fail(ctx, StageOCR, "", ocrError(err))
	}
	return page, res, nil
}

// Identify extracts the document without a reference, looks the reference up by
// the extracted ID number, then re-extracts with that reference and verifies.
func (s *Service) Identify(ctx context.Context, source orientation.LineSource, data []byte) (*models.Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "verification.Identify")
	defer span.End()

	start := s.now()
	if s.references == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "reference store not configured")
	}

	pages, err := s.pages(ctx, "", data)
	if err != nil {
		return nil, err
	}

	_, first, err := s.bestPage(ctx, source, pages, nil)
	if err != nil {
		return nil, s.fail(ctx, StageOCR, "", ocrError(err))
	}

	idNumber := first.Record.IDNumber
	if !extraction.ValidIDNumber(idNumber) {
		return nil, s.fail(ctx, StageIdentify, "",
			dErrors.New(dErrors.CodeUnprocessable, "ID number not detected or invalid"))
	}

	ref, err := s.references.FindByIDNumber(ctx, idNumber)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.emit(ctx, audit.Event{
				Action:        string(audit.EventReferenceNotFound),
				SubjectIDHash: audit.HashSubjectID(idNumber),
			})
			return nil, dErrors.New(dErrors.CodeNotFound, "no reference record for the extracted ID number")
		}
		return nil, s.fail(ctx, StageIdentify, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up reference"))
	}

	return s.verifyPages(ctx, source, pages, *ref, ref.DocumentPath, start, audit.EventDocumentIdentified)
}

func (s *Service) pages(ctx context.Context, applicantID string, data []byte) ([]image.Image, error) {
	pages, err := s.rasterizer.Pages(ctx, data)
	if err != nil {
		if errors.Is(err, document.ErrUnsupported) || errors.Is(err, document.ErrNoPages) {
			return nil, s.fail(ctx, StageRasterize, applicantID,
				dErrors.Wrap(err, dErrors.CodeUnprocessable, "document could not be read"))
		}
		return nil, s.fail(ctx, StageRasterize, applicantID,
			dErrors.Wrap(err, dErrors.CodeInternal, "failed to rasterize document"))
	}
	return pages, nil
}

func (s *Service) verifyPages(
	ctx context.Context,
	source orientation.LineSource,
	pages []image.Image,
	ref reference.Record,
	location string,
	start time.Time,
	action audit.AuditEvent,
) (*models.Outcome, error) {
	page, selected, err := s.bestPage(ctx, source, pages, &ref)
	if err != nil {
		return nil, s.fail(ctx, StageOCR, ref.ApplicantID, ocrError(err))
	}

	match := s.verifier.Verify(selected.Record, ref)

	idNumber := ref.DecodedIDNumber()
	if idNumber == "" {
		idNumber = selected.Record.IDNumber
	}

	outcome := &models.Outcome{
		ID:             uuid.New(),
		ApplicantID:    ref.ApplicantID,
		IDNumber:       idNumber,
		Extracted:      selected.Record,
		Match:          match,
		Page:           page,
		Rotation:       selected.Rotation,
		MeanConfidence: selected.MeanConfidence,
		StartedAt:      start,
	}

	if match.Decision == decision.DecisionAccept {
		outcome.RefNumber = s.lookupRefNumber(ctx, idNumber, location)
	}
	outcome.ProcessedAt = s.now()

	if err := s.persist(ctx, outcome); err != nil {
		return nil, s.fail(ctx, StagePersist, ref.ApplicantID, err)
	}

	s.metrics.ObserveOutcome(string(match.Decision), outcome.Duration(), len(pages))
	s.emit(ctx, audit.Event{
		Action:        string(action),
		ApplicantID:   ref.ApplicantID,
		Decision:      string(match.Decision),
		Reason:        match.Reason(),
		SubjectIDHash: audit.HashSubjectID(idNumber),
	})

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("verification.decision", string(match.Decision)),
		attribute.Int("verification.page", page),
		attribute.Int("verification.rotation", int(selected.Rotation)),
	)
	s.logger.InfoContext(ctx, "document verified",
		"request_id", requestcontext.RequestID(ctx),
		"applicant_id", ref.ApplicantID,
		"decision", match.Decision,
		"reason", match.Reason(),
		"page", page,
		"rotation", int(selected.Rotation),
		"duration_ms", outcome.Duration().Milliseconds(),
	)
	return outcome, nil
}

// bestPage returns the first page whose extraction is complete, otherwise the most
// complete page with ties going to the earlier page.
func (s *Service) bestPage(ctx context.Context, source orientation.LineSource, pages []image.Image, ref *reference.Record) (int, orientation.Result, error) {
	var (
		best    orientation.Result
		bestIdx = -1
	)
	for i, page := range pages {
		res, err := s.selector.Select(ctx, source, page, ref)
		if err != nil {
			return 0, orientation.Result{}, fmt.Errorf("page %d: %w", i+1, err)
		}
		if bestIdx < 0 || res.Completeness > best.Completeness {
			best, bestIdx = res, i
		}
		if res.Completeness == extraction.MaxCompleteness {
			break
		}
	}
	if bestIdx < 0 {
		return 0, orientation.Result{}, document.ErrNoPages
	}
	return bestIdx, best, nil
}

func (s *Service) lookupRefNumber(ctx context.Context, idNumber, location string) string {
	if s.refnum == nil || idNumber == "" {
		return ""
	}
	ref, err := s.refnum.Lookup(ctx, idNumber, location)
	if err != nil {
		s.metrics.IncrementRefNum("error")
		s.logger.WarnContext(ctx, "reference number lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return ""
	}
	s.metrics.IncrementRefNum("ok")
	return ref
}

func (s *Service) persist(ctx context.Context, outcome *models.Outcome) error {
	if s.tx == nil {
		return s.store(ctx, outcome)
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.store(ctx, outcome)
	})
	if _, ok := dErrors.As(err); err != nil && !ok {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist verification result")
	}
	return err
}

func (s *Service) store(ctx context.Context, outcome *models.Outcome) error {
	if s.results != nil {
		if outcome.IDNumber == "" {
			s.logger.WarnContext(ctx, "verification result has no ID number, not persisted",
				"applicant_id", outcome.ApplicantID,
			)
		} else if err := s.results.Save(ctx, outcome); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save verification result")
		}
	}

	if s.references != nil && outcome.ApplicantID != "" && outcome.Match.Decision == decision.DecisionAccept {
		err := s.references.MarkVerified(ctx, outcome.ApplicantID, outcome.RefNumber, outcome.ProcessedAt)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark applicant verified")
		}
	}
	return nil
}

func (s *Service) fail(ctx context.Context, stage, applicantID string, err error) error {
	s.metrics.IncrementFailure(stage)
	s.logger.ErrorContext(ctx, "verification failed",
		"request_id", requestcontext.RequestID(ctx),
		"applicant_id", applicantID,
		"stage", stage,
		"error", err,
	)
	s.emit(ctx, audit.Event{
		Action:      string(audit.EventVerificationFailed),
		ApplicantID: applicantID,
		Reason:      stage,
	})
	return err
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	event.Subject = requestcontext.Subject(ctx)
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
		)
	}
}

func fetchError(err error) error {
	switch {
	case errors.Is(err, document.ErrTooLarge):
		return dErrors.Wrap(err, dErrors.CodeTooLarge, "document exceeds size limit")
	case errors.Is(err, fs.ErrNotExist):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "document not found")
	case errors.Is(err, document.ErrLocalDisabled):
		return dErrors.Wrap(err, dErrors.CodeValidation, "local document paths are not allowed")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "document download timed out")
	}
	switch upstream.CategoryOf(err) {
	case upstream.ErrorNotFound:
		return dErrors.Wrap(err, dErrors.CodeNotFound, "document not found")
	case upstream.ErrorTimeout:
		return dErrors.Wrap(err, dErrors.CodeTimeout, "document download timed out")
	case upstream.ErrorOutage, upstream.ErrorRateLimited, upstream.ErrorAuthentication:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "document host unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to fetch document")
	}
}

func ocrError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || upstream.CategoryOf(err) == upstream.ErrorTimeout {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "ocr timed out")
	}
	var ue *upstream.Error
	if errors.As(err, &ue) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "ocr engine unavailable")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "ocr failed")
}
