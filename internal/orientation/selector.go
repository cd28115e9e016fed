// Package orientation runs extraction over rotated copies of a page image and keeps
// the rotation that yields the most complete record.
package orientation

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"docverify/internal/extraction"
	"docverify/internal/orientation/metrics"
	"docverify/internal/reference"
)

// LineSource recognizes text lines in a page image. Implementations wrap a single OCR
// engine handle and are not required to be safe for concurrent use.
type LineSource interface {
	Recognize(ctx context.Context, page image.Image) ([]extraction.RecognizedLine, error)
}

// Attempt is the outcome of one rotation.
type Attempt struct {
	Rotation       Rotation
	Completeness   int
	MeanConfidence float64
	Lines          int
}

// Result is the selected extraction for a page.
type Result struct {
	Record         extraction.Record
	Rotation       Rotation
	Completeness   int
	MeanConfidence float64
	Attempts       []Attempt
}

// Selector picks the page rotation by completeness. OCR confidence is recorded on
// each attempt but never used to choose between them.
type Selector struct {
	extractor *extraction.Extractor
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

// Option configures a Selector.
type Option func(*Selector)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Selector) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Selector) {
		s.metrics = m
	}
}

// New creates a Selector around extractor.
func New(extractor *extraction.Extractor, opts ...Option) *Selector {
	s := &Selector{
		extractor: extractor,
		tracer:    otel.Tracer("docverify/orientation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// Select extracts page at 0, 90, 180 and 270 degrees in that order and returns the
// first complete extraction, or the most complete one with ties going to the earlier
// rotation. A complete extraction stops further OCR passes.
//
// An error from source aborts selection; the caller decides how to treat the page.
func (s *Selector) Select(ctx context.Context, source LineSource, page image.Image, ref *reference.Record) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "orientation.Select")
	defer span.End()

	var (
		best    Result
		hasBest bool
	)

	for _, rotation := range Rotations {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		lines, err := source.Recognize(ctx, rotation.Apply(page))
		if err != nil {
			span.RecordError(err)
			return Result{}, fmt.Errorf("recognize at %d degrees: %w", rotation, err)
		}
		s.metrics.IncrementAttempt(rotation.String())

		record := s.extractor.Extract(lines, ref)
		attempt := Attempt{
			Rotation:       rotation,
			Completeness:   record.Completeness(),
			MeanConfidence: MeanConfidence(lines),
			Lines:          len(lines),
		}
		best.Attempts = append(best.Attempts, attempt)

		s.logger.DebugContext(ctx, "orientation attempt",
			"rotation", int(rotation),
			"completeness", attempt.Completeness,
			"mean_confidence", attempt.MeanConfidence,
		)

		if !hasBest || attempt.Completeness > best.Completeness {
			best.Record = record
			best.Rotation = rotation
			best.Completeness = attempt.Completeness
			best.MeanConfidence = attempt.MeanConfidence
			hasBest = true
		}
		if attempt.Completeness == extraction.MaxCompleteness {
			break
		}
	}

	span.SetAttributes(
		attribute.Int("orientation.rotation", int(best.Rotation)),
		attribute.Int("orientation.completeness", best.Completeness),
	)
	s.metrics.ObserveSelection(best.Rotation.String(), best.Completeness)
	return best, nil
}

// MeanConfidence averages line confidences; no lines yields 0.
func MeanConfidence(lines []extraction.RecognizedLine) float64 {
	if len(lines) == 0 {
		return 0
	}
	var sum float64
	for _, l := range lines {
		sum += l.Confidence
	}
	return sum / float64(len(lines))
}
