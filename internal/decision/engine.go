// Package decision compares an extracted record with its reference record field by
// field and recommends Accept or ManualReview.
package decision

import (
	"fmt"
	"log/slog"

	"docverify/internal/decision/metrics"
	"docverify/internal/extraction"
	"docverify/internal/reference"
)

// DefaultNameThreshold is the minimum name similarity for a match.
const DefaultNameThreshold = 70

// Config fixes the comparison policy of an Engine.
type Config struct {
	NameThreshold int
	DOBPolicy     DOBPolicy
}

// DefaultConfig is strict DOB comparison with the default name threshold.
func DefaultConfig() Config {
	return Config{NameThreshold: DefaultNameThreshold, DOBPolicy: DOBStrict}
}

// Validate checks the threshold range and policy.
func (c Config) Validate() error {
	if c.NameThreshold < 0 || c.NameThreshold > 100 {
		return fmt.Errorf("name threshold must be within 0-100, got %d", c.NameThreshold)
	}
	if !c.DOBPolicy.IsValid() {
		return fmt.Errorf("unknown dob policy %q", c.DOBPolicy)
	}
	return nil
}

// Engine evaluates extracted records against reference records. It reads no ambient
// configuration and is safe for concurrent use.
type Engine struct {
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates an Engine with cfg. An invalid cfg is rejected.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	return e, nil
}

// Config returns the engine's comparison policy.
func (e *Engine) Config() Config {
	return e.cfg
}

// Verify compares each field, then derives the decision and reasons.
func (e *Engine) Verify(extracted extraction.Record, ref reference.Record) MatchResult {
	var result MatchResult

	result.NameMatch, result.NameScore = MatchName(extracted.Name, ref.FullName(), e.cfg.NameThreshold)
	result.DOBMatch, result.DOBYearOnly = MatchDOB(extracted.DOB, ref.NormalizedDOB(), e.cfg.DOBPolicy)
	result.GenderMatch = MatchGender(extracted.Gender, ref.NormalizedGender())
	result.IDMatch = MatchIDNumber(extracted.IDNumber, ref.DecodedIDNumber())

	if result.DOBYearOnly {
		e.logger.Debug("dob matched on year only",
			"extracted_dob", extracted.DOB,
			"policy", string(e.cfg.DOBPolicy),
		)
		e.metrics.IncrementYearOnlyDOB()
	}

	result.Decision = EvaluateDecision(extracted, result)
	result.Reasons = BuildReasons(result)

	e.metrics.IncrementOutcome(string(result.Decision))
	for _, reason := range result.Reasons {
		if reason != ReasonAllMatched {
			e.metrics.IncrementMismatch(string(reason))
		}
	}
	e.metrics.ObserveNameScore(result.NameScore)

	return result
}
