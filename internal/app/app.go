// Package app assembles the verification pipeline from configuration. Both the API
// server and the batch CLI build their pipeline here.
package app

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"docverify/internal/decision"
	decisionmetrics "docverify/internal/decision/metrics"
	"docverify/internal/document"
	"docverify/internal/extraction"
	"docverify/internal/ocr"
	ocrmetrics "docverify/internal/ocr/metrics"
	"docverify/internal/orientation"
	orientationmetrics "docverify/internal/orientation/metrics"
	"docverify/internal/platform/config"
	"docverify/internal/refnum"
	"docverify/internal/verification/metrics"
	"docverify/internal/verification/service"
)

// Options are the collaborators that differ between the server and the CLI. Nil
// stores and a nil publisher disable those stages.
type Options struct {
	Logger     *slog.Logger
	Redis      redis.Cmdable
	References service.ReferenceStore
	Results    service.ResultStore
	Auditor    service.AuditPublisher
	// Transactor groups the result save and the applicant update. Only set it
	// when both stores share the database.
	Transactor service.Transactor
	// AllowLocal lets documents be read from the local filesystem.
	AllowLocal bool
	// Metrics registers Prometheus collectors. Only one pipeline per process may
	// enable it.
	Metrics bool
}

// Pipeline is the assembled verification pipeline.
type Pipeline struct {
	Service    *service.Service
	Engines    ocr.Factory
	Fetcher    *document.Fetcher
	Rasterizer *document.Rasterizer
	Extractor  *extraction.Extractor
	Selector   *orientation.Selector
	Decision   *decision.Engine
	OCRMetrics *ocrmetrics.Metrics
}

// NewPipeline builds every stage from cfg.
func NewPipeline(cfg config.Server, opts Options) (*Pipeline, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var (
		ocrM         *ocrmetrics.Metrics
		orientationM *orientationmetrics.Metrics
		decisionM    *decisionmetrics.Metrics
		verifyM      *metrics.Metrics
	)
	if opts.Metrics {
		ocrM = ocrmetrics.New()
		orientationM = orientationmetrics.New()
		decisionM = decisionmetrics.New()
		verifyM = metrics.New()
	}

	engine, err := decision.NewEngine(decision.Config{
		NameThreshold: cfg.Engine.NameThreshold,
		DOBPolicy:     decision.DOBPolicy(cfg.Engine.DOBPolicy),
	}, decision.WithLogger(logger), decision.WithMetrics(decisionM))
	if err != nil {
		return nil, fmt.Errorf("decision engine: %w", err)
	}

	engines := ocr.ClientFactory(cfg.OCR.URL, cfg.OCR.Timeout, ocr.WithLogger(logger), ocr.WithMetrics(ocrM))
	if opts.Redis != nil {
		engines = ocr.CachedFactory(engines, opts.Redis, cfg.Redis.CacheTTL, logger, ocrM)
	}
	if cfg.OCR.Preprocess {
		engines = ocr.PreprocessedFactory(engines)
	}

	fetcher := document.NewFetcher(document.FetcherConfig{
		BaseURL:    cfg.Document.BaseURL,
		Timeout:    cfg.Document.FetchTimeout,
		Retries:    cfg.Document.FetchRetries,
		MaxBytes:   cfg.Document.MaxBytes,
		RateEvery:  cfg.Document.FetchRateEvery,
		Burst:      cfg.Document.FetchBurst,
		AllowLocal: opts.AllowLocal,
	}, logger)
	rasterizer := document.NewRasterizer(cfg.Document.RasterDPI, cfg.Document.RasterTimeout, logger)
	extractor := extraction.NewExtractor(extraction.WithLogger(logger))
	selector := orientation.New(extractor, orientation.WithLogger(logger), orientation.WithMetrics(orientationM))

	svcOpts := []service.Option{service.WithLogger(logger), service.WithMetrics(verifyM)}
	if opts.References != nil {
		svcOpts = append(svcOpts, service.WithReferenceStore(opts.References))
	}
	if opts.Results != nil {
		svcOpts = append(svcOpts, service.WithResultStore(opts.Results))
	}
	if opts.Auditor != nil {
		svcOpts = append(svcOpts, service.WithAuditPublisher(opts.Auditor))
	}
	if opts.Transactor != nil {
		svcOpts = append(svcOpts, service.WithTransactor(opts.Transactor))
	}
	if cfg.RefNumURL != "" {
		svcOpts = append(svcOpts, service.WithRefNumLookup(
			refnum.New(cfg.RefNumURL, cfg.RefNumTimeout, refnum.WithLogger(logger)),
		))
	}

	svc, err := service.New(fetcher, rasterizer, selector, engine, svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("verification service: %w", err)
	}

	return &Pipeline{
		Service:    svc,
		Engines:    engines,
		Fetcher:    fetcher,
		Rasterizer: rasterizer,
		Extractor:  extractor,
		Selector:   selector,
		Decision:   engine,
		OCRMetrics: ocrM,
	}, nil
}
