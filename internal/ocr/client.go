// Package ocr adapts an HTTP OCR sidecar into the line source used by orientation
// selection, and manages the per-worker engine handles.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"docverify/internal/extraction"
	"docverify/internal/ocr/metrics"
	"docverify/pkg/platform/upstream"
)

const serviceName = "ocr"

// Engine is one OCR engine handle. Handles are not shared between goroutines.
type Engine interface {
	Recognize(ctx context.Context, page image.Image) ([]extraction.RecognizedLine, error)
	Close() error
}

// Client is an Engine backed by the OCR sidecar's POST /ocr endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(cl *Client) {
		cl.metrics = m
	}
}

// NewClient creates a client for the sidecar at baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tracer:     otel.Tracer("docverify/ocr"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

type wireLine struct {
	Text       string       `json:"text"`
	Box        [][2]float64 `json:"box"`
	Confidence float64      `json:"confidence"`
}

type wireResponse struct {
	Lines []wireLine `json:"lines"`
}

// Recognize sends page as PNG and returns the non-blank lines in the order the
// sidecar reported them. A line's position is the first corner of its box.
func (c *Client) Recognize(ctx context.Context, page image.Image) ([]extraction.RecognizedLine, error) {
	ctx, span := c.tracer.Start(ctx, "ocr.Recognize")
	defer span.End()
	start := time.Now()

	lines, err := c.recognize(ctx, page)
	c.metrics.ObserveRecognize(time.Since(start))
	if err != nil {
		span.RecordError(err)
		c.metrics.IncrementError(string(upstream.CategoryOf(err)))
		c.logger.WarnContext(ctx, "ocr recognize failed", "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("ocr.lines", len(lines)))
	return lines, nil
}

func (c *Client) recognize(ctx context.Context, page image.Image) ([]extraction.RecognizedLine, error) {
	var body bytes.Buffer
	if err := imaging.Encode(&body, page, imaging.PNG); err != nil {
		return nil, upstream.New(upstream.ErrorInternal, serviceName, "encode page", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr", &body)
	if err != nil {
		return nil, upstream.New(upstream.ErrorInternal, serviceName, "build request", err)
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, upstream.FromTransport(serviceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, upstream.FromStatus(serviceName, resp.StatusCode, strings.TrimSpace(string(slurp)))
	}

	var parsed wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, upstream.New(upstream.ErrorBadData, serviceName, "decode response", err)
	}
	return toLines(parsed.Lines), nil
}

func toLines(wire []wireLine) []extraction.RecognizedLine {
	out := make([]extraction.RecognizedLine, 0, len(wire))
	for _, w := range wire {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		var pos extraction.Position
		if len(w.Box) > 0 {
			pos = extraction.Position{X: w.Box[0][0], Y: w.Box[0][1]}
		}
		out = append(out, extraction.RecognizedLine{Text: text, Position: pos, Confidence: w.Confidence})
	}
	return out
}

// Health checks the sidecar's GET /health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return upstream.FromTransport(serviceName, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return upstream.FromStatus(serviceName, resp.StatusCode, "")
	}
	return nil
}

// Close releases the handle. The HTTP client keeps no per-handle state.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Factory builds a new engine handle.
type Factory func(ctx context.Context) (Engine, error)

// ClientFactory returns a Factory producing sidecar clients.
func ClientFactory(baseURL string, timeout time.Duration, opts ...ClientOption) Factory {
	return func(context.Context) (Engine, error) {
		if baseURL == "" {
			return nil, fmt.Errorf("ocr base URL is required")
		}
		return NewClient(baseURL, timeout, opts...), nil
	}
}
