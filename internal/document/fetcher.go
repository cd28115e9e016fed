// Package document retrieves identity documents and renders them to page images.
package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"docverify/pkg/platform/upstream"
)

const serviceName = "document_host"

var (
	// ErrTooLarge is returned when a document exceeds the configured size limit.
	ErrTooLarge = errors.New("document exceeds size limit")
	// ErrLocalDisabled is returned for filesystem locations when local reads are off.
	ErrLocalDisabled = errors.New("local document paths are disabled")
)

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	// BaseURL is prefixed to relative locations such as "uploads/123.pdf".
	BaseURL  string
	Timeout  time.Duration
	Retries  int
	Backoff  time.Duration
	MaxBytes int64
	// RateEvery and Burst throttle outbound downloads across all callers.
	RateEvery time.Duration
	Burst     int
	// AllowLocal permits reading filesystem paths.
	AllowLocal bool
}

// Fetcher downloads documents over HTTP(S) or reads them from disk.
type Fetcher struct {
	cfg     FetcherConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewFetcher creates a Fetcher. A zero RateEvery disables throttling.
func NewFetcher(cfg FetcherConfig, logger *slog.Logger) *Fetcher {
	if cfg.Backoff <= 0 {
		cfg.Backoff = 250 * time.Millisecond
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 10 << 20
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateEvery > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RateEvery), max(cfg.Burst, 1))
	}

	return &Fetcher{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		limiter: limiter,
		logger:  logger,
	}
}

// Resolve turns a stored document location into a fetchable one.
func (f *Fetcher) Resolve(location string) string {
	location = strings.TrimSpace(location)
	if isRemote(location) || f.cfg.BaseURL == "" || strings.HasPrefix(location, "/") || strings.HasPrefix(location, "file://") {
		return location
	}
	return strings.TrimRight(f.cfg.BaseURL, "/") + "/" + strings.TrimLeft(location, "/")
}

// Fetch returns the document bytes at location. Remote fetches are retried with
// exponential backoff on retryable failures.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	resolved := f.Resolve(location)
	if resolved == "" {
		return nil, fmt.Errorf("document location is empty")
	}
	if !isRemote(resolved) {
		return f.readLocal(strings.TrimPrefix(resolved, "file://"))
	}

	var lastErr error
	for attempt := 0; attempt <= f.cfg.Retries; attempt++ {
		if attempt > 0 {
			wait := f.cfg.Backoff << (attempt - 1)
			f.logger.WarnContext(ctx, "retrying document download",
				"attempt", attempt,
				"wait_ms", wait.Milliseconds(),
				"error", lastErr,
			)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		data, err := f.download(ctx, resolved)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !upstream.IsRetryable(err) {
			break
		}
	}
	return nil, lastErr
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, upstream.New(upstream.ErrorBadData, serviceName, "invalid document URL", err)
	}
	req.Header.Set("User-Agent", "docverify/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, upstream.FromTransport(serviceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, upstream.FromStatus(serviceName, resp.StatusCode, strings.TrimSpace(string(slurp)))
	}

	return readLimited(resp.Body, f.cfg.MaxBytes)
}

func (f *Fetcher) readLocal(path string) ([]byte, error) {
	if !f.cfg.AllowLocal {
		return nil, ErrLocalDisabled
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer file.Close()
	return readLimited(file, f.cfg.MaxBytes)
}

func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(&io.LimitedReader{R: r, N: maxBytes + 1})
	if err != nil {
		return nil, upstream.New(upstream.ErrorOutage, serviceName, "read document", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, maxBytes)
	}
	return data, nil
}

func isRemote(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
