// Package refnum obtains a reference number for an accepted ID number from the
// registry lookup service.
package refnum

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docverify/pkg/platform/circuit"
	"docverify/pkg/platform/sentinel"
	"docverify/pkg/platform/upstream"
)

const serviceName = "refnum"

// ErrCircuitOpen is returned without contacting the service while the breaker is open.
var ErrCircuitOpen = fmt.Errorf("refnum: circuit open: %w", sentinel.ErrUnavailable)

// Client posts lookup forms to the reference number service.
type Client struct {
	endpoint   string
	httpClient *http.Client
	breaker    *circuit.Breaker
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(cl *Client) { cl.breaker = b }
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

func New(endpoint string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    circuit.New(serviceName, circuit.WithFailureThreshold(3), circuit.WithOpenTimeout(time.Minute)),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type lookupResponse struct {
	RefNum string `json:"refnum"`
}

// Lookup returns the reference number for idNumber. documentURL is forwarded as the
// entered_url form field and may be empty.
func (c *Client) Lookup(ctx context.Context, idNumber, documentURL string) (string, error) {
	if !c.breaker.Allow() {
		return "", ErrCircuitOpen
	}

	ref, err := c.lookup(ctx, idNumber, documentURL)
	if err != nil {
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.WarnContext(ctx, "refnum circuit opened", "error", err)
		}
		return "", err
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "refnum circuit closed")
	}
	return ref, nil
}

func (c *Client) lookup(ctx context.Context, idNumber, documentURL string) (string, error) {
	form := url.Values{
		"entered_uid": {idNumber},
		"entered_url": {documentURL},
		"entered_opr": {"struid"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", upstream.New(upstream.ErrorInternal, serviceName, "build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", upstream.FromTransport(serviceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return "", upstream.FromStatus(serviceName, resp.StatusCode, strings.TrimSpace(string(slurp)))
	}

	var out lookupResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&out); err != nil {
		return "", upstream.New(upstream.ErrorBadData, serviceName, "decode response", err)
	}
	if out.RefNum == "" {
		return "", upstream.New(upstream.ErrorBadData, serviceName, "response has no refnum", nil)
	}
	return out.RefNum, nil
}
