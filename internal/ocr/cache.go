package ocr

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"image"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"
	"github.com/redis/go-redis/v9"

	"docverify/internal/extraction"
	"docverify/internal/ocr/metrics"
)

const cacheKeyPrefix = "ocr:lines:"

// Cached wraps an Engine with a Redis cache of recognized lines keyed by the page's
// pixel content. Cache failures fall through to the engine.
type Cached struct {
	next    Engine
	rdb     redis.Cmdable
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewCached wraps next. A nil rdb returns next unchanged.
func NewCached(next Engine, rdb redis.Cmdable, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) Engine {
	if rdb == nil {
		return next
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cached{next: next, rdb: rdb, ttl: ttl, logger: logger, metrics: m}
}

// CachedFactory wraps every handle built by factory.
func CachedFactory(factory Factory, rdb redis.Cmdable, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) Factory {
	return func(ctx context.Context) (Engine, error) {
		e, err := factory(ctx)
		if err != nil {
			return nil, err
		}
		return NewCached(e, rdb, ttl, logger, m), nil
	}
}

func (c *Cached) Recognize(ctx context.Context, page image.Image) ([]extraction.RecognizedLine, error) {
	key := PageKey(page)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var lines []extraction.RecognizedLine
		if jsonErr := json.Unmarshal(raw, &lines); jsonErr == nil {
			c.metrics.IncrementCache("hit")
			return lines, nil
		}
		c.metrics.IncrementCache("error")
	case errors.Is(err, redis.Nil):
		c.metrics.IncrementCache("miss")
	default:
		c.metrics.IncrementCache("error")
		c.logger.WarnContext(ctx, "ocr cache read failed", "error", err)
	}

	lines, err := c.next.Recognize(ctx, page)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(lines); err == nil {
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "ocr cache write failed", "error", err)
		}
	}
	return lines, nil
}

func (c *Cached) Close() error {
	return c.next.Close()
}

// PageKey derives the cache key from the page's dimensions and NRGBA pixels, so a
// rotated copy of a page gets its own key.
func PageKey(page image.Image) string {
	nrgba := imaging.Clone(page)
	h := sha256.New()
	var dims [8]byte
	binary.BigEndian.PutUint32(dims[:4], uint32(nrgba.Rect.Dx()))
	binary.BigEndian.PutUint32(dims[4:], uint32(nrgba.Rect.Dy()))
	h.Write(dims[:])
	h.Write(nrgba.Pix)
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}
