package ocr

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"docverify/internal/ocr/metrics"
	"docverify/pkg/platform/sentinel"
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = fmt.Errorf("ocr pool closed: %w", sentinel.ErrUnavailable)

// Pool hands out a fixed set of engine handles, one caller at a time per handle.
type Pool struct {
	handles chan Engine
	all     []Engine
	done    chan struct{}
	metrics *metrics.Metrics

	closeOnce sync.Once
	closeErr  error
}

// NewPool builds size handles with factory up front. A factory failure closes the
// handles already built.
func NewPool(ctx context.Context, size int, factory Factory, m *metrics.Metrics) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", size)
	}
	p := &Pool{
		handles: make(chan Engine, size),
		done:    make(chan struct{}),
		metrics: m,
	}
	for i := 0; i < size; i++ {
		e, err := factory(ctx)
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("build ocr engine %d: %w", i, err)
		}
		p.all = append(p.all, e)
		p.handles <- e
	}
	return p, nil
}

// Acquire blocks until a handle is free, ctx is done or the pool is closed.
func (p *Pool) Acquire(ctx context.Context) (Engine, error) {
	select {
	case <-p.done:
		return nil, ErrPoolClosed
	default:
	}
	select {
	case e := <-p.handles:
		p.metrics.AddInUse(1)
		return e, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.done:
		return nil, ErrPoolClosed
	}
}

// Release returns a handle obtained from Acquire.
func (p *Pool) Release(e Engine) {
	p.metrics.AddInUse(-1)
	p.handles <- e
}

// Size is the number of handles.
func (p *Pool) Size() int {
	return cap(p.handles)
}

// Close closes every handle. Handles still checked out are closed too; their holders
// must not use them afterwards. Later calls return the first call's result.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)
		var errs []error
		for _, e := range p.all {
			errs = append(errs, e.Close())
		}
		p.closeErr = errors.Join(errs...)
	})
	return p.closeErr
}
