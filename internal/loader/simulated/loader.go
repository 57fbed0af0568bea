// Package simulated provides a cache.Loader that mimics the cost of
// constructing an ONNX Runtime inference session without requiring the
// runtime itself, for demos and tests against internal/cache.
package simulated

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/mcules/ortwarmcache/internal/cache"
)

// Session is the in-memory stand-in for a loaded inference session.
type Session struct {
	Key       string
	LoadedAt  time.Time
	SizeBytes uint64
}

// Loader builds Sessions by sleeping for a duration derived from the
// descriptor's size (its Blob length, or a placeholder size derived from
// its Path length when no Blob is given), optionally failing a configurable fraction of
// loads to exercise the cache's degraded-handle path.
type Loader struct {
	// BaseLoadTime is the minimum simulated construction cost.
	BaseLoadTime time.Duration

	// BytesPerSecond models throughput for larger descriptors; if zero,
	// every load costs BaseLoadTime regardless of size.
	BytesPerSecond uint64

	// FailureRate is the fraction (0..1) of Load calls that fail, for
	// exercising retry-after-failure behavior. Safe for concurrent use.
	FailureRate float64

	mu   sync.Mutex
	rand *rand.Rand
}

// NewLoader returns a Loader with the given base cost and failure rate.
func NewLoader(baseLoadTime time.Duration, failureRate float64) *Loader {
	return &Loader{
		BaseLoadTime: baseLoadTime,
		FailureRate:  failureRate,
		rand:         rand.New(rand.NewSource(1)),
	}
}

func (l *Loader) shouldFail() bool {
	if l.FailureRate <= 0 {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rand.Float64() < l.FailureRate
}

// Load simulates constructing a session for d, respecting ctx cancellation.
func (l *Loader) Load(ctx context.Context, d cache.Descriptor) (cache.Session, error) {
	cost := l.BaseLoadTime
	size := uint64(len(d.Blob))
	if size == 0 {
		size = uint64(len(d.Path)) * 1 << 20 // placeholder sizing when no blob is given
	}
	if l.BytesPerSecond > 0 {
		extra := time.Duration(size) * time.Second / time.Duration(l.BytesPerSecond)
		cost += extra
	}

	select {
	case <-time.After(cost):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if l.shouldFail() {
		return nil, fmt.Errorf("simulated: load failed for %s", d.Key)
	}

	return &Session{Key: d.Key, LoadedAt: time.Now(), SizeBytes: size}, nil
}

// Unload is a no-op: Session holds no external resources.
func (l *Loader) Unload(ctx context.Context, s cache.Session) error {
	return nil
}
