package simulated

import (
	"context"
	"testing"
	"time"

	"github.com/mcules/ortwarmcache/internal/cache"
)

func TestLoader_LoadRespectsBaseLoadTime(t *testing.T) {
	l := NewLoader(20*time.Millisecond, 0)

	start := time.Now()
	sess, err := l.Load(context.Background(), cache.Descriptor{Key: "m"})
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if elapsed < 20*time.Millisecond {
		t.Fatalf("Load returned after %v, want >= 20ms", elapsed)
	}

	s, ok := sess.(*Session)
	if !ok {
		t.Fatalf("Load() returned %T, want *Session", sess)
	}
	if s.Key != "m" {
		t.Fatalf("Session.Key = %q, want m", s.Key)
	}
}

func TestLoader_LoadCancelledByContext(t *testing.T) {
	l := NewLoader(time.Hour, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := l.Load(ctx, cache.Descriptor{Key: "m"})
	if err == nil {
		t.Fatal("expected context deadline error")
	}
}

func TestLoader_FailureRateOneAlwaysFails(t *testing.T) {
	l := NewLoader(time.Millisecond, 1.0)

	_, err := l.Load(context.Background(), cache.Descriptor{Key: "m"})
	if err == nil {
		t.Fatal("expected simulated load failure")
	}
}

func TestLoader_FailureRateZeroNeverFails(t *testing.T) {
	l := NewLoader(time.Millisecond, 0)

	for i := 0; i < 20; i++ {
		if _, err := l.Load(context.Background(), cache.Descriptor{Key: "m"}); err != nil {
			t.Fatalf("unexpected failure at iteration %d: %v", i, err)
		}
	}
}

func TestLoader_BytesPerSecondScalesCost(t *testing.T) {
	l := NewLoader(0, 0)
	l.BytesPerSecond = 1 << 20 // 1 MiB/s

	start := time.Now()
	_, err := l.Load(context.Background(), cache.Descriptor{Blob: make([]byte, 1<<20), Key: "m"})
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if elapsed < 900*time.Millisecond {
		t.Fatalf("elapsed = %v, want roughly >= 1s for 1MiB at 1MiB/s", elapsed)
	}
}

func TestLoader_UnloadIsNoop(t *testing.T) {
	l := NewLoader(time.Millisecond, 0)
	sess, err := l.Load(context.Background(), cache.Descriptor{Key: "m"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := l.Unload(context.Background(), sess); err != nil {
		t.Fatalf("Unload: %v", err)
	}
}
