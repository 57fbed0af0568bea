package metrics

import (
	"testing"
	"time"
)

func TestLoadTimeTracker_ObserveLoadUpdatesEWMA(t *testing.T) {
	tr := NewLoadTimeTracker(0.5)
	tr.ObserveLoad("m", 100*time.Millisecond)

	stats, ok := tr.Get("m")
	if !ok {
		t.Fatal("expected stats for m")
	}
	if stats.EWMAms != 100 {
		t.Fatalf("EWMAms = %v, want 100 on first observation", stats.EWMAms)
	}

	tr.ObserveLoad("m", 200*time.Millisecond)
	stats, _ = tr.Get("m")
	want := 0.5*200 + 0.5*100
	if stats.EWMAms != want {
		t.Fatalf("EWMAms = %v, want %v", stats.EWMAms, want)
	}
	if stats.Loads != 2 {
		t.Fatalf("Loads = %d, want 2", stats.Loads)
	}
}

func TestLoadTimeTracker_CountersIndependent(t *testing.T) {
	tr := NewLoadTimeTracker(0.2)
	tr.ObserveHit("m")
	tr.ObserveHit("m")
	tr.ObserveLoadFailed("m")
	tr.ObserveEvicted("m")

	stats, ok := tr.Get("m")
	if !ok {
		t.Fatal("expected stats for m")
	}
	if stats.Hits != 2 || stats.Failed != 1 || stats.Evicted != 1 || stats.Loads != 0 {
		t.Fatalf("unexpected counters: %+v", stats)
	}
}

func TestLoadTimeTracker_DeleteRemovesKey(t *testing.T) {
	tr := NewLoadTimeTracker(0.2)
	tr.ObserveHit("m")
	tr.Delete("m")

	if _, ok := tr.Get("m"); ok {
		t.Fatal("expected key to be gone after Delete")
	}
}

func TestLoadTimeTracker_SnapshotIsACopy(t *testing.T) {
	tr := NewLoadTimeTracker(0.2)
	tr.ObserveHit("m")

	snap := tr.Snapshot()
	tr.ObserveHit("m")

	if snap["m"].Hits != 1 {
		t.Fatalf("snapshot mutated after further observation: %+v", snap["m"])
	}
}

func TestLoadTimeTracker_GaugeReflectsSuppliedFigures(t *testing.T) {
	tr := NewLoadTimeTracker(0.2)

	g := tr.Gauge(3, 4, 5)
	if g != (Gauge{LoadedCount: 3, MaxLoaded: 4, Entries: 5}) {
		t.Fatalf("Gauge() = %+v, want {3 4 5}", g)
	}
}

func TestObserverAdapter_FeedsTracker(t *testing.T) {
	tr := NewLoadTimeTracker(0.2)
	o := NewObserverAdapter(tr)

	o.Loaded("m", 50*time.Millisecond)
	o.Evicted("m", "other")
	o.Unregistered("m")

	if _, ok := tr.Get("m"); ok {
		t.Fatal("expected Unregistered to delete tracked stats")
	}
}
