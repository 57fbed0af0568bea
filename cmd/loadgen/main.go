// Command loadgen stands in for a model-serving host: it registers a
// catalog of simulated model instances against a cache.Registry and
// drives concurrent Reserve/inference/Release cycles against a weighted
// key distribution, so the cache sees a genuine working set smaller than
// its catalog.
package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/mcules/ortwarmcache/internal/activity"
	"github.com/mcules/ortwarmcache/internal/cache"
	"github.com/mcules/ortwarmcache/internal/loader/simulated"
	"github.com/mcules/ortwarmcache/internal/metrics"
)

func main() {
	numInstances := envOrInt("LOADGEN_INSTANCES", 16)
	maxLoaded := envOrInt("MAX_LOADED", 4)
	numWorkers := envOrInt("LOADGEN_WORKERS", 8)
	skipWarmCache := envOrBool("SKIP_WARM_CACHE", false)
	reserveHoldMs := envOrInt("LOADGEN_HOLD_MS", 20)
	teardownIntervalSec := envOrInt("LOADGEN_TEARDOWN_SECONDS", 10)

	activityLog := activity.New(500)
	loadTimes := metrics.NewLoadTimeTracker(0.2)
	obs := cache.MultiObserver{Observers: []cache.Observer{
		activity.NewObserverAdapter(activityLog),
		metrics.NewObserverAdapter(loadTimes),
	}}

	loader := simulated.NewLoader(150*time.Millisecond, 0.02)
	reg := cache.NewRegistry(loader, cache.Config{
		MaxLoaded:     maxLoaded,
		SkipWarmCache: skipWarmCache,
	}, obs)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var mu sync.Mutex
	keys := make([]string, 0, numInstances)

	register := func(i int) string {
		key := "instance-" + strconv.Itoa(i)
		_, err := reg.Register(ctx, key, cache.Descriptor{
			Path: "/models/" + key + ".onnx",
		})
		if err != nil {
			log.Printf("loadgen: register %s: %v", key, err)
			return ""
		}
		return key
	}

	for i := 0; i < numInstances; i++ {
		if k := register(i); k != "" {
			keys = append(keys, k)
		}
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	pickKey := func() string {
		mu.Lock()
		defer mu.Unlock()
		if len(keys) == 0 {
			return ""
		}
		// Weighted toward the front of the catalog: a working set smaller
		// than the full catalog, matching real request skew.
		idx := int(float64(len(keys)) * rng.ExpFloat64() / 4)
		if idx >= len(keys) {
			idx = idx % len(keys)
		}
		return keys[idx]
	}

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				key := pickKey()
				if key == "" {
					time.Sleep(100 * time.Millisecond)
					continue
				}

				e, ok := reg.Lookup(key)
				if !ok {
					continue
				}

				h := e.Reserve(ctx)
				if h.Err() != nil {
					log.Printf("loadgen: worker %d reserve %s: %v", workerID, key, h.Err())
				} else {
					loadTimes.ObserveHit(key)
					time.Sleep(time.Duration(reserveHoldMs) * time.Millisecond)
				}
				h.Release()
			}
		}(w)
	}

	teardownTicker := time.NewTicker(time.Duration(teardownIntervalSec) * time.Second)
	defer teardownTicker.Stop()

	nextID := numInstances
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-teardownTicker.C:
				mu.Lock()
				if len(keys) == 0 {
					mu.Unlock()
					continue
				}
				victimIdx := rng.Intn(len(keys))
				victimKey := keys[victimIdx]
				mu.Unlock()

				if e, ok := reg.Lookup(victimKey); ok {
					reg.Unregister(ctx, e)
					log.Printf("loadgen: unregistered %s", victimKey)
				}

				newKey := register(nextID)
				nextID++

				mu.Lock()
				keys[victimIdx] = newKey
				mu.Unlock()
			}
		}
	}()

	log.Printf("loadgen: running with %d instances, %d workers, max_loaded=%d, skip_warm_cache=%v", numInstances, numWorkers, maxLoaded, skipWarmCache)
	<-ctx.Done()
	log.Printf("loadgen: shutting down")
	wg.Wait()
}

func envOrInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOrBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
