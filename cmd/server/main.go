// Command server runs the admin dashboard and JSON API over a
// cache.Registry: policy storage, activity log, load-time metrics, and
// operator/API-key auth, all on one HTTP port.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/mcules/ortwarmcache/internal/activity"
	"github.com/mcules/ortwarmcache/internal/auth"
	"github.com/mcules/ortwarmcache/internal/cache"
	"github.com/mcules/ortwarmcache/internal/httpx"
	"github.com/mcules/ortwarmcache/internal/loader/simulated"
	"github.com/mcules/ortwarmcache/internal/metrics"
	"github.com/mcules/ortwarmcache/internal/policy"
	"github.com/mcules/ortwarmcache/internal/ui"
)

func main() {
	dbPath := envOr("POLICY_DB_PATH", "policies.db")
	policyStore, err := policy.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open policy store: %v", err)
	}
	defer policyStore.Close()

	activityLog := activity.New(300)
	loadTimes := metrics.NewLoadTimeTracker(0.2)
	authenticator := auth.NewAuthenticator(policyStore)

	obs := cache.MultiObserver{Observers: []cache.Observer{
		activity.NewObserverAdapter(activityLog),
		metrics.NewObserverAdapter(loadTimes),
	}}

	loader := simulated.NewLoader(150*time.Millisecond, 0)
	reg := cache.NewRegistry(loader, cache.Config{
		MaxLoaded:     envOrInt("MAX_LOADED", 4),
		SkipWarmCache: envOrBool("SKIP_WARM_CACHE", false),
	}, obs)

	applyPinsFromPolicy(reg, policyStore)

	uiHandler, err := ui.NewHandler(reg, policyStore, activityLog, loadTimes, authenticator, "internal/ui/templates")
	if err != nil {
		log.Fatalf("ui init: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusFound)
	})
	uiHandler.Register(mux)
	uiHandler.RegisterAPI(mux)

	handler := httpx.CORS{AllowOrigin: "*"}.Wrap(mux)

	addr := envOr("HTTP_ADDR", ":8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("HTTP listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("http serve: %v", err)
	}
}

// applyPinsFromPolicy applies every persisted policy's pin and priority to
// the matching live entry so the cache's eviction pass honors operator
// configuration before any traffic arrives. Entries that do not yet exist
// in the registry are skipped; the host is responsible for registering its
// catalog before load generation starts.
func applyPinsFromPolicy(reg *cache.Registry, store *policy.Store) {
	policies, err := store.ListAll(context.Background())
	if err != nil {
		return
	}
	for _, p := range policies {
		e, ok := reg.Lookup(p.Key)
		if !ok {
			continue
		}
		e.SetPinned(p.Pinned)
		e.SetPriority(p.Priority)
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
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
