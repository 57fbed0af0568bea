// Package ui serves the operator dashboard: cache entry status, activity
// log, model policies, API keys, and operator accounts, rendered with
// html/template over the live cache.Registry.
package ui

import (
	"html/template"
	"net/http"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mcules/ortwarmcache/internal/activity"
	"github.com/mcules/ortwarmcache/internal/auth"
	"github.com/mcules/ortwarmcache/internal/cache"
	"github.com/mcules/ortwarmcache/internal/metrics"
	"github.com/mcules/ortwarmcache/internal/policy"
)

// Handler serves the admin dashboard and its supporting JSON endpoints.
type Handler struct {
	Registry    *cache.Registry
	PolicyStore *policy.Store
	Activity    *activity.Log
	Metrics     *metrics.LoadTimeTracker
	Auth        *auth.Authenticator

	templates *template.Template
}

// NewHandler parses templateDir's html/template files and wires them to
// the given collaborators.
func NewHandler(reg *cache.Registry, store *policy.Store, log *activity.Log, m *metrics.LoadTimeTracker, a *auth.Authenticator, templateDir string) (*Handler, error) {
	tpl, err := template.ParseFiles(
		filepath.Join(templateDir, "layout.html"),
		filepath.Join(templateDir, "dashboard.html"),
		filepath.Join(templateDir, "entries.html"),
		filepath.Join(templateDir, "activity.html"),
		filepath.Join(templateDir, "policies.html"),
		filepath.Join(templateDir, "keys.html"),
		filepath.Join(templateDir, "users.html"),
		filepath.Join(templateDir, "login.html"),
	)
	if err != nil {
		return nil, err
	}

	return &Handler{
		Registry:    reg,
		PolicyStore: store,
		Activity:    log,
		Metrics:     m,
		Auth:        a,
		templates:   tpl,
	}, nil
}

// Register wires every dashboard and health route onto mux. Routes other
// than /ui/login, /ui/logout and /health require an authenticated operator
// session.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/ui/login", h.login)
	mux.HandleFunc("/ui/logout", h.logout)

	mux.HandleFunc("/ui/", h.authMiddleware(h.dashboard))
	mux.HandleFunc("/ui/entries", h.authMiddleware(h.entries))
	mux.HandleFunc("/ui/activity", h.authMiddleware(h.activity))
	mux.HandleFunc("/ui/policies", h.authMiddleware(h.policies))
	mux.HandleFunc("/ui/policies/save", h.authMiddleware(h.savePolicy))
	mux.HandleFunc("/ui/policies/delete", h.authMiddleware(h.deletePolicy))
	mux.HandleFunc("/ui/keys", h.authMiddleware(h.keys))
	mux.HandleFunc("/ui/keys/create", h.authMiddleware(h.createKey))
	mux.HandleFunc("/ui/keys/delete", h.authMiddleware(h.deleteKey))
	mux.HandleFunc("/ui/users", h.authMiddleware(h.users))
	mux.HandleFunc("/ui/users/create", h.authMiddleware(h.createUser))
	mux.HandleFunc("/ui/users/delete", h.authMiddleware(h.deleteUser))
	mux.HandleFunc("/ui/users/password", h.authMiddleware(h.changePassword))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
}

// viewModel is the single template data type shared by every page.
type viewModel struct {
	Now     time.Time
	Title   string
	User    *policy.UserRecord
	Entries []entryRow
	Activity []activityRow
	Policies []PolicyViewRow
	Data    any
}

// entryRow is an entries.html row, combining live registry state with its
// recorded load-time stats.
type entryRow struct {
	Key        string
	Loaded     bool
	Pinned     bool
	Hotness    int64
	Path       string
	Stats      metrics.KeyStats
	LastLoaded string
}

func (h *Handler) newViewModel(title string) viewModel {
	return viewModel{Now: time.Now(), Title: title}
}

// entryRows builds one entries.html/dashboard.html row per registered
// entry, combining live registry state with its recorded load-time stats.
func (h *Handler) entryRows() []entryRow {
	views := h.Registry.SnapshotEntries()
	rows := make([]entryRow, 0, len(views))
	for _, v := range views {
		stats, _ := h.Metrics.Get(v.Key)
		lastLoaded := "never"
		if !stats.LastAt.IsZero() {
			lastLoaded = humanize.Time(stats.LastAt)
		}
		rows = append(rows, entryRow{
			Key:        v.Key,
			Loaded:     v.Loaded,
			Pinned:     v.Pinned,
			Hotness:    v.Hotness,
			Path:       v.Path,
			Stats:      stats,
			LastLoaded: lastLoaded,
		})
	}
	return rows
}

func (h *Handler) entries(w http.ResponseWriter, r *http.Request) {
	vm := h.newViewModel("Cache Entries")
	vm.User = h.getUser(r)
	vm.Entries = h.entryRows()
	h.render(w, "entries.html", vm)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/ui/" && r.URL.Path != "/ui" {
		http.NotFound(w, r)
		return
	}
	if r.URL.Path == "/ui" {
		http.Redirect(w, r, "/ui/", http.StatusFound)
		return
	}

	vm := h.newViewModel("Dashboard")
	vm.User = h.getUser(r)
	vm.Entries = h.entryRows()
	vm.Data = h.Metrics.Gauge(h.Registry.LoadedCount(), h.Registry.MaxLoaded(), h.Registry.EntryCount())
	h.render(w, "dashboard.html", vm)
}

func (h *Handler) render(w http.ResponseWriter, name string, vm viewModel) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = h.templates.ExecuteTemplate(w, "layout.html", map[string]any{
		"Page": name,
		"VM":   vm,
	})
}
