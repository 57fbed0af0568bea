package ui

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mcules/ortwarmcache/internal/policy"
)

// PolicyViewRow is a policies.html row.
type PolicyViewRow struct {
	Key      string
	Priority int64
	Pinned   bool
	Note     string
}

func (h *Handler) policies(w http.ResponseWriter, r *http.Request) {
	rows := make([]PolicyViewRow, 0, 128)

	if h.PolicyStore != nil {
		ps, err := h.PolicyStore.ListAll(r.Context())
		if err == nil {
			for _, p := range ps {
				rows = append(rows, PolicyViewRow{
					Key:      p.Key,
					Priority: p.Priority,
					Pinned:   p.Pinned,
					Note:     p.Note,
				})
			}
		}
	}

	vm := h.newViewModel("Policies")
	vm.User = h.getUser(r)
	vm.Policies = rows
	h.render(w, "policies.html", vm)
}

func (h *Handler) deletePolicy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	key := r.FormValue("key")
	if key != "" {
		_ = h.PolicyStore.Delete(r.Context(), key)
	}
	http.Redirect(w, r, "/ui/policies", http.StatusFound)
}

func (h *Handler) savePolicy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	key := r.FormValue("key")
	if key == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return
	}

	prio := parseInt64Default(r.FormValue("priority"), 0)
	pinned := r.FormValue("pinned") != ""
	note := r.FormValue("note")

	err := h.PolicyStore.Upsert(r.Context(), policy.ModelPolicy{
		Key:      key,
		Priority: prio,
		Pinned:   pinned,
		Note:     note,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to save policy: %v", err), http.StatusInternalServerError)
		return
	}

	if e, ok := h.Registry.Lookup(key); ok {
		e.SetPinned(pinned)
		e.SetPriority(prio)
	}

	http.Redirect(w, r, "/ui/policies", http.StatusFound)
}

func parseInt64Default(s string, def int64) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return v
}
