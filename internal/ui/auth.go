package ui

import (
	"context"
	"net/http"

	"github.com/mcules/ortwarmcache/internal/policy"
)

type ctxKeyUser struct{}

func (h *Handler) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("session")
		if err != nil {
			http.Redirect(w, r, "/ui/login", http.StatusFound)
			return
		}

		// The cookie value is the username; good enough for a single-operator
		// admin surface with no external exposure.
		username := cookie.Value
		u, exists, err := h.PolicyStore.GetUser(r.Context(), username)
		if err != nil || !exists {
			http.Redirect(w, r, "/ui/login", http.StatusFound)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUser{}, &u)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, "login.html", h.newViewModel("Login"))
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	u, err := h.Auth.AuthenticateUser(r.Context(), username, password)
	if err != nil {
		vm := h.newViewModel("Login")
		vm.Data = "invalid username or password"
		h.render(w, "login.html", vm)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    u.Username,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   86400,
	})

	http.Redirect(w, r, "/ui/", http.StatusFound)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	http.Redirect(w, r, "/ui/login", http.StatusFound)
}

func (h *Handler) users(w http.ResponseWriter, r *http.Request) {
	users, err := h.PolicyStore.ListUsers(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	vm := h.newViewModel("Users")
	vm.User = h.getUser(r)
	vm.Data = struct {
		Users []policy.UserRecord
	}{Users: users}
	h.render(w, "users.html", vm)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	currentUser := h.getUser(r)
	targetUser := r.FormValue("username")
	newPassword := r.FormValue("password")

	if targetUser == "" {
		targetUser = currentUser.Username
	}

	if currentUser.Username != "admin" && currentUser.Username != targetUser {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if newPassword == "" {
		http.Error(w, "Password required", http.StatusBadRequest)
		return
	}

	oldPassword := r.FormValue("old_password")
	if err := h.Auth.ChangePassword(r.Context(), targetUser, oldPassword, newPassword); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if currentUser.Username == "admin" && targetUser != "admin" {
		http.Redirect(w, r, "/ui/users", http.StatusSeeOther)
	} else {
		http.Redirect(w, r, "/ui/", http.StatusSeeOther)
	}
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	if username == "" || password == "" {
		http.Error(w, "Username and password required", http.StatusBadRequest)
		return
	}

	if err := h.Auth.CreateUser(r.Context(), username, password); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/ui/users", http.StatusSeeOther)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	username := r.FormValue("username")
	if username == "admin" {
		http.Error(w, "Cannot delete admin user", http.StatusForbidden)
		return
	}

	if err := h.PolicyStore.DeleteUser(r.Context(), username); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/ui/users", http.StatusSeeOther)
}

func (h *Handler) getUser(r *http.Request) *policy.UserRecord {
	if v := r.Context().Value(ctxKeyUser{}); v != nil {
		return v.(*policy.UserRecord)
	}
	return nil
}
