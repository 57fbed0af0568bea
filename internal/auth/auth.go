package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcules/ortwarmcache/internal/policy"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by AuthenticateUser when the username
// is unknown or the password does not match.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Authenticator issues and verifies bearer API keys for the JSON admin
// API, and username/password credentials for the operator dashboard.
type Authenticator struct {
	Store *policy.Store
}

// NewAuthenticator builds an Authenticator backed by store.
func NewAuthenticator(store *policy.Store) *Authenticator {
	return &Authenticator{Store: store}
}

// GenerateKey creates a new API key, persists its hash, and returns the
// plaintext key. The plaintext is never stored and cannot be recovered.
func (a *Authenticator) GenerateKey(ctx context.Context, name string) (string, policy.APIKeyRecord, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", policy.APIKeyRecord{}, err
	}
	key := "sk-" + hex.EncodeToString(raw)

	id := uuid.New().String()
	prefix := key[:7] // sk-xxxx

	hash := sha256.Sum256([]byte(key))
	hashedKey := hex.EncodeToString(hash[:])

	record := policy.APIKeyRecord{
		ID:        id,
		Name:      name,
		Prefix:    prefix,
		HashedKey: hashedKey,
		CreatedAt: time.Now(),
	}

	if err := a.Store.CreateAPIKey(ctx, record); err != nil {
		return "", policy.APIKeyRecord{}, err
	}

	return key, record, nil
}

// Middleware checks the Authorization header against persisted API keys.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
			return
		}

		key := parts[1]
		hash := sha256.Sum256([]byte(key))
		hashedKey := hex.EncodeToString(hash[:])

		keys, err := a.Store.ListAPIKeys(r.Context())
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		var found *policy.APIKeyRecord
		for _, k := range keys {
			if k.HashedKey == hashedKey {
				found = &k
				break
			}
		}

		if found == nil {
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}

		go func() {
			_ = a.Store.UpdateAPIKeyLastUsed(context.Background(), found.ID)
		}()

		next.ServeHTTP(w, r)
	})
}

// CreateUser hashes password with bcrypt and persists a new operator
// account.
func (a *Authenticator) CreateUser(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return a.Store.CreateUser(ctx, policy.UserRecord{
		Username:     username,
		PasswordHash: string(hash),
	})
}

// AuthenticateUser verifies a username/password pair against the stored
// bcrypt hash.
func (a *Authenticator) AuthenticateUser(ctx context.Context, username, password string) (policy.UserRecord, error) {
	u, ok, err := a.Store.GetUser(ctx, username)
	if err != nil {
		return policy.UserRecord{}, err
	}
	if !ok {
		return policy.UserRecord{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return policy.UserRecord{}, ErrInvalidCredentials
	}
	return u, nil
}

// ChangePassword replaces username's stored password hash, after verifying
// oldPassword against the current one.
func (a *Authenticator) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	if _, err := a.AuthenticateUser(ctx, username, oldPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return a.Store.UpdateUserPassword(ctx, username, string(hash))
}
