package policy

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists model policies, API keys, and operator accounts in a
// single SQLite file shared by the admin server.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and runs
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Upsert(ctx context.Context, p ModelPolicy) error {
	return s.UpsertPolicy(ctx, p)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM model_policies WHERE key=?;", key)
	return err
}

func (s *Store) ListAll(ctx context.Context) ([]ModelPolicy, error) {
	return s.ListPolicies(ctx)
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS model_policies (
  key TEXT PRIMARY KEY,
  pinned INTEGER NOT NULL DEFAULT 0,
  priority INTEGER NOT NULL DEFAULT 0,
  note TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS api_keys (
  key_id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  prefix TEXT NOT NULL,
  hashed_key TEXT NOT NULL,
  created_at DATETIME NOT NULL,
  last_used_at DATETIME
);

CREATE TABLE IF NOT EXISTS users (
  username TEXT PRIMARY KEY,
  password_hash TEXT NOT NULL
);
`)
	return err
}

// APIKeyRecord is a persisted, hashed bearer credential for programmatic
// access to the JSON admin API.
type APIKeyRecord struct {
	ID         string
	Name       string
	Prefix     string
	HashedKey  string
	CreatedAt  time.Time
	LastUsedAt *time.Time
}

// UserRecord is a persisted operator account for the dashboard.
type UserRecord struct {
	Username     string
	PasswordHash string
}

func (s *Store) CreateAPIKey(ctx context.Context, record APIKeyRecord) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO api_keys(key_id, name, prefix, hashed_key, created_at)
VALUES(?, ?, ?, ?, ?);
`, record.ID, record.Name, record.Prefix, record.HashedKey, record.CreatedAt)
	return err
}

func (s *Store) ListAPIKeys(ctx context.Context) ([]APIKeyRecord, error) {
	if s.db == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT key_id, name, prefix, hashed_key, created_at, last_used_at
FROM api_keys ORDER BY created_at DESC;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []APIKeyRecord
	for rows.Next() {
		var r APIKeyRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.Prefix, &r.HashedKey, &r.CreatedAt, &r.LastUsedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) GetAPIKey(ctx context.Context, id string) (APIKeyRecord, bool, error) {
	if s.db == nil {
		return APIKeyRecord{}, false, nil
	}
	row := s.db.QueryRowContext(ctx, `
SELECT key_id, name, prefix, hashed_key, created_at, last_used_at
FROM api_keys WHERE key_id=?;
`, id)
	var r APIKeyRecord
	err := row.Scan(&r.ID, &r.Name, &r.Prefix, &r.HashedKey, &r.CreatedAt, &r.LastUsedAt)
	if err == sql.ErrNoRows {
		return APIKeyRecord{}, false, nil
	}
	if err != nil {
		return APIKeyRecord{}, false, err
	}
	return r, true, nil
}

func (s *Store) DeleteAPIKey(ctx context.Context, id string) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM api_keys WHERE key_id=?;", id)
	return err
}

func (s *Store) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, "UPDATE api_keys SET last_used_at=? WHERE key_id=?;", time.Now(), id)
	return err
}

func (s *Store) CreateUser(ctx context.Context, u UserRecord) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users(username, password_hash)
VALUES(?, ?);
`, u.Username, u.PasswordHash)
	return err
}

func (s *Store) GetUser(ctx context.Context, username string) (UserRecord, bool, error) {
	if s.db == nil {
		return UserRecord{}, false, nil
	}
	row := s.db.QueryRowContext(ctx, "SELECT username, password_hash FROM users WHERE username=?;", username)
	var u UserRecord
	err := row.Scan(&u.Username, &u.PasswordHash)
	if err == sql.ErrNoRows {
		return UserRecord{}, false, nil
	}
	if err != nil {
		return UserRecord{}, false, err
	}
	return u, true, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]UserRecord, error) {
	if s.db == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, "SELECT username, password_hash FROM users ORDER BY username ASC;")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []UserRecord
	for rows.Next() {
		var u UserRecord
		if err := rows.Scan(&u.Username, &u.PasswordHash); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *Store) DeleteUser(ctx context.Context, username string) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE username=?;", username)
	return err
}

func (s *Store) UpdateUserPassword(ctx context.Context, username, passwordHash string) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE username=?;", passwordHash, username)
	return err
}

func (s *Store) UpsertPolicy(ctx context.Context, p ModelPolicy) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO model_policies(key, pinned, priority, note)
VALUES(?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
  pinned=excluded.pinned,
  priority=excluded.priority,
  note=excluded.note;
`, p.Key, boolToInt(p.Pinned), p.Priority, p.Note)
	return err
}

func (s *Store) GetPolicy(ctx context.Context, key string) (ModelPolicy, bool, error) {
	if s.db == nil {
		return ModelPolicy{}, false, nil
	}
	row := s.db.QueryRowContext(ctx, `
SELECT key, pinned, priority, note
FROM model_policies WHERE key=?;
`, key)

	var p ModelPolicy
	var pinnedInt int
	err := row.Scan(&p.Key, &pinnedInt, &p.Priority, &p.Note)
	if err == sql.ErrNoRows {
		return ModelPolicy{}, false, nil
	}
	if err != nil {
		return ModelPolicy{}, false, err
	}
	p.Pinned = pinnedInt != 0
	return p, true, nil
}

func (s *Store) ListPolicies(ctx context.Context) ([]ModelPolicy, error) {
	if s.db == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT key, pinned, priority, note
FROM model_policies
ORDER BY key ASC;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ModelPolicy
	for rows.Next() {
		var p ModelPolicy
		var pinnedInt int
		if err := rows.Scan(&p.Key, &pinnedInt, &p.Priority, &p.Note); err != nil {
			return nil, err
		}
		p.Pinned = pinnedInt != 0
		out = append(out, p)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
