package policy

import (
	"context"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_UpsertAndGetPolicy(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := ModelPolicy{Key: "resnet50", Priority: 2, Pinned: true, Note: "keep warm for demo traffic"}
	if err := s.Upsert(ctx, p); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, ok, err := s.GetPolicy(ctx, "resnet50")
	if err != nil {
		t.Fatalf("GetPolicy: %v", err)
	}
	if !ok {
		t.Fatal("expected policy to exist")
	}
	if got != p {
		t.Fatalf("GetPolicy() = %+v, want %+v", got, p)
	}
}

func TestStore_UpsertOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_ = s.Upsert(ctx, ModelPolicy{Key: "m", Priority: 1})
	_ = s.Upsert(ctx, ModelPolicy{Key: "m", Priority: 5, Pinned: true})

	got, _, _ := s.GetPolicy(ctx, "m")
	if got.Priority != 5 || !got.Pinned {
		t.Fatalf("expected overwritten policy, got %+v", got)
	}
}

func TestStore_NotePersisted(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_ = s.Upsert(ctx, ModelPolicy{Key: "m", Note: "pin during demo week"})

	got, ok, _ := s.GetPolicy(ctx, "m")
	if !ok {
		t.Fatal("expected policy to exist")
	}
	if got.Note != "pin during demo week" {
		t.Fatalf("Note = %q, want %q", got.Note, "pin during demo week")
	}
}

func TestStore_DeletePolicy(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_ = s.Upsert(ctx, ModelPolicy{Key: "m"})
	if err := s.Delete(ctx, "m"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	_, ok, _ := s.GetPolicy(ctx, "m")
	if ok {
		t.Fatal("expected policy to be gone")
	}
}

func TestStore_ListPoliciesOrderedByKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_ = s.Upsert(ctx, ModelPolicy{Key: "zeta"})
	_ = s.Upsert(ctx, ModelPolicy{Key: "alpha"})

	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 2 || all[0].Key != "alpha" || all[1].Key != "zeta" {
		t.Fatalf("ListAll() = %+v, want alpha before zeta", all)
	}
}

func TestStore_APIKeyLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := APIKeyRecord{ID: "id1", Name: "ci", Prefix: "sk-abcd", HashedKey: "hash"}
	if err := s.CreateAPIKey(ctx, rec); err != nil {
		t.Fatalf("CreateAPIKey: %v", err)
	}

	got, ok, err := s.GetAPIKey(ctx, "id1")
	if err != nil || !ok {
		t.Fatalf("GetAPIKey: ok=%v err=%v", ok, err)
	}
	if got.Name != "ci" {
		t.Fatalf("GetAPIKey().Name = %q, want ci", got.Name)
	}

	if err := s.DeleteAPIKey(ctx, "id1"); err != nil {
		t.Fatalf("DeleteAPIKey: %v", err)
	}
	if _, ok, _ := s.GetAPIKey(ctx, "id1"); ok {
		t.Fatal("expected key to be gone")
	}
}

func TestStore_UserLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, UserRecord{Username: "admin", PasswordHash: "hash"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u, ok, err := s.GetUser(ctx, "admin")
	if err != nil || !ok {
		t.Fatalf("GetUser: ok=%v err=%v", ok, err)
	}
	if u.PasswordHash != "hash" {
		t.Fatalf("PasswordHash = %q, want hash", u.PasswordHash)
	}

	if err := s.UpdateUserPassword(ctx, "admin", "newhash"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}
	u, _, _ = s.GetUser(ctx, "admin")
	if u.PasswordHash != "newhash" {
		t.Fatalf("PasswordHash after update = %q, want newhash", u.PasswordHash)
	}
}
