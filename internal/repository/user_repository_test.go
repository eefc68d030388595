package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/sandeepkv93/bearer-auth-api/internal/domain"
)

func TestUserRepositoryCreateFindAndDuplicate(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &domain.User{Name: "Ann", Email: "ann@x.io", PasswordHash: "h1"}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("expected id assigned")
	}

	byEmail, err := repo.FindByEmail(ctx, "ann@x.io")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if byEmail.ID != u.ID || byEmail.PasswordHash != "h1" {
		t.Fatalf("unexpected user: %+v", byEmail)
	}

	dup := &domain.User{Name: "Other", Email: "ann@x.io", PasswordHash: "h2"}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	if _, err := repo.FindByID(ctx, 999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := repo.FindByEmail(ctx, "nobody@x.io"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound by email, got %v", err)
	}
}

func TestUserRepositoryUpdateProfile(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	ann := seedUserForTest(t, db, "ann@x.io")
	bob := seedUserForTest(t, db, "bob@x.io")

	updated, err := repo.UpdateProfile(ctx, ann.ID, map[string]any{"name": "Ann B"})
	if err != nil {
		t.Fatalf("update name: %v", err)
	}
	if updated.Name != "Ann B" || updated.Email != "ann@x.io" {
		t.Fatalf("unexpected updated user: %+v", updated)
	}

	unchanged, err := repo.UpdateProfile(ctx, ann.ID, nil)
	if err != nil {
		t.Fatalf("empty update: %v", err)
	}
	if unchanged.Name != "Ann B" {
		t.Fatalf("expected current row on empty update, got %+v", unchanged)
	}

	if _, err := repo.UpdateProfile(ctx, bob.ID, map[string]any{"email": "ann@x.io"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	reloaded, err := repo.FindByID(ctx, bob.ID)
	if err != nil {
		t.Fatalf("reload bob: %v", err)
	}
	if reloaded.Email != "bob@x.io" {
		t.Fatalf("expected bob unchanged, got %+v", reloaded)
	}

	if _, err := repo.UpdateProfile(ctx, 999, map[string]any{"name": "ghost"}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepositoryUpdatePasswordHash(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	u := seedUserForTest(t, db, "ann@x.io")

	if err := repo.UpdatePasswordHash(ctx, u.ID, "new-hash"); err != nil {
		t.Fatalf("update hash: %v", err)
	}
	got, err := repo.FindByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.PasswordHash != "new-hash" {
		t.Fatalf("expected new hash, got %q", got.PasswordHash)
	}
	if err := repo.UpdatePasswordHash(ctx, 999, "x"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepositoryDelete(t *testing.T) {
	repo := NewUserRepository(newRepositoryDBForTest(t))
	ctx := context.Background()

	u := &domain.User{Name: "Ann", Email: "ann@x.io", PasswordHash: "h1"}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Delete(ctx, u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByEmail(ctx, "ann@x.io"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected deleted user gone, got %v", err)
	}
	if err := repo.Create(ctx, &domain.User{Name: "Ann", Email: "ann@x.io", PasswordHash: "h2"}); err != nil {
		t.Fatalf("email should be reusable after delete: %v", err)
	}
	if err := repo.Delete(ctx, u.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
