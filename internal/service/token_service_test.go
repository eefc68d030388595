package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/mock/gomock"

	"github.com/sandeepkv93/bearer-auth-api/internal/domain"
	"github.com/sandeepkv93/bearer-auth-api/internal/repository"
	repogomock "github.com/sandeepkv93/bearer-auth-api/internal/repository/gomock"
	"github.com/sandeepkv93/bearer-auth-api/internal/security"
)

func TestTokenServiceIssueStoresDigestOnly(t *testing.T) {
	ctx := context.Background()
	fx := newAuthServiceFixture(t)
	u := fx.seedUser(t, "Ann", "ann@x.io", fixturePassword)

	plaintext, token, err := fx.tokenSvc.Issue(ctx, u.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, secret, err := security.SplitBearerToken(plaintext)
	if err != nil {
		t.Fatalf("split issued token: %v", err)
	}
	if id != token.ID {
		t.Fatalf("plaintext id %q does not match record %q", id, token.ID)
	}
	if len(secret) != security.TokenSecretLength {
		t.Fatalf("expected %d char secret, got %d", security.TokenSecretLength, len(secret))
	}

	stored, err := fx.tokens.FindByID(ctx, token.ID)
	if err != nil {
		t.Fatalf("find stored token: %v", err)
	}
	if stored.TokenHash == secret || strings.Contains(stored.TokenHash, secret) {
		t.Fatal("plaintext secret must not be persisted")
	}
	if stored.TokenHash != security.HashTokenSecret(secret) {
		t.Fatal("stored digest does not match secret")
	}
	if stored.Name != domain.DefaultAccessTokenName {
		t.Fatalf("expected token name %q, got %q", domain.DefaultAccessTokenName, stored.Name)
	}
}

func TestTokenServiceVerifyMatrix(t *testing.T) {
	ctx := context.Background()
	fx := newAuthServiceFixture(t)
	u := fx.seedUser(t, "Ann", "ann@x.io", fixturePassword)
	plaintext, token, err := fx.tokenSvc.Issue(ctx, u.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, secret, _ := security.SplitBearerToken(plaintext)
	otherSecret, err := security.NewTokenSecret()
	if err != nil {
		t.Fatalf("secret: %v", err)
	}

	cases := []struct {
		name      string
		presented string
	}{
		{name: "empty", presented: ""},
		{name: "no separator", presented: token.ID + secret},
		{name: "non uuid id", presented: "42|" + secret},
		{name: "unknown id", presented: security.FormatBearerToken(uuid.NewString(), secret)},
		{name: "wrong secret", presented: security.FormatBearerToken(token.ID, otherSecret)},
		{name: "truncated secret", presented: security.FormatBearerToken(token.ID, secret[:10])},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := fx.tokenSvc.Verify(ctx, tc.presented); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}

	t.Run("valid token updates last used", func(t *testing.T) {
		got, err := fx.tokenSvc.Verify(ctx, plaintext)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if got.UserID != u.ID {
			t.Fatalf("expected owner %d, got %d", u.ID, got.UserID)
		}
		stored, err := fx.tokens.FindByID(ctx, token.ID)
		if err != nil {
			t.Fatalf("reload: %v", err)
		}
		if stored.LastUsedAt == nil {
			t.Fatal("expected last_used_at to be set")
		}
	})
}

func TestTokenServiceExpiry(t *testing.T) {
	ctx := context.Background()
	fx := newAuthServiceFixture(t)
	u := fx.seedUser(t, "Ann", "ann@x.io", fixturePassword)

	svc := NewTokenService(fx.tokens, time.Hour)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	plaintext, _, err := svc.Issue(ctx, u.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	svc.now = func() time.Time { return base.Add(59 * time.Minute) }
	if _, err := svc.Verify(ctx, plaintext); err != nil {
		t.Fatalf("expected token valid within ttl: %v", err)
	}
	svc.now = func() time.Time { return base.Add(61 * time.Minute) }
	if _, err := svc.Verify(ctx, plaintext); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token rejected, got %v", err)
	}

	forever := NewTokenService(fx.tokens, 0)
	forever.now = func() time.Time { return base.Add(24 * 365 * time.Hour) }
	if _, err := forever.Verify(ctx, plaintext); err != nil {
		t.Fatalf("zero ttl must never expire: %v", err)
	}
}

func TestTokenServiceVerifyStoreFailures(t *testing.T) {
	ctx := context.Background()
	secret, err := security.NewTokenSecret()
	if err != nil {
		t.Fatalf("secret: %v", err)
	}
	id := uuid.NewString()
	plaintext := security.FormatBearerToken(id, secret)

	t.Run("lookup failure is not an auth failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := repogomock.NewMockAccessTokenStore(ctrl)
		down := errors.New("store down")
		store.EXPECT().FindByID(gomock.Any(), id).Return(nil, down)

		_, err := NewTokenService(store, 0).Verify(ctx, plaintext)
		if !errors.Is(err, down) || errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected wrapped store error, got %v", err)
		}
	})

	t.Run("touch failure is only logged", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := repogomock.NewMockAccessTokenStore(ctrl)
		store.EXPECT().FindByID(gomock.Any(), id).Return(&domain.AccessToken{
			ID:        id,
			UserID:    9,
			TokenHash: security.HashTokenSecret(secret),
			CreatedAt: time.Now(),
		}, nil)
		store.EXPECT().TouchLastUsed(gomock.Any(), id, gomock.Any()).Return(errors.New("read only"))

		got, err := NewTokenService(store, 0).Verify(ctx, plaintext)
		if err != nil {
			t.Fatalf("verify should succeed despite touch failure: %v", err)
		}
		if got.LastUsedAt != nil {
			t.Fatal("last_used_at should stay unset when the touch failed")
		}
	})
}

func TestTokenServiceRevokeAndPrune(t *testing.T) {
	ctx := context.Background()
	fx := newAuthServiceFixture(t)
	ann := fx.seedUser(t, "Ann", "ann@x.io", fixturePassword)
	bob := fx.seedUser(t, "Bob", "bob@x.io", fixturePassword)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fx.tokenSvc.now = func() time.Time { return base }
	old, oldToken, err := fx.tokenSvc.Issue(ctx, ann.ID)
	if err != nil {
		t.Fatalf("issue old: %v", err)
	}
	fx.tokenSvc.now = func() time.Time { return base.Add(48 * time.Hour) }
	fresh, _, err := fx.tokenSvc.Issue(ctx, ann.ID)
	if err != nil {
		t.Fatalf("issue fresh: %v", err)
	}
	bobToken, _, err := fx.tokenSvc.Issue(ctx, bob.ID)
	if err != nil {
		t.Fatalf("issue bob: %v", err)
	}

	n, err := fx.tokenSvc.Prune(ctx, base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 pruned, got %d", n)
	}
	if _, err := fx.tokens.FindByID(ctx, oldToken.ID); !errors.Is(err, repository.ErrAccessTokenNotFound) {
		t.Fatalf("expected old token pruned, got %v", err)
	}
	if _, err := fx.tokenSvc.Verify(ctx, old); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected pruned token rejected, got %v", err)
	}

	n, err = fx.tokenSvc.RevokeAll(ctx, ann.ID)
	if err != nil || n != 1 {
		t.Fatalf("revoke all: n=%d err=%v", n, err)
	}
	if _, err := fx.tokenSvc.Verify(ctx, fresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected revoked token rejected, got %v", err)
	}
	if n, err := fx.tokenSvc.RevokeAll(ctx, ann.ID); err != nil || n != 0 {
		t.Fatalf("second revoke all should be a no-op: n=%d err=%v", n, err)
	}
	if _, err := fx.tokenSvc.Verify(ctx, bobToken); err != nil {
		t.Fatalf("other user's token must survive: %v", err)
	}
}

func TestTokenServiceRotateOnRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewTokenService(repository.NewRedisAccessTokenStore(client, "svc_test", 0), 0)
	first, _, err := svc.Issue(ctx, 7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, _, err := svc.Rotate(ctx, 7)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if _, err := svc.Verify(ctx, first); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected rotated-out token rejected, got %v", err)
	}
	if got, err := svc.Verify(ctx, second); err != nil || got.UserID != 7 {
		t.Fatalf("expected rotated token valid for user 7: %+v %v", got, err)
	}
}

func TestTokenServicePruneKeepsTokensIssuedOutsideUTC(t *testing.T) {
	ctx := context.Background()
	fx := newAuthServiceFixture(t)
	ann := fx.seedUser(t, "Ann", "ann@x.io", fixturePassword)

	eastern := time.FixedZone("EST", -5*60*60)
	fx.tokenSvc.now = func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, eastern) }
	plaintext, token, err := fx.tokenSvc.Issue(ctx, ann.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if token.CreatedAt.Location() != time.UTC {
		t.Fatalf("expected token stamped in UTC, got %v", token.CreatedAt)
	}

	n, err := fx.tokenSvc.Prune(ctx, time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected nothing pruned, got %d", n)
	}
	if _, err := fx.tokenSvc.Verify(ctx, plaintext); err != nil {
		t.Fatalf("expected token to stay valid: %v", err)
	}
}
