package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sandeepkv93/bearer-auth-api/internal/domain"
	"github.com/sandeepkv93/bearer-auth-api/internal/observability"
	"github.com/sandeepkv93/bearer-auth-api/internal/repository"
	"github.com/sandeepkv93/bearer-auth-api/internal/security"
)

// TokenService issues, verifies and revokes opaque bearer tokens.
type TokenService struct {
	store repository.AccessTokenStore
	ttl   time.Duration
	now   func() time.Time
}

func NewTokenService(store repository.AccessTokenStore, ttl time.Duration) *TokenService {
	return &TokenService{store: store, ttl: ttl, now: time.Now}
}

// Issue stores a new token for userID and returns its plaintext form. It does not
// touch the user's other tokens.
func (s *TokenService) Issue(ctx context.Context, userID uint) (string, *domain.AccessToken, error) {
	token, plaintext, err := s.newToken(userID)
	if err != nil {
		return "", nil, err
	}
	if err := s.store.Create(ctx, token); err != nil {
		return "", nil, fmt.Errorf("store access token: %w", err)
	}
	return plaintext, token, nil
}

// Rotate revokes every token of userID and issues a fresh one in a single store operation.
func (s *TokenService) Rotate(ctx context.Context, userID uint) (string, *domain.AccessToken, error) {
	token, plaintext, err := s.newToken(userID)
	if err != nil {
		return "", nil, err
	}
	revoked, err := s.store.ReplaceForUser(ctx, token)
	if err != nil {
		return "", nil, fmt.Errorf("replace access tokens: %w", err)
	}
	observability.RecordTokenRevokedCount(ctx, "rotate", revoked)
	return plaintext, token, nil
}

// Verify resolves a presented "<id>|<secret>" token. Any mismatch is ErrInvalidToken;
// store failures are returned wrapped.
func (s *TokenService) Verify(ctx context.Context, presented string) (token *domain.AccessToken, err error) {
	ctx, span := observability.StartSpan(ctx, "token.verify")
	defer func() {
		if token != nil {
			span.SetAttributes(attribute.Int64("user.id", int64(token.UserID)))
		}
		if errors.Is(err, ErrInvalidToken) {
			span.SetAttributes(attribute.Bool("token.rejected", true))
			observability.EndSpan(span, nil)
			return
		}
		observability.EndSpan(span, err)
	}()
	return s.verify(ctx, presented)
}

func (s *TokenService) verify(ctx context.Context, presented string) (*domain.AccessToken, error) {
	id, secret, err := security.SplitBearerToken(presented)
	if err != nil {
		observability.RecordAccessTokenValidation(ctx, "rejected", "malformed")
		return nil, ErrInvalidToken
	}
	if _, err := uuid.Parse(id); err != nil {
		observability.RecordAccessTokenValidation(ctx, "rejected", "malformed")
		return nil, ErrInvalidToken
	}
	token, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAccessTokenNotFound) {
			observability.RecordAccessTokenValidation(ctx, "rejected", "not_found")
			return nil, ErrInvalidToken
		}
		observability.RecordAccessTokenValidation(ctx, "error", "store")
		return nil, fmt.Errorf("load access token: %w", err)
	}
	if !security.TokenDigestMatches(secret, token.TokenHash) {
		observability.RecordAccessTokenValidation(ctx, "rejected", "mismatch")
		return nil, ErrInvalidToken
	}
	now := s.now().UTC()
	if token.ExpiredAt(now, s.ttl) {
		observability.RecordAccessTokenValidation(ctx, "rejected", "expired")
		return nil, ErrInvalidToken
	}
	if err := s.store.TouchLastUsed(ctx, token.ID, now); err != nil {
		slog.WarnContext(ctx, "access token last_used_at update failed", "token_id", token.ID, "error", err)
	} else {
		token.LastUsedAt = &now
	}
	observability.RecordAccessTokenValidation(ctx, "accepted", "ok")
	return token, nil
}

func (s *TokenService) RevokeAll(ctx context.Context, userID uint) (int64, error) {
	n, err := s.store.DeleteByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke user tokens: %w", err)
	}
	observability.RecordTokenRevokedCount(ctx, "revoke_all", n)
	return n, nil
}

func (s *TokenService) RevokeOne(ctx context.Context, tokenID string) error {
	n, err := s.store.DeleteByID(ctx, tokenID)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	observability.RecordTokenRevokedCount(ctx, "revoke_one", n)
	return nil
}

// Prune deletes tokens issued before cutoff and reports how many went away.
func (s *TokenService) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.store.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune tokens: %w", err)
	}
	observability.RecordTokenRevokedCount(ctx, "prune", n)
	return n, nil
}

func (s *TokenService) newToken(userID uint) (*domain.AccessToken, string, error) {
	secret, err := security.NewTokenSecret()
	if err != nil {
		return nil, "", fmt.Errorf("generate token secret: %w", err)
	}
	now := s.now().UTC()
	token := &domain.AccessToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      domain.DefaultAccessTokenName,
		TokenHash: security.HashTokenSecret(secret),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return token, security.FormatBearerToken(token.ID, secret), nil
}
