package handler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/sandeepkv93/bearer-auth-api/internal/service"
)

func TestOutcomeOfMatchesResponseStatus(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{err: nil, want: "success"},
		{err: service.NewFieldError("email", "The email field is required."), want: "validation_error"},
		{err: errBodyTooLarge, want: "validation_error"},
		{err: service.ErrCurrentPasswordIncorrect, want: "wrong_current_password"},
		{err: service.ErrInvalidCredentials, want: "invalid_credentials"},
		{err: fmt.Errorf("logout: %w", service.ErrInvalidToken), want: "unauthenticated"},
		{err: service.ErrEmailTaken, want: "conflict"},
		{err: service.ErrUserNotFound, want: "not_found"},
		{err: errors.New("db down"), want: "error"},
	}
	for _, tc := range cases {
		if got := outcomeOf(tc.err); got != tc.want {
			t.Fatalf("outcomeOf(%v)=%q want %q", tc.err, got, tc.want)
		}
	}
}
