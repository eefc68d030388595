package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sandeepkv93/bearer-auth-api/internal/domain"
	"github.com/sandeepkv93/bearer-auth-api/internal/http/middleware"
	"github.com/sandeepkv93/bearer-auth-api/internal/http/response"
	"github.com/sandeepkv93/bearer-auth-api/internal/service"
)

const (
	msgInvalidCredentials   = "Invalid login credentials"
	msgCurrentPasswordWrong = "Current password is incorrect"
	msgEmailTaken           = "The email has already been taken."
	msgUserNotFound         = "User not found"
	msgBodyTooLarge         = "Request body too large"
)

var errBodyTooLarge = errors.New("request body too large")

// decodeJSON reads a JSON object into dst. An empty body leaves dst zeroed so the
// service reports the missing fields; malformed JSON becomes a "body" field error.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.As(err, &maxBytesErr):
			return errBodyTooLarge
		default:
			return service.NewFieldError("body", "The request body must be a valid JSON object.")
		}
	}
	return nil
}

// writeServiceError maps service errors onto the envelope. Anything unrecognised is
// logged with the request id and answered with the operation's generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, op, fallback string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		response.ValidationFailed(w, r, verr.Fields)
	case errors.Is(err, errBodyTooLarge):
		response.Error(w, r, http.StatusRequestEntityTooLarge, msgBodyTooLarge, nil)
	case errors.Is(err, service.ErrCurrentPasswordIncorrect):
		response.Error(w, r, http.StatusUnprocessableEntity, msgCurrentPasswordWrong, nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, r, http.StatusUnauthorized, msgInvalidCredentials, nil)
	case errors.Is(err, service.ErrInvalidToken):
		response.Unauthorized(w, r)
	case errors.Is(err, service.ErrEmailTaken):
		response.Error(w, r, http.StatusConflict, msgEmailTaken, map[string][]string{"email": {msgEmailTaken}})
	case errors.Is(err, service.ErrUserNotFound):
		response.Error(w, r, http.StatusNotFound, msgUserNotFound, nil)
	default:
		slog.ErrorContext(r.Context(), op+" failed",
			"error", err,
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
		response.Error(w, r, http.StatusInternalServerError, fallback, nil)
	}
}

// outcomeOf is the low-cardinality metric label for a handler error.
func outcomeOf(err error) string {
	var verr *service.ValidationError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &verr), errors.Is(err, errBodyTooLarge):
		return "validation_error"
	case errors.Is(err, service.ErrCurrentPasswordIncorrect):
		return "wrong_current_password"
	case errors.Is(err, service.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, service.ErrEmailTaken):
		return "conflict"
	case errors.Is(err, service.ErrInvalidToken):
		return "unauthenticated"
	case errors.Is(err, service.ErrUserNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func principalOrUnauthorized(w http.ResponseWriter, r *http.Request) (*service.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, r)
		return nil, false
	}
	return p, true
}

func userIDString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

type userSummary struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type userProfile struct {
	ID              uint       `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type userIdentity struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type userUpdated struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	UpdatedAt time.Time `json:"updated_at"`
}

func summaryView(u *domain.User) userSummary {
	return userSummary{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

func profileView(u *domain.User) userProfile {
	return userProfile{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		EmailVerifiedAt: u.EmailVerifiedAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func identityView(u *domain.User) userIdentity {
	return userIdentity{ID: u.ID, Name: u.Name, Email: u.Email}
}

func updatedView(u *domain.User) userUpdated {
	return userUpdated{ID: u.ID, Name: u.Name, Email: u.Email, UpdatedAt: u.UpdatedAt}
}
