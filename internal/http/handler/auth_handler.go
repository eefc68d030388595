package handler

import (
	"net/http"
	"time"

	"github.com/sandeepkv93/bearer-auth-api/internal/http/middleware"
	"github.com/sandeepkv93/bearer-auth-api/internal/http/response"
	"github.com/sandeepkv93/bearer-auth-api/internal/observability"
	"github.com/sandeepkv93/bearer-auth-api/internal/service"
)

type AuthHandler struct {
	authSvc service.AuthServiceInterface
}

func NewAuthHandler(authSvc service.AuthServiceInterface) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "register", status, time.Since(start))
	}()

	var req registerRequest
	err := decodeJSON(r, &req)
	var result *service.AuthResult
	if err == nil {
		result, err = h.authSvc.Register(r.Context(), service.RegisterInput{Name: req.Name, Email: req.Email, Password: req.Password})
	}
	if err != nil {
		status = outcomeOf(err)
		observability.RecordAuthRegister(r.Context(), status)
		observability.Audit(r, observability.AuditInput{EventName: "auth.register.failed", Outcome: "failure", Reason: status})
		writeServiceError(w, r, err, "registration", "Registration failed. Please try again.")
		return
	}

	observability.RecordAuthRegister(r.Context(), status)
	observability.Audit(r, observability.AuditInput{
		EventName:   "auth.register.success",
		ActorUserID: userIDString(result.User.ID),
		Outcome:     "success",
	})
	response.Success(w, r, http.StatusCreated, "User registered successfully", map[string]any{
		"user":         summaryView(result.User),
		"access_token": result.AccessToken,
		"token_type":   result.TokenType,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "login", status, time.Since(start))
	}()

	var req loginRequest
	err := decodeJSON(r, &req)
	var result *service.AuthResult
	if err == nil {
		result, err = h.authSvc.Login(r.Context(), service.LoginInput{Email: req.Email, Password: req.Password})
	}
	if err != nil {
		status = outcomeOf(err)
		observability.RecordAuthLogin(r.Context(), status)
		observability.Audit(r, observability.AuditInput{EventName: "auth.login.failed", Outcome: "failure", Reason: status})
		writeServiceError(w, r, err, "login", "Login failed. Please try again.")
		return
	}

	observability.RecordAuthLogin(r.Context(), status)
	observability.Audit(r, observability.AuditInput{
		EventName:   "auth.login.success",
		ActorUserID: userIDString(result.User.ID),
		Outcome:     "success",
	})
	response.Success(w, r, http.StatusOK, "Login successful", map[string]any{
		"user":         summaryView(result.User),
		"access_token": result.AccessToken,
		"token_type":   result.TokenType,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "logout", status, time.Since(start))
	}()

	p, ok := principalOrUnauthorized(w, r)
	if !ok {
		status = "unauthenticated"
		observability.RecordAuthLogout(r.Context(), status)
		return
	}
	if err := h.authSvc.Logout(r.Context(), *p); err != nil {
		status = outcomeOf(err)
		observability.RecordAuthLogout(r.Context(), status)
		observability.Audit(r, observability.AuditInput{
			EventName:   "auth.logout.failed",
			ActorUserID: userIDString(p.UserID),
			Outcome:     "failure",
			Reason:      status,
		})
		writeServiceError(w, r, err, "logout", "Logout failed. Please try again.")
		return
	}

	observability.RecordAuthLogout(r.Context(), status)
	observability.Audit(r, observability.AuditInput{
		EventName:   "auth.logout.success",
		ActorUserID: userIDString(p.UserID),
		Outcome:     "success",
	}, "token_id", p.TokenID)
	response.Success(w, r, http.StatusOK, "Logged out successfully", nil)
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	p, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}
	u, err := h.authSvc.Profile(r.Context(), p.UserID)
	if err != nil {
		observability.RecordUserProfileEvent(r.Context(), "get", outcomeOf(err))
		writeServiceError(w, r, err, "profile fetch", "Failed to fetch profile")
		return
	}
	observability.RecordUserProfileEvent(r.Context(), "get", "success")
	response.Success(w, r, http.StatusOK, "Profile retrieved successfully", map[string]any{"user": profileView(u)})
}

// ValidateToken reports on the token the middleware already accepted. It has no
// side effect beyond the last-used timestamp written during authentication.
func (h *AuthHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	p, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}
	if p.User == nil {
		u, err := h.authSvc.ValidateToken(r.Context(), middleware.BearerToken(r))
		if err != nil {
			writeServiceError(w, r, err, "token validation", "Token validation failed")
			return
		}
		p.User = u
	}
	response.Success(w, r, http.StatusOK, "Token is valid", map[string]any{"user": identityView(p.User)})
}
