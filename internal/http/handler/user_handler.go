package handler

import (
	"net/http"

	"github.com/sandeepkv93/bearer-auth-api/internal/domain"
	"github.com/sandeepkv93/bearer-auth-api/internal/http/response"
	"github.com/sandeepkv93/bearer-auth-api/internal/observability"
	"github.com/sandeepkv93/bearer-auth-api/internal/service"
)

type UserHandler struct {
	authSvc service.AuthServiceInterface
}

func NewUserHandler(authSvc service.AuthServiceInterface) *UserHandler {
	return &UserHandler{authSvc: authSvc}
}

// updateProfileRequest whitelists the mutable fields; anything else in the body,
// password included, is ignored.
type updateProfileRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type changePasswordRequest struct {
	CurrentPassword         string `json:"current_password"`
	NewPassword             string `json:"new_password"`
	NewPasswordConfirmation string `json:"new_password_confirmation"`
}

func (h *UserHandler) User(w http.ResponseWriter, r *http.Request) {
	p, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}
	u, err := h.authSvc.Profile(r.Context(), p.UserID)
	if err != nil {
		writeServiceError(w, r, err, "user fetch", "Failed to fetch user")
		return
	}
	response.Success(w, r, http.StatusOK, "User retrieved successfully", map[string]any{"user": profileView(u)})
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}
	var req updateProfileRequest
	err := decodeJSON(r, &req)
	var u *domain.User
	if err == nil {
		u, err = h.authSvc.UpdateProfile(r.Context(), p.UserID, service.ProfileUpdate{Name: req.Name, Email: req.Email})
	}
	if err != nil {
		outcome := outcomeOf(err)
		observability.RecordUserProfileEvent(r.Context(), "update", outcome)
		observability.Audit(r, observability.AuditInput{
			EventName:   "user.profile.update_failed",
			ActorUserID: userIDString(p.UserID),
			Outcome:     "failure",
			Reason:      outcome,
		})
		writeServiceError(w, r, err, "profile update", "Profile update failed")
		return
	}

	observability.RecordUserProfileEvent(r.Context(), "update", "success")
	observability.Audit(r, observability.AuditInput{
		EventName:   "user.profile.updated",
		ActorUserID: userIDString(p.UserID),
		Outcome:     "success",
	})
	response.Success(w, r, http.StatusOK, "Profile updated successfully", map[string]any{"user": updatedView(u)})
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}
	var req changePasswordRequest
	err := decodeJSON(r, &req)
	if err == nil {
		err = h.authSvc.ChangePassword(r.Context(), p.UserID, service.ChangePasswordInput{
			CurrentPassword:         req.CurrentPassword,
			NewPassword:             req.NewPassword,
			NewPasswordConfirmation: req.NewPasswordConfirmation,
		})
	}
	if err != nil {
		outcome := outcomeOf(err)
		observability.RecordPasswordChange(r.Context(), outcome)
		observability.Audit(r, observability.AuditInput{
			EventName:   "auth.password.change_failed",
			ActorUserID: userIDString(p.UserID),
			Outcome:     "failure",
			Reason:      outcome,
		})
		writeServiceError(w, r, err, "password change", "Password change failed")
		return
	}

	observability.RecordPasswordChange(r.Context(), "success")
	observability.Audit(r, observability.AuditInput{
		EventName:   "auth.password.changed",
		ActorUserID: userIDString(p.UserID),
		Outcome:     "success",
	})
	response.Success(w, r, http.StatusOK, "Password changed successfully", nil)
}
