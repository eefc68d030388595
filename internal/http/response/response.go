package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	MessageValidationFailed = "Validation failed"
	MessageUnauthenticated  = "Unauthenticated."
	MessageNotFound         = "Endpoint not found"
	MessageMethodNotAllowed = "Method not allowed"
)

type SuccessEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type ErrorEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Errors  any    `json:"errors"`
}

// JSON writes v as the body with the given status. It is used directly for
// probe payloads that sit outside the success/error envelope.
func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	if reqID := chimiddleware.GetReqID(r.Context()); reqID != "" {
		w.Header().Set(chimiddleware.RequestIDHeader, reqID)
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.WarnContext(r.Context(), "response encode failed", "error", err, "status", status)
	}
}

// Success writes the success envelope. A nil data payload is sent as {}.
func Success(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	if data == nil {
		data = struct{}{}
	}
	JSON(w, r, status, SuccessEnvelope{Status: StatusSuccess, Message: message, Data: data})
}

// Error writes the error envelope. errs is usually a field→messages map or nil.
func Error(w http.ResponseWriter, r *http.Request, status int, message string, errs any) {
	JSON(w, r, status, ErrorEnvelope{Status: StatusError, Message: message, Errors: errs})
}

func ValidationFailed(w http.ResponseWriter, r *http.Request, fields map[string][]string) {
	Error(w, r, http.StatusUnprocessableEntity, MessageValidationFailed, fields)
}

func Unauthorized(w http.ResponseWriter, r *http.Request) {
	Error(w, r, http.StatusUnauthorized, MessageUnauthenticated, nil)
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	Error(w, r, http.StatusNotFound, MessageNotFound, nil)
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Error(w, r, http.StatusMethodNotAllowed, MessageMethodNotAllowed, nil)
}
