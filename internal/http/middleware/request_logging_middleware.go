package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// requestLog collects fields discovered deeper in the chain, such as the
// authenticated user, for the single access log line.
type requestLog struct {
	userID uint
}

func annotateRequestLog(ctx context.Context, userID uint) {
	if rl, ok := ctx.Value(requestLogContextKey).(*requestLog); ok {
		rl.userID = userID
	}
}

// StructuredRequestLogger emits one structured log line per request using slog.
// 5xx logs at error, 4xx at warn, health probes at debug.
func StructuredRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		rl := &requestLog{}
		r = r.WithContext(context.WithValue(r.Context(), requestLogContextKey, rl))

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		routePattern := ""
		if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
			routePattern = routeCtx.RoutePattern()
		}

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"route", routePattern,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", float64(time.Since(start).Microseconds()) / 1000.0,
			"request_id", chimiddleware.GetReqID(r.Context()),
			"client_ip", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		}
		if rl.userID != 0 {
			attrs = append(attrs, "user_id", rl.userID)
		}

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		case strings.HasPrefix(r.URL.Path, "/health/"):
			level = slog.LevelDebug
		}
		slog.Log(r.Context(), level, "http.request", attrs...)
	})
}
