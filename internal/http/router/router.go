package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sandeepkv93/bearer-auth-api/internal/health"
	"github.com/sandeepkv93/bearer-auth-api/internal/http/handler"
	"github.com/sandeepkv93/bearer-auth-api/internal/http/middleware"
	"github.com/sandeepkv93/bearer-auth-api/internal/http/response"
	"github.com/sandeepkv93/bearer-auth-api/internal/service"
)

type Dependencies struct {
	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	Authenticator  service.Authenticator
	CORSOrigins    []string
	BodyLimitBytes int64
	RequestTimeout time.Duration
	Readiness      *health.ProbeRunner
	EnableOTelHTTP bool
}

func NewRouter(dep Dependencies) http.Handler {
	bodyLimit := dep.BodyLimitBytes
	if bodyLimit <= 0 {
		bodyLimit = 1 << 20
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(bodyLimit))
	r.Use(middleware.Timeout(dep.RequestTimeout))

	r.NotFound(response.NotFound)
	r.MethodNotAllowed(response.MethodNotAllowed)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.JSON(w, r, http.StatusServiceUnavailable, map[string]any{"status": "unready", "checks": results})
	})

	r.Post("/register", dep.AuthHandler.Register)
	r.Post("/login", dep.AuthHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(dep.Authenticator))
		r.Post("/logout", dep.AuthHandler.Logout)
		r.Get("/profile", dep.AuthHandler.Profile)
		r.Put("/profile", dep.UserHandler.UpdateProfile)
		r.Get("/validate-token", dep.AuthHandler.ValidateToken)
		r.Post("/change-password", dep.UserHandler.ChangePassword)
		r.Get("/user", dep.UserHandler.User)
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
