package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/portal-auth/internal/application/account"
	"github.com/portal-auth/internal/application/token"
	"github.com/portal-auth/internal/application/verification"
	"github.com/portal-auth/internal/config"
	"github.com/portal-auth/internal/transport/http/handler"
	appmiddleware "github.com/portal-auth/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds the services the router exposes.
type Deps struct {
	Tokens   token.Service
	Signer   token.Signer
	Codes    verification.Service
	Accounts account.Service
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.Tokens, deps.Signer)

	// 5 requests/second with a burst of 10 on the sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(deps.Tokens, deps.Codes, deps.Accounts)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)
		r.With(sensitiveRL.Limit).Post("/auth/login/code", authH.LoginWithCode)
		r.With(sensitiveRL.Limit).Post("/auth/codes", authH.SendCode)
		r.With(sensitiveRL.Limit).Post("/auth/password/reset", authH.ResetPassword)
		r.With(sensitiveRL.Limit).Post("/users", authH.Register)
		r.Post("/auth/refresh", authH.Refresh)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Post("/auth/logout", authH.Logout)
		})
	})

	return r
}
