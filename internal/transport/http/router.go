package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/studyhub-api/internal/application/account"
	"github.com/studyhub-api/internal/application/material"
	"github.com/studyhub-api/internal/application/registration"
	"github.com/studyhub-api/internal/config"
	"github.com/studyhub-api/internal/domain"
	jwtinfra "github.com/studyhub-api/internal/infrastructure/jwt"
	"github.com/studyhub-api/internal/transport/http/handler"
	"github.com/studyhub-api/internal/transport/http/middleware"
)

// Deps bundles everything the router needs.
type Deps struct {
	Config       *config.Config
	JWTProvider  *jwtinfra.Provider
	Registration registration.Service
	Accounts     account.Service
	Materials    material.Service
}

// NewRouter wires every route. Public auth endpoints sit behind a per-IP rate
// limiter; everything under the bearer group requires a valid JWT.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	regHandler := handler.NewRegistrationHandler(deps.Registration)
	accHandler := handler.NewAccountHandler(deps.Accounts)
	matHandler := handler.NewMaterialHandler(deps.Materials, deps.Accounts)
	healthHandler := handler.NewHealthHandler()

	auth := middleware.Auth(deps.JWTProvider)
	sensitiveRL := middleware.NewRateLimiter(rate.Limit(5), 10)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthHandler.Check)

		// Public auth endpoints, one set per role. Registered flat so the
		// faculty prefix stays free for the protected material routes below.
		for role, prefix := range map[string]string{
			domain.RoleStudent: "/students",
			domain.RoleFaculty: "/faculty",
		} {
			r.With(sensitiveRL.Limit).Post(prefix+"/signup", regHandler.Signup(role))
			r.With(sensitiveRL.Limit).Post(prefix+"/verify-otp", regHandler.VerifyOTP(role))
			r.With(sensitiveRL.Limit).Post(prefix+"/send-otp", regHandler.SendOTP(role))
			r.With(sensitiveRL.Limit).Post(prefix+"/login", accHandler.Login(role))
		}

		// Public catalog: students browse and download without a token.
		r.Get("/materials", matHandler.List)
		r.Get("/materials/{id}/download", matHandler.DownloadPublic)

		// Bearer-protected profile routes, any role.
		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Get("/profile", accHandler.Profile)
			r.Put("/profile", accHandler.Update)
			r.Delete("/profile", accHandler.Delete)
			r.Post("/profile/asset", accHandler.AttachAsset)
		})

		// Faculty-only material management.
		r.Group(func(r chi.Router) {
			r.Use(auth, middleware.RequireRole(domain.RoleFaculty))
			r.Post("/materials", matHandler.Upload)
			r.Delete("/materials/{id}", matHandler.Delete)
			r.Get("/faculty/materials", matHandler.ListOwn)
			r.Get("/faculty/materials/{id}/download", matHandler.DownloadOwn)
		})
	})

	return r
}
