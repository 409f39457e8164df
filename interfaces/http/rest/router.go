package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"hr-backend/interfaces/http/rest/handlers"
	"hr-backend/interfaces/http/rest/middleware"
	"hr-backend/pkg/auth"
	apperrors "hr-backend/pkg/errors"
	"hr-backend/pkg/observability"
)

// RouterOptions toggles the optional parts of the HTTP surface.
type RouterOptions struct {
	EnableCORS     bool
	AllowedOrigins []string
}

// Router creates and configures the HTTP router.
type Router struct {
	resources []handlers.Resource
	authH     *handlers.AuthHandler
	admin     *handlers.AdminHandler
	health    *handlers.HealthHandler
	jwt       *auth.JWTService
	metrics   *observability.Collector
	errors    *apperrors.ErrorHandler
	logger    *zap.Logger
	opts      RouterOptions
}

// NewRouter creates a router. jwt and authH may be nil, which leaves /api
// unauthenticated and the /api/auth routes unmounted; metrics may be nil.
func NewRouter(
	resources []handlers.Resource,
	authH *handlers.AuthHandler,
	admin *handlers.AdminHandler,
	health *handlers.HealthHandler,
	jwt *auth.JWTService,
	metrics *observability.Collector,
	errs *apperrors.ErrorHandler,
	logger *zap.Logger,
	opts RouterOptions,
) *Router {
	return &Router{
		resources: resources,
		authH:     authH,
		admin:     admin,
		health:    health,
		jwt:       jwt,
		metrics:   metrics,
		errors:    errs,
		logger:    logger,
		opts:      opts,
	}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Metrics(rt.metrics))
	router.Use(rt.errors.Middleware)

	if rt.opts.EnableCORS {
		origins := rt.opts.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.Handle(w, r, apperrors.NewNotFoundError("route"))
	})

	router.Get("/health", rt.health.Health)
	router.Get("/ready", rt.health.Ready)
	if rt.metrics != nil {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	router.Route("/api", func(r chi.Router) {
		if rt.jwt != nil && rt.authH != nil {
			r.With(middleware.Authenticate(rt.jwt, auth.TokenRefresh, rt.errors)).
				Post("/auth/refresh", rt.authH.Refresh)
		}

		r.Group(func(r chi.Router) {
			if rt.jwt != nil {
				r.Use(middleware.Authenticate(rt.jwt, auth.TokenAccess, rt.errors))
				if rt.authH != nil {
					r.Get("/auth/me", rt.authH.Me)
				}
				// Admin routes exist only behind authentication.
				if rt.admin != nil {
					r.Post("/admin/cache/flush", rt.admin.FlushCache)
				}
			}

			for _, res := range rt.resources {
				r.Route(res.Pattern(), res.Routes)
			}
		})
	})

	return router
}
