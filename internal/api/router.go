package api

import (
	"net/http"
	"time"

	"taskboard/internal/api/handler"
	"taskboard/internal/api/middleware"
	"taskboard/internal/app/service"
	"taskboard/internal/common"
	"taskboard/internal/common/security"
	"taskboard/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	FrontendOrigin string
	Debug          bool // include internal error detail in responses
	RequestTimeout time.Duration
}

func NewRouter(
	opts Options,
	authService *service.AuthService,
	identityService *service.IdentityService,
	taskService *service.TaskService,
	transport *security.CookieTransport,
	limiter *middleware.RateLimiter,
) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.Logging(logger.Get(), "/health", "/metrics"))
	r.Use(middleware.Recovery(logger.Get()))
	r.Use(middleware.Metrics)
	r.Use(chiMiddleware.Timeout(opts.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{opts.FrontendOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chiMiddleware.SetHeader("X-Content-Type-Options", "nosniff"))
	r.Use(chiMiddleware.SetHeader("X-Frame-Options", "DENY"))
	r.Use(chiMiddleware.SetHeader("Referrer-Policy", "no-referrer"))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	authenticate := middleware.Authenticator(identityService, opts.Debug)

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler := handler.NewAuthHandler(authService, transport, opts.Debug)
		v1.Route("/auth", func(ar chi.Router) {
			authHandler.RegisterRoutes(ar, authenticate, limiter.Limit("auth"))
		})

		taskHandler := handler.NewTaskHandler(taskService, opts.Debug)
		v1.Route("/tasks", func(tr chi.Router) {
			tr.Use(authenticate)
			taskHandler.RegisterRoutes(tr)
		})
	})

	return r
}
