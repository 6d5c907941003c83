package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/haikunft/internal/api/middleware"
	"github.com/eldtechnologies/haikunft/internal/handlers"
)

// maxBodyBytes bounds request bodies; byte arrays serialized as JSON numbers
// are several times larger than the bytes they carry.
const maxBodyBytes = 64 * 1024

// RouterConfig configures optional router features.
type RouterConfig struct {
	// Redis enables rate limiting when non-nil.
	Redis     *redis.Client
	RateLimit middleware.RateLimiterConfig
}

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, h *handlers.Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.JSONBody(maxBodyBytes))

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	if cfg.Redis != nil {
		limiter := middleware.NewRateLimiter(cfg.Redis, logger, cfg.RateLimit)
		r.Use(limiter.Middleware)
	} else {
		logger.Warn().Msg("REDIS_URL not set, rate limiting disabled")
	}

	// CORS - wallets call from any origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Get("/stats", h.Stats)
	r.Get("/mints/{id}", h.ListMints)

	// Signed routes; each handler runs the admission gate itself.
	r.Post("/get-haiku", h.GetHaiku)
	r.Post("/generate-ai-prompt", h.GenerateAIPrompt)
	r.Post("/get-ai-prompt", h.GetAIPrompt)
	r.Post("/set-haiku", h.SetHaiku)
	r.Post("/generate-haiku-media", h.GenerateHaikuMedia)

	return r
}
