package reactions

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// RouterConfig tunes the reactions router.
type RouterConfig struct {
	AllowedOrigins []string
	MaxRequests    int
	Window         time.Duration
}

// NewRouter creates a chi router with the reactions routes mounted. Reads
// are unthrottled; writes go through the rate limiter.
func NewRouter(store *Store, cfg RouterConfig, logger *slog.Logger) chi.Router {
	h := NewHandler(store, logger)
	limiter := NewRateLimiter(cfg.MaxRequests, cfg.Window)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Cookie", "Time-Zone"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	r.Use(Identity)

	r.Get("/{contentType}/{slug}", h.Get)
	r.With(limiter.Middleware).Post("/{contentType}/{slug}", h.Toggle)

	return r
}
