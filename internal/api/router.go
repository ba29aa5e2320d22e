package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/pdf2speech/internal/api/handlers"
	"github.com/nikhilbhutani/pdf2speech/internal/api/middleware"
	"github.com/nikhilbhutani/pdf2speech/internal/auth"
	"github.com/nikhilbhutani/pdf2speech/internal/cache"
	"github.com/nikhilbhutani/pdf2speech/internal/config"
	"github.com/nikhilbhutani/pdf2speech/internal/narration"
	"github.com/nikhilbhutani/pdf2speech/internal/queue"
	"github.com/nikhilbhutani/pdf2speech/internal/storage"
)

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
	queue *queue.Client
	jwt   *auth.JWTMiddleware
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config, qc *queue.Client) *Router {
	return &Router{
		mux:   chi.NewRouter(),
		db:    db,
		redis: rdb,
		cfg:   cfg,
		queue: qc,
		jwt:   auth.NewJWTMiddleware(cfg.Auth.JWTSecret),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.db, rt.redis, rt.cfg.TTS.Backend)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	store := storage.NewSupabaseStorage(rt.cfg.Storage.SupabaseURL, rt.cfg.Storage.SupabaseKey)
	narrationSvc := narration.NewService(rt.db, store, rt.cfg.Storage.Bucket)
	progress := narration.NewProgressTracker(cache.NewCache(rt.redis))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.jwt.Authenticate)

		narrationH := handlers.NewNarrationHandler(narrationSvc, rt.queue, progress)
		r.Route("/narrations", func(r chi.Router) {
			r.Post("/", narrationH.Create)
			r.Get("/", narrationH.List)
			r.Get("/{id}", narrationH.Get)
			r.Get("/{id}/artifacts", narrationH.Artifacts)
		})
	})

	return r
}
