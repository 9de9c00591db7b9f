package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/practiceloop/dictation/internal/api/handlers"
	"github.com/practiceloop/dictation/internal/audio"
	"github.com/practiceloop/dictation/internal/catalog"
	"github.com/practiceloop/dictation/internal/config"
	"github.com/practiceloop/dictation/internal/history"
	"github.com/practiceloop/dictation/internal/sentences"
	"github.com/practiceloop/dictation/internal/session"
)

type Router struct {
	mux      *chi.Mux
	db       *pgxpool.Pool
	redis    *redis.Client
	cfg      *config.Config
	session  *session.Session
	catalog  *catalog.Catalog
	pipeline *audio.Pipeline
	store    *sentences.Store
	attempts *history.Service
	log      *slog.Logger
}

func NewRouter(
	db *pgxpool.Pool,
	rdb *redis.Client,
	cfg *config.Config,
	sess *session.Session,
	cat *catalog.Catalog,
	pipeline *audio.Pipeline,
	store *sentences.Store,
	attempts *history.Service,
	log *slog.Logger,
) *Router {
	return &Router{
		mux:      chi.NewRouter(),
		db:       db,
		redis:    rdb,
		cfg:      cfg,
		session:  sess,
		catalog:  cat,
		pipeline: pipeline,
		store:    store,
		attempts: attempts,
		log:      log,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         3600,
	}))
	r.Use(httprate.LimitByIP(100, time.Minute))

	// Health endpoints
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	languageH := handlers.NewLanguageHandler(rt.session, rt.catalog)
	audioH := handlers.NewAudioHandler(rt.pipeline, rt.session, rt.attempts, rt.log)
	sentenceH := handlers.NewSentenceHandler(rt.store, rt.session)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/languages", languageH.List)
		r.Post("/language", languageH.Switch)
		r.Get("/capability", languageH.Capability)
		r.Get("/sentence", sentenceH.Next)
		r.Post("/transcribe", audioH.Transcribe)
		r.Post("/synthesize", audioH.Synthesize)
		r.Get("/attempts", audioH.Attempts)
	})

	// Synthesized audio is fetched straight from the temp directory.
	fileServer := http.StripPrefix(rt.cfg.Audio.URLPrefix, http.FileServer(http.Dir(rt.cfg.Audio.TempDir)))
	r.Get(rt.cfg.Audio.URLPrefix+"/*", fileServer.ServeHTTP)

	return r
}
