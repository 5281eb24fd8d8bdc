package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/crucial707/booktrack/internal/auth"
	"github.com/crucial707/booktrack/internal/catalog"
	"github.com/crucial707/booktrack/internal/config"
	"github.com/crucial707/booktrack/internal/events"
	"github.com/crucial707/booktrack/internal/handlers"
	"github.com/crucial707/booktrack/internal/middleware"
	"github.com/crucial707/booktrack/internal/repo"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// services are the optional collaborators main builds from config.
// Zero values fall back to the plain catalog client and no events.
type services struct {
	Search catalog.Searcher
	Events events.Publisher
}

func newRouter(sqlDB *sql.DB, cfg config.Config, svc services) http.Handler {
	if svc.Search == nil {
		svc.Search = catalog.NewClient(cfg.CatalogURL, cfg.CatalogAPIKey, cfg.CatalogTimeout)
	}
	if svc.Events == nil {
		svc.Events = events.Nop{}
	}

	tokens := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL())
	libraryRepo := repo.NewLibraryRepo(sqlDB)

	authHandler := &handlers.AuthHandler{
		Users:      repo.NewUserRepo(sqlDB),
		Tokens:     tokens,
		BcryptCost: cfg.BcryptCost,
	}
	libraryHandler := &handlers.LibraryHandler{Repo: libraryRepo, Events: svc.Events}
	catalogHandler := &handlers.CatalogHandler{Search: svc.Search}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	r.Get("/ready", readyHandler(sqlDB))
	r.Handle("/metrics", promhttp.Handler())

	authed := middleware.Auth(tokens)
	limiter := middleware.AuthRateLimiter()

	r.Route("/auth", func(r chi.Router) {
		r.With(limiter.Middleware).Post("/register", authHandler.Register)
		r.With(limiter.Middleware).Post("/login", authHandler.Login)
		r.With(authed).Get("/me", authHandler.Me)
	})

	r.Route("/books", func(r chi.Router) {
		r.Use(authed)
		r.Get("/", libraryHandler.ListBooks)
		r.Post("/", libraryHandler.AddBook)
		r.Get("/{id}", libraryHandler.GetBook)
		r.Put("/{id}", libraryHandler.UpdateStatus)
		r.Delete("/{id}", libraryHandler.DeleteBook)
	})

	r.With(authed).Get("/catalog/search", catalogHandler.SearchBooks)

	return r
}

func readyHandler(sqlDB *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := sqlDB.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	}
}
