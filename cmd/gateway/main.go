package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/OPS-PIvers/Doc2LMS/internal/api/http"
	"github.com/OPS-PIvers/Doc2LMS/internal/artifact"
	"github.com/OPS-PIvers/Doc2LMS/internal/auth"
	"github.com/OPS-PIvers/Doc2LMS/internal/blocks"
	"github.com/OPS-PIvers/Doc2LMS/internal/config"
	"github.com/OPS-PIvers/Doc2LMS/internal/convert"
	"github.com/OPS-PIvers/Doc2LMS/internal/db"
	"github.com/OPS-PIvers/Doc2LMS/internal/storage"

	_ "github.com/OPS-PIvers/Doc2LMS/internal/export/blackboard"
	_ "github.com/OPS-PIvers/Doc2LMS/internal/export/imscc"
	_ "github.com/OPS-PIvers/Doc2LMS/internal/export/moodle"
	_ "github.com/OPS-PIvers/Doc2LMS/internal/export/qti2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	artifacts := artifact.NewStore(dbh, bs)
	svc := convert.NewService(artifacts, logger)
	sources := blocks.NewRegistry()
	authSvc := auth.NewService(cfg.AuthSecret, cfg.AdminUser, cfg.AdminPassHash)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc))
	r.Get("/formats", api.FormatsHandler())

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.With(auth.RequireRole("admin")).Post("/convert", api.ConvertHandler(svc, sources, cfg.DefaultFormat))
		pr.Get("/artifacts", api.ListArtifactsHandler(artifacts))
		pr.Get("/artifacts/{id}/download", api.DownloadHandler(artifacts))
	})

	logger.Info("gateway listening", "addr", cfg.HTTPAddr, "mode", string(cfg.Mode))
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatalf("http server: %v", err)
	}
}
