// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the UnseenIndonesia API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"unseenindonesia/internal/cache"
	"unseenindonesia/internal/config"
	"unseenindonesia/internal/database"
	"unseenindonesia/internal/handlers"
	"unseenindonesia/internal/identity"
	"unseenindonesia/internal/middleware"
	"unseenindonesia/internal/router"
	"unseenindonesia/internal/session"
	"unseenindonesia/internal/storage"
	"unseenindonesia/internal/store"
	"unseenindonesia/internal/viewcount"
)

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: JSON in production, text in development.
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	if !cfg.IsDev() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN(), cfg.DBMaxConns)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed reference data and sample content (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (response cache + identity cache).
	startCtx, startCancel := context.WithTimeout(context.Background(), 10*time.Second)
	valkeyClient, err := cache.ConnectValkey(startCtx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	startCancel()
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Initialize data stores.
	remedyStore := store.NewRemedyStore(db)
	storyStore := store.NewStoryStore(db)
	profileStore := store.NewProfileStore(db)

	// The identity context resolves bearer tokens against the auth service
	// and keeps profiles in step with sign-ins.
	sessionCache := session.NewCache(valkeyClient, cfg.SessionSecret, 0)
	identityCtx := identity.New(identity.NewClient(cfg.AuthURL, cfg.AuthAnonKey), sessionCache)
	identityCtx.OnChange(identity.ProfileListener(profileStore))

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go identity.LogEvents(identityCtx.Watch(watchCtx, 64))

	views := viewcount.New(map[viewcount.Kind]viewcount.Incrementer{
		viewcount.Remedy: remedyStore,
		viewcount.Story:  storyStore,
	}, cfg.ViewCountWorkers, cfg.ViewCountQueue, 0)

	// Connect to S3-compatible object storage (optional, uploads answer 503 without it).
	var uploads handlers.Uploader
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicURL,
	)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		uploads = storageClient
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured, image uploads disabled")
	}

	api := handlers.NewAPI(handlers.Deps{
		Remedies:            remedyStore,
		Stories:             storyStore,
		Testimonials:        store.NewTestimonialStore(db),
		RemedyVerifications: store.NewVerificationStore(db),
		StoryVerifications:  store.NewStoryVerificationStore(db),
		Categories:          store.NewCategoryStore(db),
		Locations:           store.NewLocationStore(db),
		Cache:               cache.NewResponses(valkeyClient, 0),
		Views:               views,
		Uploads:             uploads,
		Map:                 handlers.MapConfig{Token: cfg.MapToken, Style: cfg.MapStyle},
		QueryTimeout:        cfg.DBQueryTimeout,
	})
	auth := handlers.NewAuth(identityCtx, profileStore, cfg.AuthCallbackURL(), !cfg.IsDev())

	limiter := middleware.NewRateLimiter(cfg.RateLimitWrites, time.Minute)
	defer limiter.Stop()

	// Set up the Chi router with all middleware and routes.
	r := router.New(identityCtx, limiter, api, auth)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	// Pending view increments get whatever is left of the deadline.
	if err := views.Close(ctx); err != nil {
		slog.Warn("view counter did not drain", "error", err)
	}

	slog.Info("server stopped gracefully")
}
