package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"learnlens/internal/config"
	"learnlens/internal/database"
	"learnlens/internal/enrich"
	"learnlens/internal/filter"
	"learnlens/internal/handlers"
	"learnlens/internal/logger"
	"learnlens/internal/repository"
	"learnlens/internal/security"
	"learnlens/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Serve the startup status while the rest initializes
	startup := handlers.NewStartupStatus()
	bootMux := http.NewServeMux()
	bootMux.HandleFunc("GET /status", startup.ShowStartupStatus)
	boot := handlers.Logging(log, startup.RequireReady(bootMux))
	var app atomic.Pointer[http.Handler]
	app.Store(&boot)

	server := &http.Server{
		Addr: ":" + cfg.ServerPort,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			(*app.Load()).ServeHTTP(w, r)
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", "error", err)
		}
	}()

	startup.SetCurrentStep(handlers.StepDatabase)
	db, err := database.InitializeWithConfig(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize database", "error", err)
	}
	defer db.Close()
	startup.CompleteStep(handlers.StepDatabase)
	log.Info("database connection established", "type", cfg.DatabaseType)

	startup.SetCurrentStep(handlers.StepMigrations)
	if err := db.RunMigrations(); err != nil {
		log.Fatal("failed to run migrations", "error", err)
	}
	startup.CompleteStep(handlers.StepMigrations)

	startup.SetCurrentStep(handlers.StepTables)
	tables := enrich.DefaultTables()
	if cfg.TablesPath != "" {
		tables, err = enrich.LoadTables(cfg.TablesPath)
		if err != nil {
			log.Fatal("failed to load enrichment tables", "path", cfg.TablesPath, "error", err)
		}
		log.Info("enrichment tables loaded", "path", cfg.TablesPath)
	}
	enricher := enrich.New(tables)
	startup.CompleteStep(handlers.StepTables)

	startup.SetCurrentStep(handlers.StepServices)
	filterCfg, err := filter.ConfigByName(cfg.FilterProfile)
	if err != nil {
		log.Fatal("invalid filter profile", "error", err)
	}
	filterCfg.Location = cfg.Location()

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		jwtSecret = security.GenerateSessionID()
		log.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}

	userRepo := repository.NewUserRepository(db)
	kidRepo := repository.NewKidRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	authService := service.NewAuthService(userRepo, security.NewTokenIssuer(jwtSecret, cfg.TokenTTL), cfg.SessionDuration, log)
	kidService := service.NewKidService(kidRepo, activityRepo, log)
	viewService := service.NewViewService(kidService, enricher, filterCfg, cfg.ViewTTL, log)

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, log)
	if err != nil {
		log.Fatal("failed to initialize email service", "error", err)
	}
	digestService := service.NewDigestService(userRepo, kidRepo, kidService, enricher, filterCfg, emailService, cfg.DigestWorkers, log)

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": handlers.GoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret),
	}

	csrf := security.NewCSRFGuard(jwtSecret)
	limiter := security.NewRateLimiter(10, time.Minute)
	middleware := handlers.NewMiddleware(authService, csrf, limiter, log)

	routes := &handlers.Routes{
		Auth:       handlers.NewAuthHandler(authService, viewService, csrf, oauthProviders, cfg.OAuthRedirectBaseURL, cfg.AppBaseURL, log),
		Kids:       handlers.NewKidHandler(kidService, viewService, digestService, log),
		Middleware: middleware,
		Startup:    startup,
	}
	api := routes.Handler(log)
	app.Store(&api)
	startup.CompleteStep(handlers.StepServices)

	// Background maintenance
	go limiter.Run(ctx, time.Minute)
	go viewService.Run(ctx, time.Minute)
	go cleanupExpiredSessions(ctx, authService, log)
	if cfg.DigestInterval > 0 {
		log.Info("periodic digest enabled", "interval", cfg.DigestInterval, "email", emailService.IsEnabled())
		go digestService.Run(ctx, cfg.DigestInterval)
	}

	startup.MarkReady()
	log.Info("server ready", "filter_profile", cfg.FilterProfile, "timezone", filterCfg.Location.String())

	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// cleanupExpiredSessions periodically removes expired sessions
func cleanupExpiredSessions(ctx context.Context, authService *service.AuthService, log *logger.Logger) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := authService.CleanupExpiredSessions(); err != nil {
				log.Error("error cleaning up expired sessions", "error", err)
			}
		}
	}
}
