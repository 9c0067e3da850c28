package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qacurator/api"
	"qacurator/app"
	"qacurator/config"
	"qacurator/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		app.InitLogger(config.Default(), "api")
		logger.Fatal("Invalid configuration", "error", err)
	}
	app.InitLogger(cfg, "api")
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Without a provider key the API still scores; dedup routes answer 503.
	services, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		logger.Warn("Deduplication unavailable", "error", err)
		services, err = app.New(ctx, cfg, app.Options{DisableDedup: true})
		if err != nil {
			logger.Fatal("Failed to initialize services", "error", err)
		}
	}
	defer services.Close()

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(services.APIDeps()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting API server", "addr", addr)
		logger.Info("API endpoints available",
			"routes", []string{
				"GET  /api/health",
				"POST /api/quality/score",
				"POST /api/quality/filter",
				"POST /api/deduplication/run",
				"POST /api/curation/run",
				"GET  /api/curation/status",
			},
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
