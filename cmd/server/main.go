package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"frost_dispatch/internal/archive"
	"frost_dispatch/internal/backend"
	"frost_dispatch/internal/config"
	"frost_dispatch/internal/controllers"
	"frost_dispatch/internal/logger"
	"frost_dispatch/internal/metrics"
	"frost_dispatch/internal/middleware"
	"frost_dispatch/internal/routes"
	"frost_dispatch/internal/tracking"
	"frost_dispatch/internal/workspace"
)

func main() {
	cfg := config.Load()

	// Initialize structured logging to file
	logger.Setup(logger.Options{File: cfg.LogFile, Level: cfg.LogLevel, Stdout: cfg.LogStdout})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(reg)

	var arch archive.Archive = archive.Nop{}
	if cfg.ArchiveEnabled {
		if err := config.InitDB(cfg.DB); err != nil {
			logrus.WithError(err).Error("Archive database unavailable, continuing without archive.")
		} else {
			arch = archive.NewStore(config.GetDB())
			logrus.Info("Archive database connected.")
		}
	}

	client := backend.NewClient(cfg.BackendURL, backend.WithTimeout(cfg.BackendTimeout))
	spaces := workspace.NewRegistry(workspace.Deps{
		Backend:      client,
		Dialer:       tracking.NewWSDialer(cfg.BackendSocketURL, cfg.BackendTimeout),
		Archive:      arch,
		PollInterval: cfg.OrderPollInterval,
		TTL:          cfg.SessionTTL,
	})
	tokens := middleware.NewTokens(cfg.JWTSecret, cfg.SessionTTL)
	h := controllers.NewHandler(client, spaces, tokens, arch, cfg.AllowedOrigins)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := routes.SetupRouter(h, tokens, reg, logrus.StandardLogger().Out)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go spaces.Run(ctx)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           middleware.EnableCORS(cfg.AllowedOrigins, r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Server error")
		}
	}()
	logrus.WithFields(logrus.Fields{
		"addr":        srv.Addr,
		"backend":     cfg.BackendURL,
		"backend_env": cfg.BackendEnv,
	}).Info("Server running")

	<-ctx.Done()
	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}
	spaces.CloseAll()
	logrus.Info("Server stopped")
}
