// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/story-txprep/internal/config"
	"github.com/javajoker/story-txprep/internal/i18n"
	"github.com/javajoker/story-txprep/internal/router"
	"github.com/javajoker/story-txprep/internal/services"
	"github.com/javajoker/story-txprep/internal/telemetry"
	"github.com/javajoker/story-txprep/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("Failed to load configuration: ", err)
	}

	format := cfg.Log.Format
	if format == "" && cfg.Environment == config.EnvProduction {
		format = "json"
	}
	utils.SetupLogger(cfg.Log.Level, format)

	// Initialize i18n
	if err := i18n.Initialize(); err != nil {
		logrus.Fatal("Failed to initialize i18n: ", err)
	}

	shutdownTracing, err := telemetry.Setup(context.Background(), cfg.Tracing, cfg.Environment)
	if err != nil {
		logrus.Fatal("Failed to initialize tracing: ", err)
	}

	store, err := services.NewContentStore(cfg)
	if err != nil {
		logrus.Fatal("Failed to initialize content store: ", err)
	}
	chain, err := services.NewBlockchainService(cfg)
	if err != nil {
		logrus.Fatal("Failed to initialize chain client: ", err)
	}
	defer chain.Close()

	// Set Gin mode
	if cfg.Environment == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := router.Initialize(cfg, router.Dependencies{Store: store, Chain: chain})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logrus.WithFields(logrus.Fields{
			"addr":          srv.Addr,
			"network":       cfg.Network.Active.Name,
			"content_store": store.Name(),
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatal("Failed to start server: ", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Error("Server forced to shutdown: ", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		logrus.WithError(err).Warn("Tracing shutdown failed")
	}

	logrus.Info("Server exited")
}
