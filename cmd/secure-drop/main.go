// Package main provides the entry point for the secure-drop server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ID-VerNe/secure-drop/internal/auth"
	"github.com/ID-VerNe/secure-drop/internal/config"
	"github.com/ID-VerNe/secure-drop/internal/httpapi"
	"github.com/ID-VerNe/secure-drop/internal/metrics"
	"github.com/ID-VerNe/secure-drop/internal/storage"
	"github.com/ID-VerNe/secure-drop/internal/token"
	"github.com/ID-VerNe/secure-drop/internal/vault"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logLevel := new(slog.LevelVar)
	switch cfg.LogLevel {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "warn":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	logger.Info("secure-drop starting", "version", version, "listen_addr", cfg.ListenAddr)

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	files, err := vault.NewLocalStore(cfg.StoragePath)
	if err != nil {
		return err
	}

	if err := metrics.Init(prometheus.DefaultRegisterer); err != nil {
		return err
	}

	signer := auth.NewSigner([]byte(cfg.SessionSecret), cfg.SessionTTL, cfg.AdminSessionTTL)
	tokens := token.NewService(store, logger)
	validator := token.NewValidator(store, logger)
	guard := vault.NewGuard(files)

	guestHandler := httpapi.NewGuestHandler(validator, tokens, guard, files, signer, store, logger)
	adminHandler := httpapi.NewAdminHandler(store, tokens, files, signer, logLevel, logger)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Guest:              guestHandler,
		Admin:              adminHandler,
		Signer:             signer,
		Validator:          validator,
		Logger:             logger,
		MaxUploadBodyBytes: cfg.MaxUploadBodyMB * 1024 * 1024,
	})

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsServer := &http.Server{
		Addr:              cfg.MetricsListenAddr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("metrics listener starting", "addr", cfg.MetricsListenAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics shutdown failed", "error", err)
	}

	return nil
}
