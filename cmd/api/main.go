// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcfg "hanami/internal/infra/config"
	"hanami/internal/infra/logging"
	"hanami/internal/platform/di"
)

func main() {
	ctx := context.Background()

	cfg, err := appcfg.Load()
	if err != nil {
		// logger 前なので stderr に直接出す
		_, _ = os.Stderr.WriteString("[boot] config: " + err.Error() + "\n")
		os.Exit(1)
	}

	lg, err := logging.New().FromPath(cfg.LogFile).Level(cfg.LogLevel).Make()
	if err != nil {
		_, _ = os.Stderr.WriteString("[boot] logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer lg.Close()
	logger := lg.Logger.With().Str("component", "boot").Logger()

	// ─────────────────────────────────────────────────────────────
	// DI container
	// ─────────────────────────────────────────────────────────────
	cont, err := di.NewContainer(ctx, cfg, lg.Logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("di init failed")
	}
	defer cont.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           cont.Router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// usecase のタイムアウトより少し長く
		WriteTimeout: cfg.OpTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ─────────────────────────────────────────────────────────────
	// Graceful shutdown for Cloud Run
	// ─────────────────────────────────────────────────────────────
	idleConnsClosed := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		sig := <-c
		logger.Info().Str("signal", sig.String()).Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown error")
		}
		close(idleConnsClosed)
	}()

	logger.Info().Str("port", cfg.Port).Str("backend", cfg.StoreBackend).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("server error")
		return
	}
	<-idleConnsClosed
	logger.Info().Msg("server stopped")
}
