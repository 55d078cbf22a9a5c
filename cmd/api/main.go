package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/KunalSingh5431/smartPDF/internal/bootstrap"
	"github.com/KunalSingh5431/smartPDF/internal/shared/config"
	"github.com/KunalSingh5431/smartPDF/internal/shared/server"
	"github.com/KunalSingh5431/smartPDF/internal/shared/telemetry"
)

const shutdownTimeout = 15 * time.Second

func main() {
	defer telemetry.Sync()
	log := telemetry.L()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config.load_failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatal("bootstrap.failed", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server.start", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error("server.failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server.shutdown_failed", zap.Error(err))
	}
	if err := app.Close(shutdownCtx); err != nil {
		log.Error("bootstrap.close_failed", zap.Error(err))
	}
	log.Info("server.stopped")
}
