package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully shuts down the application. It waits for any
// in-flight forecaster refit to finish (bounded by
// cfg.RetrainShutdownTimeout) before the process exits, so a refit never
// gets killed mid-write.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)

	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	if err := a.wsManager.Close(); err != nil {
		a.logger.Error("websocket-manager-close-error", zap.Error(err))
	}

	if !a.engine.AwaitForecasterIdle() {
		a.logger.Warn("forecaster-refit-still-running-at-shutdown")
	}

	a.wg.Wait()

	a.logger.Info("application-shutdown-complete")

	return nil
}
