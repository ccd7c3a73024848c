package app

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kryptostream/obengine/internal/console"
	"go.uber.org/zap"
)

// statsPrintInterval is how often the running stats snapshot is dumped to
// stdout.
const statsPrintInterval = 5 * time.Second

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("product", a.cfg.Product),
		zap.String("log-level", a.cfg.LogLevel))

	err := a.startComponents()
	if err != nil {
		return err
	}

	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort),
		zap.String("ws-url", a.cfg.WSURL))

	return a.waitForShutdown()
}

func (a *App) startComponents() error {
	a.wg.Add(1)
	go a.runHTTPServer()

	if err := a.wsManager.Start(); err != nil {
		return err
	}

	a.wg.Add(1)
	go a.runIngressAdapter()

	a.wg.Add(1)
	go a.runStatsPrinter()

	return nil
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runIngressAdapter() {
	defer a.wg.Done()
	a.ingressAdapter.Run(a.ctx)
}

func (a *App) runStatsPrinter() {
	defer a.wg.Done()

	ticker := time.NewTicker(statsPrintInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case now := <-ticker.C:
			console.PrintStats(os.Stdout, a.engine.GetStats(), now)
		}
	}
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
