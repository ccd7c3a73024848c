package app

import (
	"context"
	"fmt"

	"github.com/kryptostream/obengine/internal/cachewriter"
	"github.com/kryptostream/obengine/internal/ingress"
	"github.com/kryptostream/obengine/internal/orderbook"
	"github.com/kryptostream/obengine/pkg/config"
	"github.com/kryptostream/obengine/pkg/healthprobe"
	"github.com/kryptostream/obengine/pkg/httpserver"
	"github.com/kryptostream/obengine/pkg/websocket"
	"go.uber.org/zap"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := setupHealthChecker(cfg)

	engine := setupOrderBookEngine(cfg, logger)

	var writer *cachewriter.Writer
	if cfg.CacheDir != "" {
		var err error
		writer, err = cachewriter.New(cfg.CacheDir, cfg.Product, logger)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("setup cache writer: %w", err)
		}
	}

	wsManager := setupWebSocketManager(cfg, logger)
	adapter := setupIngressAdapter(logger, engine, writer, wsManager, healthChecker)
	httpServer := setupHTTPServer(cfg, logger, healthChecker, engine)

	return &App{
		cfg:            cfg,
		logger:         logger,
		healthChecker:  healthChecker,
		httpServer:     httpServer,
		wsManager:      wsManager,
		engine:         engine,
		ingressAdapter: adapter,
		cacheWriter:    writer,
		ctx:            ctx,
		cancel:         cancel,
	}, nil
}

func setupHealthChecker(cfg *config.Config) *healthprobe.HealthChecker {
	hc := healthprobe.New()
	// A feed that has gone silent for longer than its own pong timeout has
	// already failed its keepalive; until the reconnect loop notices and
	// recovers, the engine is serving an increasingly stale book.
	hc.SetStaleAfter(cfg.WSPongTimeout)
	return hc
}

func setupHTTPServer(
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
	engine *orderbook.OrderBook,
) *httpserver.Server {
	return httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Engine:        engine,
	})
}

func setupOrderBookEngine(cfg *config.Config, logger *zap.Logger) *orderbook.OrderBook {
	return orderbook.New(orderbook.Config{
		Logger:            logger,
		SampleInterval:    cfg.SampleInterval,
		ForecastWindow:    cfg.ForecastWindow,
		Seasonality:       cfg.Seasonality,
		Windows:           cfg.Windows,
		RefitShutdownWait: cfg.RetrainShutdownTimeout,
	})
}

func setupWebSocketManager(cfg *config.Config, logger *zap.Logger) *websocket.Manager {
	return websocket.New(websocket.Config{
		URL:                   cfg.WSURL,
		Product:               cfg.Product,
		DialTimeout:           cfg.WSDialTimeout,
		PongTimeout:           cfg.WSPongTimeout,
		PingInterval:          cfg.WSPingInterval,
		ReconnectInitialDelay: cfg.WSReconnectInitialDelay,
		ReconnectMaxDelay:     cfg.WSReconnectMaxDelay,
		ReconnectBackoffMult:  cfg.WSReconnectBackoffMult,
		FrameBufferSize:       cfg.WSFrameBufferSize,
		Logger:                logger,
	})
}

func setupIngressAdapter(
	logger *zap.Logger,
	engine *orderbook.OrderBook,
	writer *cachewriter.Writer,
	wsManager *websocket.Manager,
	healthChecker *healthprobe.HealthChecker,
) *ingress.Adapter {
	var sink ingress.Sink
	if writer != nil {
		sink = writer
	}

	return ingress.New(ingress.Config{
		Logger:   logger,
		Engine:   engine,
		Sink:     sink,
		Observer: healthChecker,
		Frames:   wsManager.Frames(),
	})
}
