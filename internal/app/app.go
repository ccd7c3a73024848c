package app

import (
	"context"
	"sync"

	"github.com/kryptostream/obengine/internal/cachewriter"
	"github.com/kryptostream/obengine/internal/ingress"
	"github.com/kryptostream/obengine/internal/orderbook"
	"github.com/kryptostream/obengine/pkg/config"
	"github.com/kryptostream/obengine/pkg/healthprobe"
	"github.com/kryptostream/obengine/pkg/httpserver"
	"github.com/kryptostream/obengine/pkg/websocket"
	"go.uber.org/zap"
)

// App is the main application orchestrator.
type App struct {
	cfg            *config.Config
	logger         *zap.Logger
	healthChecker  *healthprobe.HealthChecker
	httpServer     *httpserver.Server
	wsManager      *websocket.Manager
	engine         *orderbook.OrderBook
	ingressAdapter *ingress.Adapter
	cacheWriter    *cachewriter.Writer
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
}

// Options holds application options.
type Options struct{}
