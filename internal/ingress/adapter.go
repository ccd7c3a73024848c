// Package ingress parses raw websocket frames into the engine's tagged
// message union and dispatches them into the order book, mirroring the
// teacher's msgChan-driven Manager.processMessages/handleMessage loop
// generalized from a map-of-books dispatcher to a single-book one.
package ingress

import (
	"context"

	"github.com/kryptostream/obengine/pkg/types"
	"go.uber.org/zap"
)

// Engine is the subset of OrderBook the adapter drives. Kept as an
// interface so the adapter can be tested without the full engine.
type Engine interface {
	ApplySnapshot(types.Snapshot) error
	ApplyUpdate(types.L2Update) error
}

// Sink optionally receives every raw frame before it is parsed, e.g. the
// cache writer. A nil Sink is a no-op.
type Sink interface {
	Write(raw []byte) error
}

// FrameObserver optionally receives a liveness signal on every raw frame,
// e.g. the HTTP health checker's feed-staleness clock. A nil FrameObserver
// is a no-op.
type FrameObserver interface {
	RecordFrame()
}

// Adapter reads raw frames from a channel and feeds the engine.
type Adapter struct {
	logger   *zap.Logger
	engine   Engine
	sink     Sink
	observer FrameObserver
	frames   <-chan []byte
}

// Config configures a new Adapter.
type Config struct {
	Logger   *zap.Logger
	Engine   Engine
	Sink     Sink          // optional
	Observer FrameObserver // optional
	Frames   <-chan []byte
}

// New creates an Adapter.
func New(cfg Config) *Adapter {
	return &Adapter{
		logger:   cfg.Logger,
		engine:   cfg.Engine,
		sink:     cfg.Sink,
		observer: cfg.Observer,
		frames:   cfg.Frames,
	}
}

// Run reads frames until the channel closes or ctx is cancelled.
func (a *Adapter) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("ingress-adapter-stopping")
			return
		case raw, ok := <-a.frames:
			if !ok {
				a.logger.Info("ingress-frame-channel-closed")
				return
			}
			a.HandleFrame(raw)
		}
	}
}

// HandleFrame parses and dispatches a single raw frame. Exported so tests
// and synchronous callers can drive the adapter without a channel.
func (a *Adapter) HandleFrame(raw []byte) {
	if a.observer != nil {
		a.observer.RecordFrame()
	}

	if a.sink != nil {
		if err := a.sink.Write(raw); err != nil {
			a.logger.Warn("cache-write-failed", zap.Error(err))
		}
	}

	msg, err := types.ParseMessage(raw)
	if err != nil {
		ParseErrorsTotal.Inc()
		a.logger.Warn("frame-parse-failed", zap.Error(err))
		return
	}

	if err := a.dispatch(msg); err != nil {
		DispatchErrorsTotal.Inc()
		a.logger.Warn("frame-dispatch-failed", zap.Error(err))
	}
}

func (a *Adapter) dispatch(msg types.Message) error {
	switch m := msg.(type) {
	case types.Snapshot:
		FramesTotal.WithLabelValues("snapshot").Inc()
		return a.engine.ApplySnapshot(m)
	case types.L2Update:
		FramesTotal.WithLabelValues("l2update").Inc()
		return a.engine.ApplyUpdate(m)
	case types.Subscriptions:
		FramesTotal.WithLabelValues("subscriptions").Inc()
		a.logger.Info("subscriptions-confirmed")
		return nil
	case types.Unknown:
		FramesTotal.WithLabelValues("unknown").Inc()
		a.logger.Warn("unknown-message-type", zap.String("type", m.Type))
		return nil
	default:
		return nil
	}
}
