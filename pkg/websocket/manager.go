// Package websocket implements the feed transport: a single connection to
// the level2 order book feed, adapted from the teacher's pool-capable
// multi-connection Manager down to one connection since this engine
// watches exactly one product.
package websocket

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Manager manages a single WebSocket connection to the level2 feed.
type Manager struct {
	url          string
	product      string
	conn         *websocket.Conn
	logger       *zap.Logger
	reconnectMgr *ReconnectManager
	config       Config
	frameChan    chan []byte
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.RWMutex
	connected    atomic.Bool
	lastPongTime atomic.Int64
	connStart    atomic.Int64
}

// Config holds WebSocket manager configuration.
type Config struct {
	URL                   string
	Product               string
	DialTimeout           time.Duration
	PongTimeout           time.Duration
	PingInterval          time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
	FrameBufferSize       int
	Logger                *zap.Logger
}

// subscribeMessage is the level2_batch subscribe frame sent on connect
// and on every reconnect.
type subscribeMessage struct {
	Type     string             `json:"type"`
	Channels []subscribeChannel `json:"channels"`
}

type subscribeChannel struct {
	Name       string   `json:"name"`
	ProductIDs []string `json:"product_ids"`
}

// New creates a new WebSocket manager.
func New(cfg Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	reconnectCfg := ReconnectConfig{
		InitialDelay:      cfg.ReconnectInitialDelay,
		MaxDelay:          cfg.ReconnectMaxDelay,
		BackoffMultiplier: cfg.ReconnectBackoffMult,
		JitterPercent:     0.2,
	}

	return &Manager{
		url:          cfg.URL,
		product:      cfg.Product,
		logger:       cfg.Logger,
		reconnectMgr: NewReconnectManager(reconnectCfg, cfg.Logger),
		config:       cfg,
		frameChan:    make(chan []byte, cfg.FrameBufferSize),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start dials the feed, subscribes, and starts the read/ping/reconnect
// goroutines.
func (m *Manager) Start() error {
	m.logger.Info("websocket-manager-starting", zap.String("url", m.url), zap.String("product", m.product))

	if err := m.connect(m.ctx); err != nil {
		return fmt.Errorf("initial connection: %w", err)
	}
	if err := m.subscribe(); err != nil {
		return fmt.Errorf("initial subscribe: %w", err)
	}

	m.wg.Add(3)
	go m.readLoop()
	go m.pingLoop()
	go m.reconnectLoop()

	return nil
}

// connect establishes a WebSocket connection.
func (m *Manager) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: m.config.DialTimeout,
	}

	m.logger.Info("connecting-to-websocket", zap.String("url", m.url))

	conn, _, err := dialer.DialContext(ctx, m.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	conn.SetPongHandler(func(string) error {
		m.lastPongTime.Store(time.Now().Unix())
		return nil
	})

	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()

	now := time.Now()
	m.connected.Store(true)
	m.lastPongTime.Store(now.Unix())
	m.connStart.Store(now.Unix())
	ActiveConnections.Set(1)

	m.logger.Info("websocket-connected")

	return nil
}

// subscribe sends the level2_batch subscribe frame for the configured
// product.
func (m *Manager) subscribe() error {
	msg := subscribeMessage{
		Type: "subscribe",
		Channels: []subscribeChannel{
			{Name: "level2_batch", ProductIDs: []string{m.product}},
		},
	}

	m.mu.RLock()
	conn := m.conn
	m.mu.RUnlock()

	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("write subscribe message: %w", err)
	}

	m.logger.Info("subscribed-to-level2-feed", zap.String("product", m.product))
	return nil
}

// readLoop reads raw frames from the WebSocket and forwards them.
func (m *Manager) readLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		m.mu.RLock()
		conn := m.conn
		m.mu.RUnlock()

		if conn == nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			m.logger.Warn("read-error", zap.Error(err))

			startTime := m.connStart.Load()
			if startTime > 0 {
				ConnectionDuration.Observe(time.Since(time.Unix(startTime, 0)).Seconds())
			}

			m.connected.Store(false)
			ActiveConnections.Set(0)
			return
		}

		start := time.Now()
		FramesReceivedTotal.Inc()

		select {
		case m.frameChan <- message:
		default:
			m.logger.Warn("frame-channel-full")
			FramesDroppedTotal.Inc()
		}

		FrameLatencySeconds.Observe(time.Since(start).Seconds())
	}
}

// pingLoop sends periodic PING control frames.
func (m *Manager) pingLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if !m.connected.Load() {
				continue
			}

			m.mu.RLock()
			conn := m.conn
			m.mu.RUnlock()

			if conn == nil {
				continue
			}

			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second)); err != nil {
				m.logger.Warn("ping-error", zap.Error(err))
			}
		}
	}
}

// reconnectLoop handles reconnection and resubscription when the
// connection drops.
func (m *Manager) reconnectLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		if m.connected.Load() {
			time.Sleep(time.Second)
			continue
		}

		m.logger.Warn("connection-lost-initiating-reconnect")

		if err := m.reconnectMgr.Reconnect(m.ctx, m.connect); err != nil {
			if err == context.Canceled {
				return
			}
			m.logger.Error("reconnection-failed", zap.Error(err))
			continue
		}

		if err := m.subscribe(); err != nil {
			m.logger.Error("resubscribe-failed", zap.Error(err))
			m.connected.Store(false)
			continue
		}

		m.logger.Info("reconnection-complete-restarting-read-loop")

		m.wg.Add(1)
		go m.readLoop()
	}
}

// Frames returns the channel of raw inbound frames.
func (m *Manager) Frames() <-chan []byte {
	return m.frameChan
}

// Close gracefully closes the WebSocket manager.
func (m *Manager) Close() error {
	m.logger.Info("closing-websocket-manager")

	m.cancel()

	m.mu.RLock()
	if m.conn != nil {
		m.conn.Close()
	}
	m.mu.RUnlock()

	m.wg.Wait()

	close(m.frameChan)

	ActiveConnections.Set(0)

	m.logger.Info("websocket-manager-closed")

	return nil
}
