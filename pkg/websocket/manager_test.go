package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig(t *testing.T, url string) Config {
	return Config{
		URL:                   url,
		Product:               "BTC-USD",
		DialTimeout:           5 * time.Second,
		PongTimeout:           10 * time.Second,
		PingInterval:          time.Hour, // keep pingLoop quiet for tests
		ReconnectInitialDelay: 10 * time.Millisecond,
		ReconnectMaxDelay:     50 * time.Millisecond,
		ReconnectBackoffMult:  2.0,
		FrameBufferSize:       16,
		Logger:                zaptest.NewLogger(t),
	}
}

func TestNew(t *testing.T) {
	cfg := testConfig(t, "ws://example.invalid")
	mgr := New(cfg)

	require.NotNil(t, mgr)
	require.Equal(t, cfg.URL, mgr.url)
	require.Equal(t, cfg.Product, mgr.product)
	require.NotNil(t, mgr.reconnectMgr)
	require.Equal(t, cfg.FrameBufferSize, cap(mgr.frameChan))
}

// echoSubscribeServer upgrades the connection, captures the first frame
// it receives (the subscribe message) onto the returned channel, then
// echoes back one level2 frame before going silent.
func echoSubscribeServer(t *testing.T) (*httptest.Server, chan []byte) {
	upgrader := websocket.Upgrader{}
	received := make(chan []byte, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- msg

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"snapshot","product_id":"BTC-USD"}`))

		// Keep the connection open briefly so readLoop can consume it.
		time.Sleep(100 * time.Millisecond)
	}))

	return srv, received
}

func TestManagerStartSubscribesAndForwardsFrames(t *testing.T) {
	srv, received := echoSubscribeServer(t)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	mgr := New(testConfig(t, wsURL))
	defer mgr.Close()

	require.NoError(t, mgr.Start())

	select {
	case sub := <-received:
		require.Contains(t, string(sub), `"level2_batch"`)
		require.Contains(t, string(sub), `"BTC-USD"`)
	case <-time.After(time.Second):
		t.Fatal("server never received a subscribe frame")
	}

	select {
	case frame := <-mgr.Frames():
		require.Contains(t, string(frame), "snapshot")
	case <-time.After(time.Second):
		t.Fatal("manager never forwarded the server's frame")
	}
}

func TestManagerCloseStopsGoroutines(t *testing.T) {
	srv, _ := echoSubscribeServer(t)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	mgr := New(testConfig(t, wsURL))
	require.NoError(t, mgr.Start())

	done := make(chan struct{})
	go func() {
		mgr.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}

	_, ok := <-mgr.Frames()
	require.False(t, ok, "frame channel should be closed")
}

func TestReconnectManagerResetAndBackoff(t *testing.T) {
	rm := NewReconnectManager(ReconnectConfig{
		InitialDelay:      10 * time.Millisecond,
		MaxDelay:          40 * time.Millisecond,
		BackoffMultiplier: 2.0,
		JitterPercent:     0,
	}, zaptest.NewLogger(t))

	require.Equal(t, 10*time.Millisecond, rm.currentBackoff)

	rm.incrementBackoff()
	require.Equal(t, 20*time.Millisecond, rm.currentBackoff)

	rm.incrementBackoff()
	require.Equal(t, 40*time.Millisecond, rm.currentBackoff)

	rm.incrementBackoff()
	require.Equal(t, 40*time.Millisecond, rm.currentBackoff, "must cap at MaxDelay")

	rm.Reset()
	require.Equal(t, 10*time.Millisecond, rm.currentBackoff)
}
