package middleware

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crawldash/internal/metrics"
	"crawldash/internal/render"
)

func startHub(t *testing.T, opts ...HubOption) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	r := gin.New()
	r.GET("/ws", hub.HandleWebSocket())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readSlot(t *testing.T, conn *websocket.Conn) SlotMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg SlotMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_SendsSnapshotThenBroadcasts(t *testing.T) {
	m := metrics.New()
	hub, url := startHub(t,
		WithHubMetrics(m),
		WithSnapshot(func() map[string]template.HTML {
			return map[string]template.HTML{"active-crawls": "3"}
		}),
	)

	conn := dial(t, url)
	first := readSlot(t, conn)
	assert.Equal(t, render.SlotActiveCrawls, first.Slot)
	assert.Equal(t, template.HTML("3"), first.HTML)

	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, float64(1), promtest.ToFloat64(m.BrowserClients))

	hub.BroadcastSlot(render.SlotQueueSize, "<b>7</b>")
	next := readSlot(t, conn)
	assert.Equal(t, render.SlotQueueSize, next.Slot)
	assert.Equal(t, template.HTML("<b>7</b>"), next.HTML)
}

func TestHub_UnregistersClosedClients(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.GetClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_BroadcastAfterStopDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Broadcast([]byte("x"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked after hub stopped")
	}
}
