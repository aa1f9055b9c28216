package livesync

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/gorilla/websocket"

	"crawldash/internal/models"
)

// ReconnectDelay is the fixed wait between a close and the next attempt.
const ReconnectDelay = 5 * time.Second

// State is the push channel connection state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

var stateNames = []string{"disconnected", "connecting", "connected"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Conn is an open push channel.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Dialer opens push channels.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebsocketDialer dials with gorilla/websocket.
type WebsocketDialer struct {
	Dialer *websocket.Dialer
}

// Dial implements Dialer.
func (d WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// connect runs one connection lifetime: dial, read until the channel ends,
// then schedule the next attempt.
func (c *Controller) connect(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	c.setState(StateConnecting)
	conn, err := c.dialer.Dial(ctx, c.pushURL)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Error("push channel error", "url", c.pushURL, "error", err)
		}
		c.closed(ctx)
		return
	}

	c.setState(StateConnected)
	c.logger.Info("push channel connected", "url", c.pushURL)

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && isUnexpectedClose(err) {
				c.logger.Error("push channel error", "url", c.pushURL, "error", err)
			}
			_ = conn.Close()
			break
		}
		c.receive(ctx, frame)
	}
	c.closed(ctx)
}

// receive decodes a frame and hands it to the event loop. Frames that do not
// decode are logged and dropped.
func (c *Controller) receive(ctx context.Context, frame []byte) {
	msg, err := models.DecodePushMessage(frame)
	if err != nil {
		c.logger.Warn("dropping push frame", "error", err, "bytes", len(frame))
		if c.metrics != nil {
			c.metrics.PushFramesDropped.Inc()
		}
		return
	}
	if c.metrics != nil {
		c.metrics.PushFrames.WithLabelValues(string(msg.Type())).Inc()
	}
	c.post(ctx, func() {
		if !Dispatch(c.view, msg) {
			c.logger.Debug("ignoring push message", "type", msg.Type())
		}
	})
}

// closed records the disconnect and schedules exactly one reconnect.
func (c *Controller) closed(ctx context.Context) {
	c.setState(StateDisconnected)
	if ctx.Err() != nil {
		return
	}
	c.logger.Info("push channel disconnected", "url", c.pushURL, "reconnect_in", ReconnectDelay)
	if c.metrics != nil {
		c.metrics.Reconnects.Inc()
	}
	c.afterFunc(ReconnectDelay, func() { c.connect(ctx) })
}

func (c *Controller) setState(s State) {
	c.state.Store(int32(s))
	c.metrics.SetConnectionState(s.String(), stateNames)
}

func isUnexpectedClose(err error) bool {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived)
	}
	return !errors.Is(err, net.ErrClosed)
}
