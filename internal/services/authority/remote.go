package authority

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vttforge/areatrigger/internal/errors"
)

// defaultCallTimeout bounds a forwarded call when the caller's context
// carries no deadline of its own
const defaultCallTimeout = 10 * time.Second

// WebsocketChannel is a RemoteChannel over a single websocket connection to
// the authoritative session. Calls are serialized; one operation is in
// flight at a time.
type WebsocketChannel struct {
	url     string
	dialer  *websocket.Dialer
	timeout time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
}

// WebsocketChannelConfig holds configuration for the channel
type WebsocketChannelConfig struct {
	// URL of the authoritative session's operation endpoint,
	// e.g. ws://host:8080/ops
	URL string

	// CallTimeout bounds each call; zero means defaultCallTimeout
	CallTimeout time.Duration
}

// NewWebsocketChannel creates a channel. The connection is dialed lazily on
// the first call and redialed after an error.
func NewWebsocketChannel(cfg *WebsocketChannelConfig) *WebsocketChannel {
	if cfg.URL == "" {
		panic("websocket URL is required")
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	return &WebsocketChannel{
		url:     cfg.URL,
		dialer:  websocket.DefaultDialer,
		timeout: timeout,
	}
}

// Call sends one operation frame and waits for the answer frame. A deadline
// miss surfaces as unavailable; the caller decides whether to give up, there
// is no retry here.
func (c *WebsocketChannel) Call(ctx context.Context, payload []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	conn, err := c.connLocked(ctx)
	if err != nil {
		return nil, err
	}

	if err := conn.SetWriteDeadline(deadline); err != nil {
		c.dropLocked()
		return nil, errors.Wrap(err, "failed to arm write deadline")
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.dropLocked()
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "failed to send operation")
	}

	if err := conn.SetReadDeadline(deadline); err != nil {
		c.dropLocked()
		return nil, errors.Wrap(err, "failed to arm read deadline")
	}
	_, reply, err := conn.ReadMessage()
	if err != nil {
		c.dropLocked()
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "no answer from authoritative session")
	}
	return reply, nil
}

// Close shuts the underlying connection down
func (c *WebsocketChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *WebsocketChannel) connLocked(ctx context.Context) (*websocket.Conn, error) {
	if c.conn != nil {
		return c.conn, nil
	}

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "failed to dial authoritative session")
	}
	c.conn = conn
	return conn, nil
}

func (c *WebsocketChannel) dropLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}
