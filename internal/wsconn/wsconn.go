// Package wsconn wraps github.com/coder/websocket connections with JSON
// framing, keepalive pings and an observable connection state.
package wsconn

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/fd1az/walletd/internal/apperror"
)

// State represents the connection state.
type State string

const (
	StateConnecting State = "connecting"
	StateConnected  State = "connected"
	StateClosed     State = "closed"
)

// Config holds connection settings.
type Config struct {
	Name           string
	PingInterval   time.Duration // 0 disables keepalive pings
	PongTimeout    time.Duration
	WriteTimeout   time.Duration
	ReadLimit      int64
	OriginPatterns []string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(name string) Config {
	return Config{
		Name:         name,
		PingInterval: 30 * time.Second,
		PongTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Second,
		ReadLimit:    64 * 1024,
	}
}

// MessageHandler receives every text or binary frame read by Run.
type MessageHandler func(ctx context.Context, msg []byte)

// StateHandler observes state changes; err is set when a failure caused it.
type StateHandler func(state State, err error)

// Conn is a single WebSocket connection. Writes are safe for concurrent use.
type Conn struct {
	cfg     Config
	conn    *websocket.Conn
	stateMu sync.RWMutex
	state   State
	onState StateHandler
	once    sync.Once
}

func newConn(cfg Config, onState StateHandler) *Conn {
	c := &Conn{cfg: cfg, onState: onState}
	c.setState(StateConnecting, nil)
	return c
}

// Accept upgrades an HTTP request to a server side connection.
func Accept(w http.ResponseWriter, r *http.Request, cfg Config, onState StateHandler) (*Conn, error) {
	c := newConn(cfg, onState)
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: cfg.OriginPatterns,
	})
	if err != nil {
		c.setState(StateClosed, err)
		return nil, err
	}
	c.attach(conn)
	return c, nil
}

// Dial opens a client connection to url.
func Dial(ctx context.Context, url string, cfg Config, onState StateHandler) (*Conn, error) {
	c := newConn(cfg, onState)
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		c.setState(StateClosed, err)
		return nil, apperror.External(apperror.CodeWebSocketClosed, cfg.Name, err)
	}
	c.attach(conn)
	return c, nil
}

func (c *Conn) attach(conn *websocket.Conn) {
	if c.cfg.ReadLimit > 0 {
		conn.SetReadLimit(c.cfg.ReadLimit)
	}
	c.conn = conn
	c.setState(StateConnected, nil)
}

// Run reads frames and hands them to handler until ctx ends or the peer
// closes. It also drives keepalive pings. The connection is closed on return.
func (c *Conn) Run(ctx context.Context, handler MessageHandler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if c.cfg.PingInterval > 0 {
		go c.keepAlive(ctx, cancel)
	}

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			c.closeWith(err)
			if isNormalClose(err) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		handler(ctx, data)
	}
}

func (c *Conn) keepAlive(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pingCtx, done := context.WithTimeout(ctx, c.cfg.PongTimeout)
		err := c.conn.Ping(pingCtx)
		done()
		if err != nil {
			cancel()
			return
		}
	}
}

// Send writes a text frame.
func (c *Conn) Send(ctx context.Context, msg []byte) error {
	if !c.IsConnected() {
		return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.cfg.Name))
	}
	ctx, cancel := c.writeContext(ctx)
	defer cancel()

	if err := c.conn.Write(ctx, websocket.MessageText, msg); err != nil {
		return apperror.New(apperror.CodeWebSocketSendError, apperror.WithCause(err), apperror.WithContext(c.cfg.Name))
	}
	return nil
}

// SendJSON encodes v as a JSON text frame.
func (c *Conn) SendJSON(ctx context.Context, v any) error {
	if !c.IsConnected() {
		return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.cfg.Name))
	}
	ctx, cancel := c.writeContext(ctx)
	defer cancel()

	if err := wsjson.Write(ctx, c.conn, v); err != nil {
		return apperror.New(apperror.CodeWebSocketSendError, apperror.WithCause(err), apperror.WithContext(c.cfg.Name))
	}
	return nil
}

func (c *Conn) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.WriteTimeout > 0 {
		return context.WithTimeout(ctx, c.cfg.WriteTimeout)
	}
	return context.WithCancel(ctx)
}

// State returns the current connection state.
func (c *Conn) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// IsConnected reports whether the connection is open.
func (c *Conn) IsConnected() bool {
	return c.State() == StateConnected
}

// Close sends a normal closure frame. It is idempotent.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		err = c.conn.Close(websocket.StatusNormalClosure, "")
		if isNormalClose(err) {
			err = nil
		}
		c.setState(StateClosed, nil)
	})
	return err
}

func (c *Conn) closeWith(cause error) {
	c.once.Do(func() {
		c.conn.CloseNow()
		if isNormalClose(cause) {
			cause = nil
		}
		c.setState(StateClosed, cause)
	})
}

func (c *Conn) setState(state State, err error) {
	c.stateMu.Lock()
	c.state = state
	c.stateMu.Unlock()

	if c.onState != nil {
		c.onState(state, err)
	}
}

func isNormalClose(err error) bool {
	if err == nil {
		return true
	}
	var ce websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code == websocket.StatusNormalClosure || ce.Code == websocket.StatusGoingAway
	}
	return errors.Is(err, context.Canceled)
}
