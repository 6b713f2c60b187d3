package wsapi

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/fd1az/walletd/business/wallet/domain"
	"github.com/fd1az/walletd/internal/apperror"
	"github.com/fd1az/walletd/internal/wsconn"
)

// Client drives a remote session over the /ws endpoint. Results are matched
// to requests by ID; snapshots are delivered on Snapshots, dropping the
// oldest when the reader falls behind.
type Client struct {
	conn      *wsconn.Conn
	seq       atomic.Uint64
	snapshots chan domain.Snapshot
	cancel    context.CancelFunc
	done      chan struct{}

	mu      sync.Mutex
	pending map[string]chan Response
}

// Dial connects to url, e.g. ws://localhost:8546/ws.
func Dial(ctx context.Context, url string, cfg wsconn.Config) (*Client, error) {
	conn, err := wsconn.Dial(ctx, url, cfg, nil)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c := &Client{
		conn:      conn,
		snapshots: make(chan domain.Snapshot, 16),
		cancel:    cancel,
		done:      make(chan struct{}),
		pending:   make(map[string]chan Response),
	}
	go func() {
		defer close(c.done)
		conn.Run(runCtx, c.receive)
	}()
	return c, nil
}

func (c *Client) receive(_ context.Context, msg []byte) {
	var res Response
	if err := json.Unmarshal(msg, &res); err != nil {
		return
	}

	switch res.Type {
	case TypeSnapshot:
		if res.Snapshot == nil {
			return
		}
		for {
			select {
			case c.snapshots <- *res.Snapshot:
				return
			default:
			}
			select {
			case <-c.snapshots:
			default:
			}
		}
	case TypeResult:
		c.mu.Lock()
		ch, ok := c.pending[res.ID]
		delete(c.pending, res.ID)
		c.mu.Unlock()
		if ok {
			ch <- res
		}
	}
}

// Snapshots streams the session state pushed by the server.
func (c *Client) Snapshots() <-chan domain.Snapshot {
	return c.snapshots
}

// Connected reports whether the socket is still open.
func (c *Client) Connected() bool {
	return c.conn.IsConnected()
}

// Do sends req and waits for its result. An empty ID is assigned.
func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	if req.ID == "" {
		req.ID = strconv.FormatUint(c.seq.Add(1), 10)
	}

	ch := make(chan Response, 1)
	c.mu.Lock()
	c.pending[req.ID] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
	}()

	if err := c.conn.SendJSON(ctx, req); err != nil {
		return Response{}, err
	}

	select {
	case res := <-ch:
		return res, nil
	case <-c.done:
		return Response{}, apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(req.Command))
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Close shuts the connection and waits for the read loop.
func (c *Client) Close() error {
	err := c.conn.Close()
	c.cancel()
	<-c.done
	return err
}
