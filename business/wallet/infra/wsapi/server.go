// Package wsapi exposes a wallet session over a WebSocket: snapshots are
// streamed to every client and JSON commands drive the session.
package wsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/walletd/business/wallet/domain"
	"github.com/fd1az/walletd/internal/apperror"
	"github.com/fd1az/walletd/internal/logger"
	"github.com/fd1az/walletd/internal/wsconn"
)

const tracerName = "github.com/fd1az/walletd/business/wallet/infra/wsapi"

// Session is the wallet session surface driven by clients.
type Session interface {
	Snapshot() domain.Snapshot
	Subscribe(ch chan<- domain.Snapshot) event.Subscription
	Connect(ctx context.Context) error
	SelectWallet(ctx context.Context, name domain.WalletName) error
	UnlockWallet(ctx context.Context) error
	SignIn(ctx context.Context, statement string) error
	SwitchNetwork(ctx context.Context, chainID uint64) error
	Disconnect(ctx context.Context) error
	RefreshLatestBlock(ctx context.Context) error
}

// Server serves /ws.
type Server struct {
	session Session
	port    int
	cfg     wsconn.Config
	log     logger.LoggerInterface
	tracer  trace.Tracer
	server  *http.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewServer(session Session, port int, log logger.LoggerInterface) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		session: session,
		port:    port,
		cfg:     wsconn.DefaultConfig("wsapi"),
		log:     log,
		tracer:  otel.Tracer(tracerName),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Handler returns the mux serving /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Start listens on the configured port.
func (s *Server) Start(ctx context.Context) {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(ctx, "websocket server stopped", "error", err)
		}
	}()
	s.log.Info(ctx, "websocket api listening", "port", s.port)
}

// Stop closes every client connection and shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	s.cancel()
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	s.wg.Wait()
	return err
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	remote := r.RemoteAddr
	conn, err := wsconn.Accept(w, r, s.cfg, func(state wsconn.State, err error) {
		if err != nil {
			s.log.Debug(s.ctx, "websocket client state", "remote", remote, "state", state, "error", err)
		}
	})
	if err != nil {
		s.log.Warn(r.Context(), "websocket upgrade failed", "remote", remote, "error", err)
		return
	}

	s.wg.Add(1)
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	s.log.Info(ctx, "websocket client connected", "remote", remote)
	c := &client{server: s, conn: conn}
	go c.stream(ctx, cancel)

	if err := conn.Run(ctx, c.handle); err != nil {
		s.log.Debug(ctx, "websocket client read loop ended", "remote", remote, "error", err)
	}
	c.commands.Wait()
	s.log.Info(ctx, "websocket client disconnected", "remote", remote)
}

// client is one connected socket.
type client struct {
	server   *Server
	conn     *wsconn.Conn
	commands sync.WaitGroup
}

// stream sends the current snapshot, then the latest snapshot after each
// change. Intermediate snapshots are dropped when the client is slower than
// the session.
func (c *client) stream(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()

	changes := make(chan domain.Snapshot, 16)
	sub := c.server.session.Subscribe(changes)
	defer sub.Unsubscribe()

	latest := make(chan domain.Snapshot, 1)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-changes:
				select {
				case <-latest:
				default:
				}
				latest <- snap
			}
		}
	}()

	if err := c.sendSnapshot(ctx, c.server.session.Snapshot()); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Err():
			return
		case snap := <-latest:
			if err := c.sendSnapshot(ctx, snap); err != nil {
				return
			}
		}
	}
}

func (c *client) sendSnapshot(ctx context.Context, snap domain.Snapshot) error {
	err := c.conn.SendJSON(ctx, Response{Type: TypeSnapshot, Snapshot: &snap})
	if err != nil && ctx.Err() == nil {
		c.server.log.Debug(ctx, "snapshot send failed", "error", err)
	}
	return err
}

// handle runs each command on its own goroutine since commands block until
// the session settles.
func (c *client) handle(ctx context.Context, msg []byte) {
	var req Request
	if err := json.Unmarshal(msg, &req); err != nil {
		c.reply(ctx, req, apperror.New(apperror.CodeInvalidInput, apperror.WithCause(err)))
		return
	}

	c.commands.Add(1)
	go func() {
		defer c.commands.Done()

		ctx, span := c.server.tracer.Start(ctx, "wsapi."+req.Command)
		defer span.End()
		c.reply(ctx, req, c.server.dispatch(ctx, req))
	}()
}

func (c *client) reply(ctx context.Context, req Request, err error) {
	res := Response{Type: TypeResult, ID: req.ID, OK: err == nil}
	if err != nil {
		appErr := apperror.Wrap(err, apperror.CodeInternalError, req.Command).WithTraceID(logger.TraceID(ctx))
		if appErr.StatusCode >= http.StatusInternalServerError {
			c.server.log.Warn(ctx, "websocket command failed", "id", req.ID, "error", appErr.ToLog())
		}
		body := appErr.ToResponse()
		res.Error = &body
	}
	if sendErr := c.conn.SendJSON(ctx, res); sendErr != nil && ctx.Err() == nil {
		c.server.log.Debug(ctx, "command reply failed", "id", req.ID, "error", sendErr)
	}
}

func (s *Server) dispatch(ctx context.Context, req Request) error {
	s.log.Debug(ctx, "websocket command", "id", req.ID, "command", req.Command)

	switch req.Command {
	case CommandConnect:
		return s.session.Connect(ctx)
	case CommandSelect:
		if req.Wallet == "" {
			return apperror.New(apperror.CodeRequiredField, apperror.WithContext("wallet"))
		}
		return s.session.SelectWallet(ctx, domain.WalletName(req.Wallet))
	case CommandUnlock:
		return s.session.UnlockWallet(ctx)
	case CommandSign:
		return s.session.SignIn(ctx, req.Message)
	case CommandSwitch:
		if req.ChainID == 0 {
			return apperror.New(apperror.CodeRequiredField, apperror.WithContext("chainId"))
		}
		return s.session.SwitchNetwork(ctx, req.ChainID)
	case CommandDisconnect:
		return s.session.Disconnect(ctx)
	case CommandRefresh:
		return s.session.RefreshLatestBlock(ctx)
	default:
		return apperror.New(apperror.CodeUnknownCommand, apperror.WithContext(req.Command))
	}
}
