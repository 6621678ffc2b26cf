// SPDX-License-Identifier: BSD-3-Clause

package ipcserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os/user"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"

	"github.com/hyperfan/hyperfand/pkg/bus"
	"github.com/hyperfan/hyperfand/pkg/controlloop"
	"github.com/hyperfan/hyperfand/pkg/ecio"
	"github.com/hyperfan/hyperfand/pkg/enumerate"
	"github.com/hyperfan/hyperfand/pkg/fingerprint"
	"github.com/hyperfan/hyperfand/pkg/pathguard"
	"github.com/hyperfan/hyperfand/pkg/persistence"
	"github.com/hyperfan/hyperfand/pkg/prober"
	"github.com/hyperfan/hyperfand/pkg/svc"
	"github.com/hyperfan/hyperfand/pkg/sysfsgw"
)

var _ svc.Service = (*Server)(nil)

// ProtocolVersion is reported by the Version command.
const ProtocolVersion = "1"

// Server is the daemon's untrusted-client-facing Unix socket (spec.md
// §4.7). One Server per daemon instance.
type Server struct {
	config   *config
	logger   *slog.Logger
	guard    *pathguard.Guard
	gw       *sysfsgw.Gateway
	fpEngine *fingerprint.Engine
	store    *persistence.Store
	loop     *controlloop.Loop
	prober   *prober.Prober
	platform enumerate.PlatformEnumerator
	ec       *ecio.Reader

	allowedGID int64 // -1 if the configured group couldn't be resolved
	rateLimit  atomic.Int64
	pool       *workerPool
	listener   *net.UnixListener

	nc       *nats.Conn
	pairings *pairingCache
}

// New builds a Server. ec may be nil, disabling the EC register commands
// (they return ErrNotFound instead of ErrIOError so clients can tell "no EC
// support on this host" from "EC I/O failed").
func New(gw *sysfsgw.Gateway, guard *pathguard.Guard, fpEngine *fingerprint.Engine, store *persistence.Store, loop *controlloop.Loop, pr *prober.Prober, platform enumerate.PlatformEnumerator, ec *ecio.Reader, logger *slog.Logger, opts ...Option) *Server {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt.apply(cfg)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:     cfg,
		logger:     logger,
		guard:      guard,
		gw:         gw,
		fpEngine:   fpEngine,
		store:      store,
		loop:       loop,
		prober:     pr,
		platform:   platform,
		ec:         ec,
		allowedGID: -1,
		pairings:   newPairingCache(fpEngine.Bindings()),
	}
	s.rateLimit.Store(int64(cfg.rateLimitPerWindow))

	if g, err := user.LookupGroup(cfg.allowedGroup); err == nil {
		if gid, err := strconv.ParseInt(g.Gid, 10, 64); err == nil {
			s.allowedGID = gid
		}
	}

	return s
}

// Name implements svc.Service.
func (s *Server) Name() string { return "ipcserver" }

// Run implements svc.Service: binds the socket and serves connections until
// ctx is canceled.
func (s *Server) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	nc, err := nats.Connect("", nats.InProcessServer(ipcConn))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEventBusConnectFailed, err)
	}
	s.nc = nc
	defer nc.Drain() //nolint:errcheck

	sub, err := nc.Subscribe(bus.SubjectBindingState, func(msg *nats.Msg) {
		s.pairings.onBindingStateEvent(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEventBusConnectFailed, err)
	}
	defer sub.Unsubscribe() //nolint:errcheck

	ln, err := bindSocket(s.config.socketPath)
	if err != nil {
		return err
	}
	s.listener = ln
	s.pool = newWorkerPool(s.config.workerPoolSize)

	s.logger.InfoContext(ctx, "ipc server listening", "socket", s.config.socketPath)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var connCount atomic.Int64
	for {
		conn, err := ln.AcceptUnix()
		if err != nil {
			select {
			case <-ctx.Done():
				s.pool.Close()
				s.logger.InfoContext(ctx, "ipc server stopped")
				return ctx.Err()
			default:
				return fmt.Errorf("%w: accept: %w", ErrSocketCreateFailed, err)
			}
		}
		id := connCount.Add(1)
		go s.handleConn(ctx, conn, id)
	}
}

func (s *Server) handleConn(ctx context.Context, conn *net.UnixConn, connID int64) {
	defer conn.Close()

	cred, err := peerCredentialsOf(conn)
	if err != nil {
		s.logger.WarnContext(ctx, "could not obtain peer credentials", "conn", connID, "error", err)
		return
	}
	s.logger.InfoContext(ctx, "ipc connection accepted", "conn", connID, "uid", cred.UID, "gid", cred.GID, "pid", cred.PID)

	if !s.peerAuthorized(cred) {
		s.logger.WarnContext(ctx, "rejecting unauthorized peer", "conn", connID, "uid", cred.UID, "gid", cred.GID)
		return
	}

	limiter := newSlidingWindowLimiter(s.config.rateLimitWindow, int(s.rateLimit.Load()))
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), s.config.maxMessageBytes)
	writer := bufio.NewWriter(conn)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return
		}

		var req Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			s.writeResponse(writer, errResponse(0, fmt.Errorf("%w: malformed request: %w", ErrValidation, err)))
			continue
		}

		if !limiter.Allow(time.Now()) {
			s.writeResponse(writer, errResponse(req.ID, ErrRateLimited))
			continue
		}

		resp := s.dispatch(ctx, req)
		s.writeResponse(writer, resp)
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			s.writeResponse(writer, errResponse(0, ErrMessageTooLarge))
		} else {
			s.logger.WarnContext(ctx, "ipc connection read error", "conn", connID, "error", err)
		}
	}
}

func (s *Server) peerAuthorized(cred peerCredentials) bool {
	if cred.UID == 0 {
		return true
	}
	return s.allowedGID >= 0 && int64(cred.GID) == s.allowedGID
}

func (s *Server) writeResponse(w *bufio.Writer, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return
	}
	_ = w.Flush()
}

func (s *Server) dispatch(ctx context.Context, req Request) Response {
	tracer := otel.Tracer("hyperfand/ipcserver")
	ctx, span := tracer.Start(ctx, "ipcserver.dispatch")
	defer span.End()

	handler, ok := handlers[req.Command]
	if !ok {
		return errResponse(req.ID, fmt.Errorf("%w: %s", ErrUnknownCommand, req.Command))
	}

	var result any
	var err error
	done := make(chan struct{})
	s.pool.Submit(ctx, func() {
		result, err = handler(ctx, s, req.Params)
		close(done)
	})
	select {
	case <-done:
	default:
		// Submit returned because ctx was canceled before the job ran or
		// finished; the worker (if it started) still owns result/err, so
		// don't read them here.
		return errResponse(req.ID, ctx.Err())
	}

	if err != nil {
		return errResponse(req.ID, err)
	}
	return okResponse(req.ID, result)
}
