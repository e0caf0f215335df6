package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/IgorArodrigues/Gladys-IA/internal/index"
)

// RequestHandler answers control requests.
type RequestHandler interface {
	// HandleUpdate runs one update cycle on demand.
	HandleUpdate(ctx context.Context) (UpdateResult, error)

	// HandleStatus reports engine and refresher state.
	HandleStatus() StatusResult

	// HandleStop asks the daemon to shut down. Must not block.
	HandleStop()
}

// Server listens on a unix socket and dispatches control requests.
type Server struct {
	socketPath string
	handler    RequestHandler
	logger     *slog.Logger
	listener   net.Listener
	started    time.Time

	mu       sync.Mutex
	shutdown bool
	wg       sync.WaitGroup
}

// NewServer creates a server for the given socket path.
func NewServer(socketPath string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		socketPath: socketPath,
		logger:     logger.With("component", "daemon"),
	}
}

// SetHandler sets the request handler.
func (s *Server) SetHandler(h RequestHandler) {
	s.handler = h
}

// ListenAndServe accepts connections until the context is cancelled.
// A stale socket from a crashed daemon is removed first.
func (s *Server) ListenAndServe(ctx context.Context) error {
	_ = os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.socketPath, err)
	}
	s.listener = listener
	s.started = time.Now()

	defer func() {
		_ = listener.Close()
		_ = os.Remove(s.socketPath)
	}()

	s.logger.Info("control socket listening", "socket", s.socketPath)

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			s.mu.Lock()
			shutdown := s.shutdown
			s.mu.Unlock()
			if shutdown {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.wg.Wait()
	return ctx.Err()
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		s.logger.Warn("set connection deadline failed", "error", err)
	}

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	var req Request
	if err := decoder.Decode(&req); err != nil {
		_ = encoder.Encode(NewErrorResponse("", ErrCodeParseError, "failed to parse request"))
		return
	}
	if err := req.Validate(); err != nil {
		_ = encoder.Encode(NewErrorResponse(req.ID, ErrCodeInvalidRequest, err.Error()))
		return
	}

	_ = encoder.Encode(s.handleRequest(ctx, req))
}

func (s *Server) handleRequest(ctx context.Context, req Request) Response {
	switch req.Method {
	case MethodPing:
		return NewSuccessResponse(req.ID, PingResult{Pong: true})

	case MethodStatus:
		return NewSuccessResponse(req.ID, s.status())

	case MethodUpdate:
		return s.handleUpdate(ctx, req)

	case MethodStop:
		if s.handler != nil {
			s.handler.HandleStop()
		}
		return NewSuccessResponse(req.ID, StopResult{Stopping: true})

	default:
		return NewErrorResponse(req.ID, ErrCodeMethodNotFound,
			fmt.Sprintf("method not found: %s", req.Method))
	}
}

func (s *Server) handleUpdate(ctx context.Context, req Request) Response {
	if s.handler == nil {
		return NewErrorResponse(req.ID, ErrCodeInternalError, "no handler configured")
	}

	result, err := s.handler.HandleUpdate(ctx)
	if errors.Is(err, index.ErrUpdateInProgress) {
		return NewErrorResponse(req.ID, ErrCodeUpdateBusy, "an update cycle is already running")
	}
	if err != nil {
		return NewErrorResponse(req.ID, ErrCodeUpdateFailed, err.Error())
	}
	return NewSuccessResponse(req.ID, result)
}

// status merges the server's own vitals with the handler's view.
func (s *Server) status() StatusResult {
	status := StatusResult{
		Running: true,
		PID:     os.Getpid(),
		Uptime:  time.Since(s.started).Round(time.Second).String(),
	}
	if s.handler != nil {
		h := s.handler.HandleStatus()
		status.VaultPath = h.VaultPath
		status.EngineState = h.EngineState
		status.IndexSize = h.IndexSize
		status.LastUpdate = h.LastUpdate
		status.Refresher = h.Refresher
		status.Watcher = h.Watcher
	}
	return status
}

// Close stops accepting connections.
func (s *Server) Close() error {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}
