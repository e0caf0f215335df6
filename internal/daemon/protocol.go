package daemon

import (
	"fmt"
	"time"

	"github.com/IgorArodrigues/Gladys-IA/internal/async"
)

// Control methods understood by the daemon.
const (
	MethodPing   = "ping"
	MethodStatus = "status"
	MethodUpdate = "update"
	MethodStop   = "stop"
)

// JSON-RPC 2.0 error codes.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// Daemon-specific error codes.
const (
	ErrCodeUpdateFailed = -32001
	ErrCodeUpdateBusy   = -32002
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      string `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      string `json:"id"`
}

// Error is a JSON-RPC 2.0 error.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// NewSuccessResponse creates a successful response.
func NewSuccessResponse(id string, result any) Response {
	return Response{JSONRPC: "2.0", Result: result, ID: id}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(id string, code int, message string) Response {
	return Response{
		JSONRPC: "2.0",
		Error:   &Error{Code: code, Message: message},
		ID:      id,
	}
}

// Validate checks the request envelope.
func (r *Request) Validate() error {
	if r.JSONRPC != "2.0" {
		return fmt.Errorf("jsonrpc must be \"2.0\"")
	}
	if r.Method == "" {
		return fmt.Errorf("method is required")
	}
	return nil
}

// StatusResult reports the daemon's and the engine's state.
type StatusResult struct {
	Running   bool   `json:"running"`
	PID       int    `json:"pid"`
	Uptime    string `json:"uptime"`
	VaultPath string `json:"vault_path"`

	EngineState string            `json:"engine_state"`
	IndexSize   int               `json:"index_size"`
	LastUpdate  time.Time         `json:"last_update"`
	Refresher   async.RunSnapshot `json:"refresher"`
	Watcher     string            `json:"watcher,omitempty"`
}

// UpdateResult reports one manually requested cycle.
type UpdateResult struct {
	CycleID   string `json:"cycle_id"`
	State     string `json:"engine_state"`
	IndexSize int    `json:"index_size"`
	Duration  string `json:"duration"`
}

// StopResult acknowledges a stop request.
type StopResult struct {
	Stopping bool `json:"stopping"`
}

// PingResult is the response to a ping.
type PingResult struct {
	Pong bool `json:"pong"`
}
