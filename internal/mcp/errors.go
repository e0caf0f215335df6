// Package mcp exposes the index engine to Model Context Protocol
// clients over stdio. Four tools cover the full surface: vault_search,
// vault_update, vault_stats, and vault_exclude.
package mcp

import (
	"context"
	"errors"
	"fmt"

	glerrors "github.com/IgorArodrigues/Gladys-IA/internal/errors"
	"github.com/IgorArodrigues/Gladys-IA/internal/index"
)

// Custom MCP error codes for Gladys.
const (
	// ErrCodeIndexInconsistent indicates the index is inconsistent and
	// recovery has been exhausted.
	ErrCodeIndexInconsistent = -32001

	// ErrCodeUpdateBusy indicates an update cycle is already running.
	ErrCodeUpdateBusy = -32002

	// ErrCodeTimeout indicates the request timed out or was canceled.
	ErrCodeTimeout = -32003

	// ErrCodeEmbeddingFailed indicates the embedding provider failed.
	ErrCodeEmbeddingFailed = -32004

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var gerr *glerrors.GladysError
	if errors.As(err, &gerr) {
		return mapGladysError(gerr)
	}

	switch {
	case errors.Is(err, index.ErrUpdateInProgress):
		return &MCPError{
			Code:    ErrCodeUpdateBusy,
			Message: "An update cycle is already running. Try again shortly.",
		}
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out.",
		}
	case errors.Is(err, context.Canceled):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request was canceled.",
		}
	default:
		return &MCPError{
			Code:    ErrCodeInternalError,
			Message: "Internal server error.",
		}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{
		Code:    ErrCodeInvalidParams,
		Message: msg,
	}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Tool '%s' not found.", name),
	}
}

// mapGladysError converts a GladysError to an MCPError. The suggestion
// rides along in the message so the model can relay it.
func mapGladysError(ge *glerrors.GladysError) *MCPError {
	message := ge.Message
	if ge.Suggestion != "" {
		message = fmt.Sprintf("%s %s", ge.Message, ge.Suggestion)
	}

	switch ge.Category {
	case glerrors.CategoryIO:
		switch ge.Code {
		case glerrors.ErrCodeSnapshotCorrupt:
			return &MCPError{
				Code:    ErrCodeIndexInconsistent,
				Message: message,
			}
		default:
			return &MCPError{
				Code:    ErrCodeInternalError,
				Message: message,
			}
		}
	case glerrors.CategoryNetwork:
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: message,
		}
	case glerrors.CategoryValidation:
		return &MCPError{
			Code:    ErrCodeInvalidParams,
			Message: message,
		}
	default: // CategoryConfig, CategoryInternal and unknown
		switch ge.Code {
		case glerrors.ErrCodeRebuildFailed:
			return &MCPError{
				Code:    ErrCodeIndexInconsistent,
				Message: message,
			}
		case glerrors.ErrCodeEmbeddingFailed:
			return &MCPError{
				Code:    ErrCodeEmbeddingFailed,
				Message: message,
			}
		default:
			return &MCPError{
				Code:    ErrCodeInternalError,
				Message: message,
			}
		}
	}
}
