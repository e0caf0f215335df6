package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// asGladys unwraps err to a GladysError if one is in the chain.
func asGladys(err error) (*GladysError, bool) {
	var ge *GladysError
	ok := errors.As(err, &ge)
	return ge, ok
}

// FormatForUser returns a user-friendly error message.
func FormatForUser(err error) string {
	if err == nil {
		return ""
	}
	ge, ok := asGladys(err)
	if !ok {
		return err.Error()
	}

	var sb strings.Builder
	sb.WriteString("Error: ")
	sb.WriteString(ge.Message)
	sb.WriteString("\n")
	if ge.Suggestion != "" {
		sb.WriteString("\nSuggestion: ")
		sb.WriteString(ge.Suggestion)
		sb.WriteString("\n")
	}
	_, _ = fmt.Fprintf(&sb, "\n[%s]", ge.Code)
	return sb.String()
}

// FormatForCLI formats an error for CLI output.
// Uses a concise format suitable for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}
	ge, ok := asGladys(err)
	if !ok {
		ge = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "Error: %s\n", ge.Message)
	if ge.Suggestion != "" {
		_, _ = fmt.Fprintf(&sb, "  Hint: %s\n", ge.Suggestion)
	}
	_, _ = fmt.Fprintf(&sb, "  Code: %s\n", ge.Code)
	return sb.String()
}

// jsonError is the JSON representation of an error.
type jsonError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Category   string            `json:"category"`
	Severity   string            `json:"severity"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
	Retryable  bool              `json:"retryable"`
}

// FormatJSON returns a JSON representation of the error.
// Suitable for machine consumption and structured logging.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}
	ge, ok := asGladys(err)
	if !ok {
		ge = Wrap(ErrCodeInternal, err)
	}

	je := jsonError{
		Code:       ge.Code,
		Message:    ge.Message,
		Category:   string(ge.Category),
		Severity:   string(ge.Severity),
		Details:    ge.Details,
		Suggestion: ge.Suggestion,
		Retryable:  ge.Retryable,
	}
	if ge.Cause != nil {
		je.Cause = ge.Cause.Error()
	}
	return json.Marshal(je)
}

// FormatForLog formats an error for structured logging.
// Returns key-value pairs suitable for slog attributes.
func FormatForLog(err error) map[string]any {
	if err == nil {
		return nil
	}
	ge, ok := asGladys(err)
	if !ok {
		return map[string]any{"error": err.Error()}
	}

	attrs := map[string]any{
		"error_code": ge.Code,
		"message":    ge.Message,
		"category":   string(ge.Category),
		"severity":   string(ge.Severity),
		"retryable":  ge.Retryable,
	}
	if ge.Cause != nil {
		attrs["cause"] = ge.Cause.Error()
	}
	if ge.Suggestion != "" {
		attrs["suggestion"] = ge.Suggestion
	}
	for k, v := range ge.Details {
		attrs["detail_"+k] = v
	}
	return attrs
}
