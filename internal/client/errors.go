// ABOUTME: Error taxonomy and result descriptors for API operations
// ABOUTME: Classifies transport failures and applies the user-facing message policy

package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies why an operation failed
type Kind int

const (
	KindNone Kind = iota
	KindNetwork
	KindUnauthorized
	KindValidation
	KindServer
	KindDecode
	KindLocal
)

// String returns the string representation of a Kind
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNetwork:
		return "network"
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	case KindDecode:
		return "decode"
	case KindLocal:
		return "local"
	default:
		return "unknown"
	}
}

// Error is returned by every Client call that fails.
// Message holds the server-supplied `error` field and is empty when the
// server did not provide one.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.StatusCode != 0:
		return fmt.Sprintf("backend error (%d): %s", e.StatusCode, e.Message)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	case e.StatusCode != 0:
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	default:
		return "request failed: " + e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// kindForStatus maps a non-2xx HTTP status to an error kind
func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindServer
	}
}

// KindOf returns the kind of err, KindNone for nil and KindNetwork for
// errors that did not come from the client
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindNetwork
}

// IsUnauthorized reports whether err is a rejected credential
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}

// ServerMessage returns the server-supplied error message carried by err, if any
func ServerMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// Result is the descriptor every core operation returns instead of an error
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Kind    Kind   `json:"-"`
}

// OK returns a successful result
func OK() Result {
	return Result{Success: true}
}

// Failure converts err into a failed result. The server's `error` field is
// used verbatim when present, otherwise fallback.
func Failure(err error, fallback string) Result {
	msg := ServerMessage(err)
	if msg == "" {
		msg = fallback
	}
	return Result{Error: msg, Kind: KindOf(err)}
}

// LocalFailure returns a failed result for a precondition checked before any request
func LocalFailure(msg string) Result {
	return Result{Error: msg, Kind: KindLocal}
}

// IsLocal reports whether the result failed before reaching the network
func (r Result) IsLocal() bool {
	return !r.Success && r.Kind == KindLocal
}
