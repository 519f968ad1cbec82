package api

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrNotAuthenticated means no session exists; the request was not sent.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrUnauthorized means the server rejected the session's token, or the
	// token had already expired. The session has been ended.
	ErrUnauthorized = errors.New("session expired")
)

// AuthError is a rejected login.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "invalid username or password"
	}
	return e.Message
}

// BusinessError is a request the server understood and refused, reported
// through Status:false. Message is shown to the user as-is.
type BusinessError struct {
	Op      string
	Message string
}

func (e *BusinessError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Op + " failed"
}

// StatusError is a non-2xx response other than 401.
type StatusError struct {
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Code)
}

// TransportError wraps network failures, timeouts and unreadable bodies.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// Kind is the user-facing class of a failure.
type Kind int

const (
	KindNone Kind = iota
	KindNotAuthenticated
	KindUnauthorized
	KindAuth
	KindBusiness
	KindTimeout
	KindTransport
	KindCanceled
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNotAuthenticated:
		return "not_authenticated"
	case KindUnauthorized:
		return "unauthorized"
	case KindAuth:
		return "auth"
	case KindBusiness:
		return "business"
	case KindTimeout:
		return "timeout"
	case KindTransport:
		return "transport"
	case KindCanceled:
		return "canceled"
	default:
		return "other"
	}
}

// Classify maps err onto the error taxonomy.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	var (
		authErr      *AuthError
		businessErr  *BusinessError
		statusErr    *StatusError
		transportErr *TransportError
	)
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return KindNotAuthenticated
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.As(err, &authErr):
		return KindAuth
	case errors.As(err, &businessErr):
		return KindBusiness
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.As(err, &transportErr):
		if transportErr.Timeout() {
			return KindTimeout
		}
		return KindTransport
	case errors.As(err, &statusErr):
		return KindTransport
	default:
		return KindOther
	}
}

// Messages shown for failures without a server-provided text.
const (
	MsgSessionExpired   = "Session expired. Please log in again."
	MsgNotAuthenticated = "You must be logged in to do that."
	MsgTimeout          = "Request timed out. Please try again."
	MsgTransport        = "Could not reach the library server. Please try again."
)

// Message returns the text to show the user for err.
func Message(err error) string {
	switch Classify(err) {
	case KindNone:
		return ""
	case KindNotAuthenticated:
		return MsgNotAuthenticated
	case KindUnauthorized:
		return MsgSessionExpired
	case KindTimeout:
		return MsgTimeout
	case KindTransport:
		return MsgTransport
	case KindCanceled:
		return "Request cancelled."
	default:
		var (
			authErr     *AuthError
			businessErr *BusinessError
		)
		if errors.As(err, &authErr) {
			return authErr.Error()
		}
		if errors.As(err, &businessErr) {
			return businessErr.Error()
		}
		return err.Error()
	}
}
