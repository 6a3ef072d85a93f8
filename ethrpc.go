// Package ethrpc is an asynchronous client library for an Ethereum-
// family JSON-RPC node: a transport multiplexer over WebSocket/IPC/
// HTTP, a typed RPC facade, an ABI/event codec, and a signer with
// gap-free nonce allocation.
package ethrpc

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/desktable/aioweb3/internal/elog"
)

// ErrorKind classifies a client error for caller-side recovery
// decisions.
type ErrorKind int

const (
	// KindParseError: malformed JSON / schema mismatch.
	KindParseError ErrorKind = iota
	// KindProtocolError: a non-null `error` in a JSON-RPC response.
	KindProtocolError
	// KindTimeoutError: a send_request deadline expired.
	KindTimeoutError
	// KindNotSupported: subscription attempted on an HTTP transport.
	KindNotSupported
	// KindTransportError: connection-level failure.
	KindTransportError
	// KindSendError: submission failed under the Signer; nonce not consumed.
	KindSendError
	// KindDroppedTx: the node's nonce passed a pending transaction without a receipt.
	KindDroppedTx
	// KindWaitTimeout: a per-wait deadline expired; the tx may still be in-flight.
	KindWaitTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindParseError:
		return "ParseError"
	case KindProtocolError:
		return "ProtocolError"
	case KindTimeoutError:
		return "TimeoutError"
	case KindNotSupported:
		return "NotSupported"
	case KindTransportError:
		return "TransportError"
	case KindSendError:
		return "SendError"
	case KindDroppedTx:
		return "DroppedTxError"
	case KindWaitTimeout:
		return "WaitTimeoutError"
	default:
		return "UnknownError"
	}
}

// Error is the single classified error type returned by this module,
// mirroring the ChainError{Code, Message, Classification, Cause}
// pattern (src/chainadapter/error.go).
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ethrpc: %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("ethrpc: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind ErrorKind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// ParseError, ProtocolError, TimeoutError, NotSupportedError,
// TransportError, SendError, DroppedTxError, and WaitTimeoutError
// construct classified errors of the matching ErrorKind.

func ParseError(cause error, format string, args ...interface{}) *Error {
	return newError(KindParseError, cause, format, args...)
}

func ProtocolError(cause error, format string, args ...interface{}) *Error {
	return newError(KindProtocolError, cause, format, args...)
}

func TimeoutError(cause error, format string, args ...interface{}) *Error {
	return newError(KindTimeoutError, cause, format, args...)
}

func NotSupportedError(format string, args ...interface{}) *Error {
	return newError(KindNotSupported, nil, format, args...)
}

func TransportError(cause error, format string, args ...interface{}) *Error {
	return newError(KindTransportError, cause, format, args...)
}

func SendError(cause error, format string, args ...interface{}) *Error {
	return newError(KindSendError, cause, format, args...)
}

func DroppedTxError(format string, args ...interface{}) *Error {
	return newError(KindDroppedTx, nil, format, args...)
}

func WaitTimeoutError(format string, args ...interface{}) *Error {
	return newError(KindWaitTimeout, nil, format, args...)
}

// Is reports whether err is an *Error of the given kind, unwrapping
// once. Mirrors the IsRetryable/IsNonRetryable helper pattern.
func Is(err error, kind ErrorKind) bool {
	e, ok := err.(*Error)
	if !ok {
		e, ok = errors.Unwrap(err).(*Error)
		if !ok {
			return false
		}
	}
	return e.Kind == kind
}

// SetLogger installs logger as the package-wide structured logger used
// by the transport, facade, and signer layers. The library is silent
// until this is called.
func SetLogger(logger zerolog.Logger) {
	elog.SetLogger(logger)
}
