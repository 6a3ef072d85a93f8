package transport

import (
	"fmt"
	"strings"
)

// Dial selects a transport by URI scheme: ws:// or wss:// dials a
// WebSocketTransport, http:// or https:// dials an HTTPTransport, and
// anything else is treated as a UNIX-domain socket path and dials an
// IPCTransport.
func Dial(uri string, opts ...Option) (Transport, error) {
	switch {
	case strings.HasPrefix(uri, "ws://"), strings.HasPrefix(uri, "wss://"):
		return NewWebSocketTransport(uri, opts...), nil
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return NewHTTPTransport(uri, opts...), nil
	case uri == "":
		return nil, fmt.Errorf("transport: empty endpoint URI")
	default:
		return NewIPCTransport(uri, opts...), nil
	}
}
