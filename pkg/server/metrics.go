package server

import "time"

// ConnMetrics receives per-connection observations. Implementations must
// be safe for concurrent use. A nil ConnMetrics disables collection.
type ConnMetrics interface {
	// ConnOpened is called when a connection handler starts.
	ConnOpened()

	// ConnClosed is called exactly once per connection with the final
	// result label and the wall time from accept to close.
	ConnClosed(result string, duration time.Duration)
}

// Connection result labels.
const (
	ResultOK          = "ok"
	ResultOversized   = "oversized"
	ResultTLSRejected = "tls_rejected"
	ResultDisconnect  = "disconnect"
	ResultError       = "error"
)
