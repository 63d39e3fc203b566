package logger

// Canonical structured log field names. Keeping these in one place
// makes log output greppable across the server, engine, and CLI.
const (
	KeyConnID   = "conn_id"
	KeyClientIP = "client_ip"
	KeyTLS      = "tls"
	KeyQuery    = "query"
	KeyMode     = "mode"
	KeyVerdict  = "verdict"
	KeyDuration = "duration_ms"
	KeyFile     = "file"
	KeyError    = "error"
	KeyPort     = "port"
	KeyAddress  = "address"
	KeyTraceID  = "trace_id"
)

// Mode field values for lookup logging.
const (
	ModeReread = "reread"
	ModeCached = "cached"
)
