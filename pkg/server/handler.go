package server

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/avolpe/searchd/internal/logger"
	"github.com/avolpe/searchd/internal/telemetry"
)

// MaxPayloadSize is the largest accepted query payload in bytes. Anything
// larger is rejected before a lookup is attempted.
const MaxPayloadSize = 1024

// Fixed wire responses. Every connection receives exactly one of these.
var (
	respExists      = []byte("STRING EXISTS\n")
	respNotFound    = []byte("STRING NOT FOUND\n")
	respTooLarge    = []byte("ERROR: Payload too large. Max 1024 bytes allowed.\n")
	respSSLRequired = []byte("ERROR: SSL required\n")
)

// handleConn runs the per-connection state machine:
//
//	ACCEPTED -> PEEK -> [TLS_HANDSHAKE] -> READING -> RESPONDING -> CLOSED
//
// The connection is single-shot: one query, one response, then close.
// Every exit path releases the connection, and no error escapes to the
// accept loop.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	start := time.Now()
	result := ResultError

	connID := uuid.New().String()
	lc := logger.NewLogContext(connID, peerIP(conn))
	ctx = logger.WithContext(ctx, lc)

	ctx, span := telemetry.StartSpan(ctx, "server.HandleConn")
	defer span.End()

	if s.metrics != nil {
		s.metrics.ConnOpened()
	}

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCtx(ctx, "panic while handling connection", "panic", r)
		}
		_ = conn.Close()
		if s.metrics != nil {
			s.metrics.ConnClosed(result, time.Since(start))
		}
		telemetry.SetAttributes(ctx, attribute.String("conn.result", result))
	}()

	bc := newBufferedConn(conn)

	// Peek one byte to detect peers that connected and immediately went
	// away, without consuming anything a later stage needs.
	if _, err := bc.Peek(1); err != nil {
		logger.DebugCtx(ctx, "client disconnected before sending data", logger.KeyError, err)
		result = ResultDisconnect
		return
	}

	var stream net.Conn = bc
	if s.config.TLSConfig != nil {
		tlsConn := tls.Server(bc, s.config.TLSConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			result = ResultTLSRejected

			// A record header error means the peer is speaking plaintext
			// on a TLS-required port; that peer can still understand a
			// cleartext error line. Any other handshake failure leaves no
			// trustworthy channel, so drop silently.
			var rhErr tls.RecordHeaderError
			if errors.As(err, &rhErr) {
				logger.WarnCtx(ctx, "rejecting non-TLS connection on TLS port")
				_, _ = bc.Write(respSSLRequired)
				return
			}

			telemetry.RecordError(ctx, err)
			logger.ErrorCtx(ctx, "TLS handshake failed", logger.KeyError, err)
			return
		}
		lc.TLS = true
		logger.DebugCtx(ctx, "TLS handshake completed")
		stream = tlsConn
	}

	// Single receive; one extra byte so an oversized payload is
	// distinguishable from one that exactly fills the limit.
	buf := make([]byte, MaxPayloadSize+1)
	n, err := stream.Read(buf)
	if err != nil {
		if err == io.EOF {
			logger.DebugCtx(ctx, "client disconnected")
			result = ResultDisconnect
		} else if isConnReset(err) {
			logger.WarnCtx(ctx, "client connection reset", logger.KeyError, err)
			result = ResultDisconnect
		} else {
			telemetry.RecordError(ctx, err)
			logger.WarnCtx(ctx, "read error", logger.KeyError, err)
		}
		return
	}

	if n > MaxPayloadSize {
		logger.WarnCtx(ctx, "payload too large", "bytes", n)
		_, _ = stream.Write(respTooLarge)
		result = ResultOversized
		return
	}

	query := strings.TrimSpace(string(buf[:n]))

	resp := respNotFound
	if s.engine.Exists(ctx, query) {
		resp = respExists
	}

	if _, err := stream.Write(resp); err != nil {
		if isConnReset(err) {
			logger.WarnCtx(ctx, "client vanished before response", logger.KeyError, err)
			result = ResultDisconnect
		} else {
			telemetry.RecordError(ctx, err)
			logger.WarnCtx(ctx, "write error", logger.KeyError, err)
		}
		return
	}

	result = ResultOK
	args := []any{logger.KeyDuration, logger.Duration(start)}
	if id := telemetry.TraceID(ctx); id != "" {
		args = append(args, logger.KeyTraceID, id)
	}
	logger.InfoCtx(ctx, "connection served", args...)
}

// peerIP extracts the peer address without the port.
func peerIP(conn net.Conn) string {
	addr := conn.RemoteAddr()
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

// isConnReset reports whether err is a reset/broken-pipe class failure.
func isConnReset(err error) bool {
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, net.ErrClosed)
}
