// Package server implements the TCP front end of searchd: a listener that
// accepts connections and hands each one to its own goroutine, and the
// per-connection handler that optionally negotiates TLS, reads exactly one
// query line, and writes back a verdict.
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"

	"github.com/avolpe/searchd/internal/logger"
	"github.com/avolpe/searchd/pkg/search"
)

// Config holds configuration for the lookup server.
type Config struct {
	// Host is the address to bind (default 0.0.0.0).
	Host string

	// Port is the TCP port to listen on.
	Port int

	// TLSConfig enables TLS when non-nil; clients must then complete a
	// handshake before sending their query.
	TLSConfig *tls.Config
}

// Server accepts TCP connections and answers one lookup query per
// connection.
//
// Each accepted connection is dispatched to its own goroutine and is not
// awaited by the accept loop, so a slow client cannot stall acceptance.
// There is deliberately no connection cap and no per-connection timeout: a
// silent client occupies its goroutine until it sends data or disconnects.
type Server struct {
	config        Config
	engine        *search.Engine
	metrics       ConnMetrics
	listener      net.Listener
	shutdown      chan struct{}
	shutdownOnce  sync.Once
	wg            sync.WaitGroup
	listenerReady chan struct{}
}

// New creates a lookup server around the given engine.
// metrics may be nil to disable connection instrumentation.
func New(cfg Config, engine *search.Engine, metrics ConnMetrics) *Server {
	return &Server{
		config:        cfg,
		engine:        engine,
		metrics:       metrics,
		shutdown:      make(chan struct{}),
		listenerReady: make(chan struct{}),
	}
}

// Serve binds the listener and accepts connections until the context is
// cancelled or Stop is called. After the listener is bound, WaitReady()
// unblocks. In-flight connection handlers are allowed to finish.
func (s *Server) Serve(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprintf("%d", s.config.Port))

	// Go sets SO_REUSEADDR on TCP listeners by default on Unix, which
	// covers the address-reuse requirement across restarts.
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen TCP %s: %w", addr, err)
	}
	s.listener = listener

	close(s.listenerReady)

	logger.Info("Server started",
		logger.KeyAddress, addr,
		logger.KeyTLS, s.config.TLSConfig != nil,
		logger.KeyMode, s.engine.Mode(),
	)

	s.wg.Add(1)
	go s.acceptLoop(ctx)

	// Monitor context cancellation
	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.shutdown:
		}
	}()

	s.wg.Wait()
	return nil
}

// WaitReady returns a channel that is closed once the listener is bound
// and accepting connections. Callers should select on it with a timeout
// to detect startup failures.
func (s *Server) WaitReady() <-chan struct{} {
	return s.listenerReady
}

// acceptLoop accepts connections and dispatches each to its own goroutine.
func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return
			default:
				logger.Debug("Accept error", logger.KeyError, err)
				return
			}
		}

		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			s.handleConn(ctx, c)
		}(conn)
	}
}

// Stop stops accepting new connections and waits for all in-flight
// handlers to complete before returning. Safe to call more than once.
//
// Handlers apply no read deadline, so a connected peer that never sends
// a byte holds its handler open and Stop blocks until that peer writes
// or disconnects.
func (s *Server) Stop() {
	s.shutdownOnce.Do(func() {
		close(s.shutdown)
		if s.listener != nil {
			_ = s.listener.Close()
		}
	})
	s.wg.Wait()
}

// Addr returns the listener address (for tests).
// Returns empty string if the server is not listening.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
