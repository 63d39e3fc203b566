package server

import (
	"bufio"
	"net"
)

// bufferedConn wraps a net.Conn with a read buffer so the handler can peek
// at the first byte without consuming it. The wrapper still satisfies
// net.Conn, which lets tls.Server upgrade it in place: bytes buffered
// during the peek are replayed to the TLS layer.
type bufferedConn struct {
	r *bufio.Reader
	net.Conn
}

func newBufferedConn(c net.Conn) *bufferedConn {
	return &bufferedConn{
		r:    bufio.NewReaderSize(c, 2*1024),
		Conn: c,
	}
}

// Peek returns the next n bytes without advancing the reader.
func (b *bufferedConn) Peek(n int) ([]byte, error) {
	return b.r.Peek(n)
}

func (b *bufferedConn) Read(p []byte) (int, error) {
	return b.r.Read(p)
}
