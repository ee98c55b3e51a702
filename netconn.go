package h1

import (
	"errors"
	"net"
	"os"
	"time"
)

// netConnPollWindow is how far ahead NetConnTransport sets each
// deadline. The net package refuses to attempt I/O at all once a
// deadline has passed, so a deadline of time.Now() would never move a
// byte; a short positive window lets ready data through while bounding
// how long one Read or Write can wait.
const netConnPollWindow = time.Millisecond

// NetConnTransport adapts any net.Conn to the Transport contract using
// a short-deadline poll: before each Read/Write it sets a deadline
// netConnPollWindow in the future, so the operation returns within that
// window — either with the data that could be transferred, or with a
// deadline-exceeded error that this adapter translates to ErrWouldBlock.
// This gives non-blocking semantics (bounded by the window) over any
// net.Conn without needing a platform-specific syscall path (see
// rawconn_unix.go for that alternative on unix).
type NetConnTransport struct {
	Conn net.Conn
}

// NewNetConnTransport wraps conn for non-blocking use by the engine.
func NewNetConnTransport(conn net.Conn) *NetConnTransport {
	return &NetConnTransport{Conn: conn}
}

func (t *NetConnTransport) Read(p []byte) (int, error) {
	if err := t.Conn.SetReadDeadline(time.Now().Add(netConnPollWindow)); err != nil {
		return 0, wrapErr(KindIO, 500, err)
	}
	n, err := t.Conn.Read(p)
	if err != nil && isDeadlineExceeded(err) {
		return n, ErrWouldBlock
	}
	return n, err
}

func (t *NetConnTransport) Write(p []byte) (int, error) {
	if err := t.Conn.SetWriteDeadline(time.Now().Add(netConnPollWindow)); err != nil {
		return 0, wrapErr(KindIO, 500, err)
	}
	n, err := t.Conn.Write(p)
	if err != nil && isDeadlineExceeded(err) {
		return n, ErrWouldBlock
	}
	return n, err
}

// Close closes the underlying net.Conn.
func (t *NetConnTransport) Close() error { return t.Conn.Close() }

func isDeadlineExceeded(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
