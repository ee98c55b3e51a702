//go:build unix

package h1

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// RawTransport is a true non-blocking Transport: it obtains the raw file
// descriptor behind a net.Conn via SyscallConn and issues unix.Read /
// unix.Write directly via raw.Control, translating EAGAIN/EWOULDBLOCK to
// ErrWouldBlock. raw.Control — not raw.Read/raw.Write — is what makes
// this genuinely non-blocking: Read/Write hand the callback to
// internal/poll's RawRead/RawWrite, which retries internally and parks
// the calling goroutine on the runtime netpoller until the callback
// returns true, never returning EAGAIN to the caller at all. Control
// invokes the callback exactly once against the fd's actual (O_NONBLOCK)
// state and returns immediately, so an EAGAIN genuinely comes back as
// ErrWouldBlock instead of blocking. Unlike NetConnTransport this pays
// no per-call SetDeadline syscall; grounded on the teacher's
// platform-split convention (tcp_windows.go, ipv6.go, uri_windows.go use
// the same //go:build split to keep a syscall-level fast path separate
// from the portable fallback) and wired through golang.org/x/sys/unix,
// the same low-level dependency the teacher's own tcplisten package
// relies on for socket setup.
type RawTransport struct {
	raw syscall.RawConn
}

// NewRawTransport wraps a TCP (or other fd-backed) net.Conn for direct,
// syscall-level non-blocking I/O. It returns ErrUnsupportedPlatform if
// conn does not expose a syscall.RawConn (e.g. it is not fd-backed).
func NewRawTransport(conn net.Conn) (*RawTransport, error) {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return nil, ErrUnsupportedPlatform
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return nil, wrapErr(KindIO, 500, err)
	}
	return &RawTransport{raw: raw}, nil
}

func (t *RawTransport) Read(p []byte) (int, error) {
	var n int
	var readErr error
	ctrlErr := t.raw.Control(func(fd uintptr) {
		n, readErr = unix.Read(int(fd), p)
	})
	if ctrlErr != nil {
		return 0, wrapErr(KindIO, 500, ctrlErr)
	}
	if readErr == unix.EAGAIN || readErr == unix.EWOULDBLOCK {
		return 0, ErrWouldBlock
	}
	if readErr != nil {
		return n, wrapErr(KindIO, 500, readErr)
	}
	return n, nil
}

func (t *RawTransport) Write(p []byte) (int, error) {
	var n int
	var writeErr error
	ctrlErr := t.raw.Control(func(fd uintptr) {
		n, writeErr = unix.Write(int(fd), p)
	})
	if ctrlErr != nil {
		return 0, wrapErr(KindIO, 500, ctrlErr)
	}
	if writeErr == unix.EAGAIN || writeErr == unix.EWOULDBLOCK {
		return n, ErrWouldBlock
	}
	if writeErr != nil {
		return n, wrapErr(KindIO, 500, writeErr)
	}
	return n, nil
}
