//go:build !unix

package h1

import "net"

// RawTransport is unavailable on non-unix platforms; use
// NetConnTransport there instead.
type RawTransport struct{}

// NewRawTransport always fails on non-unix platforms.
func NewRawTransport(conn net.Conn) (*RawTransport, error) {
	return nil, ErrUnsupportedPlatform
}

func (t *RawTransport) Read(p []byte) (int, error)  { return 0, ErrUnsupportedPlatform }
func (t *RawTransport) Write(p []byte) (int, error) { return 0, ErrUnsupportedPlatform }
