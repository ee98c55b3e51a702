package h1

import (
	"context"
	"net"
)

// Client dials a host and drives one request/response cycle at a time
// over the resulting Connection, the mirror of Server for the client
// role (spec.md §6's "client.go exposes the mirror image").
type Client struct {
	Config Config
}

// DialConn dials network/addr and wraps the resulting net.Conn in a
// fresh Connection, ready for BuildRequest.
func (c *Client) DialConn(ctx context.Context, network, addr string) (*Connection, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, wrapErr(KindIO, 502, err)
	}
	transport := NewNetConnTransport(conn)
	return NewConnection(transport, c.Config.ClientVersion, c.Config), nil
}

// Do sends one request against conn and returns the parsed Response;
// the Connection itself is reclaimed once response headers are
// available (the caller still owns draining or reading the response
// body via Response.BodyReader()/Finish()). addHeaders appends request
// headers (may be nil); writeBody streams the request body through the
// returned BodyWriter before it is finished (may be nil for a bodyless
// request such as GET).
func (c *Client) Do(ctx context.Context, conn *Connection, method Method, target string, version Version, addHeaders func(*RequestBuilder) error, writeBody func(*BodyWriter) error) (*Response, error) {
	rb, err := BuildRequest(conn, method, target, version)
	if err != nil {
		return nil, err
	}
	if addHeaders != nil {
		if err := addHeaders(rb); err != nil {
			return nil, err
		}
	}
	bw, err := rb.Finish()
	if err != nil {
		return nil, err
	}
	if writeBody != nil {
		if err := writeBody(bw); err != nil {
			return nil, err
		}
	}
	reclaimed, err := bw.Finish(ctx)
	if err != nil {
		return nil, err
	}
	return ReadResponse(ctx, reclaimed)
}
