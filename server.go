package h1

import (
	"context"
	"io"
	"net"
)

// RequestHandler processes one parsed request and returns an
// in-progress BodyWriter for its response, in the teacher's
// RequestHandler convention (server.go's
// `type RequestHandler func(ctx *RequestCtx)`) adapted to this engine's
// explicit views: the handler owns consuming req's body (via
// req.BodyReader() or req.Finish()) and building the response (via
// BuildResponse), since entering the Connection's write phase
// invalidates any outstanding read view. ServeConn calls bw.Finish
// itself once the handler returns, so the handler should not.
type RequestHandler func(ctx context.Context, req *Request) (*BodyWriter, error)

// Server holds the configuration used to serve connections, mirroring
// the teacher's Server{Handler, ...} struct-of-fields shape.
type Server struct {
	Handler RequestHandler
	Config  Config
}

// ServeConn drives the request/response cycle over a single connection
// until the peer closes it, a protocol error occurs, or a cycle
// negotiates Connection: close. It always closes conn before returning,
// mirroring the teacher's ServeConn contract.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) error {
	transport := NewNetConnTransport(conn)
	c := NewConnection(transport, s.Config.ClientVersion, s.Config)
	defer c.Close()

	for {
		req, err := ReadRequest(ctx, c)
		if err != nil {
			if err == io.EOF {
				// Peer closed between requests; a clean end of the
				// keep-alive loop, not a failure (Connection.FillBuffer).
				return nil
			}
			return err
		}

		wantClose := false
		if v, ok := req.Headers().Get(ConnectionName); ok {
			if directive, perr := ParseConnectionValue(v); perr == nil && directive == ConnectionClose {
				wantClose = true
			}
		}

		bw, err := s.Handler(ctx, req)
		if err != nil {
			return err
		}
		c, err = bw.Finish(ctx)
		if err != nil {
			return err
		}
		if wantClose {
			return nil
		}
	}
}

// logger returns the configured Logger, falling back to a discarding one,
// mirroring the teacher's Server.logger() lazy-default accessor.
func (s *Server) logger() Logger {
	if s.Config.Logger != nil {
		return s.Config.Logger
	}
	return discardLogger{}
}

// Serve accepts connections from ln and serves each on its own
// goroutine, in the teacher's Serve(ln, handler) convention. A
// ServeConn error is logged and discarded rather than propagated, since
// it only ever concerns the one misbehaving peer (teacher's server.go
// does the same around its own serveConn call).
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go func() {
			defer conn.Close()
			if err := s.ServeConn(ctx, conn); err != nil && err != io.EOF {
				s.logger().Printf("h1: connection from %s closed: %s", conn.RemoteAddr(), err)
			}
		}()
	}
}

// ListenAndServe listens on addr and serves incoming connections with
// s.Handler, using cfg to build the listener (SO_REUSEPORT when
// cfg.ReusePort is set).
func (s *Server) ListenAndServe(ctx context.Context, network, addr string, cfg ListenConfig) error {
	ln, err := Listen(network, addr, cfg)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}
