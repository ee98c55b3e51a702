package h1

import (
	"context"

	"github.com/valyala/bytebufferpool"
)

// Request is an immutable read view over a parsed request, borrowing
// from its Connection's buffers (spec.md §3/§4.E). At most one read view
// is alive per Connection at a time; consuming it (via BodyReader or
// Finish) releases the Connection or transitions it into a BodyReader.
type Request struct {
	conn       *Connection
	method     Method
	target     []byte
	version    Version
	headers    Headers
	generation uint64
	consumed   bool
}

func (r *Request) checkFresh() {
	if r.generation != r.conn.generation {
		panic("h1: stale Request view used after its Connection's buffer phase changed")
	}
	if r.consumed {
		panic("h1: Request view used after BodyReader()/Finish()")
	}
}

// Method returns the parsed request method.
func (r *Request) Method() Method { r.checkFresh(); return r.method }

// Target returns the raw request-target string exactly as sent on the
// wire (spec.md §1: "URL parsing beyond the raw request-target string"
// is out of scope).
func (r *Request) Target() []byte { r.checkFresh(); return r.target }

// Version returns the parsed HTTP version.
func (r *Request) Version() Version { r.checkFresh(); return r.version }

// Headers returns the parsed headers collection view.
func (r *Request) Headers() Headers { r.checkFresh(); return r.headers }

// BodyReader selects and returns the appropriate BodyReader for this
// request's framing (spec.md §4.G), consuming the read view: the
// Connection is now owned by the returned BodyReader until it yields
// EOF, at which point the Connection is reclaimed via
// BodyReader.Connection().
func (r *Request) BodyReader() (*BodyReader, error) {
	r.checkFresh()
	br, err := newBodyReaderFor(r.conn, r.headers, true)
	if err != nil {
		return nil, err
	}
	r.consumed = true
	return br, nil
}

// Finish discards any request body and returns the Connection, reusable
// for the next cycle. Per the Open Question decision in DESIGN.md, any
// unread framed body is drained (not merely discarded) so the next
// parse starts at a clean message boundary. Bytes beyond that boundary
// — a pipelined next request — are left buffered, not wiped: the
// Connection stays in the read phase and the next ReadRequest picks up
// wherever this one left off.
func (r *Request) Finish(ctx context.Context) (*Connection, error) {
	r.checkFresh()
	br, err := newBodyReaderFor(r.conn, r.headers, true)
	if err != nil {
		return nil, err
	}
	r.consumed = true
	if err := drainBody(ctx, br); err != nil {
		return nil, err
	}
	return br.Connection(), nil
}

// drainBody reads a BodyReader to completion and discards the bytes,
// used by Finish (and the mirror Response.Finish) to preserve keep-alive
// framing correctness when a handler doesn't read the body itself.
func drainBody(ctx context.Context, br *BodyReader) error {
	var scratch [4096]byte
	for {
		select {
		case <-ctx.Done():
			return wrapErr(KindTimeout, 408, ctx.Err())
		default:
		}
		_, err := br.Read(scratch[:])
		if err == ErrBodyEOF {
			return nil
		}
		if err != nil {
			if IsWouldBlock(err) {
				continue
			}
			return err
		}
	}
}

// RequestBuilder is the write-phase view over a Connection used to
// serialize a request (client role), per spec.md §4.F.
type RequestBuilder struct {
	conn           *Connection
	scratch        *bytebufferpool.ByteBuffer
	finished       bool
	declaredLength *uint64
}

// BuildRequest begins writing a request: it puts conn's ByteBuffer into
// the write phase and serializes "METHOD target VERSION\r\n".
func BuildRequest(conn *Connection, method Method, target string, version Version) (*RequestBuilder, error) {
	conn.EnterWritePhase()
	rb := &RequestBuilder{conn: conn, scratch: defaultScratchPool.Get()}
	rb.scratch.Reset()
	rb.scratch.WriteString(method.String())
	rb.scratch.WriteByte(' ')
	rb.scratch.WriteString(target)
	rb.scratch.WriteByte(' ')
	rb.scratch.WriteString(version.String())
	rb.scratch.Write(crlf)
	if err := conn.WriteBuffered(rb.scratch.B); err != nil {
		return nil, err
	}
	return rb, nil
}

// AddHeader appends "name: value\r\n" using hv's WriteValue. When hv is
// a ContentLength, its value is remembered so the eventual BodyWriter
// can check what was actually written against what was declared (see
// DESIGN.md's Open Question decision on Content-Length mismatches).
func (rb *RequestBuilder) AddHeader(name string, hv HeaderValue) error {
	if cl, ok := hv.(ContentLength); ok {
		n := uint64(cl)
		rb.declaredLength = &n
	}
	return addHeaderLine(rb.conn, rb.scratch, name, hv)
}

// AddRawHeader appends "name: <raw bytes>\r\n" verbatim.
func (rb *RequestBuilder) AddRawHeader(name string, value []byte) error {
	return addRawHeaderLine(rb.conn, rb.scratch, name, value)
}

// Finish appends the terminating blank line and transitions into a
// BodyWriter, releasing the builder's scratch buffer back to its pool.
func (rb *RequestBuilder) Finish() (*BodyWriter, error) {
	if rb.finished {
		panic("h1: RequestBuilder.Finish called twice")
	}
	rb.finished = true
	defer defaultScratchPool.Put(rb.scratch)
	if err := rb.conn.WriteBuffered(crlf); err != nil {
		return nil, err
	}
	return newBodyWriter(rb.conn, rb.declaredLength), nil
}
