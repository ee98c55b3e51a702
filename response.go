package h1

import (
	"context"
	"strconv"

	"github.com/valyala/bytebufferpool"
)

// Response is an immutable read view over a parsed response, the
// client-role mirror of Request (spec.md §3/§4.E).
type Response struct {
	conn       *Connection
	status     RawStatus
	version    Version
	headers    Headers
	generation uint64
	consumed   bool
}

func (r *Response) checkFresh() {
	if r.generation != r.conn.generation {
		panic("h1: stale Response view used after its Connection's buffer phase changed")
	}
	if r.consumed {
		panic("h1: Response view used after BodyReader()/Finish()")
	}
}

// Status returns the raw status code/reason as sent on the wire.
func (r *Response) Status() RawStatus { r.checkFresh(); return r.status }

// Version returns the parsed HTTP version.
func (r *Response) Version() Version { r.checkFresh(); return r.version }

// Headers returns the parsed headers collection view.
func (r *Response) Headers() Headers { r.checkFresh(); return r.headers }

// BodyReader selects and returns the appropriate BodyReader for this
// response's framing (spec.md §4.G — including RawToClose, which only
// applies to responses).
func (r *Response) BodyReader() (*BodyReader, error) {
	r.checkFresh()
	br, err := newBodyReaderFor(r.conn, r.headers, false)
	if err != nil {
		return nil, err
	}
	r.consumed = true
	return br, nil
}

// Finish discards any response body, draining it first so the
// Connection can be safely reused for the next request (see
// Request.Finish / DESIGN.md's Open Question decision). As with
// Request.Finish, any bytes past the drained body stay buffered for
// the next pipelined message rather than being discarded.
func (r *Response) Finish(ctx context.Context) (*Connection, error) {
	r.checkFresh()
	br, err := newBodyReaderFor(r.conn, r.headers, false)
	if err != nil {
		return nil, err
	}
	r.consumed = true
	if err := drainBody(ctx, br); err != nil {
		return nil, err
	}
	return br.Connection(), nil
}

// ResponseBuilder is the write-phase view over a Connection used to
// serialize a response (server role), per spec.md §4.F.
type ResponseBuilder struct {
	conn           *Connection
	scratch        *bytebufferpool.ByteBuffer
	finished       bool
	declaredLength *uint64
}

// BuildResponse begins writing a response: it puts conn's ByteBuffer
// into the write phase and serializes "VERSION code reason\r\n". reason
// may be "" to use status's canonical reason phrase when status is
// registered.
func BuildResponse(conn *Connection, version Version, status Status, reason string) (*ResponseBuilder, error) {
	if reason == "" {
		reason = status.Reason()
	}
	return buildRawResponse(conn, version, RawStatus{Code: int(status), Reason: reason})
}

// BuildRawResponse is like BuildResponse but for an arbitrary, possibly
// unregistered status code/reason pair.
func BuildRawResponse(conn *Connection, version Version, status RawStatus) (*ResponseBuilder, error) {
	return buildRawResponse(conn, version, status)
}

func buildRawResponse(conn *Connection, version Version, status RawStatus) (*ResponseBuilder, error) {
	conn.EnterWritePhase()
	rb := &ResponseBuilder{conn: conn, scratch: defaultScratchPool.Get()}
	rb.scratch.Reset()
	rb.scratch.WriteString(version.String())
	rb.scratch.WriteByte(' ')
	rb.scratch.WriteString(strconv.Itoa(status.Code))
	rb.scratch.WriteByte(' ')
	rb.scratch.WriteString(status.Reason)
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
func (rb *ResponseBuilder) AddHeader(name string, hv HeaderValue) error {
	if cl, ok := hv.(ContentLength); ok {
		n := uint64(cl)
		rb.declaredLength = &n
	}
	return addHeaderLine(rb.conn, rb.scratch, name, hv)
}

// AddRawHeader appends "name: <raw bytes>\r\n" verbatim.
func (rb *ResponseBuilder) AddRawHeader(name string, value []byte) error {
	return addRawHeaderLine(rb.conn, rb.scratch, name, value)
}

// Finish appends the terminating blank line and transitions into a
// BodyWriter.
func (rb *ResponseBuilder) Finish() (*BodyWriter, error) {
	if rb.finished {
		panic("h1: ResponseBuilder.Finish called twice")
	}
	rb.finished = true
	defer defaultScratchPool.Put(rb.scratch)
	if err := rb.conn.WriteBuffered(crlf); err != nil {
		return nil, err
	}
	return newBodyWriter(rb.conn, rb.declaredLength), nil
}
