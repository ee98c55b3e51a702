package h1

import (
	"context"
	"runtime"
)

// PollState is the tri-state outcome of polling one of the engine's
// futures (spec.md §5: "every operation that may block on I/O is
// expressed as a pollable future that returns one of {Ready(value),
// Pending, Error}"). The zero value is intentionally not a valid state,
// so a caller that forgets to check an error can't mistake a
// zero-valued PollState for success.
type PollState int

const (
	pollInvalid PollState = iota
	PollPending
	PollReady
)

func (s PollState) String() string {
	switch s {
	case PollPending:
		return "Pending"
	case PollReady:
		return "Ready"
	default:
		return "Invalid"
	}
}

// awaitMore is the "Partial" branch of spec.md §4.D's parser driver,
// shared by RequestReader and ResponseReader: fail with
// TooLargeNonBodyPart if the buffer is already maxed out; otherwise try
// to read more. ok is true when the caller should re-attempt the parse
// immediately (more bytes arrived); when ok is false the state/err pair
// is what Poll should return to its caller (Pending or a terminal
// error).
func awaitMore(conn *Connection) (ok bool, state PollState, err error) {
	if conn.buf.AtMax() {
		return false, pollInvalid, ErrTooLargeNonBodyPart
	}
	progressed, ferr := conn.FillBuffer()
	if ferr != nil {
		return false, pollInvalid, ferr
	}
	if !progressed {
		return false, PollPending, nil
	}
	return true, pollInvalid, nil
}

// RequestReader is the server-side parser driver (spec.md §4.D): an
// explicit Idle -> Parsing -> Complete | Partial | Error state machine
// polled until a full request-line + header block is available. It
// stores only the in-progress Connection between polls, never a borrow
// into its buffer, so it is safely resumable across suspensions
// (spec.md §5).
type RequestReader struct {
	conn   *Connection
	result *Request
}

// NewRequestReader begins (but does not yet advance) reading the next
// request from conn.
func NewRequestReader(conn *Connection) *RequestReader {
	return &RequestReader{conn: conn}
}

// Poll attempts to make progress. PollReady means Request() now returns
// the parsed view; PollPending means the caller should poll again once
// more bytes may be available; a non-nil error is terminal — the
// Connection should be closed, not reused.
func (r *RequestReader) Poll(ctx context.Context) (PollState, error) {
	if r.result != nil {
		return PollReady, nil
	}
	for {
		select {
		case <-ctx.Done():
			return pollInvalid, wrapErr(KindTimeout, 408, ctx.Err())
		default:
		}

		data, hb := r.conn.BorrowBytesAndHeaderSlots()
		lineEnd := indexCRLF(data)
		if lineEnd < 0 {
			if ok, st, err := awaitMore(r.conn); !ok {
				return st, err
			}
			continue
		}
		hdrEnd := headerBlockEnd(data, lineEnd+2)
		if hdrEnd < 0 {
			if ok, st, err := awaitMore(r.conn); !ok {
				return st, err
			}
			continue
		}

		parsed, err := parseRequestLine(data[:lineEnd])
		if err != nil {
			return pollInvalid, err
		}
		hb.Reset()
		if err := scanHeaders(data, lineEnd+2, hdrEnd, hb); err != nil {
			return pollInvalid, err
		}

		// Copy the target bytes out before Consume invalidates the
		// borrow; the view must outlive this poll.
		target := append([]byte(nil), parsed.target...)

		r.conn.ConsumeBuffered(hdrEnd)
		r.conn.setVersion(parsed.version)
		r.result = &Request{
			conn:       r.conn,
			method:     parsed.method,
			target:     target,
			version:    parsed.version,
			headers:    HeadersOf(hb),
			generation: r.conn.generation,
		}
		return PollReady, nil
	}
}

// Request returns the parsed view once Poll has reported PollReady.
func (r *RequestReader) Request() *Request { return r.result }

// ReadRequest is a blocking convenience wrapper around RequestReader
// for hosts that don't need to interleave other work while waiting: it
// polls until ready, yielding the goroutine on PollPending. Event-loop
// hosts driving many Connections concurrently should call
// RequestReader.Poll directly from their own loop instead of blocking
// a goroutine per Connection here.
func ReadRequest(ctx context.Context, conn *Connection) (*Request, error) {
	rr := NewRequestReader(conn)
	for {
		state, err := rr.Poll(ctx)
		if err != nil {
			return nil, err
		}
		if state == PollReady {
			return rr.Request(), nil
		}
		runtime.Gosched()
	}
}

// ResponseReader is the client-side mirror of RequestReader.
type ResponseReader struct {
	conn   *Connection
	result *Response
}

// NewResponseReader begins reading the next response from conn.
func NewResponseReader(conn *Connection) *ResponseReader {
	return &ResponseReader{conn: conn}
}

func (r *ResponseReader) Poll(ctx context.Context) (PollState, error) {
	if r.result != nil {
		return PollReady, nil
	}
	for {
		select {
		case <-ctx.Done():
			return pollInvalid, wrapErr(KindTimeout, 408, ctx.Err())
		default:
		}

		data, hb := r.conn.BorrowBytesAndHeaderSlots()
		lineEnd := indexCRLF(data)
		if lineEnd < 0 {
			if ok, st, err := awaitMore(r.conn); !ok {
				return st, err
			}
			continue
		}
		hdrEnd := headerBlockEnd(data, lineEnd+2)
		if hdrEnd < 0 {
			if ok, st, err := awaitMore(r.conn); !ok {
				return st, err
			}
			continue
		}

		parsed, err := parseStatusLine(data[:lineEnd])
		if err != nil {
			return pollInvalid, err
		}
		hb.Reset()
		if err := scanHeaders(data, lineEnd+2, hdrEnd, hb); err != nil {
			return pollInvalid, err
		}

		r.conn.ConsumeBuffered(hdrEnd)
		r.conn.setVersion(parsed.version)
		r.result = &Response{
			conn:       r.conn,
			status:     parsed.status,
			version:    parsed.version,
			headers:    HeadersOf(hb),
			generation: r.conn.generation,
		}
		return PollReady, nil
	}
}

// Response returns the parsed view once Poll has reported PollReady.
func (r *ResponseReader) Response() *Response { return r.result }

// ReadResponse is the blocking convenience wrapper mirroring
// ReadRequest.
func ReadResponse(ctx context.Context, conn *Connection) (*Response, error) {
	rr := NewResponseReader(conn)
	for {
		state, err := rr.Poll(ctx)
		if err != nil {
			return nil, err
		}
		if state == PollReady {
			return rr.Response(), nil
		}
		runtime.Gosched()
	}
}

// indexCRLF finds the first "\r\n" in data, returning its offset or -1.
func indexCRLF(data []byte) int {
	for i := 0; i+1 < len(data); i++ {
		if data[i] == '\r' && data[i+1] == '\n' {
			return i
		}
	}
	return -1
}
