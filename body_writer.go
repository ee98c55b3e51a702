package h1

import (
	"context"
	"runtime"
)

// BodyWriter streams body bytes directly to the transport after a
// Request/ResponseBuilder has flushed its start-line and headers into
// the Connection's ByteBuffer (spec.md §4.H). declaredLength, when
// non-nil, is the value of a Content-Length header the caller added to
// the builder; Finish checks it against bytes actually written (see
// DESIGN.md's Open Question decision: BodyWriter trusts the caller on
// the hot path and only surfaces a mismatch at Finish, rather than
// buffering to clamp writes).
type BodyWriter struct {
	conn           *Connection
	declaredLength *uint64
	written        uint64
	finished       bool
	result         *Connection
}

func newBodyWriter(conn *Connection, declaredLength *uint64) *BodyWriter {
	return &BodyWriter{conn: conn, declaredLength: declaredLength}
}

// Write streams p to the transport. Per spec.md §4.H, any bytes still
// sitting in the ByteBuffer from the start-line/headers are flushed
// first; a partial drain there is reported as ErrWouldBlock without
// having written any of p, so the caller can retry the same p.
func (bw *BodyWriter) Write(p []byte) (int, error) {
	if err := bw.conn.FlushBuffer(); err != nil {
		return 0, err
	}
	n, err := bw.conn.WriteDirect(p)
	bw.written += uint64(n)
	return n, err
}

// Poll drives Finish to completion (spec.md §4.H): PollReady once the
// buffer has been fully flushed and the Connection is reclaimed via
// Connection(); PollPending if the transport can't take more right
// now. Polling again after a PollReady reports PollReady again with the
// same Connection; polling again after Poll has returned
// ErrContentLengthMismatch panics.
func (bw *BodyWriter) Poll(ctx context.Context) (PollState, error) {
	if bw.result != nil {
		return PollReady, nil
	}
	if bw.finished {
		panic("h1: BodyWriter.Finish polled after it already completed")
	}
	select {
	case <-ctx.Done():
		return pollInvalid, wrapErr(KindTimeout, 408, ctx.Err())
	default:
	}
	if err := bw.conn.FlushBuffer(); err != nil {
		if IsWouldBlock(err) {
			return PollPending, nil
		}
		return pollInvalid, err
	}
	bw.finished = true
	if bw.declaredLength != nil && bw.written != *bw.declaredLength {
		return pollInvalid, ErrContentLengthMismatch
	}
	bw.conn.EnterReadPhase()
	bw.result = bw.conn
	return PollReady, nil
}

// Connection returns the reclaimed Connection once Poll has reported
// PollReady.
func (bw *BodyWriter) Connection() *Connection { return bw.result }

// Finish is the blocking convenience wrapper around Poll, mirroring
// ReadRequest/ReadResponse: it yields the goroutine on PollPending
// rather than busy-spinning against a non-blocking transport.
func (bw *BodyWriter) Finish(ctx context.Context) (*Connection, error) {
	for {
		state, err := bw.Poll(ctx)
		if err != nil {
			return nil, err
		}
		if state == PollReady {
			return bw.Connection(), nil
		}
		runtime.Gosched()
	}
}
