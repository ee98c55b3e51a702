package h1

import (
	"io"
	"testing"
)

func TestConnectionFillBufferProgress(t *testing.T) {
	tr := &fakeTransport{readData: []byte("GET / HTTP/1.1\r\n\r\n")}
	c := NewConnection(tr, HTTP11, DefaultConfig())

	progressed, err := c.FillBuffer()
	if err != nil {
		t.Fatalf("FillBuffer: %v", err)
	}
	if !progressed {
		t.Fatal("expected progress")
	}
	if c.BufferedLen() != len(tr.readData) {
		t.Fatalf("BufferedLen() = %d, want %d", c.BufferedLen(), len(tr.readData))
	}
}

func TestConnectionFillBufferWouldBlock(t *testing.T) {
	tr := &fakeTransport{blockReads: true}
	c := NewConnection(tr, HTTP11, DefaultConfig())
	progressed, err := c.FillBuffer()
	if err != nil {
		t.Fatalf("FillBuffer: %v", err)
	}
	if progressed {
		t.Fatal("expected no progress on WouldBlock")
	}
}

func TestConnectionFillBufferFreshIdleEOF(t *testing.T) {
	tr := &fakeTransport{} // no data, blockReads false => immediate EOF
	c := NewConnection(tr, HTTP11, DefaultConfig())
	_, err := c.FillBuffer()
	if err != io.EOF {
		t.Fatalf("FillBuffer on fresh idle Connection = %v, want io.EOF", err)
	}
}

func TestConnectionFillBufferMidMessageEOF(t *testing.T) {
	tr := &fakeTransport{readData: []byte("GET / ")}
	c := NewConnection(tr, HTTP11, DefaultConfig())
	if _, err := c.FillBuffer(); err != nil {
		t.Fatalf("first FillBuffer: %v", err)
	}
	_, err := c.FillBuffer() // now readData is exhausted: mid-message EOF
	if err != ErrUnexpectedEOF {
		t.Fatalf("FillBuffer mid-message = %v, want ErrUnexpectedEOF", err)
	}
}

func TestConnectionWritePhasePreservesPipelinedBytes(t *testing.T) {
	tr := &fakeTransport{}
	c := NewConnection(tr, HTTP11, DefaultConfig())

	// Simulate a pipelined second request's bytes already sitting past
	// the first request's consumed header block.
	c.buf.Write([]byte("GET /a HTTP/1.1\r\n\r\nGET /b HTTP/1.1\r\n\r\n"))
	firstEnd := len("GET /a HTTP/1.1\r\n\r\n")
	c.ConsumeBuffered(firstEnd)

	remaining := c.BufferedSlice()
	wantRemaining := "GET /b HTTP/1.1\r\n\r\n"
	if string(remaining) != wantRemaining {
		t.Fatalf("remaining before write phase = %q, want %q", remaining, wantRemaining)
	}

	c.EnterWritePhase()
	if err := c.WriteBuffered([]byte("HTTP/1.1 200 OK\r\n\r\n")); err != nil {
		t.Fatalf("WriteBuffered: %v", err)
	}
	if err := c.FlushBuffer(); err != nil {
		t.Fatalf("FlushBuffer: %v", err)
	}
	if tr.writeBuf.String() != "HTTP/1.1 200 OK\r\n\r\n" {
		t.Fatalf("flushed = %q", tr.writeBuf.String())
	}

	c.EnterReadPhase()
	if string(c.BufferedSlice()) != wantRemaining {
		t.Fatalf("remaining after read phase = %q, want %q", c.BufferedSlice(), wantRemaining)
	}
}

func TestConnectionCloseMarksClosed(t *testing.T) {
	tr := &fakeTransport{}
	c := NewConnection(tr, HTTP11, DefaultConfig())
	if c.Closed() {
		t.Fatal("new Connection should not be closed")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !c.Closed() {
		t.Fatal("expected Closed() == true")
	}
	if _, err := c.FillBuffer(); err != ErrConnectionClosed {
		t.Fatalf("FillBuffer on closed Connection = %v, want ErrConnectionClosed", err)
	}
}
