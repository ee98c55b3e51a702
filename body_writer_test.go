package h1

import (
	"context"
	"testing"
)

func TestBodyWriterContentLengthMismatch(t *testing.T) {
	tr := &fakeTransport{}
	c := NewConnection(tr, HTTP11, DefaultConfig())

	rb, err := BuildResponse(c, HTTP11, StatusOK, "")
	if err != nil {
		t.Fatalf("BuildResponse: %v", err)
	}
	if err := rb.AddHeader(ContentLengthName, ContentLength(10)); err != nil {
		t.Fatalf("AddHeader: %v", err)
	}
	bw, err := rb.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if _, err := bw.Write([]byte("short")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	_, err = bw.Finish(context.Background())
	if err != ErrContentLengthMismatch {
		t.Fatalf("Finish = %v, want ErrContentLengthMismatch", err)
	}
}

func TestBodyWriterSecondPollAfterReadyReturnsReady(t *testing.T) {
	tr := &fakeTransport{}
	c := NewConnection(tr, HTTP11, DefaultConfig())
	rb, err := BuildResponse(c, HTTP11, StatusOK, "")
	if err != nil {
		t.Fatalf("BuildResponse: %v", err)
	}
	bw, err := rb.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if _, err := bw.Poll(context.Background()); err != nil {
		t.Fatalf("first Poll: %v", err)
	}
	// bw.result is now set, so a second Poll call takes the early
	// "already ready" branch and reports PollReady again rather than
	// panicking.
	state, err := bw.Poll(context.Background())
	if err != nil || state != PollReady {
		t.Fatalf("second Poll = (%v, %v), want (PollReady, nil)", state, err)
	}
}

func TestBodyWriterFlushesBufferedHeadersBeforeBody(t *testing.T) {
	tr := &fakeTransport{}
	c := NewConnection(tr, HTTP11, DefaultConfig())
	rb, err := BuildResponse(c, HTTP11, StatusOK, "")
	if err != nil {
		t.Fatalf("BuildResponse: %v", err)
	}
	bw, err := rb.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if _, err := bw.Write([]byte("body")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := bw.Finish(context.Background()); err != nil {
		t.Fatalf("BodyWriter.Finish: %v", err)
	}
	want := "HTTP/1.1 200 OK\r\n\r\nbody"
	if tr.writeBuf.String() != want {
		t.Fatalf("wire bytes = %q, want %q", tr.writeBuf.String(), want)
	}
}

func TestBodyWriterConnectionReusableAfterFinish(t *testing.T) {
	tr := &fakeTransport{readData: []byte("GET /next HTTP/1.1\r\n\r\n")}
	c := NewConnection(tr, HTTP11, DefaultConfig())
	rb, err := BuildResponse(c, HTTP11, StatusOK, "")
	if err != nil {
		t.Fatalf("BuildResponse: %v", err)
	}
	bw, err := rb.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	reclaimed, err := bw.Finish(context.Background())
	if err != nil {
		t.Fatalf("BodyWriter.Finish: %v", err)
	}
	req, err := ReadRequest(context.Background(), reclaimed)
	if err != nil {
		t.Fatalf("ReadRequest on reclaimed Connection: %v", err)
	}
	if string(req.Target()) != "/next" {
		t.Fatalf("Target() = %q, want /next", req.Target())
	}
}
