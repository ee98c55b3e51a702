package h1

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"
)

// TestScenarioGetZeroLengthBody is spec.md §8 scenario 1.
func TestScenarioGetZeroLengthBody(t *testing.T) {
	tr := &fakeTransport{readData: []byte("GET /x HTTP/1.1\r\nHost: a\r\n\r\n")}
	c := NewConnection(tr, HTTP11, DefaultConfig())

	req, err := ReadRequest(context.Background(), c)
	if err != nil {
		t.Fatalf("ReadRequest: %v", err)
	}
	if req.Method() != MethodGet || req.Version() != HTTP11 {
		t.Fatalf("method/version = %v/%v", req.Method(), req.Version())
	}
	if v, ok := req.Headers().Get("Host"); !ok || string(v) != "a" {
		t.Fatalf("Host header = %q, %v", v, ok)
	}

	br, err := req.BodyReader()
	if err != nil {
		t.Fatalf("BodyReader: %v", err)
	}
	buf := make([]byte, 4)
	if _, err := br.Read(buf); err != ErrBodyEOF {
		t.Fatalf("Read = %v, want ErrBodyEOF", err)
	}

	rb, err := BuildResponse(br.Connection(), HTTP11, StatusOK, "")
	if err != nil {
		t.Fatalf("BuildResponse: %v", err)
	}
	if err := rb.AddHeader(ContentLengthName, ContentLength(5)); err != nil {
		t.Fatalf("AddHeader: %v", err)
	}
	bw, err := rb.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if _, err := bw.Write([]byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := bw.Finish(context.Background()); err != nil {
		t.Fatalf("BodyWriter.Finish: %v", err)
	}
	want := "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello"
	if tr.writeBuf.String() != want {
		t.Fatalf("wire bytes = %q, want %q", tr.writeBuf.String(), want)
	}
}

// TestScenarioFixedLengthBodyThenReusable is spec.md §8 scenario 2.
func TestScenarioFixedLengthBodyThenReusable(t *testing.T) {
	tr := &fakeTransport{readData: []byte("POST /p HTTP/1.1\r\nContent-Length: 4\r\n\r\nping")}
	c := NewConnection(tr, HTTP11, DefaultConfig())

	req, err := ReadRequest(context.Background(), c)
	if err != nil {
		t.Fatalf("ReadRequest: %v", err)
	}
	br, err := req.BodyReader()
	if err != nil {
		t.Fatalf("BodyReader: %v", err)
	}
	got := readAllBody(t, br)
	if string(got) != "ping" {
		t.Fatalf("body = %q, want ping", got)
	}
	if br.Connection() != c {
		t.Fatal("Connection not reusable after a fully-drained fixed-length body")
	}
}

// TestScenarioChunkedBody is spec.md §8 scenario 3.
func TestScenarioChunkedBody(t *testing.T) {
	tr := &fakeTransport{readData: []byte(
		"POST /p HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n0\r\n\r\n")}
	c := NewConnection(tr, HTTP11, DefaultConfig())

	req, err := ReadRequest(context.Background(), c)
	if err != nil {
		t.Fatalf("ReadRequest: %v", err)
	}
	br, err := req.BodyReader()
	if err != nil {
		t.Fatalf("BodyReader: %v", err)
	}
	got := readAllBody(t, br)
	if string(got) != "hello" {
		t.Fatalf("body = %q, want hello", got)
	}
}

// TestScenarioPipeliningSingleFill is spec.md §8 scenario 4: two complete
// GETs arrive in one segment, and the server processes both using the
// same Connection without an additional fill (regression coverage for
// the Connection.Reset bug recorded in DESIGN.md).
func TestScenarioPipeliningSingleFill(t *testing.T) {
	tr := &fakeTransport{readData: []byte(
		"GET /first HTTP/1.1\r\n\r\nGET /second HTTP/1.1\r\n\r\n")}
	c := NewConnection(tr, HTTP11, DefaultConfig())

	req1, err := ReadRequest(context.Background(), c)
	if err != nil {
		t.Fatalf("ReadRequest #1: %v", err)
	}
	if string(req1.Target()) != "/first" {
		t.Fatalf("Target #1 = %q", req1.Target())
	}
	reclaimed, err := req1.Finish(context.Background())
	if err != nil {
		t.Fatalf("Finish #1: %v", err)
	}

	readsBefore := tr.readPos
	req2, err := ReadRequest(context.Background(), reclaimed)
	if err != nil {
		t.Fatalf("ReadRequest #2: %v", err)
	}
	if tr.readPos != readsBefore {
		t.Fatalf("second parse triggered a transport read: readPos %d -> %d", readsBefore, tr.readPos)
	}
	if string(req2.Target()) != "/second" {
		t.Fatalf("Target #2 = %q", req2.Target())
	}
}

// TestScenarioPipeliningOverNetConn re-runs scenario 4 over a real
// net.Pipe()-backed NetConnTransport, per SPEC_FULL.md §8.
func TestScenarioPipeliningOverNetConn(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	go func() {
		clientConn.Write([]byte("GET /first HTTP/1.1\r\n\r\nGET /second HTTP/1.1\r\n\r\n"))
	}()

	c := NewConnection(NewNetConnTransport(serverConn), HTTP11, DefaultConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req1, err := ReadRequest(ctx, c)
	if err != nil {
		t.Fatalf("ReadRequest #1: %v", err)
	}
	if string(req1.Target()) != "/first" {
		t.Fatalf("Target #1 = %q", req1.Target())
	}
	reclaimed, err := req1.Finish(ctx)
	if err != nil {
		t.Fatalf("Finish #1: %v", err)
	}
	req2, err := ReadRequest(ctx, reclaimed)
	if err != nil {
		t.Fatalf("ReadRequest #2: %v", err)
	}
	if string(req2.Target()) != "/second" {
		t.Fatalf("Target #2 = %q", req2.Target())
	}
}

// TestScenarioConnectionCloseRawToClose is spec.md §8 scenario 5.
func TestScenarioConnectionCloseRawToClose(t *testing.T) {
	tr := &fakeTransport{readData: []byte("HTTP/1.1 200 OK\r\nConnection: close\r\n\r\nall the bytes")}
	c := NewConnection(tr, HTTP11, DefaultConfig())

	resp, err := ReadResponse(context.Background(), c)
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	v, ok := resp.Headers().Get(ConnectionName)
	if !ok {
		t.Fatal("missing Connection header")
	}
	directive, err := ParseConnectionValue(v)
	if err != nil || directive != ConnectionClose {
		t.Fatalf("ParseConnectionValue(%q) = %v, %v", v, directive, err)
	}

	br, err := resp.BodyReader()
	if err != nil {
		t.Fatalf("BodyReader: %v", err)
	}
	got := readAllBody(t, br)
	if string(got) != "all the bytes" {
		t.Fatalf("body = %q", got)
	}
}

// TestScenarioOversizedHeaderFailsCleanly is spec.md §8 scenario 6.
func TestScenarioOversizedHeaderFailsCleanly(t *testing.T) {
	var line bytes.Buffer
	line.WriteString("GET / HTTP/1.1\r\n")
	for line.Len() < 9000 {
		line.WriteString("X-Pad: aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\r\n")
	}
	tr := &fakeTransport{readData: line.Bytes(), blockReads: true}
	cfg := DefaultConfig()
	cfg.MaxBufferSize = 8096
	c := NewConnection(tr, HTTP11, cfg)

	_, err := ReadRequest(context.Background(), c)
	herr, ok := err.(*Error)
	if !ok || herr.Kind != KindTooLargeNonBodyPart {
		t.Fatalf("err = %v, want KindTooLargeNonBodyPart", err)
	}
}

// TestScenarioOversizedHeaderOverNetConn re-runs scenario 6 over a real
// net.Pipe()-backed NetConnTransport, per SPEC_FULL.md §8.
func TestScenarioOversizedHeaderOverNetConn(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	var payload bytes.Buffer
	payload.WriteString("GET / HTTP/1.1\r\n")
	for payload.Len() < 9000 {
		payload.WriteString("X-Pad: aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\r\n")
	}
	go func() {
		clientConn.Write(payload.Bytes())
	}()

	cfg := DefaultConfig()
	cfg.MaxBufferSize = 8096
	c := NewConnection(NewNetConnTransport(serverConn), HTTP11, cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := ReadRequest(ctx, c)
	herr, ok := err.(*Error)
	if !ok || herr.Kind != KindTooLargeNonBodyPart {
		t.Fatalf("err = %v, want KindTooLargeNonBodyPart", err)
	}
}
