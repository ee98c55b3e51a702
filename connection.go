package h1

import "io"

// Connection owns one transport and its buffers (spec.md §3/§4.C): a
// ByteBuffer, a HeaderBuffer, and the negotiated protocol version. It is
// reused across request/response pairs on a keep-alive socket and
// destroyed on close, protocol error, or negotiated Connection: close.
//
// A Connection is owned by exactly one goroutine at a time; there is no
// internal locking (spec.md §5).
type Connection struct {
	transport Transport
	buf       *ByteBuffer
	headers   *HeaderBuffer
	version   Version
	cfg       Config
	closed    bool
	// generation increments every time the buffer's phase changes or is
	// reset, so a read/write view holding a stale generation can detect
	// it tried to outlive its borrow window (the Go-idiomatic analogue
	// of the original's erased-lifetime borrow — see DESIGN.md part C).
	generation uint64
}

// NewConnection wraps transport for engine use. version is the
// connection's initial protocol version (overwritten by whatever a
// parsed request/response actually negotiates).
func NewConnection(transport Transport, version Version, cfg Config) *Connection {
	cfg = cfg.withDefaults()
	return &Connection{
		transport: transport,
		buf:       NewByteBuffer(cfg.MinBufferSize, cfg.MaxBufferSize),
		headers:   NewHeaderBuffer(cfg.MaxHeaderCount),
		version:   version,
		cfg:       cfg,
	}
}

// Version reports the protocol version last negotiated on this
// Connection.
func (c *Connection) Version() Version { return c.version }

// Config returns the Connection's resource bounds.
func (c *Connection) Config() Config { return c.cfg }

// Closed reports whether the Connection has been torn down.
func (c *Connection) Closed() bool { return c.closed }

// Close tears down the transport (if it implements io.Closer) and marks
// the Connection unusable. A failed Connection per spec.md §7 is not
// reusable; callers that hit KindIO, KindParse, KindUnexpectedEOF, etc.
// should call Close rather than attempt to reuse the Connection.
func (c *Connection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if closer, ok := c.transport.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (c *Connection) checkOpen() error {
	if c.closed {
		return ErrConnectionClosed
	}
	return nil
}

// FillBuffer delegates to ByteBuffer.FillFrom, mapping the outcomes per
// spec.md §4.C: WouldBlock -> (false, nil); 0 bytes -> KindUnexpectedEOF
// unless the buffer is empty of any prior message boundary (fresh idle
// Connection), in which case plain io.EOF is returned so a server's
// accept loop can distinguish "peer never sent anything" from
// "peer vanished mid-message"; otherwise -> (true, nil) meaning progress
// was made.
func (c *Connection) FillBuffer() (progressed bool, err error) {
	if err := c.checkOpen(); err != nil {
		return false, err
	}
	n, err := c.buf.FillFrom(c.transport)
	if err != nil && err != io.EOF {
		if IsWouldBlock(err) {
			return false, nil
		}
		return false, err
	}
	if n == 0 {
		if c.buf.IsEmpty() {
			return false, io.EOF
		}
		return false, ErrUnexpectedEOF
	}
	return true, nil
}

// FlushBuffer writes the buffer's unconsumed bytes to the transport and
// consumes what was written. An empty buffer is success; a non-empty
// remainder after a partial write reports ErrWouldBlock (spec.md §4.C).
func (c *Connection) FlushBuffer() error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if c.buf.IsEmpty() {
		return nil
	}
	n, err := c.transport.Write(c.buf.AsSlice())
	if n > 0 {
		c.buf.Consume(n)
	}
	if err != nil {
		if IsWouldBlock(err) {
			return ErrWouldBlock
		}
		return wrapErr(KindIO, 500, err)
	}
	if !c.buf.IsEmpty() {
		return ErrWouldBlock
	}
	return nil
}

// Reset clears the buffer phase back to an empty read phase and bumps
// the generation counter, invalidating any outstanding read/write view.
// Used between successive request/response cycles once a message has
// been fully handled.
func (c *Connection) Reset() {
	c.buf.Reset()
	c.headers.Reset()
	c.generation++
}

// BorrowBytesAndHeaderSlots yields the current unconsumed byte slice
// together with the header slot array, for one parse attempt (spec.md
// §4.C). The returned slices alias the Connection's own buffers and are
// only valid until the next mutation.
func (c *Connection) BorrowBytesAndHeaderSlots() ([]byte, *HeaderBuffer) {
	return c.buf.AsSlice(), c.headers
}

// EnterWritePhase transitions the Connection's buffer into the write
// phase, preserving any pipelined bytes past the current message
// boundary (spec.md §4.A).
func (c *Connection) EnterWritePhase() {
	c.buf.EnterWritePhase()
	c.generation++
}

// EnterReadPhase transitions back to the read phase, making any
// preserved pipelined bytes visible again.
func (c *Connection) EnterReadPhase() {
	c.buf.EnterReadPhase()
	c.generation++
}

// WriteBuffered appends p to the Connection's ByteBuffer (must be in
// the write phase).
func (c *Connection) WriteBuffered(p []byte) error {
	_, err := c.buf.Write(p)
	if err != nil {
		return err
	}
	return nil
}

// WriteDirect writes p straight to the transport, bypassing the
// ByteBuffer — used once headers have been flushed and the body is
// being streamed (spec.md §4.H).
func (c *Connection) WriteDirect(p []byte) (int, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	n, err := c.transport.Write(p)
	if err != nil && IsWouldBlock(err) {
		return n, ErrWouldBlock
	}
	if err != nil {
		return n, wrapErr(KindIO, 500, err)
	}
	return n, nil
}

// ReadDirect reads straight from the transport into p, bypassing the
// ByteBuffer — used by BodyReader once it has drained any bytes that
// arrived ahead of the body during the header parse.
func (c *Connection) ReadDirect(p []byte) (int, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	n, err := c.transport.Read(p)
	if err != nil {
		if IsWouldBlock(err) {
			return n, ErrWouldBlock
		}
		if err == io.EOF {
			return n, io.EOF
		}
		return n, wrapErr(KindIO, 500, err)
	}
	return n, nil
}

// BufferedLen reports how many unconsumed bytes remain in the
// Connection's ByteBuffer — bytes that arrived with (or ahead of) the
// last parse and must be drained by a BodyReader before direct reads.
func (c *Connection) BufferedLen() int { return c.buf.Len() }

// ConsumeBuffered consumes n bytes from the ByteBuffer's front, for a
// BodyReader pulling out bytes that were prefetched during header
// parsing.
func (c *Connection) ConsumeBuffered(n int) { c.buf.Consume(n) }

// BufferedSlice returns the unconsumed buffered bytes without consuming
// them.
func (c *Connection) BufferedSlice() []byte { return c.buf.AsSlice() }

// setVersion records the version negotiated by the most recently parsed
// message.
func (c *Connection) setVersion(v Version) { c.version = v }
