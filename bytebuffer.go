package h1

import "io"

// phaseKind distinguishes the two orientations a ByteBuffer can be in.
// Read phase: bytes in [head, tail) came from the peer and are waiting
// to be parsed/consumed. Write phase: bytes in [head, tail) are being
// accumulated to send to the peer, and readTail records how many bytes
// of a not-yet-consumed request (pipelined ahead of the response being
// written) must survive the write phase untouched.
type phaseKind int

const (
	phaseRead phaseKind = iota
	phaseWrite
)

// ByteBuffer is a growable, dual-phase byte region bounded by
// [minLen, maxLen]. It is the engine's one buffer per Connection: the
// same backing array is reused across the read phase (parsing a
// request/response) and the write phase (serializing the next one),
// which is what makes pipelining possible without copying.
//
// Grounded on original_source/src/connection/buffer.rs's Buffer/Phase.
type ByteBuffer struct {
	backing  []byte
	minLen   int
	maxLen   int
	phase    phaseKind
	head     int
	tail     int
	readTail int // only meaningful in phaseWrite
}

// NewByteBuffer allocates a ByteBuffer with minLen bytes preallocated,
// starting in the read phase with cursors at zero.
func NewByteBuffer(minLen, maxLen int) *ByteBuffer {
	if minLen > maxLen {
		panic("h1: ByteBuffer minLen > maxLen")
	}
	return &ByteBuffer{
		backing: make([]byte, minLen),
		minLen:  minLen,
		maxLen:  maxLen,
		phase:   phaseRead,
	}
}

// Len reports how many unconsumed bytes are currently available in
// [head, tail).
func (b *ByteBuffer) Len() int { return b.tail - b.head }

// IsEmpty reports whether head == tail.
func (b *ByteBuffer) IsEmpty() bool { return b.head == b.tail }

// AsSlice returns the unconsumed region [head:tail]. The slice aliases
// the ByteBuffer's backing array and is invalidated by any subsequent
// Write, FillFrom, Consume, or phase transition that reallocates or
// moves the backing array.
func (b *ByteBuffer) AsSlice() []byte {
	return b.backing[b.head:b.tail]
}

// Consume advances head by n, releasing those bytes back to the pool of
// "already handled" data. It panics if that would push head past tail,
// matching the original's debug_assert discipline.
func (b *ByteBuffer) Consume(n int) {
	b.head += n
	if b.head > b.tail {
		panic("h1: ByteBuffer.Consume beyond tail")
	}
}

// expand doubles the backing array (capped at maxLen) when tail has
// reached the end of the backing array, and reports an overflow error
// if there is no room left to grow.
func (b *ByteBuffer) expand() error {
	if b.tail != len(b.backing) {
		return nil
	}
	if len(b.backing) >= b.maxLen {
		return wrapErr(KindTooLargeNonBodyPart, 431, io.ErrShortBuffer)
	}
	newLen := len(b.backing) * 2
	if newLen > b.maxLen {
		newLen = b.maxLen
	}
	if newLen == len(b.backing) {
		return wrapErr(KindTooLargeNonBodyPart, 431, io.ErrShortBuffer)
	}
	grown := make([]byte, newLen)
	copy(grown, b.backing)
	b.backing = grown
	return nil
}

// FillFrom reads once from r into the unused tail of the backing array,
// expanding it first if necessary. It returns the number of bytes read
// together with r's own error, so a peer EOF shows up as 0 bytes with
// io.EOF (or with a nil error, from a reader that reports EOF that
// way). It returns a KindTooLargeNonBodyPart error (431) if the buffer
// is already at maxLen with no spare room.
func (b *ByteBuffer) FillFrom(r io.Reader) (int, error) {
	if err := b.expand(); err != nil {
		return 0, err
	}
	n, err := r.Read(b.backing[b.tail:])
	b.tail += n
	return n, err
}

// Write appends bytes to the tail, growing (and erroring on overflow)
// exactly like FillFrom.
func (b *ByteBuffer) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		if err := b.expand(); err != nil {
			return written, err
		}
		n := copy(b.backing[b.tail:], p[written:])
		b.tail += n
		written += n
	}
	return written, nil
}

// EnterWritePhase drains the consumed prefix [0:head) so the remaining
// unconsumed bytes (if any — pipelined data) start at offset 0, then
// switches to the write phase with readTail recording how many such
// bytes must be preserved across the coming write.
func (b *ByteBuffer) EnterWritePhase() {
	if b.phase != phaseRead {
		return
	}
	remaining := b.tail - b.head
	copy(b.backing, b.backing[b.head:b.tail])
	b.phase = phaseWrite
	b.readTail = remaining
	b.head = remaining
	b.tail = remaining
}

// EnterReadPhase switches back to the read phase, restoring the cursors
// to [0:readTail) so any bytes preserved across the write phase (the
// start of the next pipelined request) are visible to the parser again.
func (b *ByteBuffer) EnterReadPhase() {
	if b.phase != phaseWrite {
		return
	}
	b.phase = phaseRead
	b.head = 0
	b.tail = b.readTail
	b.readTail = 0
}

// Reset forces the buffer back to an empty read phase, discarding any
// unconsumed bytes. Used when a Connection is about to be handed a
// fresh transport or discarded as unrecoverable.
func (b *ByteBuffer) Reset() {
	b.phase = phaseRead
	b.head = 0
	b.tail = 0
	b.readTail = 0
}

// AtMax reports whether the backing array has grown to maxLen, i.e.
// no further FillFrom can make room by growing.
func (b *ByteBuffer) AtMax() bool { return len(b.backing) >= b.maxLen }
