package h1

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrBodyEOF is returned by BodyReader.Read once the framed body has
// been fully consumed, distinct from io.EOF so a caller can tell
// "body finished cleanly at its declared boundary" apart from a bare
// transport EOF (which BodyReader instead reports as ErrUnexpectedEOF
// when it happens mid-body).
var ErrBodyEOF = errors.New("h1: body fully consumed")

type bodyKind int

const (
	bodyFixedLength bodyKind = iota
	bodyChunked
	bodyRawToClose
)

type chunkPhase int

const (
	chunkPhaseSize chunkPhase = iota
	chunkPhaseData
	chunkPhaseTrailer
	chunkPhaseDone
)

// BodyReader is the variant reader over a Connection's body bytes
// (spec.md §3/§4.G): FixedLength, Chunked, or RawToClose. The zero
// value is not usable; construct via Request.BodyReader /
// Response.BodyReader, which select the variant per the framing rules
// below.
type BodyReader struct {
	conn *Connection
	kind bodyKind
	done bool

	// FixedLength state.
	remaining uint64

	// Chunked decoder state, mirroring original_source's {scratch[32],
	// scratch_offset, chunk_remaining, is_last} (spec.md §3).
	phase          chunkPhase
	scratch        [32]byte
	scratchLen     int
	chunkRemaining uint64
	trailerNeeded  int
	isLast         bool
}

// newBodyReaderFor implements spec.md §4.G's selection rule in order:
// Content-Length, then Transfer-Encoding: chunked, then (request-only)
// zero-length, then RawToClose for a response with no framing header.
func newBodyReaderFor(conn *Connection, headers Headers, isRequest bool) (*BodyReader, error) {
	if raw, ok := headers.Get(ContentLengthName); ok {
		cl, err := ParseContentLengthValue(raw)
		if err != nil {
			return nil, headerParseErr(ContentLengthName, err.Error())
		}
		return &BodyReader{conn: conn, kind: bodyFixedLength, remaining: uint64(cl)}, nil
	}
	if raw, ok := headers.Get(TransferEncodingName); ok {
		te, err := ParseTransferEncodingValue(raw)
		if err != nil {
			return nil, headerParseErr(TransferEncodingName, err.Error())
		}
		if !te.Chunked {
			return nil, newErr(KindNotImplemented, 501, fmt.Sprintf("unsupported transfer-coding %q", te.Token))
		}
		return &BodyReader{conn: conn, kind: bodyChunked, phase: chunkPhaseSize}, nil
	}
	if isRequest {
		return &BodyReader{conn: conn, kind: bodyFixedLength, remaining: 0}, nil
	}
	return &BodyReader{conn: conn, kind: bodyRawToClose}, nil
}

// Connection reclaims the underlying Connection. Only meaningful once
// Read has returned ErrBodyEOF; calling it earlier hands back a
// Connection whose buffer still has unread body bytes pending.
func (br *BodyReader) Connection() *Connection { return br.conn }

// readRaw drains any bytes the Connection prefetched during header
// parsing before falling through to a direct transport read, matching
// Connection.ReadDirect's "buffered first" contract (spec.md §4.C).
func (br *BodyReader) readRaw(p []byte) (int, error) {
	if br.conn.BufferedLen() > 0 {
		n := copy(p, br.conn.BufferedSlice())
		br.conn.ConsumeBuffered(n)
		return n, nil
	}
	return br.conn.ReadDirect(p)
}

// Read yields up to len(p) body bytes. It returns ErrBodyEOF once the
// body has been fully consumed per its framing, ErrWouldBlock if the
// transport has no more bytes right now (the caller should retry
// later — BodyReader is a suspension point per spec.md §5), or
// ErrUnexpectedEOF if the peer closed before the declared boundary.
func (br *BodyReader) Read(p []byte) (int, error) {
	if br.done {
		return 0, ErrBodyEOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	switch br.kind {
	case bodyFixedLength:
		return br.readFixed(p)
	case bodyChunked:
		return br.readChunked(p)
	default:
		return br.readRawToClose(p)
	}
}

func (br *BodyReader) readFixed(p []byte) (int, error) {
	if br.remaining == 0 {
		br.done = true
		return 0, ErrBodyEOF
	}
	if uint64(len(p)) > br.remaining {
		p = p[:br.remaining]
	}
	n, err := br.readRaw(p)
	br.remaining -= uint64(n)
	if err != nil {
		if err == io.EOF {
			return n, ErrUnexpectedEOF
		}
		return n, err
	}
	if br.remaining == 0 {
		br.done = true
	}
	return n, nil
}

func (br *BodyReader) readRawToClose(p []byte) (int, error) {
	n, err := br.readRaw(p)
	if err != nil {
		if err == io.EOF {
			br.done = true
			if n == 0 {
				return 0, ErrBodyEOF
			}
			return n, nil
		}
		return n, err
	}
	return n, nil
}

// readChunked drives the size/data/trailer state machine described in
// spec.md §4.G. It never blocks holding a partially-read chunk-size
// line across calls: scratch/scratchLen/phase are fields on BodyReader
// precisely so a WouldBlock suspension resumes where it left off.
func (br *BodyReader) readChunked(p []byte) (int, error) {
	for {
		switch br.phase {
		case chunkPhaseSize:
			ok, err := br.fillChunkSizeLine()
			if err != nil {
				return 0, err
			}
			if !ok {
				return 0, ErrWouldBlock
			}
			size, err := parseChunkSizeLine(br.scratch[:br.scratchLen])
			br.scratchLen = 0
			if err != nil {
				return 0, err
			}
			if size == 0 {
				br.isLast = true
				br.phase = chunkPhaseTrailer
				br.trailerNeeded = 2
				continue
			}
			br.chunkRemaining = size
			br.phase = chunkPhaseData
			continue

		case chunkPhaseData:
			if br.chunkRemaining == 0 {
				br.phase = chunkPhaseTrailer
				br.trailerNeeded = 2
				continue
			}
			want := p
			if uint64(len(want)) > br.chunkRemaining {
				want = want[:br.chunkRemaining]
			}
			n, err := br.readRaw(want)
			br.chunkRemaining -= uint64(n)
			if err != nil {
				if err == io.EOF {
					return n, ErrUnexpectedEOF
				}
				return n, err
			}
			if n == 0 {
				return 0, ErrWouldBlock
			}
			return n, nil

		case chunkPhaseTrailer:
			ok, err := br.consumeTrailer()
			if err != nil {
				return 0, err
			}
			if !ok {
				return 0, ErrWouldBlock
			}
			if br.isLast {
				br.done = true
				br.phase = chunkPhaseDone
				return 0, ErrBodyEOF
			}
			br.phase = chunkPhaseSize
			continue

		default: // chunkPhaseDone
			return 0, ErrBodyEOF
		}
	}
}

// fillChunkSizeLine reads one byte at a time into the 32-byte scratch
// until a trailing CRLF is recognized, per spec.md §4.G. ok is false
// when the caller should suspend (WouldBlock) and retry later.
func (br *BodyReader) fillChunkSizeLine() (ok bool, err error) {
	var b [1]byte
	for {
		n, rerr := br.readRaw(b[:])
		if rerr != nil {
			if rerr == io.EOF {
				return false, ErrUnexpectedEOF
			}
			if IsWouldBlock(rerr) {
				return false, nil
			}
			return false, rerr
		}
		if n == 0 {
			return false, nil
		}
		if br.scratchLen >= len(br.scratch) {
			return false, newErr(KindInvalidChunk, 400, "chunk size line exceeds scratch capacity")
		}
		br.scratch[br.scratchLen] = b[0]
		br.scratchLen++
		if br.scratchLen >= 2 && br.scratch[br.scratchLen-2] == '\r' && br.scratch[br.scratchLen-1] == '\n' {
			return true, nil
		}
	}
}

// parseChunkSizeLine parses "hex-size[;ext...]\r\n".
func parseChunkSizeLine(line []byte) (uint64, error) {
	if len(line) < 3 || line[len(line)-2] != '\r' || line[len(line)-1] != '\n' {
		return 0, newErr(KindInvalidChunk, 400, "overlong or malformed chunk size line")
	}
	core := line[:len(line)-2]
	if i := bytes.IndexByte(core, ';'); i >= 0 {
		core = core[:i]
	}
	if len(core) == 0 {
		return 0, newErr(KindInvalidChunk, 400, "empty chunk size")
	}
	size, err := strconv.ParseUint(string(core), 16, 64)
	if err != nil {
		return 0, newErr(KindInvalidChunk, 400, "malformed chunk size")
	}
	return size, nil
}

// consumeTrailer reads the mandatory "\r\n" following a chunk's data
// (or the final chunk's header block).
func (br *BodyReader) consumeTrailer() (ok bool, err error) {
	var b [1]byte
	for br.trailerNeeded > 0 {
		n, rerr := br.readRaw(b[:])
		if rerr != nil {
			if rerr == io.EOF {
				return false, ErrUnexpectedEOF
			}
			if IsWouldBlock(rerr) {
				return false, nil
			}
			return false, rerr
		}
		if n == 0 {
			return false, nil
		}
		want := byte('\r')
		if br.trailerNeeded == 1 {
			want = '\n'
		}
		if b[0] != want {
			return false, newErr(KindInvalidChunk, 400, "missing chunk CRLF terminator")
		}
		br.trailerNeeded--
	}
	return true, nil
}

// LimitedBodyReader wraps any BodyReader with a byte ceiling, the
// MaxLength(n) guard named in spec.md §4.G: a defense against a
// malicious or buggy peer declaring (or chunk-encoding) an unbounded
// body.
type LimitedBodyReader struct {
	inner *BodyReader
	max   uint64
	read  uint64
}

// NewLimitedBodyReader wraps inner, failing with ErrBodyTooLarge once
// more than max bytes have been read.
func NewLimitedBodyReader(inner *BodyReader, max uint64) *LimitedBodyReader {
	return &LimitedBodyReader{inner: inner, max: max}
}

func (l *LimitedBodyReader) Read(p []byte) (int, error) {
	n, err := l.inner.Read(p)
	if n > 0 {
		l.read += uint64(n)
		if l.read > l.max {
			return n, ErrBodyTooLarge
		}
	}
	return n, err
}

// Connection reclaims the underlying Connection once the wrapped
// reader has yielded ErrBodyEOF.
func (l *LimitedBodyReader) Connection() *Connection { return l.inner.Connection() }
