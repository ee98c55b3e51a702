package h1

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/valyala/bytebufferpool"
)

// HeaderValue is implemented by every registered header's value type
// (ContentLength, TransferEncoding, ConnectionDirective, Location,
// ContentType, ContentLanguage) so RequestBuilder/ResponseBuilder can
// serialize any of them through one AddHeader call, per the Header
// trait's writer half (spec.md §4.I).
type HeaderValue interface {
	WriteValue(w io.Writer) error
}

// defaultScratchPool pools the bytebufferpool.ByteBuffer scratch space
// RequestBuilder/ResponseBuilder use to assemble a start-line or header
// line before copying it into the Connection's own ByteBuffer. Grounded
// on the teacher's bytebuffer.go pooling convention
// (AcquireByteBuffer/ReleaseByteBuffer over a bytebufferpool.Pool).
var defaultScratchPool bytebufferpool.Pool

// addHeaderLine assembles "name: value\r\n" in scratch and writes it
// into conn's buffered write phase.
func addHeaderLine(conn *Connection, scratch *bytebufferpool.ByteBuffer, name string, hv HeaderValue) error {
	scratch.Reset()
	scratch.WriteString(name)
	scratch.WriteString(": ")
	if err := hv.WriteValue(scratch); err != nil {
		return wrapErr(KindIO, 500, err)
	}
	scratch.Write(crlf)
	return conn.WriteBuffered(scratch.B)
}

// addRawHeaderLine assembles "name: <raw>\r\n" verbatim, without going
// through a typed header's WriteValue.
func addRawHeaderLine(conn *Connection, scratch *bytebufferpool.ByteBuffer, name string, value []byte) error {
	scratch.Reset()
	scratch.WriteString(name)
	scratch.WriteString(": ")
	scratch.Write(value)
	scratch.Write(crlf)
	return conn.WriteBuffered(scratch.B)
}

// ParseValueError is returned when a registered header's raw bytes fail
// validation, distinguishing a bad encoding from a value that parses as
// text but is semantically malformed (spec.md §4.I). Each registered
// header in headers_registered.go implements the Header trait as a
// (name constant, ParseFooValue function, WriteValue method) triple
// rather than a Go interface: the parse side is a free function because
// its signature varies by header (ContentLength parses to a uint64,
// TransferEncoding to an enum, ...) and Go generics can't express
// "a family of (name, T, parser, writer) tuples" as a single satisfying
// interface without losing the per-type return value at the call site.
type ParseValueError struct {
	Name   string
	Reason string
	IsUTF8 bool // false => InvalidUtf8, true => Malformed
}

func (e *ParseValueError) Error() string {
	if !e.IsUTF8 {
		return "h1: header " + e.Name + ": invalid utf-8: " + e.Reason
	}
	return "h1: header " + e.Name + ": malformed: " + e.Reason
}

// parseValueBytes validates UTF-8 before handing the string form to fn,
// matching the Header trait's default parse_value_bytes (spec.md §4.I:
// "first validates UTF-8 ... then delegates to parse_value_str").
func parseValueBytes[T any](name string, raw []byte, fn func(string) (T, error)) (T, error) {
	var zero T
	if !utf8.Valid(raw) {
		return zero, &ParseValueError{Name: name, Reason: "value is not valid UTF-8", IsUTF8: false}
	}
	v, err := fn(string(raw))
	if err != nil {
		return zero, &ParseValueError{Name: name, Reason: err.Error(), IsUTF8: true}
	}
	return v, nil
}

// Headers is a read-only view over a HeaderBuffer's populated slots: an
// ordered iteration plus case-insensitive lookup, matching the
// teacher's PeekBytes-and-compare convention rather than stdlib
// net/http's canonicalize-on-insert approach — header name casing as
// seen on the wire is preserved (spec.md §3's "headers view").
type Headers struct {
	buf *HeaderBuffer
}

// HeadersOf builds a Headers view over buf's currently-populated slots.
func HeadersOf(buf *HeaderBuffer) Headers { return Headers{buf: buf} }

// Len reports how many header slots are populated.
func (h Headers) Len() int { return h.buf.Len() }

// At returns the i'th header slot in wire order.
func (h Headers) At(i int) HeaderSlot { return h.buf.Slots()[i] }

// Get returns the value of the first header matching name
// case-insensitively, and whether it was found.
func (h Headers) Get(name string) ([]byte, bool) {
	for _, s := range h.buf.Slots() {
		if strings.EqualFold(s.Name, name) {
			return s.Value, true
		}
	}
	return nil, false
}

// GetAll returns the values of every header matching name
// case-insensitively, in wire order.
func (h Headers) GetAll(name string) [][]byte {
	var out [][]byte
	for _, s := range h.buf.Slots() {
		if strings.EqualFold(s.Name, name) {
			out = append(out, s.Value)
		}
	}
	return out
}

// Has reports whether any header matches name case-insensitively.
func (h Headers) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}
