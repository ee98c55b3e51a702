package h1

import (
	"io"
	"strconv"
	"strings"
)

// Registered headers mandated by spec.md §4.I. Each follows the same
// shape as original_source/src/builtin/headers.rs: a canonical name
// constant, a ParseXxxValue(raw []byte) function built on
// parseValueBytes (UTF-8 check + typed parse), and a WriteValue method
// writing the wire form.

// ---- Content-Length ----

const ContentLengthName = "Content-Length"

type ContentLength uint64

// ParseContentLengthValue parses a Content-Length header value. Per
// spec.md §4.G it must be a non-negative integer; strconv.ParseUint
// already rejects a leading '-'.
func ParseContentLengthValue(raw []byte) (ContentLength, error) {
	return parseValueBytes(ContentLengthName, raw, func(s string) (ContentLength, error) {
		n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, err
		}
		return ContentLength(n), nil
	})
}

func (c ContentLength) WriteValue(w io.Writer) error {
	_, err := io.WriteString(w, strconv.FormatUint(uint64(c), 10))
	return err
}

// ---- Transfer-Encoding ----

const TransferEncodingName = "Transfer-Encoding"

// TransferEncoding is Chunked for the one registered coding this engine
// understands, or Other(token) for anything else — which the body
// framing selection (spec.md §4.G) treats as KindNotImplemented.
type TransferEncoding struct {
	Chunked bool
	Token   string // set when !Chunked
}

func ParseTransferEncodingValue(raw []byte) (TransferEncoding, error) {
	return parseValueBytes(TransferEncodingName, raw, func(s string) (TransferEncoding, error) {
		s = strings.TrimSpace(s)
		if strings.EqualFold(s, "chunked") {
			return TransferEncoding{Chunked: true}, nil
		}
		return TransferEncoding{Token: s}, nil
	})
}

func (t TransferEncoding) WriteValue(w io.Writer) error {
	if t.Chunked {
		_, err := io.WriteString(w, "chunked")
		return err
	}
	_, err := io.WriteString(w, t.Token)
	return err
}

// ---- Connection ----

const ConnectionName = "Connection"

type ConnectionDirective int

const (
	ConnectionUnknown ConnectionDirective = iota
	ConnectionKeepAlive
	ConnectionClose
)

// ParseConnectionValue recognizes exactly "close" and "keep-alive"
// (case-insensitive). spec.md §9 flags a source variant that matches
// "clone" where "close" was clearly intended; this parser deliberately
// does NOT special-case "clone" — it is simply unrecognized, per the
// Open Question decision recorded in DESIGN.md.
func ParseConnectionValue(raw []byte) (ConnectionDirective, error) {
	return parseValueBytes(ConnectionName, raw, func(s string) (ConnectionDirective, error) {
		s = strings.TrimSpace(s)
		switch {
		case strings.EqualFold(s, "close"):
			return ConnectionClose, nil
		case strings.EqualFold(s, "keep-alive"):
			return ConnectionKeepAlive, nil
		default:
			return ConnectionUnknown, nil
		}
	})
}

func (c ConnectionDirective) WriteValue(w io.Writer) error {
	var s string
	switch c {
	case ConnectionClose:
		s = "close"
	case ConnectionKeepAlive:
		s = "keep-alive"
	default:
		s = ""
	}
	_, err := io.WriteString(w, s)
	return err
}

// ---- Location, Content-Type, Content-Language: opaque string headers ----

const LocationName = "Location"

type Location string

func ParseLocationValue(raw []byte) (Location, error) {
	return parseValueBytes(LocationName, raw, func(s string) (Location, error) {
		return Location(s), nil
	})
}

func (l Location) WriteValue(w io.Writer) error {
	_, err := io.WriteString(w, string(l))
	return err
}

const ContentTypeName = "Content-Type"

type ContentType string

func ParseContentTypeValue(raw []byte) (ContentType, error) {
	return parseValueBytes(ContentTypeName, raw, func(s string) (ContentType, error) {
		return ContentType(s), nil
	})
}

func (c ContentType) WriteValue(w io.Writer) error {
	_, err := io.WriteString(w, string(c))
	return err
}

const ContentLanguageName = "Content-Language"

type ContentLanguage string

func ParseContentLanguageValue(raw []byte) (ContentLanguage, error) {
	return parseValueBytes(ContentLanguageName, raw, func(s string) (ContentLanguage, error) {
		return ContentLanguage(s), nil
	})
}

func (c ContentLanguage) WriteValue(w io.Writer) error {
	_, err := io.WriteString(w, string(c))
	return err
}
