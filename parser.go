package h1

import (
	"bytes"
	"errors"
	"fmt"

	"golang.org/x/net/http/httpguts"
)

// errNeedMore is the parser driver's internal "Partial" signal (spec.md
// §4.D): the buffered bytes don't yet contain a complete start-line +
// header block. It never escapes the package.
var errNeedMore = errors.New("h1: incomplete start-line or headers")

var crlf = []byte("\r\n")
var crlfcrlf = []byte("\r\n\r\n")

// splitLine finds the next CRLF-terminated line in data starting at
// offset off, returning the line (without the CRLF) and the offset just
// past it. ok is false if no full line is buffered yet.
func splitLine(data []byte, off int) (line []byte, next int, ok bool) {
	idx := bytes.Index(data[off:], crlf)
	if idx < 0 {
		return nil, off, false
	}
	return data[off : off+idx], off + idx + 2, true
}

// headerBlockEnd reports the offset just past the header block's
// terminating blank line, or -1 if the block isn't fully buffered yet.
// Grounded on the teacher's headerscanner.go, which likewise looks for
// the double-CRLF before attempting to split individual header lines.
func headerBlockEnd(data []byte, bodyStart int) int {
	if bytes.HasPrefix(data[bodyStart:], crlf) {
		return bodyStart + 2
	}
	idx := bytes.Index(data[bodyStart:], crlfcrlf)
	if idx < 0 {
		return -1
	}
	return bodyStart + idx + 4
}

// scanHeaders parses the header block data[off:end) (end is the offset
// returned by headerBlockEnd, i.e. just past the terminating CRLFCRLF)
// into hb, one field-name ':' OWS field-value OWS CRLF line at a time.
// Obsolete line-folding (RFC 7230 obs-fold) is not supported: a
// continuation line (leading space/tab) is a parse error, matching
// RFC 7230's "MUST NOT generate" stance rather than the legacy
// "SHOULD accept" compatibility some older parsers still carry.
func scanHeaders(data []byte, off, end int, hb *HeaderBuffer) error {
	for off < end {
		line, next, ok := splitLine(data, off)
		if !ok {
			return errNeedMore
		}
		off = next
		if len(line) == 0 {
			return nil // terminating blank line
		}
		if line[0] == ' ' || line[0] == '\t' {
			return newErr(KindParse, 400, "obsolete header line folding is not supported")
		}
		colon := bytes.IndexByte(line, ':')
		if colon <= 0 {
			return newErr(KindParse, 400, fmt.Sprintf("malformed header line %q", line))
		}
		name := line[:colon]
		value := bytes.TrimSpace(line[colon+1:])
		if !httpguts.ValidHeaderFieldName(string(name)) {
			return newErr(KindParse, 400, fmt.Sprintf("invalid header field name %q", name))
		}
		if !httpguts.ValidHeaderFieldValue(string(value)) {
			return headerParseErr(string(name), "invalid header field value")
		}
		if !hb.append(name, value) {
			return newErr(KindParse, 431, "too many headers")
		}
	}
	return nil
}

// parsedRequestLine is the outcome of parsing "METHOD SP target SP
// HTTP-version CRLF".
type parsedRequestLine struct {
	method  Method
	target  []byte
	version Version
}

func parseRequestLine(line []byte) (parsedRequestLine, error) {
	sp1 := bytes.IndexByte(line, ' ')
	if sp1 < 0 {
		return parsedRequestLine{}, newErr(KindParse, 400, "malformed request line")
	}
	rest := line[sp1+1:]
	sp2 := bytes.IndexByte(rest, ' ')
	if sp2 < 0 {
		return parsedRequestLine{}, newErr(KindParse, 400, "malformed request line")
	}
	methodTok := line[:sp1]
	target := rest[:sp2]
	versionTok := rest[sp2+1:]

	m, err := ParseMethod(methodTok)
	if err != nil {
		return parsedRequestLine{}, err
	}
	v, err := parseVersionToken(versionTok)
	if err != nil {
		return parsedRequestLine{}, err
	}
	if len(target) == 0 {
		return parsedRequestLine{}, newErr(KindParse, 400, "empty request-target")
	}
	return parsedRequestLine{method: m, target: target, version: v}, nil
}

// parsedStatusLine is the outcome of parsing "HTTP-version SP status-code
// SP reason-phrase CRLF".
type parsedStatusLine struct {
	version Version
	status  RawStatus
}

func parseStatusLine(line []byte) (parsedStatusLine, error) {
	sp1 := bytes.IndexByte(line, ' ')
	if sp1 < 0 {
		return parsedStatusLine{}, newErr(KindParse, 502, "malformed status line")
	}
	versionTok := line[:sp1]
	rest := line[sp1+1:]
	sp2 := bytes.IndexByte(rest, ' ')
	var codeTok, reason []byte
	if sp2 < 0 {
		codeTok = rest
	} else {
		codeTok = rest[:sp2]
		reason = rest[sp2+1:]
	}
	v, err := parseVersionToken(versionTok)
	if err != nil {
		return parsedStatusLine{}, err
	}
	code, err := parseStatusCode(codeTok)
	if err != nil {
		return parsedStatusLine{}, err
	}
	return parsedStatusLine{version: v, status: RawStatus{Code: code, Reason: string(reason)}}, nil
}

func parseStatusCode(tok []byte) (int, error) {
	if len(tok) != 3 {
		return 0, newErr(KindParse, 502, "status code must be 3 digits")
	}
	code := 0
	for _, c := range tok {
		if c < '0' || c > '9' {
			return 0, newErr(KindParse, 502, "status code must be numeric")
		}
		code = code*10 + int(c-'0')
	}
	return code, nil
}

// parseVersionToken parses "HTTP/1.0" or "HTTP/1.1" and reports
// KindUnknownVersion (per spec.md §4.D) for anything else, including a
// well-formed "HTTP/x.y" with an out-of-range minor version.
func parseVersionToken(tok []byte) (Version, error) {
	if len(tok) == 8 && string(tok[:5]) == "HTTP/" && tok[6] == '.' && tok[5] == '1' {
		return versionFromWireByte(tok[7] - '0')
	}
	return 0, newErr(KindUnknownVersion, 505, fmt.Sprintf("unrecognized version token %q", tok))
}
