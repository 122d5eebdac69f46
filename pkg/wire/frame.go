// Package wire implements the control-channel framing and UDP scan-packet
// header codec described in spec.md §4.2-§4.3 and §6.
package wire

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/litra-tech/ldcp-go/pkg/crc16"
)

// errMalformedFrame marks a framing defect (bad length digits, a missing
// delimiter byte) as opposed to a genuine I/O failure on the underlying
// connection. decodeFramed treats it the same as a checksum mismatch: the
// frame is swallowed and reading continues, per spec.md §4.2/§7 — a single
// corrupt frame must not kill the session.
var errMalformedFrame = errors.New("wire: malformed frame")

// MessageLengthMax bounds any single header or payload tuple's declared
// byte count; a decode that sees a larger count aborts framing (spec.md
// §4.2).
const MessageLengthMax = 1 << 20

const checksumHeaderPrefix = "checksum=0x"

// Buffers is the scatter-gather encoding of one request document: header
// tuples, then the payload tuple, then the trailing delimiter. Exposed as
// three slices so a Reactor can submit them in a single writev-style call
// instead of concatenating (spec.md §4.2).
type Buffers struct {
	Headers [][]byte
	Payload []byte
	Trailer []byte
}

// Bytes concatenates the scatter-gather buffers; used by callers (tests,
// or a transport without vectored writes) that want one contiguous frame.
func (b Buffers) Bytes() []byte {
	var buf bytes.Buffer
	for _, h := range b.Headers {
		buf.Write(h)
	}
	buf.Write(b.Payload)
	buf.Write(b.Trailer)
	return buf.Bytes()
}

// Encode serializes a JSON document into the length-prefixed, checksummed
// control-channel frame from spec.md §6:
//
//	"15:checksum=0x" HHHH "," "0:," <len> ":" <json> "," "\r\n"
func Encode(v interface{}) (Buffers, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Buffers{}, fmt.Errorf("wire: encode payload: %w", err)
	}

	checksum := crc16.Checksum(body)
	checksumContent := fmt.Sprintf("%s%04X", checksumHeaderPrefix, checksum)
	checksumTuple := []byte(fmt.Sprintf("%d:%s,", len(checksumContent), checksumContent))
	endOfHeaders := []byte("0:,")
	payloadTuple := []byte(fmt.Sprintf("%d:", len(body)))

	return Buffers{
		Headers: [][]byte{checksumTuple, endOfHeaders},
		Payload: append(append([]byte{}, payloadTuple...), body...),
		Trailer: []byte(",\r\n"),
	}, nil
}

// Decoder turns a byte stream into a sequence of JSON documents, consuming
// exactly one frame per Decode call. It keeps no state between calls beyond
// the Strict flag, mirroring the reference decoder's pure "decode the next
// delimited chunk" shape.
type Decoder struct {
	// Strict, when true, rejects the legacy bare-`{...}` backward
	// compatibility path (spec.md §9 Open Question; default lenient).
	Strict bool
}

// Decode reads one frame worth of bytes (header tuples, a payload tuple,
// and the JSON it carries) from r and unmarshals the JSON payload into v.
// A framing or checksum failure is swallowed per spec.md §4.2/§7: Decode
// returns (false, nil) rather than an error, telling the caller to ignore
// this frame and keep reading. A genuine I/O error is returned as-is.
func (d Decoder) Decode(r *bufio.Reader, v interface{}) (ok bool, err error) {
	first, err := r.Peek(1)
	// Skip whitespace before the frame, such as the "\r\n" trailer left
	// behind by the previous frame on a stream.
	for err == nil && (first[0] == ' ' || first[0] == '\t' || first[0] == '\r' || first[0] == '\n') {
		_, _ = r.ReadByte()
		first, err = r.Peek(1)
	}
	if err != nil {
		return false, err
	}

	if first[0] == '{' {
		if d.Strict {
			return d.consumeAndDiscard(r), nil
		}
		return d.decodeLegacy(r, v)
	}

	return d.decodeFramed(r, v)
}

// decodeLegacy parses a bare JSON object with no header tuples or checksum
// (spec.md §4.2, backward-compatibility path).
func (d Decoder) decodeLegacy(r *bufio.Reader, v interface{}) (bool, error) {
	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return false, nil
	}
	return true, nil
}

// frameDefect turns a framing-defect error into the (false, nil) "ignore
// this frame, keep reading" result, passing a genuine I/O error through
// unchanged. decodeFramed routes every parse failure through this, so only
// an error from the reader itself (an I/O failure, or input that ends
// mid-frame) is returned as a real error.
func frameDefect(err error) (bool, error) {
	if errors.Is(err, errMalformedFrame) {
		return false, nil
	}
	return false, err
}

// decodeFramed parses the full header-tuple + payload-tuple frame.
func (d Decoder) decodeFramed(r *bufio.Reader, v interface{}) (bool, error) {
	var checksumDeclared uint16
	haveChecksum := false

	for {
		length, err := readTupleLength(r)
		if err != nil {
			return frameDefect(err)
		}
		if length == 0 {
			if _, err := expectByte(r, ','); err != nil {
				return frameDefect(err)
			}
			break
		}
		if length > MessageLengthMax {
			return false, nil
		}

		header, ioErr := readExact(r, length)
		if ioErr != nil {
			return false, ioErr
		}
		if _, err := expectByte(r, ','); err != nil {
			return frameDefect(err)
		}

		if c, isChecksum := parseChecksumHeader(header); isChecksum {
			checksumDeclared = c
			haveChecksum = true
		}
	}

	payloadLen, err := readTupleLength(r)
	if err != nil {
		return frameDefect(err)
	}
	if payloadLen > MessageLengthMax {
		return false, nil
	}

	payload, ioErr := readExact(r, payloadLen)
	if ioErr != nil {
		return false, ioErr
	}
	if _, err := expectByte(r, ','); err != nil {
		return frameDefect(err)
	}

	if haveChecksum {
		if crc16.Checksum(payload) != checksumDeclared {
			return false, nil
		}
	}

	if err := json.Unmarshal(payload, v); err != nil {
		return false, nil
	}
	return true, nil
}

// consumeAndDiscard swallows a bare-JSON frame under Strict mode: it still
// has to advance the reader past the document so the stream stays in sync,
// but returns no document.
func (d Decoder) consumeAndDiscard(r *bufio.Reader) bool {
	var discard json.RawMessage
	dec := json.NewDecoder(r)
	_ = dec.Decode(&discard)
	return false
}

func readTupleLength(r *bufio.Reader) (int, error) {
	digits, err := r.ReadString(':')
	if err != nil {
		return 0, err
	}
	digits = digits[:len(digits)-1]
	n, convErr := strconv.Atoi(digits)
	if convErr != nil || n < 0 {
		return 0, fmt.Errorf("%w: tuple length %q", errMalformedFrame, digits)
	}
	return n, nil
}

func readExact(r *bufio.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := readFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func expectByte(r *bufio.Reader, want byte) (byte, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if b != want {
		return b, fmt.Errorf("%w: expected %q, got %q", errMalformedFrame, want, b)
	}
	return b, nil
}

// parseChecksumHeader recognizes the one header spec.md §3 defines:
// `checksum=0x<4 hex uppercase>`.
func parseChecksumHeader(header []byte) (uint16, bool) {
	s := string(header)
	if len(s) < len(checksumHeaderPrefix) || s[:len(checksumHeaderPrefix)] != checksumHeaderPrefix {
		return 0, false
	}
	hex := s[len(checksumHeaderPrefix):]
	v, err := strconv.ParseUint(hex, 16, 16)
	if err != nil {
		return 0, false
	}
	return uint16(v), true
}
