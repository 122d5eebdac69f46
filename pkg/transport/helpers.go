package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"syscall"

	"github.com/litra-tech/ldcp-go/pkg/ldcperr"
)

// jsonRawHolder captures the exact raw bytes of one decoded JSON document,
// so the reactor can forward them to Session without re-encoding.
type jsonRawHolder struct {
	raw []byte
}

func (h *jsonRawHolder) UnmarshalJSON(data []byte) error {
	h.raw = append(h.raw[:0], data...)
	return nil
}

func trimCRLF(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	return bytes.TrimSpace(line)
}

// applyKeepAlive installs the aggressive keep-alive parameters spec.md
// §4.4 calls for right after a successful connect.
func applyKeepAlive(conn *net.TCPConn, cfg KeepAliveConfig) {
	_ = conn.SetKeepAlive(true)
	_ = conn.SetKeepAlivePeriod(cfg.Idle)
	_ = cfg.Interval // see KeepAliveConfig doc: no separate interval/probe knob in net.TCPConn
}

// classifyDialError maps a TCP dial failure onto the session error
// taxonomy (spec.md §4.4/§6).
func classifyDialError(err error) ldcperr.Code {
	if err == nil {
		return ldcperr.NoError
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ldcperr.TimedOut
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ldcperr.TimedOut
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return ldcperr.ConnectionRefused
	}
	return ldcperr.Unknown
}

// classifyBindError maps a UDP bind failure onto the session error
// taxonomy (spec.md §4.4 "Bind failure with address-in-use").
func classifyBindError(err error) ldcperr.Code {
	if err == nil {
		return ldcperr.NoError
	}
	if errors.Is(err, syscall.EADDRINUSE) {
		return ldcperr.AddressInUse
	}
	return ldcperr.Unknown
}

// classifyReadError maps a socket read failure during normal operation
// onto the session error taxonomy (spec.md §4.4 "receive_error"):
//
//	ENOENT (Linux) / ERROR_CONNECTION_ABORTED (Windows) -> link_down
//	ERROR_SEM_TIMEOUT (Windows)                         -> connection_lost
//	other                                                -> unknown
//
// Go's net package surfaces a closed-by-us socket as a "use of closed
// network connection" error, which this SDK treats as "unknown" since
// Session.Close already stops consumers before that happens. A peer that
// closes the connection (io.EOF) or a severed link (ECONNRESET/EPIPE, or
// ENOENT depending on platform) is classified as link_down, and an expired
// read deadline as connection_lost.
func classifyReadError(err error) ldcperr.Code {
	if err == nil {
		return ldcperr.NoError
	}
	if errors.Is(err, io.EOF) {
		return ldcperr.LinkDown
	}
	if errors.Is(err, syscall.ENOENT) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return ldcperr.LinkDown
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return ldcperr.ConnectionLost
	}
	return ldcperr.Unknown
}
