// Package session implements the request/response correlator, bounded scan
// queue and frame reassembler from spec.md §4.5-§4.7: the stateful object
// an application opens once per device and issues typed commands through.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/litra-tech/ldcp-go/pkg/jsonrpc"
	"github.com/litra-tech/ldcp-go/pkg/ldcperr"
	"github.com/litra-tech/ldcp-go/pkg/location"
	"github.com/litra-tech/ldcp-go/pkg/transport"
	"github.com/litra-tech/ldcp-go/pkg/wire"
)

// DefaultTimeout is the per-call timeout applied when Session is
// constructed without an explicit one (spec.md §4.5).
const DefaultTimeout = 3000 * time.Millisecond

// neverIssued is the sentinel request id Session starts from: "never
// issued", per spec.md §3.
const neverIssued = int64(-1)

// EventSink receives optional, best-effort session lifecycle notifications
// (spec.md doesn't require this; it's the ambient telemetry hook described
// in SPEC_FULL.md §3). A nil sink disables it entirely.
type EventSink interface {
	SessionEvent(name string, fields map[string]interface{})
}

// Session is the stateful request/response correlator and scan-data source
// described by spec.md §3-§4.5: one control channel, one optional data
// channel, one device.
type Session struct {
	timeout time.Duration
	sink    EventSink

	reactor *transport.Reactor

	mu        sync.Mutex
	id        int64
	current   *pendingResponse
	lastErr   ldcperr.Code
	errNotify chan struct{}
	opened    bool

	commandMu sync.Mutex

	scanQueue *packetQueue
}

type pendingResponse struct {
	id int64
	ch chan jsonrpc.Response
}

// New constructs a closed Session with the given per-call timeout (use
// DefaultTimeout if unsure) and an optional telemetry sink (nil disables
// it).
func New(timeout time.Duration, sink EventSink) *Session {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Session{
		timeout:   timeout,
		sink:      sink,
		id:        neverIssued,
		errNotify: make(chan struct{}),
		scanQueue: newPacketQueue(),
	}
}

// Open constructs the Reactor and connects it to loc, per spec.md §3
// "open(location)" / §4.5.
func (s *Session) Open(ctx context.Context, loc location.Location) ldcperr.Code {
	s.mu.Lock()
	if s.opened {
		s.mu.Unlock()
		return ldcperr.NoError
	}
	// A fresh Open starts without the error latched by an earlier Close or
	// link failure.
	s.lastErr = ldcperr.NoError
	s.errNotify = make(chan struct{})
	s.mu.Unlock()

	reactor := transport.New(transport.Callbacks{
		OnMessage:      s.onMessage,
		OnScanPacket:   s.onScanPacket,
		OnReceiveError: s.onReceiveError,
	}, false)

	code := reactor.Connect(ctx, loc, s.timeout)
	if code.IsError() {
		return code
	}

	s.mu.Lock()
	s.reactor = reactor
	s.opened = true
	s.mu.Unlock()

	s.emit("connected", map[string]interface{}{"location": loc.String()})
	return ldcperr.NoError
}

// OpenDataChannel opens the UDP scan-packet data channel bound to
// localPort, per spec.md §4.4 "open_data_channel".
func (s *Session) OpenDataChannel(remoteAddress string, remotePort, localPort uint16) ldcperr.Code {
	s.mu.Lock()
	reactor := s.reactor
	s.mu.Unlock()
	if reactor == nil {
		return ldcperr.Unknown
	}
	return reactor.OpenDataChannel(remoteAddress, remotePort, localPort)
}

// Close drains and destroys the reactor, clears queues, and marks the
// session closed: every subsequent operation on it returns Unknown (or the
// error already latched before Close) until a fresh Open (spec.md §3
// "Lifecycles").
func (s *Session) Close() {
	s.mu.Lock()
	if !s.opened {
		s.mu.Unlock()
		return
	}
	s.opened = false
	reactor := s.reactor
	s.reactor = nil
	s.current = nil
	s.mu.Unlock()

	if reactor != nil {
		reactor.Disconnect()
	}
	s.scanQueue.clear()
	s.scanQueue.broadcast()
	s.signalError(ldcperr.Unknown)
	s.emit("closed", nil)
}

// CreateEmptyRequest produces a bare `{jsonrpc:"2.0"}` document for the
// caller to fill in, per spec.md §4.5.
func (s *Session) CreateEmptyRequest() jsonrpc.Request {
	return jsonrpc.NewEmptyRequest()
}

// Execute is the fire-and-forget variant for one-way methods like
// device/reboot (spec.md §4.5, §7): it serializes via the command mutex,
// assigns a fresh id, transmits, and returns immediately.
func (s *Session) Execute(req jsonrpc.Request) ldcperr.Code {
	if code := s.getLastError(); code.IsError() {
		return code
	}

	s.commandMu.Lock()
	defer s.commandMu.Unlock()

	s.mu.Lock()
	reactor := s.reactor
	req.ID = s.nextID()
	s.mu.Unlock()
	if reactor == nil {
		return ldcperr.Unknown
	}

	buffers, err := wire.Encode(req)
	if err != nil {
		return ldcperr.Unknown
	}
	reactor.Transmit(buffers)
	return ldcperr.NoError
}

// ExecuteSync is the synchronous round-trip variant of spec.md §4.5: it
// assigns an id, transmits, and blocks (up to the session timeout, or
// until ctx is done) for a matching response.
func (s *Session) ExecuteSync(ctx context.Context, req jsonrpc.Request) (json.RawMessage, ldcperr.Code) {
	if code := s.getLastError(); code.IsError() {
		return nil, code
	}

	s.commandMu.Lock()
	defer s.commandMu.Unlock()

	s.mu.Lock()
	reactor := s.reactor
	if reactor == nil {
		s.mu.Unlock()
		return nil, ldcperr.Unknown
	}
	id := s.nextID()
	req.ID = id
	pr := &pendingResponse{id: id, ch: make(chan jsonrpc.Response, 1)}
	s.current = pr
	errNotify := s.errNotify
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.current == pr {
			s.current = nil
		}
		s.mu.Unlock()
	}()

	buffers, encErr := wire.Encode(req)
	if encErr != nil {
		return nil, ldcperr.Unknown
	}
	reactor.Transmit(buffers)

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case resp := <-pr.ch:
		return s.resolveResponse(resp)
	case <-errNotify:
		return nil, s.getLastError()
	case <-ctx.Done():
		return nil, ldcperr.TimedOut
	case <-timer.C:
		return nil, ldcperr.TimedOut
	}
}

// resolveResponse implements spec.md §4.5 step 6: a result is delivered
// as-is; an error is mapped through ldcperr.FromJSONRPCCode.
func (s *Session) resolveResponse(resp jsonrpc.Response) (json.RawMessage, ldcperr.Code) {
	if resp.Error != nil {
		return nil, ldcperr.FromJSONRPCCode(resp.Error.Code)
	}
	return resp.Result, ldcperr.NoError
}

// nextID assigns the next strictly-increasing request id. Callers must
// hold s.mu.
func (s *Session) nextID() int64 {
	s.id++
	return s.id
}

func (s *Session) getLastError() ldcperr.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// signalError sets last_error (idempotently — once set it is sticky, per
// spec.md §3) and wakes every blocked waiter: pending ExecuteSync calls via
// errNotify, and receiveScanPacket/Reassembler callers via the scan queue's
// broadcast.
func (s *Session) signalError(code ldcperr.Code) {
	s.mu.Lock()
	if s.lastErr == ldcperr.NoError {
		s.lastErr = code
		close(s.errNotify)
	}
	s.mu.Unlock()
	s.scanQueue.broadcast()
}

func (s *Session) emit(name string, fields map[string]interface{}) {
	if s.sink != nil {
		s.sink.SessionEvent(name, fields)
	}
}
