// Package transport implements the two-socket I/O reactor from spec.md
// §4.4: a TCP control channel, an optional UDP data channel, and a single
// worker goroutine that serializes every outgoing write and every callback
// invocation, the same way the reference implementation confines all
// socket completions to one worker thread.
package transport

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/litra-tech/ldcp-go/pkg/ldcperr"
	"github.com/litra-tech/ldcp-go/pkg/location"
	"github.com/litra-tech/ldcp-go/pkg/wire"
)

// KeepAliveConfig tunes the TCP keep-alive the reactor installs right after
// connect, mirroring original_source/src/transport.cpp's aggressive
// defaults so link loss is detected within a few seconds, not minutes.
type KeepAliveConfig struct {
	Idle time.Duration
	// Interval is not applied to the socket either: net.TCPConn has a
	// single keep-alive period, which applyKeepAlive takes from Idle.
	Interval time.Duration
	// Probes is recorded for documentation/telemetry only: the Go standard
	// library's TCP keep-alive knobs (SetKeepAlivePeriod) don't expose a
	// portable probe-count setting the way setsockopt(TCP_KEEPCNT) does, so
	// this field is not applied to the socket. Left in the struct so
	// callers and logs can still see the intended value.
	Probes int
}

// DefaultKeepAlive matches original_source/src/transport.cpp: idle and
// interval both ~1.5s, ~2 probes. Only Idle is applied to the socket; see
// KeepAliveConfig and applyKeepAlive.
var DefaultKeepAlive = KeepAliveConfig{
	Idle:     1500 * time.Millisecond,
	Interval: 1500 * time.Millisecond,
	Probes:   2,
}

// Callbacks are invoked exclusively on the reactor's worker goroutine, one
// at a time, never concurrently with each other.
type Callbacks struct {
	OnMessage      func(payload []byte)
	OnScanPacket   func(packet []byte)
	OnReceiveError func(code ldcperr.Code)
}

type event struct {
	kind    eventKind
	payload []byte
	errCode ldcperr.Code
}

type eventKind int

const (
	eventMessage eventKind = iota
	eventScanPacket
	eventReceiveError
)

// Reactor owns the TCP control-channel socket and, optionally, the UDP
// data-channel socket, and runs the worker goroutine that serializes every
// callback invocation and outgoing write (spec.md §4.4, §5).
type Reactor struct {
	callbacks Callbacks
	decoder   wire.Decoder

	tcpConn *net.TCPConn
	udpConn *net.UDPConn

	outgoing chan wire.Buffers
	events   chan event
	stopCh   chan struct{}
	stopOnce sync.Once

	group *errgroup.Group

	mu     sync.Mutex
	closed bool
}

// New creates a Reactor that will invoke callbacks on its worker goroutine
// once Connect succeeds.
func New(callbacks Callbacks, strictFraming bool) *Reactor {
	return &Reactor{
		callbacks: callbacks,
		decoder:   wire.Decoder{Strict: strictFraming},
		outgoing:  make(chan wire.Buffers, 64),
		events:    make(chan event, 64),
		stopCh:    make(chan struct{}),
	}
}

// Connect dials the TCP control channel with the given timeout, installs
// aggressive keep-alive, and starts the delimited read loop plus the
// worker goroutine (spec.md §4.4 "Connect").
func (r *Reactor) Connect(ctx context.Context, loc location.Location, timeout time.Duration) ldcperr.Code {
	address, port := loc.Network()
	addr := fmt.Sprintf("%s:%d", address, port)

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return classifyDialError(err)
	}

	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		conn.Close()
		return ldcperr.Unknown
	}
	r.tcpConn = tcpConn

	applyKeepAlive(tcpConn, DefaultKeepAlive)

	group, _ := errgroup.WithContext(context.Background())
	r.group = group

	group.Go(func() error {
		r.tcpReadLoop()
		return nil
	})
	group.Go(func() error {
		r.dispatchLoop()
		return nil
	})

	return ldcperr.NoError
}

// OpenDataChannel creates the UDP data channel bound to localPort and
// "connected" to the device's control-channel address for source filtering
// (spec.md §4.4 "Data channel"). It must be called after Connect.
func (r *Reactor) OpenDataChannel(remoteAddress string, remotePort uint16, localPort uint16) ldcperr.Code {
	localAddr := &net.UDPAddr{Port: int(localPort)}
	conn, err := net.ListenUDP("udp4", localAddr)
	if err != nil {
		return classifyBindError(err)
	}

	remoteAddr := &net.UDPAddr{IP: net.ParseIP(remoteAddress), Port: int(remotePort)}
	// Larger OS receive buffers just reduce drop risk under burst traffic;
	// the queue's drop-oldest policy already covers sustained overrun, so
	// a failure here is not fatal.
	_ = conn.SetReadBuffer(wire.ScanPacketLengthMax * 4)

	r.udpConn = conn

	r.group.Go(func() error {
		r.udpReadLoop(remoteAddr)
		return nil
	})

	return ldcperr.NoError
}

// Transmit enqueues a single pre-encoded request for the worker goroutine
// to write; it never blocks on the network itself (spec.md §4.4
// "Transmit"). Producers only ever touch the channel, never the socket.
func (r *Reactor) Transmit(buffers wire.Buffers) {
	select {
	case r.outgoing <- buffers:
	case <-r.stopCh:
	}
}

// Disconnect shuts down both sockets and joins the worker goroutine(s),
// per spec.md §4.4 "Disconnect" / §3 "destroying it shuts both sockets and
// joins the worker".
func (r *Reactor) Disconnect() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	r.stopOnce.Do(func() { close(r.stopCh) })

	if r.tcpConn != nil {
		r.tcpConn.Close()
	}
	if r.udpConn != nil {
		r.udpConn.Close()
	}
	if r.group != nil {
		_ = r.group.Wait()
	}
}

// tcpReadLoop implements the delimited control-channel receive from
// spec.md §4.4: read until "\r\n", hand the chunk to the frame decoder, and
// push a message event for every frame that decodes successfully.
func (r *Reactor) tcpReadLoop() {
	reader := bufio.NewReader(r.tcpConn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			r.postReceiveError(classifyReadError(err))
			return
		}

		trimmed := trimCRLF(line)
		if len(trimmed) == 0 {
			continue
		}

		var payload jsonRawHolder
		ok, decErr := r.decoder.Decode(bufio.NewReader(bytes.NewReader(trimmed)), &payload)
		if decErr != nil || !ok {
			// Framing or checksum failure: spec.md §4.2/§7 swallow it and
			// keep reading, the device's retransmit or next frame recovers.
			// The decoder reads an in-memory copy of one line, so an error
			// from it means a truncated frame, not a socket failure.
			continue
		}

		r.postEvent(event{kind: eventMessage, payload: payload.raw})
	}
}

// udpReadLoop implements spec.md §4.4 "Data channel": receive into a fixed
// buffer, verify, and hand verified packets off as scan-packet events.
func (r *Reactor) udpReadLoop(remote *net.UDPAddr) {
	buf := make([]byte, wire.ScanPacketLengthMax)
	for {
		n, addr, err := r.udpConn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-r.stopCh:
				return
			default:
			}
			r.postReceiveError(classifyReadError(err))
			return
		}
		if remote != nil && !addr.IP.Equal(remote.IP) {
			continue // source filtering: only the device's address
		}

		packet := make([]byte, n)
		copy(packet, buf[:n])

		if !wire.VerifyScanPacket(packet) {
			continue
		}

		r.postEvent(event{kind: eventScanPacket, payload: packet})
	}
}

// dispatchLoop is the single point where callbacks are invoked and queued
// writes are flushed, giving the reactor the "one worker thread" semantics
// of spec.md §4.4/§5 even though reads happen on their own goroutines.
func (r *Reactor) dispatchLoop() {
	for {
		select {
		case <-r.stopCh:
			return
		case buf := <-r.outgoing:
			if r.tcpConn != nil {
				_, _ = r.tcpConn.Write(buf.Bytes())
			}
		case ev := <-r.events:
			r.dispatch(ev)
		}
	}
}

func (r *Reactor) dispatch(ev event) {
	switch ev.kind {
	case eventMessage:
		if r.callbacks.OnMessage != nil {
			r.callbacks.OnMessage(ev.payload)
		}
	case eventScanPacket:
		if r.callbacks.OnScanPacket != nil {
			r.callbacks.OnScanPacket(ev.payload)
		}
	case eventReceiveError:
		if r.callbacks.OnReceiveError != nil {
			r.callbacks.OnReceiveError(ev.errCode)
		}
	}
}

func (r *Reactor) postEvent(ev event) {
	select {
	case r.events <- ev:
	case <-r.stopCh:
	}
}

func (r *Reactor) postReceiveError(code ldcperr.Code) {
	r.postEvent(event{kind: eventReceiveError, errCode: code})
}
