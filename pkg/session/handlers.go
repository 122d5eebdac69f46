package session

import (
	"context"
	"encoding/json"

	"github.com/litra-tech/ldcp-go/pkg/jsonrpc"
	"github.com/litra-tech/ldcp-go/pkg/ldcperr"
	"github.com/litra-tech/ldcp-go/pkg/scan"
)

// onMessage is the Reactor callback for a decoded control-channel frame
// (spec.md §4.5 "on_message"): malformed documents and responses that
// don't match the single outstanding request are silently discarded.
func (s *Session) onMessage(payload []byte) {
	var resp jsonrpc.Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return
	}
	if !resp.IsWellFormed() {
		return
	}

	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()
	if cur == nil || *resp.ID != cur.id {
		return
	}

	select {
	case cur.ch <- resp:
	default:
	}
}

// onScanPacket is the Reactor callback for a verified UDP scan packet
// (spec.md §4.4 "Data channel"): it pushes into the bounded queue, which
// silently drops the oldest entry on overflow.
func (s *Session) onScanPacket(packet []byte) {
	s.scanQueue.push(packet)
}

// onReceiveError is the Reactor callback for a socket failure on either
// channel (spec.md §4.4 "receive_error"): it latches last_error and wakes
// every blocked caller.
func (s *Session) onReceiveError(code ldcperr.Code) {
	s.signalError(code)
}

// receiveScanPacket satisfies PacketSource so a Reassembler can pull raw
// scan packets straight from this session's queue. It waits up to the
// session's configured timeout, the same way ExecuteSync bounds its own
// wait, in addition to whatever deadline ctx already carries.
func (s *Session) receiveScanPacket(ctx context.Context) ([]byte, ldcperr.Code) {
	if code := s.getLastError(); code.IsError() {
		return nil, code
	}

	s.mu.Lock()
	errNotify := s.errNotify
	s.mu.Unlock()

	waitCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// A sticky error ends the wait early instead of letting it run out the
	// timeout.
	go func() {
		select {
		case <-errNotify:
			cancel()
		case <-waitCtx.Done():
		}
	}()

	packet, ok := s.scanQueue.waitAndPop(waitCtx)
	if !ok {
		if code := s.getLastError(); code.IsError() {
			return nil, code
		}
		return nil, ldcperr.TimedOut
	}
	return packet, ldcperr.NoError
}

// ReceiveScanPacket exposes one verified, still-framed scan packet at a
// time for callers that want to do their own reassembly (spec.md §4.4
// "receive_scan_packet").
func (s *Session) ReceiveScanPacket(ctx context.Context) ([]byte, ldcperr.Code) {
	return s.receiveScanPacket(ctx)
}

// ReadScanFrame reassembles packets off this session's queue into one
// complete Frame, keeping at most echos echoes per measurement (spec.md
// §4.7). Each call starts a fresh Reassembler, matching the state
// machine's "resync on block 0" initial condition.
func (s *Session) ReadScanFrame(ctx context.Context, echos int) (scan.Frame, ldcperr.Code) {
	reasm := NewReassembler(s, echos)
	return reasm.ReadFrame(ctx)
}

// DroppedScanPacketCount reports how many scan packets have been discarded
// by the bounded queue's drop-oldest overflow policy since the Session was
// created (the count is not reset by Open or Close), for
// callers that want to monitor data-channel health (spec.md §4.6).
func (s *Session) DroppedScanPacketCount() uint64 {
	return s.scanQueue.droppedCount()
}
