package session

import (
	"context"

	"github.com/litra-tech/ldcp-go/pkg/ldcperr"
	"github.com/litra-tech/ldcp-go/pkg/scan"
	"github.com/litra-tech/ldcp-go/pkg/wire"
)

// PacketSource is anything that can hand the reassembler verified scan
// packets one at a time, blocking up to the caller's timeout — Session
// satisfies it via receiveScanPacket.
type PacketSource interface {
	receiveScanPacket(ctx context.Context) ([]byte, ldcperr.Code)
}

// Reassembler turns an ordered (subject to drop-oldest loss) stream of UDP
// scan packets into complete Frames, per spec.md §4.7. One Reassembler
// reconstructs one frame at a time; Echos caps how many echoes per
// measurement are kept, matching the C++ SDK's compile-time template
// parameter.
type Reassembler struct {
	source PacketSource
	echos  int
}

// NewReassembler builds a Reassembler reading packets from source, keeping
// at most echos echoes per measurement.
func NewReassembler(source PacketSource, echos int) *Reassembler {
	return &Reassembler{source: source, echos: echos}
}

// ReadFrame runs the state machine from spec.md §4.7 to completion: it
// blocks, once per packet, for up to the source's configured timeout (and
// no longer than ctx allows) until a full frame — block 0 through
// block_count-1 — has been collected, or an error interrupts the wait.
func (r *Reassembler) ReadFrame(ctx context.Context) (scan.Frame, ldcperr.Code) {
	var frame scan.Frame
	expected := uint8(0)
	blockCount := uint8(1)

	for expected < blockCount {
		raw, errCode := r.source.receiveScanPacket(ctx)
		if errCode.IsError() {
			return scan.Frame{}, errCode
		}

		header := wire.ParseScanPacketHeader(raw)

		if header.BlockIndex != expected {
			// Frame boundary lost: resync on the next packet (spec.md §4.7
			// "reset-on-mismatch"), discarding whatever partial frame data
			// was collected so far.
			expected = 0
			if header.BlockIndex != 0 {
				continue
			}
		}

		if header.BlockIndex == 0 {
			blockCount = header.BlockCount
			frame = scan.Frame{
				Timestamp: header.Timestamp,
				Layers:    []scan.Layer{scan.NewLayer(int(blockCount)*int(header.BlockLength), r.echos)},
			}
		}

		r.applyBlock(&frame, header, raw[wire.HeaderSize:])
		expected++
	}

	return frame, ldcperr.NoError
}

// applyBlock decodes one block's payload into the frame's single layer at
// the offset block_index*block_length, per spec.md §4.7 step 5.
func (r *Reassembler) applyBlock(frame *scan.Frame, header wire.ScanPacketHeader, payload []byte) {
	echoCount := header.EchoCount()
	blockLength := int(header.BlockLength)
	layer := &frame.Layers[0]
	base := int(header.BlockIndex) * blockLength

	intensitiesOffset := blockLength * echoCount * 2

	for i := 0; i < blockLength; i++ {
		m := &layer.Measurements[base+i]
		for j := 0; j < echoCount; j++ {
			rangeOff := (i*echoCount + j) * 2
			intensityOff := intensitiesOffset + (i*echoCount + j)

			if j >= r.echos {
				continue
			}
			if rangeOff+2 <= len(payload) {
				m.Ranges[j] = uint16(payload[rangeOff]) | uint16(payload[rangeOff+1])<<8
			}
			if intensityOff < len(payload) {
				m.Intensities[j] = payload[intensityOff]
			}
		}
	}
}
