package session

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/litra-tech/ldcp-go/pkg/crc16"
	"github.com/litra-tech/ldcp-go/pkg/ldcperr"
	"github.com/litra-tech/ldcp-go/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource feeds a Reassembler a preloaded sequence of packets (or
// reports an error once exhausted), standing in for Session during
// reassembler unit tests.
type fakeSource struct {
	packets [][]byte
	pos     int
	onEmpty ldcperr.Code
}

func (f *fakeSource) receiveScanPacket(ctx context.Context) ([]byte, ldcperr.Code) {
	if f.pos >= len(f.packets) {
		if f.onEmpty == ldcperr.NoError {
			return nil, ldcperr.TimedOut
		}
		return nil, f.onEmpty
	}
	p := f.packets[f.pos]
	f.pos++
	return p, ldcperr.NoError
}

func buildTestPacket(frameIndex uint16, blockIndex, blockCount uint8, blockLength uint16, timestamp uint32, echoCount int, ranges [][]uint16, intensities [][]uint8) []byte {
	flags := uint16(echoCount-1) << 2
	payload := make([]byte, int(blockLength)*echoCount*3)
	for i := 0; i < int(blockLength); i++ {
		for j := 0; j < echoCount; j++ {
			off := (i*echoCount + j) * 2
			binary.LittleEndian.PutUint16(payload[off:off+2], ranges[i][j])
		}
	}
	intensityBase := int(blockLength) * echoCount * 2
	for i := 0; i < int(blockLength); i++ {
		for j := 0; j < echoCount; j++ {
			payload[intensityBase+i*echoCount+j] = intensities[i][j]
		}
	}

	buf := make([]byte, wire.HeaderSize+len(payload))
	binary.LittleEndian.PutUint16(buf[0:2], wire.Signature)
	binary.LittleEndian.PutUint16(buf[2:4], frameIndex)
	buf[4] = blockIndex
	buf[5] = blockCount
	binary.LittleEndian.PutUint16(buf[6:8], blockLength)
	binary.LittleEndian.PutUint32(buf[8:12], timestamp)
	binary.LittleEndian.PutUint16(buf[14:16], flags)
	copy(buf[wire.HeaderSize:], payload)

	checksum := crc16.Checksum(buf)
	binary.LittleEndian.PutUint16(buf[12:14], checksum)
	return buf
}

func TestReassembleThreeBlocksSingleEcho(t *testing.T) {
	ranges := [][][]uint16{
		{{10}, {20}},
		{{30}, {40}},
		{{50}, {60}},
	}
	intensities := [][][]uint8{
		{{1}, {2}},
		{{3}, {4}},
		{{5}, {6}},
	}

	var packets [][]byte
	for b := 0; b < 3; b++ {
		packets = append(packets, buildTestPacket(1, uint8(b), 3, 2, 999, 1, ranges[b], intensities[b]))
	}

	src := &fakeSource{packets: packets}
	reasm := NewReassembler(src, 1)

	frame, code := reasm.ReadFrame(context.Background())
	require.Equal(t, ldcperr.NoError, code)
	require.Len(t, frame.Layers, 1)
	require.Equal(t, uint32(999), frame.Timestamp)

	want := []uint16{10, 20, 30, 40, 50, 60}
	for i, m := range frame.Layers[0].Measurements {
		assert.Equal(t, want[i], m.Ranges[0], "measurement %d", i)
	}
}

func TestReassembleFrameBoundaryLoss(t *testing.T) {
	block0 := buildTestPacket(1, 0, 3, 1, 111, 1, [][]uint16{{1}}, [][]uint8{{1}})
	block1 := buildTestPacket(1, 1, 3, 1, 111, 1, [][]uint16{{2}}, [][]uint8{{2}})
	newBlock0 := buildTestPacket(2, 0, 2, 1, 222, 1, [][]uint16{{100}}, [][]uint8{{9}})
	newBlock1 := buildTestPacket(2, 1, 2, 1, 222, 1, [][]uint16{{200}}, [][]uint8{{9}})

	src := &fakeSource{packets: [][]byte{block0, block1, newBlock0, newBlock1}}
	reasm := NewReassembler(src, 1)

	frame, code := reasm.ReadFrame(context.Background())
	require.Equal(t, ldcperr.NoError, code)
	require.Equal(t, uint32(222), frame.Timestamp)
	require.Len(t, frame.Layers[0].Measurements, 2)
	assert.Equal(t, uint16(100), frame.Layers[0].Measurements[0].Ranges[0])
	assert.Equal(t, uint16(200), frame.Layers[0].Measurements[1].Ranges[0])
}

func TestReassembleEchoCapTruncatesAndZeroes(t *testing.T) {
	pkt := buildTestPacket(1, 0, 1, 1, 5, 2, [][]uint16{{10, 20}}, [][]uint8{{1, 2}})

	src := &fakeSource{packets: [][]byte{pkt}}
	reasm := NewReassembler(src, 1) // caller cap is 1 echo even though packet carries 2

	frame, code := reasm.ReadFrame(context.Background())
	require.Equal(t, ldcperr.NoError, code)
	m := frame.Layers[0].Measurements[0]
	require.Len(t, m.Ranges, 1)
	assert.Equal(t, uint16(10), m.Ranges[0])
}

func TestReassemblePropagatesError(t *testing.T) {
	src := &fakeSource{onEmpty: ldcperr.LinkDown}
	reasm := NewReassembler(src, 1)

	_, code := reasm.ReadFrame(context.Background())
	assert.Equal(t, ldcperr.LinkDown, code)
}
