package wire

import (
	"encoding/binary"

	"github.com/litra-tech/ldcp-go/pkg/crc16"
)

// HeaderSize is the fixed size of the UDP scan-packet header (spec.md §6).
const HeaderSize = 16

// Signature is the constant that must occupy the first two header bytes.
const Signature uint16 = 0xFFFF

// Maximum representable combination of the header's block_length (uint16)
// field and the 2-bit echo_count field (4 echoes max), each measurement
// contributing a uint16 range plus a uint8 intensity per echo.
const maxBlockLength = 1 << 16
const maxEchoCount = 4
const derivedMaxPayload = maxBlockLength * maxEchoCount * 3 // ranges(2B)+intensities(1B) per echo

// scanPacketSafeUpperBound is the documented fallback from spec.md §9 when
// the derived bound would be impractically large for a single UDP
// datagram.
const scanPacketSafeUpperBound = 2048

// ScanPacketLengthMax is the largest buffer size the data channel ever
// needs for one packet (spec.md §9 Open Question, resolved in SPEC_FULL.md
// §6): the derived bound clamped to the documented safe upper bound, since
// block_length in practice is bounded by what fits in one UDP datagram
// anyway.
var ScanPacketLengthMax = minInt(HeaderSize+derivedMaxPayload, scanPacketSafeUpperBound)

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// ScanPacketHeader is the decoded, little-endian, packed 16-byte header
// that precedes every UDP scan packet (spec.md §3, §6).
type ScanPacketHeader struct {
	Signature    uint16
	FrameIndex   uint16
	BlockIndex   uint8
	BlockCount   uint8
	BlockLength  uint16
	Timestamp    uint32
	Checksum     uint16
	Flags        uint16
}

// Flags bit layout (spec.md §3).
const (
	flagIntensityWidthBit = 0
	flagRangeWidthBit     = 1
	flagEchoCountShift    = 2
	flagEchoCountMask     = 0x3
)

// IntensityWidth reports whether intensities are the wide (16-bit) variant.
func (h ScanPacketHeader) IntensityWidth() bool {
	return h.Flags&(1<<flagIntensityWidthBit) != 0
}

// RangeWidth reports whether ranges are the wide variant.
func (h ScanPacketHeader) RangeWidth() bool {
	return h.Flags&(1<<flagRangeWidthBit) != 0
}

// EchoCount is the number of echoes carried per measurement in this
// packet's payload (header stores echoes_per_measurement - 1 in 2 bits).
func (h ScanPacketHeader) EchoCount() int {
	return int((h.Flags>>flagEchoCountShift)&flagEchoCountMask) + 1
}

// ParseScanPacketHeader decodes the fixed 16-byte header from the front of
// data. Callers must call VerifyScanPacket first; ParseScanPacketHeader
// itself performs no validation.
func ParseScanPacketHeader(data []byte) ScanPacketHeader {
	return ScanPacketHeader{
		Signature:   binary.LittleEndian.Uint16(data[0:2]),
		FrameIndex:  binary.LittleEndian.Uint16(data[2:4]),
		BlockIndex:  data[4],
		BlockCount:  data[5],
		BlockLength: binary.LittleEndian.Uint16(data[6:8]),
		Timestamp:   binary.LittleEndian.Uint32(data[8:12]),
		Checksum:    binary.LittleEndian.Uint16(data[12:14]),
		Flags:       binary.LittleEndian.Uint16(data[14:16]),
	}
}

// VerifyScanPacket implements spec.md §4.3: it reports whether data is at
// least one header long, carries the correct signature, and its CRC-16
// (computed with the checksum field zeroed) matches the checksum embedded
// in the header. It is non-destructive: the checksum bytes in data are
// restored before returning, so the caller may forward the original bytes
// unchanged.
func VerifyScanPacket(data []byte) bool {
	if len(data) < HeaderSize {
		return false
	}
	if binary.LittleEndian.Uint16(data[0:2]) != Signature {
		return false
	}

	var savedChecksum [2]byte
	copy(savedChecksum[:], data[12:14])
	declared := binary.LittleEndian.Uint16(savedChecksum[:])

	data[12] = 0
	data[13] = 0
	computed := crc16.Checksum(data)
	data[12] = savedChecksum[0]
	data[13] = savedChecksum[1]

	return computed == declared
}
