// Package record implements offline capture and playback of reassembled
// scan frames, the supplemented feature described in SPEC_FULL.md §4.2: a
// natural extension of read_scan_frame for building deterministic test
// fixtures and diagnostic captures without a live device. It reuses the
// teacher's CBOR wire codec (github.com/fxamacker/cbor/v2), which
// pkg/service used to move numeric nRF52 payloads.
package record

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/litra-tech/ldcp-go/pkg/scan"
)

// Recorder appends reassembled frames to a file, each one length-prefixed
// so Player can read them back one at a time without scanning for
// boundaries inside the CBOR stream.
type Recorder struct {
	f *os.File
	w *bufio.Writer
}

// Create opens path for writing, truncating any existing capture.
func Create(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("record: create %s: %w", path, err)
	}
	return &Recorder{f: f, w: bufio.NewWriter(f)}, nil
}

// Write appends one frame to the capture.
func (r *Recorder) Write(frame scan.Frame) error {
	payload, err := cbor.Marshal(frame)
	if err != nil {
		return fmt.Errorf("record: marshal frame: %w", err)
	}

	var length [4]byte
	binary.LittleEndian.PutUint32(length[:], uint32(len(payload)))
	if _, err := r.w.Write(length[:]); err != nil {
		return fmt.Errorf("record: write length: %w", err)
	}
	if _, err := r.w.Write(payload); err != nil {
		return fmt.Errorf("record: write payload: %w", err)
	}
	return nil
}

// Close flushes buffered output and closes the underlying file.
func (r *Recorder) Close() error {
	if err := r.w.Flush(); err != nil {
		r.f.Close()
		return fmt.Errorf("record: flush: %w", err)
	}
	return r.f.Close()
}

// Player reads frames back from a file written by Recorder, in order.
type Player struct {
	f *os.File
	r *bufio.Reader
}

// Open opens path for playback.
func Open(path string) (*Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("record: open %s: %w", path, err)
	}
	return &Player{f: f, r: bufio.NewReader(f)}, nil
}

// Next reads and decodes the next frame. It returns io.EOF once the
// capture is exhausted.
func (p *Player) Next() (scan.Frame, error) {
	var length [4]byte
	if _, err := io.ReadFull(p.r, length[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return scan.Frame{}, fmt.Errorf("record: truncated length prefix: %w", err)
		}
		return scan.Frame{}, err
	}

	payload := make([]byte, binary.LittleEndian.Uint32(length[:]))
	if _, err := io.ReadFull(p.r, payload); err != nil {
		return scan.Frame{}, fmt.Errorf("record: truncated frame: %w", err)
	}

	var frame scan.Frame
	if err := cbor.Unmarshal(payload, &frame); err != nil {
		return scan.Frame{}, fmt.Errorf("record: unmarshal frame: %w", err)
	}
	return frame, nil
}

// Close closes the underlying file.
func (p *Player) Close() error {
	return p.f.Close()
}
