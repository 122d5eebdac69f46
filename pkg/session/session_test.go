package session

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/litra-tech/ldcp-go/pkg/crc16"
	"github.com/litra-tech/ldcp-go/pkg/jsonrpc"
	"github.com/litra-tech/ldcp-go/pkg/ldcperr"
	"github.com/litra-tech/ldcp-go/pkg/location"
	"github.com/litra-tech/ldcp-go/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildScanPacket assembles a single-block scan packet with a correct
// CRC-16 checksum, matching pkg/wire's scanpacket_test.go buildPacket helper but local to
// this package since Session's scan queue works on raw bytes.
func buildScanPacket(blockIndex, blockCount uint8, blockLength uint16, timestamp uint32, payload []byte) []byte {
	buf := make([]byte, wire.HeaderSize+len(payload))
	binary.LittleEndian.PutUint16(buf[0:2], wire.Signature)
	binary.LittleEndian.PutUint16(buf[2:4], 0)
	buf[4] = blockIndex
	buf[5] = blockCount
	binary.LittleEndian.PutUint16(buf[6:8], blockLength)
	binary.LittleEndian.PutUint32(buf[8:12], timestamp)
	binary.LittleEndian.PutUint16(buf[12:14], 0)
	binary.LittleEndian.PutUint16(buf[14:16], 0) // flags: range/intensity narrow, 1 echo
	copy(buf[wire.HeaderSize:], payload)

	checksum := crc16.Checksum(buf)
	binary.LittleEndian.PutUint16(buf[12:14], checksum)
	return buf
}

// fakeDevice is a minimal loopback TCP listener standing in for the
// rangefinder's control channel: it accepts one connection, decodes
// framed requests, and lets the test script canned responses back.
type fakeDevice struct {
	t        *testing.T
	listener *net.TCPListener
	conn     net.Conn
	reader   *bufio.Reader
}

func startFakeDevice(t *testing.T) *fakeDevice {
	t.Helper()
	ln, err := net.ListenTCP("tcp4", &net.TCPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)
	return &fakeDevice{t: t, listener: ln}
}

func (f *fakeDevice) addr() (string, uint16) {
	addr := f.listener.Addr().(*net.TCPAddr)
	return "127.0.0.1", uint16(addr.Port)
}

func (f *fakeDevice) accept() {
	conn, err := f.listener.Accept()
	require.NoError(f.t, err)
	f.conn = conn
	f.reader = bufio.NewReader(conn)
}

func (f *fakeDevice) readRequest() jsonrpc.Request {
	var req jsonrpc.Request
	ok, err := wire.Decoder{}.Decode(f.reader, &req)
	require.NoError(f.t, err)
	require.True(f.t, ok)
	return req
}

func (f *fakeDevice) sendResult(id int64, result interface{}) {
	raw, err := json.Marshal(result)
	require.NoError(f.t, err)
	resp := jsonrpc.Response{JSONRPC: jsonrpc.Version, ID: &id, Result: raw}
	buffers, err := wire.Encode(resp)
	require.NoError(f.t, err)
	_, err = f.conn.Write(buffers.Bytes())
	require.NoError(f.t, err)
}

func (f *fakeDevice) sendError(id int64, code int, message string) {
	resp := jsonrpc.Response{JSONRPC: jsonrpc.Version, ID: &id, Error: &jsonrpc.RPCError{Code: code, Message: message}}
	buffers, err := wire.Encode(resp)
	require.NoError(f.t, err)
	_, err = f.conn.Write(buffers.Bytes())
	require.NoError(f.t, err)
}

func (f *fakeDevice) close() {
	if f.conn != nil {
		f.conn.Close()
	}
	f.listener.Close()
}

func TestSessionExecuteSyncRoundTrip(t *testing.T) {
	dev := startFakeDevice(t)
	defer dev.close()

	done := make(chan struct{})
	go func() {
		dev.accept()
		req := dev.readRequest()
		dev.sendResult(req.ID, map[string]string{"model": "ldcp-1"})
		close(done)
	}()

	s := New(2*time.Second, nil)
	host, port := dev.addr()
	code := s.Open(context.Background(), location.NewNetwork(host, port))
	require.Equal(t, ldcperr.NoError, code)
	defer s.Close()

	req := s.CreateEmptyRequest()
	req.Method = "device/queryInfo"
	result, execCode := s.ExecuteSync(context.Background(), req)
	require.Equal(t, ldcperr.NoError, execCode)

	var got map[string]string
	require.NoError(t, json.Unmarshal(result, &got))
	assert.Equal(t, "ldcp-1", got["model"])

	<-done
}

func TestSessionExecuteSyncMapsDeviceError(t *testing.T) {
	dev := startFakeDevice(t)
	defer dev.close()

	go func() {
		dev.accept()
		req := dev.readRequest()
		dev.sendError(req.ID, -1, "busy")
	}()

	s := New(2*time.Second, nil)
	host, port := dev.addr()
	require.Equal(t, ldcperr.NoError, s.Open(context.Background(), location.NewNetwork(host, port)))
	defer s.Close()

	req := s.CreateEmptyRequest()
	req.Method = "device/enterLowPower"
	_, code := s.ExecuteSync(context.Background(), req)
	assert.True(t, code.IsError())
}

func TestSessionExecuteSyncTimesOutWithoutResponse(t *testing.T) {
	dev := startFakeDevice(t)
	defer dev.close()

	go func() {
		dev.accept()
		dev.readRequest() // never reply
	}()

	s := New(50*time.Millisecond, nil)
	host, port := dev.addr()
	require.Equal(t, ldcperr.NoError, s.Open(context.Background(), location.NewNetwork(host, port)))
	defer s.Close()

	req := s.CreateEmptyRequest()
	req.Method = "device/queryInfo"
	_, code := s.ExecuteSync(context.Background(), req)
	assert.Equal(t, ldcperr.TimedOut, code)
}

func TestSessionMonotonicRequestIDs(t *testing.T) {
	dev := startFakeDevice(t)
	defer dev.close()

	seen := make(chan int64, 3)
	go func() {
		dev.accept()
		for i := 0; i < 3; i++ {
			req := dev.readRequest()
			seen <- req.ID
			dev.sendResult(req.ID, map[string]int{"ok": 1})
		}
	}()

	s := New(2*time.Second, nil)
	host, port := dev.addr()
	require.Equal(t, ldcperr.NoError, s.Open(context.Background(), location.NewNetwork(host, port)))
	defer s.Close()

	for i := 0; i < 3; i++ {
		req := s.CreateEmptyRequest()
		req.Method = "device/queryInfo"
		_, code := s.ExecuteSync(context.Background(), req)
		require.Equal(t, ldcperr.NoError, code)
	}

	var ids []int64
	for i := 0; i < 3; i++ {
		ids = append(ids, <-seen)
	}
	assert.Equal(t, []int64{0, 1, 2}, ids)
}

func TestSessionCloseUnblocksPendingCall(t *testing.T) {
	dev := startFakeDevice(t)
	defer dev.close()

	accepted := make(chan struct{})
	go func() {
		dev.accept()
		close(accepted)
		dev.readRequest() // never reply, session will be closed instead
	}()

	s := New(5*time.Second, nil)
	host, port := dev.addr()
	require.Equal(t, ldcperr.NoError, s.Open(context.Background(), location.NewNetwork(host, port)))
	<-accepted

	resultCh := make(chan ldcperr.Code, 1)
	go func() {
		req := s.CreateEmptyRequest()
		req.Method = "device/queryInfo"
		_, code := s.ExecuteSync(context.Background(), req)
		resultCh <- code
	}()

	time.Sleep(20 * time.Millisecond)
	s.Close()

	select {
	case code := <-resultCh:
		assert.True(t, code.IsError())
	case <-time.After(time.Second):
		t.Fatal("ExecuteSync did not unblock after Close")
	}
}

func TestSessionReceiveScanPacketTimesOutWithoutData(t *testing.T) {
	dev := startFakeDevice(t)
	defer dev.close()

	go dev.accept()

	s := New(50*time.Millisecond, nil)
	host, port := dev.addr()
	require.Equal(t, ldcperr.NoError, s.Open(context.Background(), location.NewNetwork(host, port)))
	defer s.Close()

	start := time.Now()
	_, code := s.ReceiveScanPacket(context.Background())
	assert.Equal(t, ldcperr.TimedOut, code)
	assert.Less(t, time.Since(start), time.Second, "should time out at the session's configured timeout, not block forever")
}

func TestSessionReadScanFrameReassemblesPushedPacket(t *testing.T) {
	dev := startFakeDevice(t)
	defer dev.close()

	go dev.accept()

	s := New(2*time.Second, nil)
	host, port := dev.addr()
	require.Equal(t, ldcperr.NoError, s.Open(context.Background(), location.NewNetwork(host, port)))
	defer s.Close()

	payload := []byte{10, 0, 20, 0, 5, 6} // two ranges (little-endian uint16) + two intensities
	s.onScanPacket(buildScanPacket(0, 1, 2, 999, payload))

	frame, code := s.ReadScanFrame(context.Background(), 1)
	require.Equal(t, ldcperr.NoError, code)
	assert.Equal(t, uint32(999), frame.Timestamp)
	require.Len(t, frame.Layers, 1)
	assert.Equal(t, uint16(10), frame.Layers[0].Measurements[0].Ranges[0])
	assert.Equal(t, uint16(20), frame.Layers[0].Measurements[1].Ranges[0])
}
