package wire

import (
	"bufio"
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	ID      int    `json:"id"`
}

func TestEncodePing(t *testing.T) {
	req := pingRequest{JSONRPC: "2.0", Method: "device/queryInfo", ID: 0}

	buffers, err := Encode(req)
	require.NoError(t, err)

	wantJSON := `{"jsonrpc":"2.0","method":"device/queryInfo","id":0}`
	full := buffers.Bytes()

	assert.Contains(t, string(full), "0:,")
	assert.True(t, bytes.HasSuffix(full, []byte(wantJSON+",\r\n")), "got: %s", full)

	var idx int
	idx = bytes.Index(full, []byte("0:,"))
	require.GreaterOrEqual(t, idx, 0)
	header := string(full[:idx])
	assert.Regexp(t, `^15:checksum=0x[0-9A-F]{4},$`, header)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	req := pingRequest{JSONRPC: "2.0", Method: "device/queryInfo", ID: 7}

	buffers, err := Encode(req)
	require.NoError(t, err)

	// Reactor semantics: read up to (not including) the trailing \r\n
	// delimiter before handing bytes to Decode.
	framed := bytes.TrimSuffix(buffers.Bytes(), []byte("\r\n"))

	var got pingRequest
	dec := Decoder{}
	ok, err := dec.Decode(bufio.NewReader(bytes.NewReader(framed)), &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, req, got)
}

func TestDecodeChecksumMismatchReturnsFalse(t *testing.T) {
	payload := []byte(`{"jsonrpc":"2.0","method":"device/queryInfo","id":1}`)
	frame := "15:checksum=0x0000,0:," +
		strconv.Itoa(len(payload)) + ":" + string(payload) + ","

	var got map[string]interface{}
	dec := Decoder{}
	ok, err := dec.Decode(bufio.NewReader(bytes.NewReader([]byte(frame))), &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecodeMalformedLengthDigitsReturnsFalseNotError(t *testing.T) {
	frame := []byte("1x:checksum=0x0000,0:,10:{\"a\":1},")

	var got map[string]interface{}
	dec := Decoder{}
	ok, err := dec.Decode(bufio.NewReader(bytes.NewReader(frame)), &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecodeWrongDelimiterByteReturnsFalseNotError(t *testing.T) {
	payload := []byte(`{"jsonrpc":"2.0","method":"device/queryInfo","id":1}`)
	frame := "15:checksum=0x0000;0:," +
		strconv.Itoa(len(payload)) + ":" + string(payload) + ","

	var got map[string]interface{}
	dec := Decoder{}
	ok, err := dec.Decode(bufio.NewReader(bytes.NewReader([]byte(frame))), &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecodeLegacyBareJSON(t *testing.T) {
	frame := []byte(`{"jsonrpc":"2.0","method":"device/queryInfo","id":3}`)

	var got pingRequest
	dec := Decoder{}
	ok, err := dec.Decode(bufio.NewReader(bytes.NewReader(frame)), &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, got.ID)
}

func TestDecodeStrictRejectsLegacyBareJSON(t *testing.T) {
	frame := []byte(`{"jsonrpc":"2.0","method":"device/queryInfo","id":3}`)

	var got pingRequest
	dec := Decoder{Strict: true}
	ok, err := dec.Decode(bufio.NewReader(bytes.NewReader(frame)), &got)
	require.NoError(t, err)
	assert.False(t, ok)
}
