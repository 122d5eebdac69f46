package telemetry

import (
	"testing"

	"github.com/litra-tech/ldcp-go/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithEmptyAddressDisablesTelemetry(t *testing.T) {
	sink, err := New(config.TelemetryConfig{})
	require.NoError(t, err)
	assert.Nil(t, sink)
}

func TestNilSinkSessionEventIsANoOp(t *testing.T) {
	var sink *Sink
	assert.NotPanics(t, func() {
		sink.SessionEvent("connected", map[string]interface{}{"location": "10.0.0.1:5000"})
	})
}

func TestNilSinkCloseIsANoOp(t *testing.T) {
	var sink *Sink
	assert.NoError(t, sink.Close())
}
