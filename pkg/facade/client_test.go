package facade

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/litra-tech/ldcp-go/pkg/jsonrpc"
	"github.com/litra-tech/ldcp-go/pkg/ldcperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutor records the last request it was handed and returns a
// canned result/code, standing in for Session in façade unit tests.
type fakeExecutor struct {
	lastReq          jsonrpc.Request
	fireAndForgetReq jsonrpc.Request
	result           json.RawMessage
	code             ldcperr.Code
}

func (f *fakeExecutor) CreateEmptyRequest() jsonrpc.Request {
	return jsonrpc.NewEmptyRequest()
}

func (f *fakeExecutor) ExecuteSync(ctx context.Context, req jsonrpc.Request) (json.RawMessage, ldcperr.Code) {
	f.lastReq = req
	return f.result, f.code
}

func (f *fakeExecutor) Execute(req jsonrpc.Request) ldcperr.Code {
	f.fireAndForgetReq = req
	return f.code
}

func TestQueryInfoDecodesResult(t *testing.T) {
	exec := &fakeExecutor{result: json.RawMessage(`{"model_name":"LDCP-1","serial_number":"SN1","firmware_version":"1.2.3"}`)}
	c := New(exec)

	info, code := c.QueryInfo(context.Background())
	require.Equal(t, ldcperr.NoError, code)
	assert.Equal(t, "LDCP-1", info.ModelName)
	assert.Equal(t, MethodDeviceQueryInfo, exec.lastReq.Method)
}

func TestRebootIsFireAndForget(t *testing.T) {
	exec := &fakeExecutor{code: ldcperr.NoError}
	c := New(exec)

	code := c.Reboot()
	require.Equal(t, ldcperr.NoError, code)
	assert.Equal(t, MethodDeviceReboot, exec.fireAndForgetReq.Method)
	assert.Empty(t, exec.lastReq.Method, "Reboot must not go through ExecuteSync")
}

func TestWriteSettingEncodesEntryNameAndValue(t *testing.T) {
	exec := &fakeExecutor{result: json.RawMessage(`{}`)}
	c := New(exec)

	code := c.SetEchoMode(context.Background(), EchoModeDual)
	require.Equal(t, ldcperr.NoError, code)
	assert.Equal(t, MethodSettingsWrite, exec.lastReq.Method)

	var params settingsEnvelope
	require.NoError(t, json.Unmarshal(exec.lastReq.Params, &params))
	assert.Equal(t, SettingRangefinderEchoMode, params.EntryName)
	assert.EqualValues(t, EchoModeDual, params.Value)
}

func TestReadSettingDecodesTypedValue(t *testing.T) {
	exec := &fakeExecutor{result: json.RawMessage(`{"value":3}`)}
	c := New(exec)

	strength, code := c.GetShadowFilterStrength(context.Background())
	require.Equal(t, ldcperr.NoError, code)
	assert.Equal(t, 3, strength)
}

func TestQueryInfoPropagatesDeviceError(t *testing.T) {
	exec := &fakeExecutor{code: ldcperr.DeviceError}
	c := New(exec)

	_, code := c.QueryInfo(context.Background())
	assert.Equal(t, ldcperr.DeviceError, code)
}
