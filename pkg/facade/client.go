package facade

import (
	"context"
	"encoding/json"

	"github.com/litra-tech/ldcp-go/pkg/jsonrpc"
	"github.com/litra-tech/ldcp-go/pkg/ldcperr"
)

// Executor is the subset of Session's API the façade needs. Session
// satisfies it directly; tests substitute a fake to exercise the façade
// without a live device.
type Executor interface {
	CreateEmptyRequest() jsonrpc.Request
	ExecuteSync(ctx context.Context, req jsonrpc.Request) (json.RawMessage, ldcperr.Code)
	Execute(req jsonrpc.Request) ldcperr.Code
}

// Client is the typed adapter spec.md §1 calls "a thin adapter over these
// primitives": it knows the concrete method names and value encodings
// spec.md §6 leaves external, and exposes them as Go methods instead of
// raw JSON-RPC calls.
type Client struct {
	exec Executor
}

// New wraps exec (ordinarily a *session.Session) in a typed façade.
func New(exec Executor) *Client {
	return &Client{exec: exec}
}

// call builds a request for method with the given params (nil for none),
// runs it synchronously, and returns the raw result.
func (c *Client) call(ctx context.Context, method string, params interface{}) (json.RawMessage, ldcperr.Code) {
	req := c.exec.CreateEmptyRequest()
	req.Method = method
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, ldcperr.InvalidParams
		}
		req.Params = raw
	}
	return c.exec.ExecuteSync(ctx, req)
}

// fireAndForget builds a request for method and transmits it without
// waiting for a reply, for the two methods spec.md §7 calls out as
// one-way: the device resets before it could answer.
func (c *Client) fireAndForget(method string) ldcperr.Code {
	req := c.exec.CreateEmptyRequest()
	req.Method = method
	return c.exec.Execute(req)
}

// DeviceInfo is the result shape of device/queryInfo: the model name,
// serial number and firmware version the original SDK's Device::Properties
// exposes as individual named entries (include/ldcp/device.h
// IDENTITY_MODEL_NAME / IDENTITY_SERIAL_NUMBER / VERSION_FIRMWARE).
type DeviceInfo struct {
	ModelName       string `json:"model_name"`
	SerialNumber    string `json:"serial_number"`
	FirmwareVersion string `json:"firmware_version"`
}

// QueryInfo implements device/queryInfo.
func (c *Client) QueryInfo(ctx context.Context) (DeviceInfo, ldcperr.Code) {
	raw, code := c.call(ctx, MethodDeviceQueryInfo, nil)
	if code.IsError() {
		return DeviceInfo{}, code
	}
	var info DeviceInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return DeviceInfo{}, ldcperr.ProtocolError
	}
	return info, ldcperr.NoError
}

// EnterLowPower implements device/enterLowPower.
func (c *Client) EnterLowPower(ctx context.Context) ldcperr.Code {
	_, code := c.call(ctx, MethodDeviceEnterLowPower, nil)
	return code
}

// ExitLowPower implements device/exitLowPower.
func (c *Client) ExitLowPower(ctx context.Context) ldcperr.Code {
	_, code := c.call(ctx, MethodDeviceExitLowPower, nil)
	return code
}

// timestampResult is the result shape of device/readTimestamp.
type timestampResult struct {
	Timestamp uint32 `json:"timestamp"`
}

// ReadTimestamp implements device/readTimestamp.
func (c *Client) ReadTimestamp(ctx context.Context) (uint32, ldcperr.Code) {
	raw, code := c.call(ctx, MethodDeviceReadTimestamp, nil)
	if code.IsError() {
		return 0, code
	}
	var result timestampResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return 0, ldcperr.ProtocolError
	}
	return result.Timestamp, ldcperr.NoError
}

// ResetTimestamp implements device/resetTimestamp.
func (c *Client) ResetTimestamp(ctx context.Context) ldcperr.Code {
	_, code := c.call(ctx, MethodDeviceResetTimestamp, nil)
	return code
}

// Reboot implements device/reboot. It is fire-and-forget per spec.md §7:
// the device resets before it could reply.
func (c *Client) Reboot() ldcperr.Code {
	return c.fireAndForget(MethodDeviceReboot)
}

// RebootToBootloader implements device/rebootToBootloader, also
// fire-and-forget.
func (c *Client) RebootToBootloader() ldcperr.Code {
	return c.fireAndForget(MethodDeviceRebootToBoot)
}
