package facade

import (
	"context"
	"encoding/json"
	"net"

	"github.com/litra-tech/ldcp-go/pkg/ldcperr"
)

// Settings entry names, translated from the dotted C++ static member names
// in include/ldcp/device.h (ENTRY_RANGEFINDER_ECHO_MODE etc.) into the
// dotted path shape settings/read and settings/write take as their
// entry_name parameter. The original header declares these as opaque
// extern strings with no value shown in the retrieved sources, so the
// concrete spelling below is this adapter's own — see DESIGN.md.
const (
	SettingRangefinderEchoMode         = "rangefinder.echo_mode"
	SettingScanResolution              = "scan.resolution"
	SettingScanFrequency               = "scan.frequency"
	SettingFiltersShadowFilterEnabled  = "filters.shadow_filter.enabled"
	SettingFiltersShadowFilterStrength = "filters.shadow_filter.strength"
	SettingEthernetIPv4Address         = "connectivity.ethernet.ipv4_address"
	SettingEthernetIPv4Subnet          = "connectivity.ethernet.ipv4_subnet"
	SettingDataChannelTargetAddress    = "transport.ethernet.data_channel.target_address"
	SettingDataChannelTargetPort       = "transport.ethernet.data_channel.target_port"
)

// EchoMode mirrors ldcp_sdk::Device::Settings::echo_mode_t.
type EchoMode int

const (
	EchoModeSingleFirst EchoMode = iota
	EchoModeSingleStrongest
	EchoModeSingleLast
	EchoModeDual
)

// ScanResolution mirrors the angular resolution enum shared by
// data_types.h and device.h (the broader SDK's variant, which additionally
// carries 120K; device.h's own settings enum is the 90K-and-below subset).
type ScanResolution int

const (
	ScanResolution120K ScanResolution = iota
	ScanResolution90K
	ScanResolution60K
	ScanResolution30K
	ScanResolution15K
)

type settingsEnvelope struct {
	EntryName string      `json:"entry_name"`
	Value     interface{} `json:"value,omitempty"`
}

// ReadSetting implements settings/read for an arbitrary entry name,
// returning the raw JSON-RPC result value for callers that want to decode
// it themselves.
func (c *Client) ReadSetting(ctx context.Context, entryName string) (json.RawMessage, ldcperr.Code) {
	raw, code := c.call(ctx, MethodSettingsRead, settingsEnvelope{EntryName: entryName})
	if code.IsError() {
		return nil, code
	}
	var result struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, ldcperr.ProtocolError
	}
	return result.Value, ldcperr.NoError
}

// WriteSetting implements settings/write. value is marshaled as whichever
// JSON shape fits it (string, number, bool) per spec.md §1's "JSON strings
// vs integers vs IPv4 dotted quads" framing.
func (c *Client) WriteSetting(ctx context.Context, entryName string, value interface{}) ldcperr.Code {
	_, code := c.call(ctx, MethodSettingsWrite, settingsEnvelope{EntryName: entryName, Value: value})
	return code
}

// PersistSetting implements settings/persist, committing a previously
// written value to non-volatile storage on the device.
func (c *Client) PersistSetting(ctx context.Context, entryName string) ldcperr.Code {
	_, code := c.call(ctx, MethodSettingsPersist, settingsEnvelope{EntryName: entryName})
	return code
}

// GetEchoMode reads SettingRangefinderEchoMode and decodes it as an
// integer enum value.
func (c *Client) GetEchoMode(ctx context.Context) (EchoMode, ldcperr.Code) {
	raw, code := c.ReadSetting(ctx, SettingRangefinderEchoMode)
	if code.IsError() {
		return 0, code
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, ldcperr.ProtocolError
	}
	return EchoMode(v), ldcperr.NoError
}

// SetEchoMode writes SettingRangefinderEchoMode.
func (c *Client) SetEchoMode(ctx context.Context, mode EchoMode) ldcperr.Code {
	return c.WriteSetting(ctx, SettingRangefinderEchoMode, int(mode))
}

// GetScanResolution reads SettingScanResolution.
func (c *Client) GetScanResolution(ctx context.Context) (ScanResolution, ldcperr.Code) {
	raw, code := c.ReadSetting(ctx, SettingScanResolution)
	if code.IsError() {
		return 0, code
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, ldcperr.ProtocolError
	}
	return ScanResolution(v), ldcperr.NoError
}

// SetScanResolution writes SettingScanResolution.
func (c *Client) SetScanResolution(ctx context.Context, res ScanResolution) ldcperr.Code {
	return c.WriteSetting(ctx, SettingScanResolution, int(res))
}

// GetScanFrequency reads SettingScanFrequency, in hertz.
func (c *Client) GetScanFrequency(ctx context.Context) (float64, ldcperr.Code) {
	raw, code := c.ReadSetting(ctx, SettingScanFrequency)
	if code.IsError() {
		return 0, code
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, ldcperr.ProtocolError
	}
	return v, ldcperr.NoError
}

// SetScanFrequency writes SettingScanFrequency, in hertz.
func (c *Client) SetScanFrequency(ctx context.Context, hz float64) ldcperr.Code {
	return c.WriteSetting(ctx, SettingScanFrequency, hz)
}

// GetShadowFilterEnabled reads SettingFiltersShadowFilterEnabled.
func (c *Client) GetShadowFilterEnabled(ctx context.Context) (bool, ldcperr.Code) {
	raw, code := c.ReadSetting(ctx, SettingFiltersShadowFilterEnabled)
	if code.IsError() {
		return false, code
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, ldcperr.ProtocolError
	}
	return v, ldcperr.NoError
}

// SetShadowFilterEnabled writes SettingFiltersShadowFilterEnabled.
func (c *Client) SetShadowFilterEnabled(ctx context.Context, enabled bool) ldcperr.Code {
	return c.WriteSetting(ctx, SettingFiltersShadowFilterEnabled, enabled)
}

// GetShadowFilterStrength reads SettingFiltersShadowFilterStrength.
func (c *Client) GetShadowFilterStrength(ctx context.Context) (int, ldcperr.Code) {
	raw, code := c.ReadSetting(ctx, SettingFiltersShadowFilterStrength)
	if code.IsError() {
		return 0, code
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, ldcperr.ProtocolError
	}
	return v, ldcperr.NoError
}

// SetShadowFilterStrength writes SettingFiltersShadowFilterStrength.
func (c *Client) SetShadowFilterStrength(ctx context.Context, strength int) ldcperr.Code {
	return c.WriteSetting(ctx, SettingFiltersShadowFilterStrength, strength)
}

// GetEthernetIPv4Address reads SettingEthernetIPv4Address, encoded on the
// wire as an IPv4 dotted quad string.
func (c *Client) GetEthernetIPv4Address(ctx context.Context) (net.IP, ldcperr.Code) {
	return c.readIPv4(ctx, SettingEthernetIPv4Address)
}

// SetEthernetIPv4Address writes SettingEthernetIPv4Address.
func (c *Client) SetEthernetIPv4Address(ctx context.Context, addr net.IP) ldcperr.Code {
	return c.WriteSetting(ctx, SettingEthernetIPv4Address, addr.String())
}

// GetEthernetIPv4Subnet reads SettingEthernetIPv4Subnet.
func (c *Client) GetEthernetIPv4Subnet(ctx context.Context) (net.IP, ldcperr.Code) {
	return c.readIPv4(ctx, SettingEthernetIPv4Subnet)
}

// SetEthernetIPv4Subnet writes SettingEthernetIPv4Subnet.
func (c *Client) SetEthernetIPv4Subnet(ctx context.Context, mask net.IP) ldcperr.Code {
	return c.WriteSetting(ctx, SettingEthernetIPv4Subnet, mask.String())
}

// GetDataChannelTargetAddress reads SettingDataChannelTargetAddress: the
// host the device's UDP data channel sends scan packets to.
func (c *Client) GetDataChannelTargetAddress(ctx context.Context) (net.IP, ldcperr.Code) {
	return c.readIPv4(ctx, SettingDataChannelTargetAddress)
}

// SetDataChannelTargetAddress writes SettingDataChannelTargetAddress.
func (c *Client) SetDataChannelTargetAddress(ctx context.Context, addr net.IP) ldcperr.Code {
	return c.WriteSetting(ctx, SettingDataChannelTargetAddress, addr.String())
}

// GetDataChannelTargetPort reads SettingDataChannelTargetPort.
func (c *Client) GetDataChannelTargetPort(ctx context.Context) (uint16, ldcperr.Code) {
	raw, code := c.ReadSetting(ctx, SettingDataChannelTargetPort)
	if code.IsError() {
		return 0, code
	}
	var v uint16
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, ldcperr.ProtocolError
	}
	return v, ldcperr.NoError
}

// SetDataChannelTargetPort writes SettingDataChannelTargetPort.
func (c *Client) SetDataChannelTargetPort(ctx context.Context, port uint16) ldcperr.Code {
	return c.WriteSetting(ctx, SettingDataChannelTargetPort, port)
}

func (c *Client) readIPv4(ctx context.Context, entryName string) (net.IP, ldcperr.Code) {
	raw, code := c.ReadSetting(ctx, entryName)
	if code.IsError() {
		return nil, code
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, ldcperr.ProtocolError
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, ldcperr.ProtocolError
	}
	return ip, ldcperr.NoError
}
