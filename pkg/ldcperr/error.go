// Package ldcperr defines the closed error taxonomy surfaced at the
// session boundary, ported from original_source/include/ldcp/error.h.
package ldcperr

// Code is one of the fixed set of outcomes a Session operation can report.
// It is deliberately small and closed, mirroring the C++ SDK's error_t enum,
// rather than an open error hierarchy: spec.md §7 classifies failures into
// exactly three families (transport, protocol, semantic) and enumerates the
// values each can take.
type Code int

const (
	NoError Code = iota
	AddressInUse
	InvalidAddress
	ConnectionRefused
	TimedOut
	LinkDown
	ConnectionLost
	ProtocolError
	NotSupported
	InvalidParams
	DeviceError
	Unknown
)

var names = [...]string{
	"no_error",
	"address_in_use",
	"invalid_address",
	"connection_refused",
	"timed_out",
	"link_down",
	"connection_lost",
	"protocol_error",
	"not_supported",
	"invalid_params",
	"device_error",
	"unknown",
}

// String renders the code the way the wire protocol and logs name it.
func (c Code) String() string {
	if c < 0 || int(c) >= len(names) {
		return "unknown"
	}
	return names[c]
}

// Error implements the error interface so Code can be returned and compared
// directly: errors.Is(err, ldcperr.LinkDown) works because the zero-alloc
// Code value itself satisfies error.
func (c Code) Error() string {
	return c.String()
}

// IsError reports whether c represents a failure (i.e. is not NoError).
func (c Code) IsError() bool {
	return c != NoError
}

// FromJSONRPCCode maps a JSON-RPC `error.code` member (spec.md §4.5) onto
// the session's Code taxonomy.
func FromJSONRPCCode(rpcCode int) Code {
	switch rpcCode {
	case -1:
		return ProtocolError
	case -2:
		return ProtocolError
	case -32700:
		return ProtocolError
	case -32600:
		return ProtocolError
	case -32601:
		return NotSupported
	case -32602:
		return InvalidParams
	case -32603:
		return DeviceError
	default:
		return Unknown
	}
}
