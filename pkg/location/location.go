// Package location implements the polymorphic device address described in
// spec.md §3: a tagged variant so additional transports can be added later
// without a virtual-call hierarchy, even though Network is the only variant
// this SDK implements today.
package location

import "fmt"

// Kind discriminates the Location variant.
type Kind int

const (
	// KindNetwork identifies a Location carrying an IPv4 address and port.
	KindNetwork Kind = iota
)

// Location is a tagged union over supported device addresses. Construct one
// with NewNetwork; do not set the fields directly.
type Location struct {
	kind    Kind
	address string
	port    uint16
}

// NewNetwork builds a Network-variant Location from an IPv4 dotted-quad
// address and a port.
func NewNetwork(address string, port uint16) Location {
	return Location{kind: KindNetwork, address: address, port: port}
}

// Kind reports which variant this Location holds.
func (l Location) Kind() Kind {
	return l.kind
}

// Network returns the address and port of a Network-variant Location. It
// panics if called on any other variant; callers should switch on Kind()
// first, the same way a tagged union is consumed in the reference SDK.
func (l Location) Network() (address string, port uint16) {
	if l.kind != KindNetwork {
		panic("location: Network() called on non-network variant")
	}
	return l.address, l.port
}

// String renders the location for logging.
func (l Location) String() string {
	switch l.kind {
	case KindNetwork:
		return fmt.Sprintf("%s:%d", l.address, l.port)
	default:
		return "unknown-location"
	}
}
