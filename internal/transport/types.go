// Non-blocking UDP endpoint for the responder event loop
package transport

import (
	"errors"
	"fmt"
	"net/netip"
)

// Readiness bits watched on the socket
type Interest uint8

const (
	Read Interest = 1 << iota
	Write
)

// Returned by ReadFrom/WriteTo when the operation would block
var ErrWouldBlock = errors.New("socket operation would block")

// Bind failure (address already in use)
type BindError struct {
	Address netip.AddrPort
	Err     error
}

func (bindErr *BindError) Error() string {
	return fmt.Sprintf("failed to bind %s: %v", bindErr.Address, bindErr.Err)
}

func (bindErr *BindError) Unwrap() error {
	return bindErr.Err
}

// Socket setup options
type Options struct {
	ReuseAddress bool // Share the port with other listeners (SO_REUSEADDR/SO_REUSEPORT)
	ReadBuffer   int  // SO_RCVBUF, zero keeps the kernel default
}

// Non-blocking IPv4 UDP socket
type Socket struct {
	fd     int
	local  netip.AddrPort
	groups []netip.Addr
}
