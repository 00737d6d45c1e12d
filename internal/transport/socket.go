package transport

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"

	"golang.org/x/sys/unix"
)

// Opens a non-blocking UDP socket bound to host:port (empty host is all interfaces).
// Joins the multicast group when one is given.
func Open(host string, port int, group string, opts Options) (sock *Socket, err error) {
	bindAddr, err := resolveBindAddress(host, port)
	if err != nil {
		return
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_UDP)
	if err != nil {
		err = fmt.Errorf("failed to create udp socket: %w", err)
		return
	}
	defer func() {
		if err != nil {
			_ = unix.Close(fd)
			sock = nil
		}
	}()

	if opts.ReuseAddress {
		// Using x/sys/unix package for more up-to-date syscall numbers
		err = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		if err != nil {
			err = fmt.Errorf("failed to set SO_REUSEADDR: %w", err)
			return
		}
		err = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
		if err != nil {
			err = fmt.Errorf("failed to set SO_REUSEPORT: %w", err)
			return
		}
	}

	if opts.ReadBuffer > 0 {
		err = growReceiveBuffer(fd, opts.ReadBuffer)
		if err != nil {
			return
		}
	}

	err = unix.Bind(fd, &unix.SockaddrInet4{Port: int(bindAddr.Port()), Addr: bindAddr.Addr().As4()})
	if err != nil {
		if errors.Is(err, unix.EADDRINUSE) {
			err = &BindError{Address: bindAddr, Err: err}
			return
		}
		err = fmt.Errorf("failed to bind %s: %w", bindAddr, err)
		return
	}

	sock = &Socket{fd: fd}

	// Learn the actual port (port 0 binds are ephemeral)
	sa, err := unix.Getsockname(fd)
	if err != nil {
		err = fmt.Errorf("failed to read bound address: %w", err)
		return
	}
	sock.local = addrPortFromSockaddr(sa)

	if group != "" {
		err = sock.JoinGroup(group)
		if err != nil {
			return
		}
	}
	return
}

// Raises SO_RCVBUF to size, never below what the kernel already grants.
// The kernel doubles the request and caps it at net.core.rmem_max.
func growReceiveBuffer(fd int, size int) (err error) {
	current, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF)
	if err != nil {
		err = fmt.Errorf("failed to read receive buffer size: %w", err)
		return
	}
	if current >= size*2 {
		return
	}

	err = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, size)
	if err != nil {
		err = fmt.Errorf("failed to set receive buffer size: %w", err)
		return
	}
	return
}

// Adds membership for a multicast group on the default interface
func (sock *Socket) JoinGroup(group string) (err error) {
	groupAddr, err := netip.ParseAddr(group)
	if err != nil {
		err = fmt.Errorf("invalid multicast group '%s': %w", group, err)
		return
	}
	groupAddr = groupAddr.Unmap()
	if !groupAddr.Is4() || !groupAddr.IsMulticast() {
		err = fmt.Errorf("'%s' is not an IPv4 multicast group", group)
		return
	}

	mreq := &unix.IPMreq{Multiaddr: groupAddr.As4()} // Interface zero: INADDR_ANY
	err = unix.SetsockoptIPMreq(sock.fd, unix.IPPROTO_IP, unix.IP_ADD_MEMBERSHIP, mreq)
	if err != nil {
		err = fmt.Errorf("failed to join multicast group %s: %w", groupAddr, err)
		return
	}
	sock.groups = append(sock.groups, groupAddr)
	return
}

// Receives one datagram into buf
func (sock *Socket) ReadFrom(buf []byte) (n int, from netip.AddrPort, err error) {
	n, sa, err := unix.Recvfrom(sock.fd, buf, 0)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			err = ErrWouldBlock
			return
		}
		err = fmt.Errorf("failed reading from socket: %w", err)
		return
	}
	from = addrPortFromSockaddr(sa)
	return
}

// Sends one datagram to dest
func (sock *Socket) WriteTo(payload []byte, dest netip.AddrPort) (err error) {
	addr := dest.Addr().Unmap()
	if !addr.Is4() {
		err = fmt.Errorf("unsupported destination address %s", dest)
		return
	}

	err = unix.Sendto(sock.fd, payload, 0, &unix.SockaddrInet4{Port: int(dest.Port()), Addr: addr.As4()})
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			err = ErrWouldBlock
			return
		}
		err = fmt.Errorf("failed to send %d bytes to %s: %w", len(payload), dest, err)
		return
	}
	return
}

// Local bound address
func (sock *Socket) LocalAddr() (addr netip.AddrPort) {
	addr = sock.local
	return
}

// Joined multicast groups
func (sock *Socket) Groups() (groups []netip.Addr) {
	groups = append(groups, sock.groups...)
	return
}

// Raw descriptor (socket filter attachment)
func (sock *Socket) Fd() (fd int) {
	fd = sock.fd
	return
}

func (sock *Socket) Close() (err error) {
	if sock == nil || sock.fd < 0 {
		return
	}

	err = unix.Close(sock.fd)
	sock.fd = -1
	if err != nil {
		err = fmt.Errorf("failed to close udp socket: %w", err)
		return
	}
	return
}

// Resolves the host part of a bind address, empty host is all interfaces
func resolveBindAddress(host string, port int) (bindAddr netip.AddrPort, err error) {
	if port < 0 || port > 65535 {
		err = fmt.Errorf("invalid port %d", port)
		return
	}

	if host == "" {
		bindAddr = netip.AddrPortFrom(netip.IPv4Unspecified(), uint16(port))
		return
	}

	udpAddr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		err = fmt.Errorf("failed to resolve bind address '%s': %w", host, err)
		return
	}
	bindAddr = udpAddr.AddrPort()
	bindAddr = netip.AddrPortFrom(bindAddr.Addr().Unmap(), bindAddr.Port())
	return
}

func addrPortFromSockaddr(sa unix.Sockaddr) (addr netip.AddrPort) {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		addr = netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port))
	case *unix.SockaddrInet6:
		addr = netip.AddrPortFrom(netip.AddrFrom16(sa.Addr).Unmap(), uint16(sa.Port))
	}
	return
}
