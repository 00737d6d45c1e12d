package transport

import (
	"gspnp/internal/global"
	"net"
	"strings"
)

// Determines the local address the OS would use to reach a peer.
// Connecting a UDP socket only consults the routing table, no packet is sent.
// Falls back to loopback when the peer is unreachable or invalid.
func LocalRouteAddress(peerHost string) (local string) {
	local = global.DefaultFallbackAddr

	rawIP := strings.TrimPrefix(peerHost, "[")
	rawIP = strings.TrimSuffix(rawIP, "]")
	if rawIP == "" {
		return
	}

	// Quick dial to see what source address the system would use
	conn, err := net.Dial("udp4", net.JoinHostPort(rawIP, "80"))
	if err != nil {
		return
	}
	defer conn.Close()

	localAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || localAddr.IP == nil || localAddr.IP.IsUnspecified() {
		return
	}
	local = localAddr.IP.String()
	return
}
