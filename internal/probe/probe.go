// Sends a canned ua-profile SUBSCRIBE and gathers whatever answers it
package probe

import (
	"context"
	"errors"
	"fmt"
	"gspnp/internal/global"
	"gspnp/internal/logctx"
	"gspnp/internal/sipmsg"
	"gspnp/internal/transport"
	"net"
	"net/netip"
	"os"
	"strconv"
	"time"

	"golang.org/x/net/ipv4"
)

type Options struct {
	Target   string        // host[:port], multicast group when empty
	Bind     string        // local host[:port], ephemeral when empty
	TTL      int           // multicast hop limit
	Loopback bool          // deliver multicast copies to local listeners
	Timeout  time.Duration // how long to wait for replies after sending
}

type Reply struct {
	From    netip.AddrPort
	Message *sipmsg.Message
}

// Builds the SUBSCRIBE a GRP2612W multicasts at boot, advertising contact as its address
func Request(contact netip.AddrPort) (msg *sipmsg.Message, err error) {
	target := fmt.Sprintf("sip:%s%s@%s", global.MACMarker, deviceMAC, global.DefaultMulticastGroup)
	msg = sipmsg.NewRequest(global.MethodSubscribe, target)

	fields := []string{
		fmt.Sprintf("Via: %s/UDP %s;branch=%s%s;rport", global.SIPVersion, contact, global.BranchMagicCookie, deviceBranch),
		fmt.Sprintf("From: <%s>;tag=%s", target, deviceFromTag),
		fmt.Sprintf("To: <%s>", target),
		"Call-ID: " + deviceCallID,
		"CSeq: 20000 " + global.MethodSubscribe,
		fmt.Sprintf("Contact: <sip:%s>", contact),
		"Max-Forwards: 70",
		fmt.Sprintf("User-Agent: %s %s %s", deviceVendor, deviceModel, deviceFirmware),
		"Expires: 0",
		"Supported: replaces, path",
		fmt.Sprintf(`Event: %s;profile-type="device";vendor="%s";model="%s";version="%s"`,
			global.EventPackage, deviceVendor, deviceModel, deviceFirmware),
		"Accept: " + global.NotifyContentType,
		"Allow: INVITE, ACK, OPTIONS, CANCEL, BYE, SUBSCRIBE, NOTIFY, INFO, REFER, UPDATE, MESSAGE",
		"Content-Length: 0",
	}
	for _, field := range fields {
		err = msg.Add(field)
		if err != nil {
			err = fmt.Errorf("failed to build probe request: %w", err)
			return
		}
	}
	return
}

// Sends one probe and returns the replies received before the timeout or cancellation
func Run(ctx context.Context, opts Options) (replies []Reply, err error) {
	ctx = logctx.AppendCtxTag(ctx, global.NSProbe)
	opts.setDefaults()

	dest, err := resolveTarget(opts.Target)
	if err != nil {
		return
	}

	conn, err := net.ListenPacket("udp4", opts.Bind)
	if err != nil {
		err = fmt.Errorf("failed to open probe socket: %w", err)
		return
	}
	defer conn.Close()

	packetConn := ipv4.NewPacketConn(conn)
	if dest.Addr().IsMulticast() {
		err = packetConn.SetMulticastTTL(opts.TTL)
		if err != nil {
			err = fmt.Errorf("failed to set multicast ttl: %w", err)
			return
		}
		err = packetConn.SetMulticastLoopback(opts.Loopback)
		if err != nil {
			err = fmt.Errorf("failed to set multicast loopback: %w", err)
			return
		}
	}

	local := conn.LocalAddr().(*net.UDPAddr)
	contactIP, err := netip.ParseAddr(localHost(local, dest))
	if err != nil {
		err = fmt.Errorf("invalid local address: %w", err)
		return
	}
	request, err := Request(netip.AddrPortFrom(contactIP, uint16(local.Port)))
	if err != nil {
		return
	}
	packet := request.Bytes()

	_, err = packetConn.WriteTo(packet, nil, net.UDPAddrFromAddrPort(dest))
	if err != nil {
		err = fmt.Errorf("failed to send probe to %s: %w", dest, err)
		return
	}
	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog, "sent SUBSCRIBE to %s from %s\n", dest, local)
	logctx.LogEvent(ctx, global.VerbosityFullData, global.InfoLog, "probe datagram:\n%s", packet)

	replies, err = collect(ctx, packetConn, opts.Timeout)
	return
}

// Reads in short slices so cancellation is noticed promptly
func collect(ctx context.Context, conn *ipv4.PacketConn, timeout time.Duration) (replies []Reply, err error) {
	deadline := time.Now().Add(timeout)
	buf := make([]byte, global.ReceiveBufferSize)

	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return
		}

		slice := time.Now().Add(readSlice)
		if slice.After(deadline) {
			slice = deadline
		}
		err = conn.SetReadDeadline(slice)
		if err != nil {
			err = fmt.Errorf("failed to set read deadline: %w", err)
			return
		}

		n, _, from, readErr := conn.ReadFrom(buf)
		if readErr != nil {
			if errors.Is(readErr, os.ErrDeadlineExceeded) {
				continue
			}
			err = fmt.Errorf("failed reading replies: %w", readErr)
			return
		}

		source := from.(*net.UDPAddr).AddrPort()
		source = netip.AddrPortFrom(source.Addr().Unmap(), source.Port())
		msg, parseErr := sipmsg.Parse(buf[:n])
		if parseErr != nil {
			logctx.LogEvent(ctx, global.VerbosityDebug, global.InfoLog, "ignoring reply from %s: %v\n", source, parseErr)
			continue
		}

		logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "%s from %s\n", msg.StartLine, source)
		if msg.Body != "" {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "  body: %q\n", msg.Body)
		}
		logctx.LogEvent(ctx, global.VerbosityFullData, global.InfoLog, "reply datagram:\n%s", buf[:n])

		replies = append(replies, Reply{From: source, Message: msg})
	}
	return
}

func (opts *Options) setDefaults() {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Bind == "" {
		opts.Bind = ":0"
	}
}

// Destination from host[:port], defaulting to the SIP group and port
func resolveTarget(target string) (dest netip.AddrPort, err error) {
	host, port := target, strconv.Itoa(global.DefaultSIPPort)
	if target == "" {
		host = global.DefaultMulticastGroup
	} else if splitHost, splitPort, splitErr := net.SplitHostPort(target); splitErr == nil {
		host, port = splitHost, splitPort
	}

	udpAddr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(host, port))
	if err != nil {
		err = fmt.Errorf("invalid probe target %q: %w", target, err)
		return
	}
	dest = udpAddr.AddrPort()
	dest = netip.AddrPortFrom(dest.Addr().Unmap(), dest.Port())
	return
}

// Address the responder should see in Via/Contact
func localHost(local *net.UDPAddr, dest netip.AddrPort) (host string) {
	if local.IP != nil && !local.IP.IsUnspecified() {
		host = local.IP.String()
		return
	}
	host = transport.LocalRouteAddress(dest.Addr().String())
	return
}
