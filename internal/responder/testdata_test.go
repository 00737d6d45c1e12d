package responder

import (
	"context"
	"fmt"
	"gspnp/internal/global"
	"gspnp/internal/logctx"
	"gspnp/internal/outbound"
	"gspnp/internal/sipmsg"
	"net/netip"
	"strings"
	"testing"
)

var phone = netip.MustParseAddrPort("192.168.1.2:5080")

type beacon struct {
	vendor  string
	model   string
	version string
	mac     string
	omit    map[string]bool // header names left out
	event   string          // replaces the Event primary value
}

// SUBSCRIBE as sent by a GRP2612W
func (b beacon) bytes() []byte {
	event := b.event
	if event == "" {
		event = "ua-profile"
	}
	fields := [][2]string{
		{"Via", "SIP/2.0/UDP 192.168.1.2:5080;branch=z9hG4bK1611133778;rport"},
		{"From", fmt.Sprintf("<sip:MAC%%3A%s@224.0.1.75>;tag=395400190", b.mac)},
		{"To", fmt.Sprintf("<sip:MAC%%3A%s@224.0.1.75>", b.mac)},
		{"Call-ID", "490431573-5080-1@BJC.BGI.IG.DA"},
		{"CSeq", "20000 SUBSCRIBE"},
		{"Contact", "<sip:192.168.1.2:5080>"},
		{"Max-Forwards", "70"},
		{"User-Agent", fmt.Sprintf("%s %s %s", b.vendor, b.model, b.version)},
		{"Expires", "0"},
		{"Event", fmt.Sprintf(`%s;profile-type="device";vendor="%s";model="%s";version="%s"`, event, b.vendor, b.model, b.version)},
		{"Accept", "application/url"},
		{"Content-Length", "0"},
	}

	lines := []string{fmt.Sprintf("SUBSCRIBE sip:MAC%%3A%s@224.0.1.75 SIP/2.0", b.mac)}
	for _, field := range fields {
		if b.omit[field[0]] {
			continue
		}
		lines = append(lines, field[0]+": "+field[1])
	}
	return []byte(strings.Join(lines, "\r\n") + "\r\n\r\n")
}

func grandstream() beacon {
	return beacon{vendor: "Grandstream", model: "GRP2612W", version: "1.0.5.67", mac: "C074AD112233"}
}

type fakeWatcher struct{}

func (fakeWatcher) ArmWrite()    {}
func (fakeWatcher) DisarmWrite() {}

type recordingSink struct {
	beacons []sipmsg.BeaconInfo
}

func (sink *recordingSink) Publish(info sipmsg.BeaconInfo) {
	sink.beacons = append(sink.beacons, info)
}

type handlerFixture struct {
	ctx     context.Context
	logger  *logctx.Logger
	queue   *outbound.Queue
	handler *Handler
	routes  []string
}

func newFixture(t *testing.T, url string, verbosity int) (fixture *handlerFixture) {
	done := make(chan struct{})
	t.Cleanup(func() { close(done) })

	fixture = &handlerFixture{}
	fixture.ctx = logctx.New(context.Background(), global.NSTest, verbosity, done)
	fixture.logger = logctx.GetLogger(fixture.ctx)
	fixture.queue = outbound.New(nil, fakeWatcher{}, 0)

	route := func(peerHost string) string {
		fixture.routes = append(fixture.routes, peerHost)
		return "192.168.1.10"
	}
	fixture.handler = NewHandler(url, 5060, fixture.queue, route)
	fixture.handler.branch = func() (string, error) { return "4242424242", nil }
	return
}

func (fixture *handlerFixture) logLines() []string {
	return fixture.logger.GetFormattedLogLines()
}
