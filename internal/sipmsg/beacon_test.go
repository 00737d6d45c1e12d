package sipmsg

import (
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBeacon(t *testing.T) {
	source := netip.MustParseAddrPort("192.168.1.2:5080")

	tests := []struct {
		name    string
		vendor  string
		model   string
		version string
		mac     string
	}{
		{name: "GRP2612W", vendor: "Grandstream", model: "GRP2612W", version: "1.0.5.67", mac: "C074AD112233"},
		{name: "lower case mac", vendor: "Grandstream", model: "GXP2170", version: "1.0.11.3", mac: "000b82aabbcc"},
		{name: "other vendor", vendor: "OtherVendor", model: "X1", version: "9", mac: "AABBCCDDEEFF"},
		{name: "empty model and version", vendor: "Grandstream", model: "", version: "", mac: "0123456789AB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Parse(sampleSubscribe(tt.vendor, tt.model, tt.version, tt.mac))
			require.NoError(t, err)

			info, ok := ExtractBeacon(msg, source)
			require.True(t, ok)
			assert.Equal(t, "ua-profile", info.EventPackage)
			assert.Equal(t, tt.vendor, info.Vendor)
			assert.Equal(t, tt.model, info.Model)
			assert.Equal(t, tt.version, info.Version)
			assert.Equal(t, strings.ToLower(tt.mac), info.MAC)
			assert.Equal(t, "sip:192.168.1.2:5080", info.ContactURI)
			assert.Equal(t, source, info.Source)
		})
	}
}

func TestExtractBeaconRejectsOtherEvents(t *testing.T) {
	tests := []struct {
		name  string
		event string
	}{
		{name: "no event header"},
		{name: "presence event", event: "Event: presence"},
		{name: "message summary", event: "Event: message-summary;vendor=Grandstream"},
		{name: "case differs", event: "Event: UA-Profile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := "SUBSCRIBE sip:x SIP/2.0\r\nFrom: <sip:MAC%3AC074AD112233@224.0.1.75>\r\n"
			if tt.event != "" {
				raw += tt.event + "\r\n"
			}
			msg, err := Parse([]byte(raw + "\r\n"))
			require.NoError(t, err)

			_, ok := ExtractBeacon(msg, netip.AddrPort{})
			assert.False(t, ok)
		})
	}
}

func TestExtractBeaconDefaults(t *testing.T) {
	msg, err := Parse([]byte("SUBSCRIBE sip:x SIP/2.0\r\nEvent: ua-profile\r\n\r\n"))
	require.NoError(t, err)

	info, ok := ExtractBeacon(msg, netip.AddrPort{})
	require.True(t, ok)
	assert.Equal(t, "unknown vendor", info.Vendor)
	assert.Empty(t, info.Model)
	assert.Empty(t, info.Version)
	assert.Empty(t, info.MAC)
	assert.Empty(t, info.ContactURI)
}

func TestMACFromURI(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "plain", value: "<sip:MAC%3AC074AD112233@224.0.1.75>", want: "c074ad112233"},
		{name: "display name", value: `"Phone" <sip:MAC%3Ac074ad112233@224.0.1.75>`, want: "c074ad112233"},
		{name: "too short", value: "<sip:MAC%3AC074AD1122@224.0.1.75>", want: ""},
		{name: "non hex", value: "<sip:MAC%3AC074AD11223Z@224.0.1.75>", want: ""},
		{name: "no marker", value: "<sip:C074AD112233@224.0.1.75>", want: ""},
		{name: "no brackets", value: "sip:MAC%3AC074AD112233@224.0.1.75", want: ""},
		{name: "empty", value: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MACFromURI(tt.value))
		})
	}
}

func TestContactURI(t *testing.T) {
	assert.Equal(t, "sip:192.168.1.2:5080", ContactURI("<sip:192.168.1.2:5080>"))
	assert.Equal(t, "sip:192.168.1.2:5080", ContactURI(" sip:192.168.1.2:5080 "))
	assert.Empty(t, ContactURI("<>"))
}
