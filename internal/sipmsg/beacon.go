package sipmsg

import (
	"gspnp/internal/global"
	"net/netip"
	"regexp"
	"strings"
)

// `lalala <sip:MAC%3AC074AD112233@224.0.1.75> xxx`
var macURIPattern = regexp.MustCompile(`^[^<]*<[^:>]+:` + regexp.QuoteMeta(global.MACMarker) + `([0-9A-Fa-f]{12})[^>]*>`)

// Pulls the ua-profile beacon details out of a SUBSCRIBE.
// Returns false when the Event header is absent or names another event package.
// Missing optional details default to empty strings.
func ExtractBeacon(msg *Message, source netip.AddrPort) (info BeaconInfo, ok bool) {
	event, found := msg.First("Event")
	if !found || event.Value != global.EventPackage {
		return
	}

	info.EventPackage = event.Value
	info.Source = source

	vendor, found := event.Param("vendor")
	if !found {
		vendor = global.UnknownVendor
	}
	info.Vendor = vendor
	info.Model, _ = event.Param("model")
	info.Version, _ = event.Param("version")

	from, found := msg.First("From")
	if found {
		info.MAC = MACFromURI(from.Value)
	}

	contact, found := msg.First("Contact")
	if found {
		info.ContactURI = ContactURI(contact.Value)
	}

	ok = true
	return
}

// Lower-cased MAC from a `<sip:MAC%3A...@host>` address, empty when absent
func MACFromURI(value string) (mac string) {
	match := macURIPattern.FindStringSubmatch(value)
	if len(match) != 2 {
		return
	}
	mac = strings.ToLower(match[1])
	return
}

// Contact URI without the surrounding angle brackets
func ContactURI(value string) (uri string) {
	uri = strings.Trim(strings.TrimSpace(value), "<>")
	return
}
