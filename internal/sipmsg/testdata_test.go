package sipmsg

import (
	"fmt"
	"strings"
)

// SUBSCRIBE as sent by a GRP2612W (fields in device order)
func sampleSubscribe(vendor, model, version, mac string) []byte {
	lines := []string{
		fmt.Sprintf("SUBSCRIBE sip:MAC%%3A%s@224.0.1.75 SIP/2.0", mac),
		"Via: SIP/2.0/UDP 192.168.1.2:5080;branch=z9hG4bK1611133778;rport",
		fmt.Sprintf("From: <sip:MAC%%3A%s@224.0.1.75>;tag=395400190", mac),
		fmt.Sprintf("To: <sip:MAC%%3A%s@224.0.1.75>", mac),
		"Call-ID: 490431573-5080-1@BJC.BGI.IG.DA",
		"CSeq: 20000 SUBSCRIBE",
		"Contact: <sip:192.168.1.2:5080>",
		"Max-Forwards: 70",
		fmt.Sprintf("User-Agent: %s %s %s", vendor, model, version),
		"Expires: 0",
		"Supported: replaces, path",
		fmt.Sprintf(`Event: ua-profile;profile-type="device";vendor="%s";model="%s";version="%s"`, vendor, model, version),
		"Accept: application/url",
		"Allow: INVITE, ACK, OPTIONS, CANCEL, BYE, SUBSCRIBE, NOTIFY, INFO, REFER, UPDATE, MESSAGE",
		"Content-Length: 0",
	}
	return []byte(strings.Join(lines, "\r\n") + "\r\n\r\n")
}
