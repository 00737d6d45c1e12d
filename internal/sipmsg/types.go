// Tolerant codec for the SIP subset used by ua-profile discovery
package sipmsg

import (
	"errors"
	"net/netip"
)

// Returned (wrapped) whenever a datagram cannot be understood
var ErrMalformed = errors.New("malformed sip message")

// Header fields every response echoes verbatim from its request
var MandatoryFields = []string{"Via", "From", "To", "Call-ID", "CSeq", "Max-Forwards"}

// Start line classification
type Kind int

const (
	KindRequest Kind = iota + 1
	KindStatus
)

func (kind Kind) String() (name string) {
	switch kind {
	case KindRequest:
		name = "REQUEST"
	case KindStatus:
		name = "STATUS"
	default:
		name = "MALFORMED"
	}
	return
}

// Header field parameter, `key[=value]`
type Param struct {
	Name     string
	Value    string
	HasValue bool
}

// Single header line
//
//	Raw    = `From: <sip:MAC%3AC074AD112233@224.0.1.75>;tag=395400190;rport`
//	Name   = `From`
//	Value  = `<sip:MAC%3AC074AD112233@224.0.1.75>`
//	Params = [{tag 395400190 true} {rport  false}]
type HeaderField struct {
	Raw    string
	Name   string
	Value  string
	Params []Param
}

// Decoded datagram, or an outbound message under construction
type Message struct {
	StartLine  string
	Kind       Kind
	Method     string // upper-cased request method (requests only)
	StatusCode int    // status messages only
	Body       string

	fields []HeaderField
	index  map[string][]int // lower-cased name -> positions in fields
}

// Read-only view of a ua-profile SUBSCRIBE
type BeaconInfo struct {
	EventPackage string
	Vendor       string
	Model        string
	Version      string
	MAC          string
	ContactURI   string
	Source       netip.AddrPort
}
