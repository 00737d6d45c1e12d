package ebpf

const (
	FilterName    string = "sip_prefilter"
	FilterLicense string = "MIT"

	// Socket filters on UDP see the datagram from the UDP header onward
	udpHeaderLength int32 = 8

	// Sets bit 5 of every byte, lower-casing ASCII letters
	caseFold int32 = 0x20202020

	// First four payload bytes after folding, big-endian
	prefixSubscribe int32 = 0x73756273 // "subs"
	prefixStatus    int32 = 0x7369702f // "sip/"

	acceptLabel string = "accept"
)
