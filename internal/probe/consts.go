package probe

import "time"

// Identity of the canned device (captured from a real GRP2612W)
const (
	deviceMAC      string = "C074AD112233"
	deviceVendor   string = "Grandstream"
	deviceModel    string = "GRP2612W"
	deviceFirmware string = "1.0.5.67"
	deviceCallID   string = "490431573-5080-1@BJC.BGI.IG.DA"
	deviceFromTag  string = "395400190"
	deviceBranch   string = "1611133778"
)

const (
	DefaultTimeout time.Duration = 3 * time.Second
	DefaultTTL     int           = 1
	readSlice      time.Duration = 250 * time.Millisecond
)
