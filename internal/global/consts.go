package global

import "time"

const (
	// Descriptive Names for available verbosity levels
	VerbosityNone int = iota
	VerbosityStandard
	VerbosityProgress
	VerbosityData
	VerbosityFullData
	VerbosityDebug

	// Descriptive names for available severity levels
	ErrorLog string = "Error"
	WarnLog  string = "Warn"
	InfoLog  string = "Info"
)

const (
	ProgVersion  string = "v0.3.0"
	ProgBaseName string = "gspnp"

	// Context keys
	LoggerKey  CtxKey = "logger"  // Event queue (mostly for variable log verbosity handling)
	LogTagsKey CtxKey = "logtags" // List of tags in order of broad->specific appended/popped at various parts of the program

	DefaultConfigPath     string = "/etc/gspnp.json"
	DefaultSIPPort        int    = 5060         // well-known udp SIP port
	DefaultMulticastGroup string = "224.0.1.75" // sip.mcast.net
	DefaultFallbackAddr   string = "127.0.0.1"

	// Event loop
	LoopWaitCeiling     time.Duration = 1 * time.Second
	HeartbeatInterval   time.Duration = 60 * time.Second
	DispatchSampleLimit int           = 512         // recent dispatch durations kept for the mean gauge
	ReceiveBufferSize   int           = 1024 * 64   // largest datagram read at once
	SocketReceiveBuffer int           = 1024 * 1024 // SO_RCVBUF request for the listening socket

	// Outbound queue defaults
	DefaultQueueBudget        uint64 = 1 << 20 // used when free memory cannot be determined
	QueueBudgetMemoryFraction uint64 = 256     // share of free memory usable by pending datagrams

	// Beats exporter
	DefaultBeatsBacklog int           = 256
	BeatsDialTimeout    time.Duration = 3 * time.Second

	// Timeout values
	ShutdownTimeout time.Duration = 5 * time.Second

	// Metric HTTP server
	DefaultMetricQueryPort int           = 10000 + DefaultSIPPort // Default listen port
	HTTPListenAddr         string        = "localhost"            // Metric queries only exposed to local machine
	HTTPReadTimeout        time.Duration = 30 * time.Second
	HTTPWriteTimeout       time.Duration = 10 * time.Second
	HTTPIdleTimeout        time.Duration = 180 * time.Second
	DataPath               string        = "/data/"
	DiscoveryPath          string        = "/discover"

	// Namespacing Name Components
	NSMetric    string = "Metrics"
	NSMetricSrv string = "Server"
	NSTest      string = "Test"
	NSCLI       string = "CLI"
	NSResponder string = "Responder"
	NSLoop      string = "Loop"
	NSHandler   string = "Handler"
	NSQueue     string = "Queue"
	NSTransport string = "Transport"
	NSFilter    string = "Filter"
	NSBeats     string = "Beats"
	NSProbe     string = "Probe"
)

// SIP literals for the ua-profile discovery exchange
const (
	SIPVersion         string = "SIP/2.0"
	MethodSubscribe    string = "SUBSCRIBE"
	MethodNotify       string = "NOTIFY"
	EventPackage       string = "ua-profile"
	ExpectedVendor     string = "Grandstream"
	UnknownVendor      string = "unknown vendor"
	MACMarker          string = "MAC%3A"
	BranchMagicCookie  string = "z9hG4bK" // rfc3261 sect 8.1.1.7
	BranchRandomMax    int64  = 10000000000
	NotifyCSeq         string = "1 NOTIFY"
	NotifyMaxForwards  int    = 70
	NotifyContentType  string = "application/url"
	NotifyFromUser     string = "daemon"
	ProvisioningSuffix string = "/"
)
