package global

var (
	CmdOpts *CommandSet // Holds CLI command definition

	// Integer for printing increasingly detailed information as program progresses
	//
	//	0 - None: quiet (prints nothing but errors)
	//	1 - Standard: beacon lines
	//	2 - Progress: foreign beacons, notifications sent
	//	3 - Data: datagrams received and sent, heartbeats
	//	4 - FullData: shows full datagrams being processed
	//	5 - Debug: shows extra data during processing (malformed datagrams)
	Verbosity int
)
