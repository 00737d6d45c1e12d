package cli

import "gspnp/internal/global"

func DefineOptions() (cmdOpts *global.CommandSet) {
	// Root level
	root := &global.CommandSet{
		Description:     "Grandstream Plug-and-Play Responder (GSPnP)",
		FullDescription: "  Answers ua-profile SUBSCRIBE beacons with the provisioning URL",
		CommandName:     RootCLICommand,
		UsageOption:     "[url]",
		ChildCommands:   make(map[string]*global.CommandSet),
	}

	// Responder
	root.ChildCommands["listen"] = &global.CommandSet{
		CommandName:     "listen",
		UsageOption:     "[url]",
		Description:     "Run Responder",
		FullDescription: "Listens for ua-profile beacons and answers Grandstream devices with a NOTIFY carrying the provisioning URL (log only without a URL)",
	}

	// Test beacon
	root.ChildCommands["probe"] = &global.CommandSet{
		CommandName:     "probe",
		UsageOption:     "[target]",
		Description:     "Send Test Beacon",
		FullDescription: "Sends the SUBSCRIBE a GRP2612W multicasts at boot and prints any replies",
	}

	// Version Info
	root.ChildCommands["version"] = &global.CommandSet{
		CommandName:     "version",
		Description:     "Show Version Information",
		FullDescription: "Display meta information about program",
	}

	cmdOpts = root
	return
}
