// Beacon inventory export to Logstash/Elastic beats inputs
package beats

import (
	"fmt"
	"gspnp/internal/global"
	"gspnp/internal/sipmsg"

	lumberjack "github.com/elastic/go-lumber/client/v2"
)

// Creates new beats (lumberjack) exporter. Returns nil nil if no endpoint.
func New(endpoint string, backlog int) (exporter *Exporter, err error) {
	if endpoint == "" {
		return
	}

	dial := func() (sink Sink, err error) {
		compression := lumberjack.CompressionLevel(0)
		timeout := lumberjack.Timeout(global.BeatsDialTimeout)

		ljClient, err := lumberjack.SyncDial(endpoint, compression, timeout)
		if err != nil {
			err = fmt.Errorf("failed connection to beats server: %w", err)
			return
		}
		sink = ljClient
		return
	}

	sink, err := dial()
	if err != nil {
		return
	}

	exporter = newExporter(endpoint, sink, dial, backlog)
	return
}

func newExporter(endpoint string, sink Sink, dial func() (Sink, error), backlog int) (exporter *Exporter) {
	if backlog <= 0 {
		backlog = global.DefaultBeatsBacklog
	}
	exporter = &Exporter{
		Namespace: []string{global.NSResponder, global.NSBeats},
		endpoint:  endpoint,
		sink:      sink,
		dial:      dial,
		events:    make(chan sipmsg.BeaconInfo, backlog),
		done:      make(chan struct{}),
	}
	return
}
