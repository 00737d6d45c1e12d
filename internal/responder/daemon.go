package responder

import (
	"context"
	"errors"
	"fmt"
	"gspnp/internal/atomics"
	"gspnp/internal/ebpf"
	"gspnp/internal/eventloop"
	"gspnp/internal/externalio/beats"
	"gspnp/internal/externalio/server"
	"gspnp/internal/global"
	"gspnp/internal/lifecycle"
	"gspnp/internal/logctx"
	metricGlb "gspnp/internal/metrics"
	"gspnp/internal/outbound"
	"gspnp/internal/transport"
	"net/http"
	"net/netip"
	"strings"
	"time"
)

const (
	maxReadsPerEvent  int = 64
	maxWritesPerEvent int = 64
)

// Create new responder daemon instance
func NewDaemon(cfg Config) (new *Daemon) {
	ctx, cancel := context.WithCancel(context.Background())
	new = &Daemon{
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
	return
}

// Opens the socket and prepares the loop. Nothing is read until Run.
func (daemon *Daemon) Start(globalCtx context.Context) (err error) {
	daemon.ctx, daemon.cancel = context.WithCancel(context.Background())
	daemon.ctx = logctx.WithLogger(daemon.ctx, logctx.GetLogger(globalCtx))
	daemon.ctx = logctx.AppendCtxTag(daemon.ctx, global.NSResponder)

	logctx.LogEvent(daemon.ctx, global.VerbosityProgress, global.InfoLog, "Starting...\n")

	daemon.cfg.setDefaults()
	if daemon.cfg.ProvisioningURL == "" {
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog,
			"No provisioning URL configured, logging beacons only\n")
	} else if !strings.HasSuffix(daemon.cfg.ProvisioningURL, global.ProvisioningSuffix) {
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
			"Provisioning URL %q does not end in %q, devices expect a folder\n",
			daemon.cfg.ProvisioningURL, global.ProvisioningSuffix)
	}

	daemon.socket, err = transport.Open(daemon.cfg.ListenIP, daemon.cfg.ListenPort, daemon.cfg.MulticastGroup,
		transport.Options{
			ReuseAddress: daemon.cfg.ReuseAddress,
			ReadBuffer:   global.SocketReceiveBuffer,
		})
	if err != nil {
		err = fmt.Errorf("failed to open listener: %w", err)
		return
	}

	if daemon.cfg.KernelFilter {
		filterCtx := logctx.AppendCtxTag(daemon.ctx, global.NSFilter)
		filter, attachErr := ebpf.Attach(daemon.socket.Fd())
		if attachErr != nil {
			logctx.LogEvent(filterCtx, global.VerbosityStandard, global.WarnLog,
				"Kernel pre-filter unavailable, all datagrams reach the responder: %v\n", attachErr)
		} else {
			daemon.filter = filter
			logctx.LogEvent(filterCtx, global.VerbosityProgress, global.InfoLog,
				"Kernel pre-filter attached\n")
		}
	}

	daemon.loop = eventloop.New(daemon.socket, daemon.cfg.Clock)
	daemon.queue = outbound.New([]string{global.NSResponder}, daemon.loop, daemon.cfg.QueueBudget)
	daemon.handler = NewHandler(daemon.cfg.ProvisioningURL, int(daemon.socket.LocalAddr().Port()),
		daemon.queue, transport.LocalRouteAddress)

	daemon.beats, err = beats.New(daemon.cfg.BeatsEndpoint, daemon.cfg.BeatsBacklog)
	if err != nil {
		daemon.abortStart()
		err = fmt.Errorf("failed starting beats output: %w", err)
		return
	}
	if daemon.beats != nil {
		daemon.handler.SetSink(daemon.beats)
		workerCtx := daemon.ctx
		daemon.wg.Add(1)
		go func() {
			defer daemon.wg.Done()
			daemon.beats.Run(workerCtx)
		}()
	}

	daemon.loop.Register(transport.Read, daemon.onSocketEvent)

	// Heartbeat only matters when datagram tracing is on
	if logctx.GetPrintLevel(daemon.ctx) >= global.VerbosityData {
		daemon.loop.Every(global.HeartbeatInterval, func(ctx context.Context) {
			logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog, "heartbeat: %d datagrams queued\n", daemon.queue.Len())
		})
	}

	daemon.Registry = metricGlb.New()
	daemon.loop.Every(daemon.cfg.MetricCollectionInterval, daemon.collectMetrics)

	if daemon.cfg.MetricQueryServerEnabled {
		// Copy so later tag changes do not leak into server logs
		serverCtx := logctx.AppendCtxTag(daemon.ctx, global.NSMetric)
		serverCtx = logctx.AppendCtxTag(serverCtx, global.NSMetricSrv)

		daemon.MetricServer = server.SetupListener(serverCtx,
			daemon.cfg.MetricQueryServerPort,
			daemon.Registry.Search,
			daemon.Registry.Discover)
		daemon.wg.Add(1)
		go func() {
			defer daemon.wg.Done()
			server.Start(serverCtx, daemon.MetricServer)
		}()
	}

	local := daemon.socket.LocalAddr()
	if daemon.cfg.MulticastGroup != "" {
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog,
			"Listening on %s (multicast group %s)\n", local, daemon.cfg.MulticastGroup)
	} else {
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog, "Listening on %s\n", local)
	}

	err = lifecycle.NotifyStatus(daemon.ctx, "listening on "+local.String())
	if err != nil {
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify status failed: %v\n", err)
	}
	err = lifecycle.NotifyReady(daemon.ctx)
	if err != nil {
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify ready failed: %v\n", err)
		err = nil
	}
	return
}

// Runs the event loop on the calling goroutine until Shutdown
func (daemon *Daemon) Run() {
	defer close(daemon.stopped)

	daemon.loop.Run(daemon.ctx)
	daemon.closeResources()
}

// Stops the loop and background workers (errors are printed to program log buffer)
func (daemon *Daemon) Shutdown() {
	logctx.LogEvent(daemon.ctx, global.VerbosityProgress, global.InfoLog,
		"Daemon shutdown started...\n")

	if daemon.MetricServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), global.ShutdownTimeout)
		err := daemon.MetricServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil && err != http.ErrServerClosed {
			logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
				"metric HTTP server did not shutdown gracefully: %v\n", err)
		}
	}

	// Give the exporter a chance to ship beacons already accepted
	if daemon.beats != nil {
		drained, last := atomics.WaitUntilZero(&daemon.beats.Metrics.Depth, global.ShutdownTimeout)
		if !drained {
			logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
				"beats backlog did not empty in time: dropped %d beacons\n", last)
		}
	}

	daemon.cancel()

	done := make(chan struct{})
	go func() {
		if daemon.loop != nil {
			<-daemon.stopped
		}
		daemon.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logctx.LogEvent(daemon.ctx, global.VerbosityProgress, global.InfoLog,
			"Daemon shutdown completed successfully\n")
	case <-time.After(global.ShutdownTimeout):
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
			"Timeout: daemon did not shutdown within %v seconds\n", global.ShutdownTimeout.Seconds())
	}
}

// Address the socket is bound to
func (daemon *Daemon) LocalAddr() (addr netip.AddrPort) {
	if daemon.socket != nil {
		addr = daemon.socket.LocalAddr()
	}
	return
}

// Loop callback: drain readable datagrams, or flush the outbound queue
func (daemon *Daemon) onSocketEvent(ctx context.Context, event transport.Interest) {
	switch event {
	case transport.Read:
		daemon.readDatagrams(ctx)
	case transport.Write:
		for i := 0; i < maxWritesPerEvent && daemon.queue.Len() > 0; i++ {
			before := daemon.queue.Len()
			daemon.queue.DrainOne(ctx, daemon.socket)
			if daemon.queue.Len() == before {
				// Would block, wait for the next readiness
				break
			}
		}
	}
}

func (daemon *Daemon) readDatagrams(ctx context.Context) {
	buf := make([]byte, global.ReceiveBufferSize)
	for i := 0; i < maxReadsPerEvent; i++ {
		n, source, err := daemon.socket.ReadFrom(buf)
		if errors.Is(err, transport.ErrWouldBlock) {
			return
		}
		if err != nil {
			daemon.Metrics.ReadErrors.Add(1)
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "socket read failed: %v\n", err)
			return
		}

		daemon.Metrics.Received.Add(1)
		logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog,
			"received %d bytes from %s\n", n, source)
		logctx.LogEvent(ctx, global.VerbosityFullData, global.InfoLog,
			"received from %s: %q\n", source, buf[:n])

		daemon.handler.HandleDatagram(ctx, buf[:n], source)
	}
}

// Loop timer: snapshot every counter into the registry and age out old slices
func (daemon *Daemon) collectMetrics(ctx context.Context) {
	now := daemon.loop.Clock().Now()
	interval := daemon.cfg.MetricCollectionInterval

	collectors := []metricGlb.Collector{daemon, daemon.handler, daemon.queue}
	if daemon.beats != nil {
		collectors = append(collectors, daemon.beats)
	}
	daemon.Registry.Collect(now, interval, collectors...)
	daemon.Registry.Prune(now, daemon.cfg.MetricMaxAge)
}

// Releases what Start acquired when Run will never be called
func (daemon *Daemon) abortStart() {
	daemon.closeResources()
	daemon.loop = nil
	daemon.cancel()
}

func (daemon *Daemon) closeResources() {
	if daemon.filter != nil {
		err := daemon.filter.Close()
		if err != nil {
			logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
				"failed releasing kernel pre-filter: %v\n", err)
		}
		daemon.filter = nil
	}
	if daemon.socket != nil {
		if daemon.queue != nil && daemon.queue.Len() > 0 {
			logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
				"dropping %d unsent datagrams\n", daemon.queue.Len())
		}
		err := daemon.socket.Close()
		if err != nil {
			logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
				"failed closing listener: %v\n", err)
		}
		daemon.socket = nil
	}
}
