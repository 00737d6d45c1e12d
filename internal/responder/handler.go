package responder

import (
	"context"
	"fmt"
	"gspnp/internal/global"
	"gspnp/internal/logctx"
	"gspnp/internal/outbound"
	"gspnp/internal/random"
	"gspnp/internal/sipmsg"
	"net/netip"
	"sync/atomic"
)

// Destination for outbound datagrams (the outbound queue)
type Enqueuer interface {
	Fits(size uint64) (fits bool)
	Enqueue(ctx context.Context, payload []byte, dest netip.AddrPort) (queued bool)
}

// Receives every accepted Grandstream beacon
type BeaconSink interface {
	Publish(info sipmsg.BeaconInfo)
}

// Local address the OS would use toward a peer
type RouteResolver func(peerHost string) (local string)

// Protocol logic for ua-profile beacons. Holds no per-device state.
type Handler struct {
	Namespace  []string
	url        string // empty means log only
	listenPort int
	queue      Enqueuer
	route      RouteResolver
	sink       BeaconSink
	branch     func() (tag string, err error)
	Metrics    HandlerMetrics
}

type HandlerMetrics struct {
	Malformed     atomic.Uint64 // unparseable datagrams
	Status        atomic.Uint64 // responses from devices
	Ignored       atomic.Uint64 // other methods and event packages
	ForeignVendor atomic.Uint64 // ua-profile beacons from other vendors
	Beacons       atomic.Uint64 // Grandstream beacons
	Replies       atomic.Uint64 // 200 OK + NOTIFY pairs queued
	ReplyFailures atomic.Uint64 // beacons that could not be answered
}

func NewHandler(url string, listenPort int, queue Enqueuer, route RouteResolver) (new *Handler) {
	new = &Handler{
		Namespace:  []string{global.NSResponder, global.NSHandler},
		url:        url,
		listenPort: listenPort,
		queue:      queue,
		route:      route,
		branch: func() (tag string, err error) {
			tag, err = random.DecimalTag(global.BranchRandomMax)
			return
		},
	}
	return
}

// Forwards accepted beacons to sink (nil disables)
func (handler *Handler) SetSink(sink BeaconSink) {
	handler.sink = sink
}

// Processes one inbound datagram
func (handler *Handler) HandleDatagram(ctx context.Context, payload []byte, source netip.AddrPort) {
	msg, err := sipmsg.Parse(payload)
	if err != nil {
		handler.Metrics.Malformed.Add(1)
		logctx.LogEvent(ctx, global.VerbosityDebug, global.InfoLog,
			"dropped datagram from %s: %v\n", source, err)
		return
	}

	switch {
	case msg.Kind == sipmsg.KindStatus:
		handler.Metrics.Status.Add(1)
		logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog,
			"got %q from %s\n", msg.StartLine, source)
	case msg.Method == global.MethodSubscribe:
		handler.handleSubscribe(ctx, msg, source)
	default:
		handler.Metrics.Ignored.Add(1)
		logctx.LogEvent(ctx, global.VerbosityDebug, global.InfoLog,
			"ignoring %s from %s\n", msg.Method, source)
	}
}

func (handler *Handler) handleSubscribe(ctx context.Context, msg *sipmsg.Message, source netip.AddrPort) {
	info, ok := sipmsg.ExtractBeacon(msg, source)
	if !ok {
		handler.Metrics.Ignored.Add(1)
		logctx.LogEvent(ctx, global.VerbosityDebug, global.InfoLog,
			"ignoring SUBSCRIBE without %s event from %s\n", global.EventPackage, source)
		return
	}

	ip := source.Addr().String()
	if info.Vendor != global.ExpectedVendor {
		handler.Metrics.ForeignVendor.Add(1)
		logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
			"SUBSCRIBE %s %s\n", ip, info.Vendor)
		return
	}

	handler.Metrics.Beacons.Add(1)
	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog,
		"SUBSCRIBE mac:%s %s %s %s fw %s\n", info.MAC, ip, info.Vendor, info.Model, info.Version)

	if handler.sink != nil {
		handler.sink.Publish(info)
	}

	if handler.url == "" {
		return
	}

	err := handler.reply(ctx, msg, info)
	if err != nil {
		handler.Metrics.ReplyFailures.Add(1)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"cannot answer SUBSCRIBE from %s: %v\n", source, err)
		return
	}
	handler.Metrics.Replies.Add(1)
	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
		"NOTIFY %s %s\n", ip, handler.url)
}

// Queues 200 OK then NOTIFY, both to the beacon source.
// Nothing is queued unless both messages could be built and fit the queue budget.
func (handler *Handler) reply(ctx context.Context, msg *sipmsg.Message, info sipmsg.BeaconInfo) (err error) {
	ok, err := sipmsg.BuildResponse(msg, 200, "OK")
	if err != nil {
		return
	}

	notify, err := handler.buildNotify(msg, info)
	if err != nil {
		return
	}

	okWire, notifyWire := ok.Bytes(), notify.Bytes()
	total := uint64(len(okWire) + len(notifyWire))
	if !handler.queue.Fits(total) {
		err = fmt.Errorf("%w: reply needs %d bytes", outbound.ErrOverBudget, total)
		return
	}

	if !handler.queue.Enqueue(ctx, okWire, info.Source) {
		err = fmt.Errorf("%w: 200 OK refused", outbound.ErrOverBudget)
		return
	}
	if !handler.queue.Enqueue(ctx, notifyWire, info.Source) {
		err = fmt.Errorf("%w: NOTIFY refused after 200 OK", outbound.ErrOverBudget)
		return
	}
	return
}

// NOTIFY carrying the provisioning URL to the beacon's Contact
func (handler *Handler) buildNotify(msg *sipmsg.Message, info sipmsg.BeaconInfo) (notify *sipmsg.Message, err error) {
	if info.ContactURI == "" {
		err = fmt.Errorf("%w: SUBSCRIBE has no Contact", sipmsg.ErrMalformed)
		return
	}
	callID, found := msg.First("Call-ID")
	if !found {
		err = fmt.Errorf("%w: SUBSCRIBE has no Call-ID", sipmsg.ErrMalformed)
		return
	}

	branch, err := handler.branch()
	if err != nil {
		err = fmt.Errorf("failed to generate branch tag: %w", err)
		return
	}

	local := handler.route(info.Source.Addr().String())
	body := handler.url + "\r\n"

	notify = sipmsg.NewRequest(global.MethodNotify, info.ContactURI)
	fields := []string{
		fmt.Sprintf("Via: %s/UDP %s:%d;branch=%s%s;rport", global.SIPVersion, local, handler.listenPort, global.BranchMagicCookie, branch),
		fmt.Sprintf("From: <sip:%s@%s>", global.NotifyFromUser, local),
		fmt.Sprintf("To: <%s>", info.ContactURI),
		callID.Raw,
		"CSeq: " + global.NotifyCSeq,
		fmt.Sprintf("Max-Forwards: %d", global.NotifyMaxForwards),
		"Event: " + global.EventPackage,
		"Content-Type: " + global.NotifyContentType,
		fmt.Sprintf("Content-Length: %d", len(body)),
	}
	for _, field := range fields {
		err = notify.Add(field)
		if err != nil {
			notify = nil
			err = fmt.Errorf("failed to add NOTIFY field %q: %w", field, err)
			return
		}
	}
	notify.Body = body
	return
}
