package beats

import (
	"context"
	"errors"
	"gspnp/internal/global"
	"gspnp/internal/logctx"
	"gspnp/internal/sipmsg"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu      sync.Mutex
	batches [][]interface{}
	failing bool
	closed  int
}

func (sink *fakeSink) Send(events []interface{}) (acked int, err error) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.failing {
		err = errors.New("connection reset by peer")
		return
	}
	sink.batches = append(sink.batches, events)
	acked = len(events)
	return
}

func (sink *fakeSink) Close() error {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.closed++
	return nil
}

func (sink *fakeSink) count() int {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	return len(sink.batches)
}

var sample = sipmsg.BeaconInfo{
	EventPackage: "ua-profile",
	Vendor:       "Grandstream",
	Model:        "GRP2612W",
	Version:      "1.0.5.67",
	MAC:          "c074ad112233",
	ContactURI:   "sip:192.168.1.2:5080",
	Source:       netip.MustParseAddrPort("192.168.1.2:5080"),
}

func TestNewWithoutEndpoint(t *testing.T) {
	exporter, err := New("", 0)
	assert.NoError(t, err)
	assert.Nil(t, exporter)

	// nil exporter is inert
	exporter.Publish(sample)
	exporter.Wait()
}

func TestEventFields(t *testing.T) {
	fields := Event(sample)

	assert.Equal(t, "SUBSCRIBE mac:c074ad112233 192.168.1.2 Grandstream GRP2612W fw 1.0.5.67", fields["message"])

	event := fields["event"].(map[string]interface{})
	_, err := uuid.Parse(event["id"].(string))
	assert.NoError(t, err)
	assert.Equal(t, "ua-profile", event["provider"])

	source := fields["source"].(map[string]interface{})
	assert.Equal(t, "192.168.1.2", source["ip"])
	assert.Equal(t, uint16(5080), source["port"])
	assert.Equal(t, "c074ad112233", source["mac"])

	device := fields["device"].(map[string]interface{})
	assert.Equal(t, "Grandstream", device["manufacturer"])
	assert.Equal(t, "1.0.5.67", device["firmware"])

	assert.NotEqual(t, event["id"], Event(sample)["event"].(map[string]interface{})["id"], "each event gets its own id")
}

func TestPublishDropsWhenBacklogFull(t *testing.T) {
	exporter := newExporter("test", &fakeSink{}, nil, 2)

	for i := 0; i < 5; i++ {
		exporter.Publish(sample)
	}
	assert.Equal(t, uint64(2), exporter.Metrics.Published.Load())
	assert.Equal(t, uint64(3), exporter.Metrics.Dropped.Load())
	assert.Equal(t, uint64(2), exporter.Metrics.Depth.Load())
}

func TestDepthSettlesUnderConcurrentPublish(t *testing.T) {
	done := make(chan struct{})
	defer close(done)
	ctx := logctx.New(context.Background(), global.NSTest, global.VerbosityStandard, done)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sink := &fakeSink{}
	exporter := newExporter("test", sink, nil, 8)
	go exporter.Run(ctx)

	const publishers, perPublisher = 4, 2000
	var wg sync.WaitGroup
	for range publishers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perPublisher {
				exporter.Publish(sample)
			}
		}()
	}
	wg.Wait()

	published := exporter.Metrics.Published.Load()
	assert.Equal(t, uint64(publishers*perPublisher), published+exporter.Metrics.Dropped.Load())
	require.Eventually(t, func() bool { return uint64(sink.count()) == published }, 5*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return exporter.Metrics.Depth.Load() == 0 }, time.Second, 5*time.Millisecond)
}

func TestRunSendsAndReconnects(t *testing.T) {
	done := make(chan struct{})
	defer close(done)
	ctx := logctx.New(context.Background(), global.NSTest, global.VerbosityStandard, done)
	ctx, cancel := context.WithCancel(ctx)

	first := &fakeSink{failing: true}
	second := &fakeSink{}
	var dials int
	dial := func() (Sink, error) {
		dials++
		return second, nil
	}

	exporter := newExporter("test", first, dial, 4)
	go exporter.Run(ctx)

	exporter.Publish(sample) // fails on first sink, which is closed
	exporter.Publish(sample) // redials
	require.Eventually(t, func() bool { return second.count() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return exporter.Metrics.Depth.Load() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	exporter.Wait()

	assert.Equal(t, 1, dials)
	assert.Equal(t, 1, first.closed)
	assert.Equal(t, 1, second.closed, "connection closed on shutdown")
	assert.Equal(t, uint64(1), exporter.Metrics.Errors.Load())
	assert.Equal(t, uint64(1), exporter.Metrics.Sent.Load())
}
