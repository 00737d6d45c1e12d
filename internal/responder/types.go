// ua-profile discovery responder: configuration, daemon, and protocol handling
package responder

import (
	"context"
	"gspnp/internal/eventloop"
	"gspnp/internal/externalio/beats"
	metricGlb "gspnp/internal/metrics"
	"gspnp/internal/outbound"
	"gspnp/internal/transport"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

type JSONConfig struct {
	Network struct {
		Address          string `json:"address" yaml:"address"`
		Port             int    `json:"port" yaml:"port"`
		MulticastGroup   string `json:"multicastGroup,omitempty" yaml:"multicastGroup,omitempty"`
		DisableMulticast bool   `json:"disableMulticast,omitempty" yaml:"disableMulticast,omitempty"`
		ReuseAddress     bool   `json:"reuseAddress,omitempty" yaml:"reuseAddress,omitempty"`
		KernelFilter     bool   `json:"kernelFilter,omitempty" yaml:"kernelFilter,omitempty"`
	} `json:"network" yaml:"network"`
	Provisioning struct {
		URL string `json:"url" yaml:"url"`
	} `json:"provisioning" yaml:"provisioning"`
	Queue struct {
		BudgetBytes uint64 `json:"budgetBytes,omitempty" yaml:"budgetBytes,omitempty"`
	} `json:"queue" yaml:"queue"`
	Outputs struct {
		BeatsAddress string `json:"beatsAddress,omitempty" yaml:"beatsAddress,omitempty"`
		BeatsBacklog int    `json:"beatsBacklog,omitempty" yaml:"beatsBacklog,omitempty"`
	} `json:"outputs" yaml:"outputs"`
	Metrics struct {
		Interval          string `json:"collectionInterval,omitempty" yaml:"collectionInterval,omitempty"`
		MaxAge            string `json:"maximumRetention,omitempty" yaml:"maximumRetention,omitempty"`
		EnableQueryServer bool   `json:"enableHTTPQueryServer,omitempty" yaml:"enableHTTPQueryServer,omitempty"`
		QueryServerPort   int    `json:"queryServerPort,omitempty" yaml:"queryServerPort,omitempty"`
	} `json:"metrics" yaml:"metrics"`
}

type Config struct {
	// Network
	ListenIP         string
	ListenPort       int
	MulticastGroup   string
	DisableMulticast bool
	ReuseAddress     bool
	KernelFilter     bool

	// Empty for passive (log only) mode
	ProvisioningURL string

	QueueBudget uint64 // bytes of pending datagrams

	// Outputs
	BeatsEndpoint string
	BeatsBacklog  int

	// Metrics
	MetricQueryServerEnabled bool
	MetricQueryServerPort    int
	MetricCollectionInterval time.Duration
	MetricMaxAge             time.Duration

	// Loop time source, wall clock when nil
	Clock clock.Clock
}

type Daemon struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc

	wg      sync.WaitGroup
	stopped chan struct{} // closed once the loop has exited and the socket is closed

	socket  *transport.Socket
	loop    *eventloop.Loop
	queue   *outbound.Queue
	handler *Handler
	filter  filterCloser
	beats   *beats.Exporter

	Registry     *metricGlb.Registry
	MetricServer *http.Server
	Metrics      DaemonMetrics
}

type DaemonMetrics struct {
	Received   atomic.Uint64 // datagrams read from the socket
	ReadErrors atomic.Uint64 // failed socket reads
}

type filterCloser interface {
	Close() error
}
