package responder

import (
	"encoding/json"
	"fmt"
	"gspnp/internal/global"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pbnjay/memory"
	"gopkg.in/yaml.v3"
)

// Loads JSON (or YAML, by extension) config from file
func LoadConfig(path string) (cfg JSONConfig, err error) {
	configFile, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("failed to read config file: %w", err)
		return
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(configFile, &cfg)
	default:
		err = json.Unmarshal(configFile, &cfg)
	}
	if err != nil {
		err = fmt.Errorf("invalid config syntax in '%s': %w", path, err)
		return
	}
	return
}

// Parses file config into daemon config
func (cfg JSONConfig) NewDaemonConf() (config Config, err error) {
	// Network settings
	config.ListenIP = cfg.Network.Address
	config.ListenPort = cfg.Network.Port
	config.MulticastGroup = cfg.Network.MulticastGroup
	config.DisableMulticast = cfg.Network.DisableMulticast
	config.ReuseAddress = cfg.Network.ReuseAddress
	config.KernelFilter = cfg.Network.KernelFilter

	config.ProvisioningURL = cfg.Provisioning.URL
	config.QueueBudget = cfg.Queue.BudgetBytes

	// Output settings
	config.BeatsEndpoint = cfg.Outputs.BeatsAddress
	config.BeatsBacklog = cfg.Outputs.BeatsBacklog

	// Metric settings
	config.MetricQueryServerEnabled = cfg.Metrics.EnableQueryServer
	config.MetricQueryServerPort = cfg.Metrics.QueryServerPort
	if cfg.Metrics.MaxAge != "" {
		config.MetricMaxAge, err = time.ParseDuration(cfg.Metrics.MaxAge)
		if err != nil {
			err = fmt.Errorf("failed to parse metric max age time: %w", err)
			return
		}
	}
	if cfg.Metrics.Interval != "" {
		config.MetricCollectionInterval, err = time.ParseDuration(cfg.Metrics.Interval)
		if err != nil {
			err = fmt.Errorf("failed to parse metric collection interval time: %w", err)
			return
		}
	}
	return
}

// Sets defaults for any missing/invalid values
func (cfg *Config) setDefaults() {
	// Network
	if cfg.ListenPort == 0 {
		cfg.ListenPort = global.DefaultSIPPort
	}
	if cfg.MulticastGroup == "" && !cfg.DisableMulticast {
		cfg.MulticastGroup = global.DefaultMulticastGroup
	}
	if cfg.DisableMulticast {
		cfg.MulticastGroup = ""
	}

	// Pending datagrams get a small share of free memory
	if cfg.QueueBudget == 0 {
		cfg.QueueBudget = memory.FreeMemory() / global.QueueBudgetMemoryFraction
	}
	if cfg.QueueBudget == 0 {
		cfg.QueueBudget = global.DefaultQueueBudget
	}

	if cfg.BeatsBacklog <= 0 {
		cfg.BeatsBacklog = global.DefaultBeatsBacklog
	}

	// Metrics
	if cfg.MetricMaxAge == 0 {
		cfg.MetricMaxAge = 1 * time.Hour
	}
	if cfg.MetricQueryServerPort == 0 {
		cfg.MetricQueryServerPort = global.DefaultMetricQueryPort
	}
	if cfg.MetricCollectionInterval == 0 {
		cfg.MetricCollectionInterval = 15 * time.Second
	}
}
