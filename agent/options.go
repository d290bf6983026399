package agent

import (
	"time"

	"github.com/xtreemfs/presenced/dirclient"
	"github.com/xtreemfs/presenced/discovery"
)

// DefaultUpdateInterval is the refresh cadence from §6's wire-level
// constants (60 000 ms).
const DefaultUpdateInterval = 60 * time.Second

// Options configures one Agent instance. The zero value is not directly
// usable as Discovery.Port must be set; config.Load().ApplyDefaults fills
// in the rest from environment-derived defaults.
type Options struct {
	// Discovery configures the Endpoint Discoverer run at initialize time.
	Discovery discovery.Options

	// Configuration is the embedder's flattened configuration, pushed by
	// the Configuration Pusher in the order given.
	Configuration []dirclient.KeyValuePair

	// UpdateInterval overrides DefaultUpdateInterval; zero means use the
	// default.
	UpdateInterval time.Duration
}

func (o Options) updateInterval() time.Duration {
	if o.UpdateInterval <= 0 {
		return DefaultUpdateInterval
	}
	return o.UpdateInterval
}
