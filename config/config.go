// Package config loads the presence agent's configuration from environment
// variables, falling back to defaults suitable for a single-node developer
// setup, and fills in any zero-valued fields of a caller-supplied
// agent.Options via mergo so embedders can override just what they need.
package config

import (
	"os"
	"strconv"

	"github.com/imdario/mergo"

	"github.com/xtreemfs/presenced/agent"
	"github.com/xtreemfs/presenced/discovery"
)

// Config holds the environment-derived settings for one agent instance.
type Config struct {
	// DIRAddress is the "host:port" the agent dials to reach DIR.
	DIRAddress string

	// Port is the local port this service listens on and advertises.
	Port int

	// HostnameOverride, BindAddressHostname mirror discovery.Options.
	HostnameOverride    string
	BindAddressHostname string

	// SSLEnabled, GRIDSSL select the advertised transport scheme per §6.
	SSLEnabled bool
	GRIDSSL    bool

	// AdvertiseDatagram enables the extra pbrpcu advertisement.
	AdvertiseDatagram bool

	// WaitForDIRSeconds bounds the DIR Liveness Waiter.
	WaitForDIRSeconds int
}

// Load reads configuration from environment variables. Every setting has a
// default, so Load never fails outright; it always returns a usable Config.
func Load() Config {
	return Config{
		DIRAddress:          getEnv("PRESENCED_DIR_ADDRESS", "127.0.0.1:32638"),
		Port:                getEnvInt("PRESENCED_PORT", 32636),
		HostnameOverride:    getEnv("PRESENCED_HOSTNAME_OVERRIDE", ""),
		BindAddressHostname: getEnv("PRESENCED_BIND_ADDRESS", ""),
		SSLEnabled:          getEnvBool("PRESENCED_SSL_ENABLED", false),
		GRIDSSL:             getEnvBool("PRESENCED_GRID_SSL", false),
		AdvertiseDatagram:   getEnvBool("PRESENCED_ADVERTISE_DATAGRAM", false),
		WaitForDIRSeconds:   getEnvInt("PRESENCED_WAIT_FOR_DIR_SECONDS", 60),
	}
}

// DiscoveryOptions adapts this Config into discovery.Options for the
// Endpoint Discoverer run.
func (c Config) DiscoveryOptions() discovery.Options {
	return discovery.Options{
		Port:                c.Port,
		PrimaryScheme:       discovery.SchemeForSSL(c.SSLEnabled, c.GRIDSSL),
		AdvertiseDatagram:   c.AdvertiseDatagram,
		HostnameOverride:    c.HostnameOverride,
		BindAddressHostname: c.BindAddressHostname,
	}
}

// ApplyDefaults merges this Config's derived discovery options into a
// partially-populated agent.Options, leaving any field the caller already
// set untouched. Embedders use this to avoid repeating scheme-selection
// logic when constructing an agent.
func (c Config) ApplyDefaults(opts *agent.Options) error {
	defaults := agent.Options{Discovery: c.DiscoveryOptions()}
	return mergo.Merge(opts, defaults)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
