// Package discovery implements the Endpoint Discoverer (§4.1): it enumerates
// the reachable local endpoints a service should advertise to DIR for a
// configured port and transport scheme, generalizing the non-loopback
// interface enumeration joshuafuller-beacon's responder uses to pick a
// single advertised IPv4 address (responder.getLocalIPv4) to the
// multi-address, multi-scheme case this agent needs.
package discovery

import (
	"fmt"
	"net"
	"strings"

	"github.com/xtreemfs/presenced/dirclient"
)

// Options configures endpoint discovery.
type Options struct {
	Port                int
	PrimaryScheme       dirclient.Scheme
	AdvertiseDatagram   bool
	HostnameOverride    string
	BindAddressHostname string // BindAddressOverride.hostName, §4.1 rule 2
}

// InterfaceAddrsFunc matches net.InterfaceAddrs's signature, overridable in
// tests the way beacon's transport layer is given a fake socket for tests.
type InterfaceAddrsFunc func() ([]net.Addr, error)

// LookupHostFunc matches net.LookupHost's signature.
type LookupHostFunc func(host string) ([]string, error)

// Result is the output of a discovery run.
type Result struct {
	Endpoints      []dirclient.Endpoint
	AdvertisedHost string
}

// Discoverer runs the Endpoint Discoverer decision rules of §4.1.
type Discoverer struct {
	InterfaceAddrs InterfaceAddrsFunc
	LookupHost     LookupHostFunc
	Warnf          func(format string, args ...any)
}

// New returns a Discoverer wired to the real network stack.
func New() *Discoverer {
	return &Discoverer{
		InterfaceAddrs: net.InterfaceAddrs,
		LookupHost:     net.LookupHost,
		Warnf:          func(string, ...any) {},
	}
}

// Discover runs the decision rules of §4.1 against opts.
func (d *Discoverer) Discover(uuid string, opts Options) (Result, error) {
	if opts.HostnameOverride == "" && opts.BindAddressHostname == "" {
		return d.discoverByInterfaces(uuid, opts)
	}
	return d.discoverByOverride(uuid, opts)
}

// discoverByInterfaces implements §4.1 rule 1.
func (d *Discoverer) discoverByInterfaces(uuid string, opts Options) (Result, error) {
	addrs, err := d.InterfaceAddrs()
	if err != nil {
		return Result{}, fmt.Errorf("discovery: enumerating interfaces: %w", err)
	}

	var loopback, nonLoopback []string
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP == nil {
			continue
		}
		if ipNet.IP.IsLoopback() {
			loopback = append(loopback, ipNet.IP.String())
		} else {
			nonLoopback = append(nonLoopback, ipNet.IP.String())
		}
	}

	addresses := nonLoopback
	if len(addresses) == 0 {
		addresses = loopback
	}

	var result Result
	for i, addr := range addresses {
		if i == 0 {
			result.AdvertisedHost = addr
		}
		result.Endpoints = append(result.Endpoints, newEndpoint(uuid, opts.PrimaryScheme, addr, opts.Port))
	}
	if opts.AdvertiseDatagram {
		for _, addr := range addresses {
			result.Endpoints = append(result.Endpoints, newEndpoint(uuid, dirclient.SchemePBRPCU, addr, opts.Port))
		}
	}
	return result, nil
}

// discoverByOverride implements §4.1 rule 2.
func (d *Discoverer) discoverByOverride(uuid string, opts Options) (Result, error) {
	host := opts.HostnameOverride
	if host == "" {
		host = opts.BindAddressHostname
	}
	host = strings.TrimPrefix(host, "/")

	if _, err := d.LookupHost(host); err != nil {
		d.Warnf("discovery: best-effort DNS resolution of %q failed: %v", host, err)
	}

	result := Result{AdvertisedHost: host}
	result.Endpoints = append(result.Endpoints, newEndpoint(uuid, opts.PrimaryScheme, host, opts.Port))
	if opts.AdvertiseDatagram {
		result.Endpoints = append(result.Endpoints, newEndpoint(uuid, dirclient.SchemePBRPCU, host, opts.Port))
	}
	return result, nil
}

func newEndpoint(uuid string, scheme dirclient.Scheme, address string, port int) dirclient.Endpoint {
	return dirclient.Endpoint{
		UUID:         uuid,
		Protocol:     scheme,
		Address:      address,
		Port:         port,
		MatchNetwork: dirclient.MatchNetworkAny,
		TTLSeconds:   dirclient.AddressMappingTTLSeconds,
	}
}

// SchemeForSSL selects the transport scheme per §6's Configuration table:
// no-SSL → pbrpc, SSL+GRID → pbrpcg, SSL only → pbrpcs.
func SchemeForSSL(sslEnabled, gridSSL bool) dirclient.Scheme {
	switch {
	case sslEnabled && gridSSL:
		return dirclient.SchemePBRPCG
	case sslEnabled:
		return dirclient.SchemePBRPCS
	default:
		return dirclient.SchemePBRPC
	}
}
