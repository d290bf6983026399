package discovery

import (
	"fmt"
	"net"
	"reflect"
	"testing"

	"github.com/xtreemfs/presenced/dirclient"
)

func fakeInterfaceAddrs(ips ...string) InterfaceAddrsFunc {
	return func() ([]net.Addr, error) {
		addrs := make([]net.Addr, 0, len(ips))
		for _, ip := range ips {
			addrs = append(addrs, &net.IPNet{IP: net.ParseIP(ip), Mask: net.CIDRMask(24, 32)})
		}
		return addrs, nil
	}
}

// S1 — first-ever registration, multi-homed host, no override, TCP only.
func TestDiscoverMultiHomedNoOverride(t *testing.T) {
	d := &Discoverer{
		InterfaceAddrs: fakeInterfaceAddrs("10.0.0.5", "192.168.1.7"),
		LookupHost:     net.LookupHost,
		Warnf:          func(string, ...any) {},
	}

	result, err := d.Discover("U1", Options{
		Port:          32636,
		PrimaryScheme: dirclient.SchemePBRPC,
	})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if result.AdvertisedHost != "10.0.0.5" {
		t.Fatalf("advertised host = %q, want 10.0.0.5", result.AdvertisedHost)
	}
	want := []dirclient.Endpoint{
		{UUID: "U1", Protocol: dirclient.SchemePBRPC, Address: "10.0.0.5", Port: 32636, MatchNetwork: "*", TTLSeconds: 3600},
		{UUID: "U1", Protocol: dirclient.SchemePBRPC, Address: "192.168.1.7", Port: 32636, MatchNetwork: "*", TTLSeconds: 3600},
	}
	if !reflect.DeepEqual(result.Endpoints, want) {
		t.Fatalf("endpoints = %+v, want %+v", result.Endpoints, want)
	}
}

func TestDiscoverLoopbackOnlyFallsBack(t *testing.T) {
	d := &Discoverer{
		InterfaceAddrs: fakeInterfaceAddrs("127.0.0.1"),
		LookupHost:     net.LookupHost,
		Warnf:          func(string, ...any) {},
	}
	result, err := d.Discover("U1", Options{Port: 1, PrimaryScheme: dirclient.SchemePBRPC})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(result.Endpoints) != 1 || result.Endpoints[0].Address != "127.0.0.1" {
		t.Fatalf("expected single loopback endpoint, got %+v", result.Endpoints)
	}
}

func TestDiscoverEmptyEnumerationProceeds(t *testing.T) {
	d := &Discoverer{
		InterfaceAddrs: fakeInterfaceAddrs(),
		LookupHost:     net.LookupHost,
		Warnf:          func(string, ...any) {},
	}
	result, err := d.Discover("U1", Options{Port: 1, PrimaryScheme: dirclient.SchemePBRPC})
	if err != nil {
		t.Fatalf("Discover returned error, want nil per the decided Open Question: %v", err)
	}
	if len(result.Endpoints) != 0 {
		t.Fatalf("expected zero endpoints, got %+v", result.Endpoints)
	}
}

// S2 — hostname override with datagram advertisement.
func TestDiscoverHostnameOverrideWithDatagram(t *testing.T) {
	var warnings []string
	d := &Discoverer{
		InterfaceAddrs: fakeInterfaceAddrs(),
		LookupHost:     func(host string) ([]string, error) { return []string{"203.0.113.1"}, nil },
		Warnf:          func(format string, args ...any) { warnings = append(warnings, fmt.Sprintf(format, args...)) },
	}

	result, err := d.Discover("U2", Options{
		Port:              32640,
		PrimaryScheme:     SchemeForSSL(true, false),
		AdvertiseDatagram: true,
		HostnameOverride:  "node7.example",
	})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if result.AdvertisedHost != "node7.example" {
		t.Fatalf("advertised host = %q, want node7.example", result.AdvertisedHost)
	}
	want := []dirclient.Endpoint{
		{UUID: "U2", Protocol: dirclient.SchemePBRPCS, Address: "node7.example", Port: 32640, MatchNetwork: "*", TTLSeconds: 3600},
		{UUID: "U2", Protocol: dirclient.SchemePBRPCU, Address: "node7.example", Port: 32640, MatchNetwork: "*", TTLSeconds: 3600},
	}
	if !reflect.DeepEqual(result.Endpoints, want) {
		t.Fatalf("endpoints = %+v, want %+v", result.Endpoints, want)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected no DNS warning on success, got %v", warnings)
	}
}

func TestDiscoverOverrideStripsLeadingSlash(t *testing.T) {
	d := &Discoverer{
		InterfaceAddrs: fakeInterfaceAddrs(),
		LookupHost:     func(string) ([]string, error) { return nil, fmt.Errorf("boom") },
		Warnf:          func(string, ...any) {},
	}
	result, err := d.Discover("U3", Options{
		Port:                1,
		PrimaryScheme:       dirclient.SchemePBRPC,
		BindAddressHostname: "/node9.example",
	})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if result.AdvertisedHost != "node9.example" {
		t.Fatalf("advertised host = %q, want node9.example", result.AdvertisedHost)
	}
}

func TestDiscoverOverrideDNSFailureStillProceeds(t *testing.T) {
	var warnings []string
	d := &Discoverer{
		InterfaceAddrs: fakeInterfaceAddrs(),
		LookupHost:     func(string) ([]string, error) { return nil, fmt.Errorf("no such host") },
		Warnf:          func(format string, args ...any) { warnings = append(warnings, fmt.Sprintf(format, args...)) },
	}
	result, err := d.Discover("U3", Options{
		Port:             1,
		PrimaryScheme:    dirclient.SchemePBRPC,
		HostnameOverride: "unresolvable.example",
	})
	if err != nil {
		t.Fatalf("Discover returned error on DNS failure, want best-effort proceed: %v", err)
	}
	if len(result.Endpoints) != 1 {
		t.Fatalf("expected one endpoint despite DNS failure, got %+v", result.Endpoints)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %v", warnings)
	}
}

func TestSchemeForSSL(t *testing.T) {
	cases := []struct {
		ssl, grid bool
		want      dirclient.Scheme
	}{
		{false, false, dirclient.SchemePBRPC},
		{false, true, dirclient.SchemePBRPC},
		{true, false, dirclient.SchemePBRPCS},
		{true, true, dirclient.SchemePBRPCG},
	}
	for _, c := range cases {
		if got := SchemeForSSL(c.ssl, c.grid); got != c.want {
			t.Errorf("SchemeForSSL(%v, %v) = %q, want %q", c.ssl, c.grid, got, c.want)
		}
	}
}
