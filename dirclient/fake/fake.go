// Package fake provides an in-memory dirclient.Client double for tests,
// the same role pkg/prometheus.MockProm plays for the teacher's heartbeat
// tests: a hand-written stub satisfying a real interface, recording calls
// so tests can assert on what the agent actually sent.
package fake

import (
	"context"
	"sync"

	"github.com/xtreemfs/presenced/dirclient"
)

// Client is an in-memory dirclient.Client. Construct it with New; the zero
// value's maps are nil, so seeding or writing to it panics.
type Client struct {
	mu sync.Mutex

	mappings map[string]dirclient.AddressMappingSet
	services map[string]dirclient.ServiceRecord
	configs  map[string]dirclient.ConfigurationBlob

	// Calls records every method invoked, in order, for assertions.
	Calls []string

	// Registered records every ServiceRecord exactly as submitted to
	// ServiceRegister, before this fake's version-bump simulation of
	// DIR's write semantics — so tests can assert on the version and
	// data the caller actually sent (invariant 3, version echo).
	Registered []dirclient.ServiceRecord

	closed bool
}

// New returns an empty Client.
func New() *Client {
	return &Client{
		mappings: make(map[string]dirclient.AddressMappingSet),
		services: make(map[string]dirclient.ServiceRecord),
		configs:  make(map[string]dirclient.ConfigurationBlob),
	}
}

// SeedService seeds a prior service record, as if a previous agent
// incarnation had already registered it.
func (c *Client) SeedService(rec dirclient.ServiceRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[rec.UUID] = rec
}

// SeedMappings seeds a prior address mapping set.
func (c *Client) SeedMappings(set dirclient.AddressMappingSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mappings[set.UUID] = set
}

// SeedConfiguration seeds a prior configuration blob.
func (c *Client) SeedConfiguration(cfg dirclient.ConfigurationBlob) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configs[cfg.UUID] = cfg
}

// Service returns the current stored record for uuid, for assertions.
func (c *Client) Service(uuid string) (dirclient.ServiceRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.services[uuid]
	return rec, ok
}

// Mappings returns the current stored mapping set for uuid, for assertions.
func (c *Client) Mappings(uuid string) (dirclient.AddressMappingSet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.mappings[uuid]
	return set, ok
}

// Deregistered reports whether uuid has been deregistered (or never
// registered).
func (c *Client) Deregistered(uuid string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.services[uuid]
	return !ok
}

func (c *Client) record(name string) {
	c.Calls = append(c.Calls, name)
}

// MappingsGet implements dirclient.Client.
func (c *Client) MappingsGet(_ context.Context, uuid string) (dirclient.AddressMappingSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("MappingsGet")
	set, ok := c.mappings[uuid]
	if !ok {
		return dirclient.AddressMappingSet{UUID: uuid}, nil
	}
	return set, nil
}

// MappingsSet implements dirclient.Client.
func (c *Client) MappingsSet(_ context.Context, set dirclient.AddressMappingSet) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("MappingsSet")
	c.mappings[set.UUID] = set
	return nil
}

// ServiceGetByUUID implements dirclient.Client.
func (c *Client) ServiceGetByUUID(_ context.Context, uuid string) (*dirclient.ServiceRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("ServiceGetByUUID")
	rec, ok := c.services[uuid]
	if !ok {
		return nil, nil
	}
	cp := rec
	return &cp, nil
}

// ServiceRegister implements dirclient.Client.
func (c *Client) ServiceRegister(_ context.Context, rec dirclient.ServiceRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("ServiceRegister")
	c.Registered = append(c.Registered, rec)
	prior, ok := c.services[rec.UUID]
	if ok && prior.Version != rec.Version {
		return dirclient.ErrVersionConflict
	}
	rec.Version++
	c.services[rec.UUID] = rec
	return nil
}

// ServiceDeregister implements dirclient.Client.
func (c *Client) ServiceDeregister(_ context.Context, uuid string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("ServiceDeregister")
	delete(c.services, uuid)
	return nil
}

// ConfigurationGet implements dirclient.Client.
func (c *Client) ConfigurationGet(_ context.Context, uuid string) (dirclient.ConfigurationBlob, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("ConfigurationGet")
	cfg, ok := c.configs[uuid]
	if !ok {
		return dirclient.ConfigurationBlob{UUID: uuid}, nil
	}
	return cfg, nil
}

// ConfigurationSet implements dirclient.Client.
func (c *Client) ConfigurationSet(_ context.Context, cfg dirclient.ConfigurationBlob) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("ConfigurationSet")
	c.configs[cfg.UUID] = cfg
	return nil
}

// Close implements dirclient.Client.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
