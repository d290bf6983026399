// Package dirclient defines the typed client contract this agent uses to
// talk to the Directory Service (DIR), plus the wire-level data types that
// travel over it. The transport itself is an external collaborator: see
// package grpcclient for the production implementation and package fake for
// a test double.
package dirclient

import "fmt"

// Scheme is one of the DIR address-mapping protocol tags.
type Scheme string

// Scheme tags recognized by DIR.
const (
	SchemePBRPC  Scheme = "pbrpc"  // plain TCP
	SchemePBRPCS Scheme = "pbrpcs" // TLS
	SchemePBRPCG Scheme = "pbrpcg" // TLS + GRID
	SchemePBRPCU Scheme = "pbrpcu" // UDP datagram
)

// MatchNetworkAny is the only match-network selector this agent ever emits.
const MatchNetworkAny = "*"

// AddressMappingTTLSeconds is the advisory freshness hint attached to every
// Endpoint this agent registers.
const AddressMappingTTLSeconds = 3600

// StaticAttrPrefix namespaces DIR/operator-owned keys on a ServiceRecord that
// this agent must preserve across refreshes.
const StaticAttrPrefix = "static."

// StaticStatusKey is the static attribute invariant S1 guarantees is always
// present after a refresh.
const StaticStatusKey = StaticAttrPrefix + "status"

// StatusAvailable is the default value written into StaticStatusKey when
// neither the prior record nor the generator supplied one. It is the string
// form of the numeric ordinal DIR assigns to SERVICE_STATUS_AVAIL.
const StatusAvailable = "0"

// ServiceType enumerates the DIR service record types this agent recognizes
// well enough to special-case (see ServiceRecord.Type and the volume-replica
// merge branch).
type ServiceType string

// Recognized service record types.
const (
	ServiceTypeMRC    ServiceType = "MRC"
	ServiceTypeOSD    ServiceType = "OSD"
	ServiceTypeVolume ServiceType = "VOLUME"
	ServiceTypeDIR    ServiceType = "DIR"
)

// mrcKeyPrefix is the key prefix identifying MRC-replica attributes on a
// VOLUME service record: "mrc", "mrc2", "mrc3", ...
const mrcKeyPrefix = "mrc"

// Endpoint is a single reachable address this agent advertises for its
// service under one transport scheme.
type Endpoint struct {
	UUID         string
	Version      int64
	Protocol     Scheme
	Address      string
	Port         int
	MatchNetwork string
	TTLSeconds   int
}

// URI returns the canonical "protocol://address:port" form of the endpoint.
func (e Endpoint) URI() string {
	return fmt.Sprintf("%s://%s:%d", e.Protocol, e.Address, e.Port)
}

// AddressMappingSet is the full set of endpoints DIR tracks for one UUID.
type AddressMappingSet struct {
	UUID      string
	Endpoints []Endpoint
}

// KeyValuePair is one entry of a flat configuration.
type KeyValuePair struct {
	Key   string
	Value string
}

// ConfigurationBlob is the versioned, ordered flat configuration DIR stores
// for one UUID.
type ConfigurationBlob struct {
	UUID       string
	Version    int64
	Parameters []KeyValuePair
}

// ServiceRecord is the DIR-side entity the Service Record Merger refreshes.
type ServiceRecord struct {
	UUID    string
	Type    ServiceType
	Name    string
	Version int64
	Data    OrderedData
}

// OrderedData is a key/value mapping that preserves insertion order, since
// the merge algorithm's ordering guarantees (§4.3) are externally observable
// to DIR operators inspecting a record.
type OrderedData struct {
	keys   []string
	values map[string]string
}

// NewOrderedData returns an empty OrderedData ready for use.
func NewOrderedData() OrderedData {
	return OrderedData{values: make(map[string]string)}
}

// Set inserts or overwrites key. Overwriting an existing key does not change
// its position in iteration order.
func (d *OrderedData) Set(key, value string) {
	if d.values == nil {
		d.values = make(map[string]string)
	}
	if _, exists := d.values[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Get returns the value for key and whether it was present.
func (d OrderedData) Get(key string) (string, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Has reports whether key is present.
func (d OrderedData) Has(key string) bool {
	_, ok := d.values[key]
	return ok
}

// Keys returns the keys in insertion order.
func (d OrderedData) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len returns the number of entries.
func (d OrderedData) Len() int {
	return len(d.keys)
}

// Range calls fn for every entry in insertion order.
func (d OrderedData) Range(fn func(key, value string)) {
	for _, k := range d.keys {
		fn(k, d.values[k])
	}
}

// HasMRCPrefix reports whether key is an MRC-replica attribute key: "mrc"
// itself, or "mrc" followed by a numeric suffix.
func HasMRCPrefix(key string) bool {
	if key == mrcKeyPrefix {
		return true
	}
	if len(key) <= len(mrcKeyPrefix) || key[:len(mrcKeyPrefix)] != mrcKeyPrefix {
		return false
	}
	for _, r := range key[len(mrcKeyPrefix):] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MRCKeyOrdinal returns the numeric suffix of an MRC-replica key, treating
// the bare "mrc" key as ordinal 1. The caller must have already verified
// HasMRCPrefix(key).
func MRCKeyOrdinal(key string) int {
	if key == mrcKeyPrefix {
		return 1
	}
	n := 0
	for _, r := range key[len(mrcKeyPrefix):] {
		n = n*10 + int(r-'0')
	}
	return n
}

// MRCKeyForOrdinal builds the key for the given MRC ordinal, per the same
// convention ("mrc" for 1, "mrcN" for N>1).
func MRCKeyForOrdinal(n int) string {
	if n == 1 {
		return mrcKeyPrefix
	}
	return fmt.Sprintf("%s%d", mrcKeyPrefix, n)
}
