package dirclient

import "context"

// Client is the typed DIR RPC surface this agent consumes. It mirrors the
// seven operations of §6: the production implementation lives in
// dirclient/grpcclient, and an in-memory double for tests lives in
// dirclient/fake. Callers may supply any other implementation — the agent
// never assumes anything about the transport beyond what this interface
// promises.
//
// Every method takes a context so a caller can bound or cancel an
// in-flight RPC; implementations must treat context cancellation as
// equivalent to a transport error.
type Client interface {
	// MappingsGet returns the current address mapping set DIR holds for
	// uuid. An unknown uuid returns an empty set, not an error.
	MappingsGet(ctx context.Context, uuid string) (AddressMappingSet, error)

	// MappingsSet replaces the address mapping set for set.UUID.
	MappingsSet(ctx context.Context, set AddressMappingSet) error

	// ServiceGetByUUID returns the service record for uuid, if any.
	ServiceGetByUUID(ctx context.Context, uuid string) (*ServiceRecord, error)

	// ServiceRegister creates or updates a service record, honoring
	// rec.Version as an optimistic-concurrency token.
	ServiceRegister(ctx context.Context, rec ServiceRecord) error

	// ServiceDeregister removes the service record for uuid.
	ServiceDeregister(ctx context.Context, uuid string) error

	// ConfigurationGet returns the current configuration blob for uuid.
	// An unknown uuid returns a zero-version blob with no parameters.
	ConfigurationGet(ctx context.Context, uuid string) (ConfigurationBlob, error)

	// ConfigurationSet writes a configuration blob, honoring
	// cfg.Version as an optimistic-concurrency token.
	ConfigurationSet(ctx context.Context, cfg ConfigurationBlob) error

	// Close releases any transport-level resources (connections, etc).
	Close() error
}
