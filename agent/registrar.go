package agent

import (
	"context"
	"fmt"

	"github.com/xtreemfs/presenced/dirclient"
)

// registerMappings implements the Address Mapping Registrar (§4.2). An
// empty endpoints slice is not an error: per the decided Open Question
// (SPEC_FULL.md §9), initial registration proceeds to the Merger even if
// endpoint enumeration found nothing to advertise.
func (a *Agent) registerMappings(ctx context.Context, endpoints []dirclient.Endpoint) error {
	if len(endpoints) == 0 {
		a.log.Warn("endpoint discovery produced no addresses; skipping mapping registration")
		return nil
	}

	current, err := a.client.MappingsGet(ctx, a.identity)
	if err != nil {
		return fmt.Errorf("mappings_get: %w", err)
	}

	version := int64(0)
	if len(current.Endpoints) > 0 {
		version = current.Endpoints[0].Version
	}
	endpoints[0].Version = version

	set := dirclient.AddressMappingSet{UUID: a.identity, Endpoints: endpoints}
	if err := a.client.MappingsSet(ctx, set); err != nil {
		return fmt.Errorf("mappings_set: %w", err)
	}
	return nil
}
