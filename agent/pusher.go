package agent

import (
	"context"
	"fmt"

	"github.com/xtreemfs/presenced/dirclient"
)

// pushConfiguration implements the Configuration Pusher (§4.4). Failures
// are returned to the caller, which treats them as best-effort (logged,
// not fatal) per §7.
func (a *Agent) pushConfiguration(ctx context.Context) error {
	current, err := a.client.ConfigurationGet(ctx, a.identity)
	if err != nil {
		return fmt.Errorf("configuration_get: %w", err)
	}

	blob := dirclient.ConfigurationBlob{
		UUID:       a.identity,
		Version:    current.Version,
		Parameters: a.options.Configuration,
	}
	if err := a.client.ConfigurationSet(ctx, blob); err != nil {
		return fmt.Errorf("configuration_set: %w", err)
	}
	return nil
}
