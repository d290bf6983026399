package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xtreemfs/presenced/dirclient"
)

// Registration is one service the generator wants refreshed in a given
// cycle. It carries no version: the Merger always fetches DIR's current
// version fresh (§4.3 step 2) rather than trusting a caller-supplied one.
type Registration struct {
	UUID string
	Type dirclient.ServiceType
	Name string
	Data dirclient.OrderedData
}

// Generator supplies the set of services to refresh on each cycle. The
// agent holds a non-owning reference to it; the embedder is responsible
// for keeping it valid for the agent's lifetime (§9, cyclic dependency
// avoidance note).
type Generator func() []Registration

// mergeOne implements the Service Record Merger (§4.3) for a single
// registration. It is the heart of this agent: it preserves static
// attributes across refreshes, defaults static.status when absent, and
// for VOLUME records merges MRC-replica keys rather than overwriting them.
func (a *Agent) mergeOne(ctx context.Context, reg Registration) error {
	prior, err := a.client.ServiceGetByUUID(ctx, reg.UUID)
	if errors.Is(err, dirclient.ErrNotFound) {
		prior, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("service_get_by_uuid(%s): %w", reg.UUID, err)
	}

	var currentVersion int64
	if prior != nil {
		currentVersion = prior.Version
	}

	staticAttrs := dirclient.NewOrderedData()
	if prior != nil {
		prior.Data.Range(func(k, v string) {
			if strings.HasPrefix(k, dirclient.StaticAttrPrefix) {
				staticAttrs.Set(k, v)
			}
		})
	}
	if !staticAttrs.Has(dirclient.StaticStatusKey) {
		staticAttrs.Set(dirclient.StaticStatusKey, dirclient.StatusAvailable)
	}

	data := dirclient.NewOrderedData()
	staticAttrs.Range(func(k, v string) { data.Set(k, v) })

	isVolumeMerge := reg.Type == dirclient.ServiceTypeVolume && prior != nil && prior.UUID == reg.UUID
	if isVolumeMerge {
		if err := mergeVolumeReplicas(&data, prior.Data, reg.Data); err != nil {
			return err
		}
	} else {
		reg.Data.Range(func(k, v string) { data.Set(k, v) })
	}

	rec := dirclient.ServiceRecord{
		UUID:    reg.UUID,
		Type:    reg.Type,
		Name:    reg.Name,
		Version: currentVersion,
		Data:    data,
	}
	if err := a.client.ServiceRegister(ctx, rec); err != nil {
		return fmt.Errorf("service_register(%s): %w", reg.UUID, err)
	}
	return nil
}

// mergeVolumeReplicas implements §4.3 step 5: preserve every prior
// mrc*-prefixed key, extend with a new ordinal if the generator's mrc
// value isn't among them, then copy the generator's non-mrc keys.
func mergeVolumeReplicas(data *dirclient.OrderedData, priorData, regData dirclient.OrderedData) error {
	mrcUUID, ok := regData.Get("mrc")
	if !ok {
		return ErrMissingMRC
	}

	contained := false
	maxOrdinal := 0
	priorData.Range(func(k, v string) {
		if !dirclient.HasMRCPrefix(k) {
			return
		}
		data.Set(k, v)
		if v == mrcUUID {
			contained = true
		}
		if n := dirclient.MRCKeyOrdinal(k); n > maxOrdinal {
			maxOrdinal = n
		}
	})
	if !contained {
		data.Set(dirclient.MRCKeyForOrdinal(maxOrdinal+1), mrcUUID)
	}

	regData.Range(func(k, v string) {
		if !dirclient.HasMRCPrefix(k) {
			data.Set(k, v)
		}
	})
	return nil
}
