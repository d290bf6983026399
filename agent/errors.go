package agent

import "errors"

// ErrMissingMRC is returned by the Service Record Merger when a VOLUME
// registration's data is missing the "mrc" key (§4.3 step 5a). The
// original design treats this as an assertion failure in the generator;
// this agent instead returns a typed error so a misbehaving generator
// callback cannot bring down the host process embedding it.
var ErrMissingMRC = errors.New("agent: VOLUME registration missing \"mrc\" key")
