package dirclient

import "errors"

// ErrNotFound is returned by ServiceGetByUUID-style lookups that the
// concrete transport chooses to surface as an error rather than a nil
// result. The agent treats either form identically.
var ErrNotFound = errors.New("dirclient: record not found")

// ErrVersionConflict is returned by a write RPC when the supplied
// optimistic-concurrency version no longer matches DIR's current version.
// The agent never retries within a cycle on this error — see §4.3's notes
// on relying on the next refresh cycle to self-heal.
var ErrVersionConflict = errors.New("dirclient: version conflict")
