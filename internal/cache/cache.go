// Package cache provides the per-model cache used by providers to avoid
// re-running an extractor for a target whose result was already computed by
// an earlier run.
package cache

import "errors"

// Sentinel errors for the cache package.
var (
	// ErrCacheMiss is returned by Read when no entry exists for the key. It
	// is not a failure condition; callers treat it as "run the extractor".
	ErrCacheMiss = errors.New("cache: entry not found")

	// ErrCacheCorrupted is returned by Read when an entry exists but could
	// not be decoded. Callers log it at WARNING and treat it as a miss
	// (spec.md §3: "corrupted is logged and treated as miss").
	ErrCacheCorrupted = errors.New("cache: entry corrupted")

	// ErrUnsupportedBackend is returned by New for an unrecognized
	// cache_backend configuration value.
	ErrUnsupportedBackend = errors.New("cache: unsupported backend")
)

// Cache reads and writes serialized model payloads keyed by target
// (spec.md §3 "Cache entry"). Read distinguishes miss from corrupted via
// the returned error; a hit returns a nil error.
type Cache interface {
	// Read returns the cached bytes for kind/key, ErrCacheMiss if absent,
	// or ErrCacheCorrupted if the entry could not be decoded.
	Read(kind, key string) ([]byte, error)

	// Write stores data under kind/key. Write failures are the caller's to
	// log; they must never fail the run (spec.md §4.3 "best-effort").
	Write(kind, key string, data []byte) error

	// Close releases any resources held by the cache (open files, pooled
	// connections). It is safe to call on a Cache that was never used.
	Close() error
}
