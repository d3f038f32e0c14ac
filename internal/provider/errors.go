// Package provider implements the extractor-supervision runtime shared by
// the variability-model, build-model, and code-model sources: worker-pool
// scheduling, per-target timeouts, cache mediation, and a result stream
// separate from an exception stream.
package provider

import "errors"

// Sentinel errors for the provider package.
var (
	// ErrExtractionTimeout wraps context.DeadlineExceeded when an
	// extractor invocation is cancelled by its per-target timeout.
	ErrExtractionTimeout = errors.New("provider: extractor timed out")

	// ErrNoExtractor is a SetupError: Extract was wired up without an
	// extractor.
	ErrNoExtractor = errors.New("provider: no extractor configured")
)

// ExtractorError is one entry in a provider's exception stream: an
// extraction failure or timeout for a single target, independent of the
// result stream (spec.md §3 "Provider state").
type ExtractorError struct {
	Target Target
	Err    error
}

func (e *ExtractorError) Error() string {
	return "provider: extraction failed for " + e.Target.Key + ": " + e.Err.Error()
}

func (e *ExtractorError) Unwrap() error { return e.Err }
