package provider

import "context"

// Target identifies one unit of extraction work: the source tree root for
// the variability and build providers, or one source file's path for the
// code provider. Key is also the cache key.
type Target struct {
	Key string
}

// Extractor is the opaque, external producer of a raw model. The core only
// ever calls Extract; ctx carries the per-target timeout.
type Extractor[T any] interface {
	Extract(ctx context.Context, target Target) (T, error)
}

// ExtractorFunc adapts a plain function to Extractor.
type ExtractorFunc[T any] func(ctx context.Context, target Target) (T, error)

func (f ExtractorFunc[T]) Extract(ctx context.Context, target Target) (T, error) {
	return f(ctx, target)
}
