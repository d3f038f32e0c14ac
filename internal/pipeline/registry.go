package pipeline

import (
	"fmt"
	"sync"

	"github.com/varpipe-io/varpipe/internal/config"
)

// StageFactory builds one stage of a reflectively-assembled linear pipeline,
// wiring it to the given input.
type StageFactory func(cfg *config.Configuration, input Component[string]) *Stage[string]

// Registry resolves stage names (as they would appear in an
// analysis.pipeline configuration list) to factories. It backs the
// reflective assembly variant (spec.md §4.4: "reads a sequence of stage
// class names from configuration and instantiates them in order").
//
// Reflective assembly is intentionally scoped to string-element stages: the
// declarative, name-driven path is meant for simple linear text pipelines,
// while pipelines with richer element types (variability models, build
// models, source files) are assembled in code against concrete types.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]StageFactory
}

// NewRegistry returns an empty stage registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]StageFactory)}
}

// Register associates name with a factory. Registering the same name twice
// replaces the previous factory.
func (r *Registry) Register(name string, factory StageFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[name] = factory
}

// Build instantiates names in order, piping each stage's output into the
// next, and returns the last one as the terminal stage.
func (r *Registry) Build(cfg *config.Configuration, names []string, source Component[string]) (Component[string], error) {
	if len(names) == 0 {
		return nil, ErrEmptyPipeline
	}

	current := source

	for _, name := range names {
		r.mu.RLock()
		factory, ok := r.factories[name]
		r.mu.RUnlock()

		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStage, name)
		}

		current = factory(cfg, current)
	}

	return current, nil
}
