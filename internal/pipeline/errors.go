// Package pipeline implements the streaming analysis-component runtime:
// stages, bounded result queues, fan-out/fan-in helpers, the reflective
// stage registry, and the result writers. The assembler that wires stages
// into a DAG and drains the terminal stage lives in internal/analysis.
package pipeline

import "errors"

// Sentinel errors for the stage runtime. These wrap spec.md's StageError /
// IOError / SetupError taxonomy at the pipeline package boundary.
var (
	// ErrResultAfterClose is a programming defect: AddResult called after a
	// stage's work function has already returned.
	ErrResultAfterClose = errors.New("pipeline: result added after stage closed")

	// ErrUnknownStage is returned by the reflective registry when a
	// configured stage name has no registered factory.
	ErrUnknownStage = errors.New("pipeline: unknown stage name")

	// ErrOutputDirUnusable is a SetupError: the configured output directory
	// could not be created or is not writable.
	ErrOutputDirUnusable = errors.New("pipeline: output directory unusable")

	// ErrNoWriterForType is returned by the default line writer when a value
	// is not a string, byte slice or fmt.Stringer and cannot be JSON-encoded.
	ErrNoWriterForType = errors.New("pipeline: no writer registered for element type")

	// ErrEmptyPipeline is returned when a reflective pipeline specification
	// names no stages.
	ErrEmptyPipeline = errors.New("pipeline: analysis.pipeline is empty")
)
