// Package analysis assembles the three model sources and a user-supplied
// terminal stage into a runnable pipeline (spec.md §4.4 PipelineAnalysis).
// It knows about internal/provider and internal/model so that
// internal/pipeline itself stays free of any domain knowledge.
package analysis

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/varpipe-io/varpipe/internal/config"
	"github.com/varpipe-io/varpipe/internal/model"
	"github.com/varpipe-io/varpipe/internal/pipeline"
	"github.com/varpipe-io/varpipe/internal/provider"
)

// Assembler builds the DAG, supplies the three model sources to stages as
// shared pseudo-components, runs the terminal stage, and writes results.
type Assembler struct {
	RunID uuid.UUID

	cfg           *config.Configuration
	logger        *slog.Logger
	writerFactory pipeline.WriterFactory
	outputDir     string
	registry      *pipeline.Registry

	intermediateLog map[string]bool

	vmSource *provider.AbstractProvider[*model.VariabilityModel]
	bmSource *provider.AbstractProvider[*model.BuildModel]
	cmSource *provider.AbstractProvider[*model.SourceFile]

	mu      sync.Mutex
	vmSplit *pipeline.SplitComponent[*model.VariabilityModel]
	bmSplit *pipeline.SplitComponent[*model.BuildModel]
	cmSplit *pipeline.SplitComponent[*model.SourceFile]
}

// New builds an Assembler over cfg. writerFactory may be nil to use the
// default line/JSON writer (pipeline.LineWriterFactory).
func New(cfg *config.Configuration, logger *slog.Logger, writerFactory pipeline.WriterFactory) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}

	if writerFactory == nil {
		writerFactory = pipeline.LineWriterFactory{}
	}

	return &Assembler{
		RunID:           uuid.New(),
		cfg:             cfg,
		logger:          logger.With(slog.String("component", "analysis")),
		writerFactory:   writerFactory,
		outputDir:       cfg.GetString("output_dir", "."),
		registry:        pipeline.NewRegistry(),
		intermediateLog: cfg.GetStringSet("analysis.components.log"),
	}
}

// Registry exposes the stage-name registry backing the reflective pipeline
// variant (spec.md §4.4 "Reflective variant").
func (a *Assembler) Registry() *pipeline.Registry { return a.registry }

// SetVariabilityModelSource wires the variability-model provider. Must be
// called before the first VariabilityModel() access.
func (a *Assembler) SetVariabilityModelSource(p *provider.AbstractProvider[*model.VariabilityModel]) {
	a.vmSource = p
}

// SetBuildModelSource wires the build-model provider.
func (a *Assembler) SetBuildModelSource(p *provider.AbstractProvider[*model.BuildModel]) {
	a.bmSource = p
}

// SetCodeModelSource wires the code-model provider.
func (a *Assembler) SetCodeModelSource(p *provider.AbstractProvider[*model.SourceFile]) {
	a.cmSource = p
}

// VariabilityModel returns a new consumer view of the shared
// variability-model source, installing a fan-out on first access (spec.md
// §4.4, §9 "first access installs a fan-out; subsequent accesses return a
// new consumer branch").
func (a *Assembler) VariabilityModel() pipeline.Component[*model.VariabilityModel] {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.vmSplit == nil {
		a.vmSplit = pipeline.NewSplit[*model.VariabilityModel](a.vmSource)
	}

	return a.vmSplit.CreateOutputComponent()
}

// BuildModel returns a new consumer view of the shared build-model source.
func (a *Assembler) BuildModel() pipeline.Component[*model.BuildModel] {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.bmSplit == nil {
		a.bmSplit = pipeline.NewSplit[*model.BuildModel](a.bmSource)
	}

	return a.bmSplit.CreateOutputComponent()
}

// CodeModel returns a new consumer view of the shared code-model source.
func (a *Assembler) CodeModel() pipeline.Component[*model.SourceFile] {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cmSplit == nil {
		a.cmSplit = pipeline.NewSplit[*model.SourceFile](a.cmSource)
	}

	return a.cmSplit.CreateOutputComponent()
}

// Track installs intermediate-result logging on stage if its name is in the
// configured analysis.components.log set (spec.md §4.1). Internal helper
// stages are never tracked. It returns stage unchanged for call-site
// chaining.
func Track[T any](a *Assembler, stage *pipeline.Stage[T]) *pipeline.Stage[T] {
	if stage.IsInternalHelper() || !a.intermediateLog[stage.ResultName()] {
		return stage
	}

	path := filepath.Join(a.outputDir, fmt.Sprintf("%s_intermediate_result_%s.%s",
		stage.ResultName(), timestamp(), a.writerFactory.Extension()))

	var (
		once sync.Once
		f    *os.File
		w    pipeline.RecordWriter
	)

	open := func() {
		var err error

		f, err = os.Create(path) //nolint:gosec // path derives from operator-configured output_dir
		if err != nil {
			a.logger.Error("failed to open intermediate result artifact",
				slog.String("stage", stage.ResultName()), slog.String("error", err.Error()))

			return
		}

		w = a.writerFactory.NewWriter(f)
	}

	stage.SetMirror(func(v T) {
		once.Do(open)

		if w != nil {
			if err := w.WriteRecord(v); err != nil {
				a.logger.Error("failed to write intermediate result",
					slog.String("stage", stage.ResultName()), slog.String("error", err.Error()))
			}
		}
	})

	stage.SetOnFinish(func() {
		if w != nil {
			_ = w.Close()
		}
	})

	return stage
}

// Run executes the pipeline's run protocol (spec.md §4.4): prepare the
// output directory, drain terminal to its result artifact, and report the
// artifacts now present in the output directory.
func Run[T any](a *Assembler, terminal pipeline.Component[T]) ([]string, error) {
	if err := os.MkdirAll(a.outputDir, 0o755); err != nil { //nolint:gosec // output_dir is operator-configured
		return nil, fmt.Errorf("%w: %w", pipeline.ErrOutputDirUnusable, err)
	}

	path := filepath.Join(a.outputDir, fmt.Sprintf("%s_result_%s.%s",
		terminal.ResultName(), timestamp(), a.writerFactory.Extension()))

	f, err := os.Create(path) //nolint:gosec // path derives from operator-configured output_dir
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrOutputDirUnusable, err)
	}

	w := a.writerFactory.NewWriter(f)

	for {
		v, ok := terminal.NextResult()
		if !ok {
			break
		}

		if err := w.WriteRecord(v); err != nil {
			a.logger.Error("failed to write result",
				slog.String("stage", terminal.ResultName()), slog.String("error", err.Error()))
		}
	}

	if err := w.Close(); err != nil {
		a.logger.Error("failed to close result artifact", slog.String("error", err.Error()))
	}

	return a.ListArtifacts()
}

// ListArtifacts enumerates the output directory for reporting (spec.md
// §4.4 step 5).
func (a *Assembler) ListArtifacts() ([]string, error) {
	entries, err := os.ReadDir(a.outputDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrOutputDirUnusable, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}

	return names, nil
}

func timestamp() string {
	return time.Now().Format("20060102150405.000000000")
}
