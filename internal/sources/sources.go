// Package sources supplies the three concrete model sources — variability
// model, build model, code model — with minimal default extractors so that
// a runnable pipeline exists without requiring a plugin. The core
// (internal/pipeline, internal/provider) never imports this package; it is
// a default collaborator, not part of the core.
package sources

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/varpipe-io/varpipe/internal/cache"
	"github.com/varpipe-io/varpipe/internal/model"
	"github.com/varpipe-io/varpipe/internal/provider"
)

// variabilityModelCodec adapts model.VariabilityModel's Marshal/Unmarshal
// pair to provider.Codec.
func variabilityModelCodec() provider.Codec[*model.VariabilityModel] {
	return provider.Codec[*model.VariabilityModel]{
		Marshal:   func(v *model.VariabilityModel) ([]byte, error) { return v.Marshal() },
		Unmarshal: func(_ provider.Target, data []byte) (*model.VariabilityModel, error) { return model.UnmarshalVariabilityModel(data) },
	}
}

// NewVariabilityModelSource wires a provider whose default extractor reads
// one configuration variable name per line from <sourceTree>/variables.txt.
// Real deployments supply their own Extractor via NewVariabilityModelSourceWithExtractor.
func NewVariabilityModelSource(cfg provider.Config, sourceTree string, c cache.Cache, logger *slog.Logger) *provider.AbstractProvider[*model.VariabilityModel] {
	return NewVariabilityModelSourceWithExtractor(cfg, sourceTree, defaultVariabilityExtractor{}, c, logger)
}

// NewVariabilityModelSourceWithExtractor wires a provider over a
// caller-supplied extractor, for callers that plug in a real parser.
func NewVariabilityModelSourceWithExtractor(cfg provider.Config, sourceTree string, extractor provider.Extractor[*model.VariabilityModel], c cache.Cache, logger *slog.Logger) *provider.AbstractProvider[*model.VariabilityModel] {
	cfg.Kind = "variability"

	targets := []provider.Target{{Key: sourceTree}}

	return provider.New[*model.VariabilityModel]("VariabilityModelProvider", cfg, extractor, c, variabilityModelCodec(), targets, logger)
}

type defaultVariabilityExtractor struct{}

func (defaultVariabilityExtractor) Extract(ctx context.Context, target provider.Target) (*model.VariabilityModel, error) {
	path := filepath.Join(target.Key, "variables.txt")

	f, err := os.Open(path) //nolint:gosec // path is operator-configured source_tree, not attacker input
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer f.Close()

	vm := &model.VariabilityModel{}
	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			vm.Variables = append(vm.Variables, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return vm, nil
}

func buildModelCodec() provider.Codec[*model.BuildModel] {
	return provider.Codec[*model.BuildModel]{
		Marshal: func(v *model.BuildModel) ([]byte, error) { return v.Marshal() },
		Unmarshal: func(_ provider.Target, data []byte) (*model.BuildModel, error) {
			bm := &model.BuildModel{FileConditions: make(map[string]string)}

			for _, line := range strings.Split(string(data), "\n") {
				if line == "" {
					continue
				}

				parts := strings.SplitN(line, "=", 2)
				if len(parts) == 2 {
					bm.FileConditions[parts[0]] = parts[1]
				}
			}

			return bm, nil
		},
	}
}

// NewBuildModelSource wires a provider whose default extractor treats every
// regular file under sourceTree as unconditionally compiled ("1").
func NewBuildModelSource(cfg provider.Config, sourceTree string, c cache.Cache, logger *slog.Logger) *provider.AbstractProvider[*model.BuildModel] {
	return NewBuildModelSourceWithExtractor(cfg, sourceTree, defaultBuildExtractor{}, c, logger)
}

func NewBuildModelSourceWithExtractor(cfg provider.Config, sourceTree string, extractor provider.Extractor[*model.BuildModel], c cache.Cache, logger *slog.Logger) *provider.AbstractProvider[*model.BuildModel] {
	cfg.Kind = "build"

	targets := []provider.Target{{Key: sourceTree}}

	return provider.New[*model.BuildModel]("BuildModelProvider", cfg, extractor, c, buildModelCodec(), targets, logger)
}

type defaultBuildExtractor struct{}

func (defaultBuildExtractor) Extract(ctx context.Context, target provider.Target) (*model.BuildModel, error) {
	bm := &model.BuildModel{FileConditions: make(map[string]string)}

	err := filepath.WalkDir(target.Key, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !d.IsDir() {
			rel, relErr := filepath.Rel(target.Key, path)
			if relErr != nil {
				rel = path
			}

			bm.FileConditions[rel] = "1"
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// NewCodeModelSource wires a multi-target provider, one target per file
// under sourceTree, reading raw file content by default.
func NewCodeModelSource(cfg provider.Config, sourceTree string, c cache.Cache, logger *slog.Logger) (*provider.AbstractProvider[*model.SourceFile], error) {
	return NewCodeModelSourceWithExtractor(cfg, sourceTree, defaultCodeExtractor{}, c, logger)
}

func NewCodeModelSourceWithExtractor(cfg provider.Config, sourceTree string, extractor provider.Extractor[*model.SourceFile], c cache.Cache, logger *slog.Logger) (*provider.AbstractProvider[*model.SourceFile], error) {
	cfg.Kind = "code"

	targets, err := enumerateSourceFiles(sourceTree)
	if err != nil {
		return nil, err
	}

	codec := provider.Codec[*model.SourceFile]{
		Marshal: func(v *model.SourceFile) ([]byte, error) { return v.Marshal() },
		Unmarshal: func(target provider.Target, data []byte) (*model.SourceFile, error) {
			return model.UnmarshalSourceFile(target.Key, data)
		},
	}

	return provider.New[*model.SourceFile]("CodeModelProvider", cfg, extractor, c, codec, targets, logger), nil
}

func enumerateSourceFiles(sourceTree string) ([]provider.Target, error) {
	var targets []provider.Target

	err := filepath.WalkDir(sourceTree, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			targets = append(targets, provider.Target{Key: path})
		}

		return nil
	})

	return targets, err
}

type defaultCodeExtractor struct{}

func (defaultCodeExtractor) Extract(ctx context.Context, target provider.Target) (*model.SourceFile, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := os.ReadFile(target.Key) //nolint:gosec // path enumerated from operator-configured source_tree
	if err != nil {
		return nil, err
	}

	return &model.SourceFile{Path: target.Key, Content: string(data)}, nil
}
