// Package main runs a variability-pipeline analysis: it loads
// configuration, wires the three model sources through their providers and
// cache, assembles and runs a default reporting pipeline, and optionally
// serves the read-only status API while the run executes.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/varpipe-io/varpipe/internal/analysis"
	"github.com/varpipe-io/varpipe/internal/cache"
	"github.com/varpipe-io/varpipe/internal/config"
	"github.com/varpipe-io/varpipe/internal/model"
	"github.com/varpipe-io/varpipe/internal/pipeline"
	"github.com/varpipe-io/varpipe/internal/provider"
	"github.com/varpipe-io/varpipe/internal/sources"
	"github.com/varpipe-io/varpipe/internal/statusapi"
)

const (
	version = "0.1.0-dev"
	name    = "varpipe"
)

func main() {
	versionFlag := flag.Bool("version", false, "show version information")
	flag.Parse()

	if *versionFlag {
		log.Printf("%s v%s\n", name, version)
		os.Exit(0)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Printf("%s: failed to load configuration: %v\n", name, err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	logger.Info("starting varpipe run", slog.String("version", version))

	modelCache, err := cache.New(cfg)
	if err != nil {
		logger.Error("failed to open cache", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = modelCache.Close() }()

	registry := statusapi.NewRegistry()

	if cfg.GetBool("status_api.enabled", false) {
		server := statusapi.NewServer(cfg, registry, logger)

		go func() {
			if err := server.Start(); err != nil {
				logger.Error("status api server stopped with error", slog.String("error", err.Error()))
			}
		}()
	}

	runID := uuid.New()
	startedAt := time.Now()

	a := analysis.New(cfg, logger, nil)
	a.RunID = runID

	sourceTree := cfg.GetString("source_tree", ".")

	a.SetVariabilityModelSource(sources.NewVariabilityModelSource(
		providerConfig(cfg, "variability"), sourceTree, modelCache, logger))
	a.SetBuildModelSource(sources.NewBuildModelSource(
		providerConfig(cfg, "build"), sourceTree, modelCache, logger))

	codeSource, err := sources.NewCodeModelSource(providerConfig(cfg, "code"), sourceTree, modelCache, logger)
	if err != nil {
		logger.Error("failed to enumerate code model targets", slog.String("error", err.Error()))
		os.Exit(1)
	}

	a.SetCodeModelSource(codeSource)

	terminal := buildReportPipeline(a)

	artifacts, err := analysis.Run[string](a, terminal)

	finishedAt := time.Now()
	registry.Put(&statusapi.RunStatus{
		ID:         runID.String(),
		StartedAt:  startedAt,
		FinishedAt: &finishedAt,
		Stages: []statusapi.StageStatus{
			{Name: terminal.ResultName(), State: terminal.State().String()},
		},
		ProviderExceptions: exceptionCounts(codeSource),
	})

	if err != nil {
		logger.Error("run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("run complete",
		slog.String("run_id", runID.String()),
		slog.Any("artifacts", artifacts))
}

func providerConfig(cfg *config.Configuration, kind string) provider.Config {
	prefix := kind + ".provider."

	return provider.Config{
		Kind:       kind,
		Timeout:    cfg.GetDuration(prefix+"timeout", 30*time.Second),
		Threads:    cfg.GetInt(prefix+"threads", 1),
		ReadCache:  cfg.GetBool(prefix+"cache.read", false),
		WriteCache: cfg.GetBool(prefix+"cache.write", false),
		RateLimit:  float64(cfg.GetInt(prefix+"rate_limit", 0)),
	}
}

// buildReportPipeline assembles the default terminal stage: the
// variability model's variable names, then the build model's file paths,
// then the code model's file paths, one line each.
func buildReportPipeline(a *analysis.Assembler) pipeline.Component[string] {
	vm := a.VariabilityModel()
	bm := a.BuildModel()
	cm := a.CodeModel()

	return pipeline.New[string]("Report", pipeline.DefaultCapacity, func(add func(string)) {
		if v, ok := vm.NextResult(); ok {
			for _, name := range v.Variables {
				add(name)
			}
		}

		if b, ok := bm.NextResult(); ok {
			for path := range b.FileConditions {
				add(path)
			}
		}

		for {
			f, ok := cm.NextResult()
			if !ok {
				break
			}

			add(f.Path)
		}
	})
}

func exceptionCounts(codeSource *provider.AbstractProvider[*model.SourceFile]) map[string]int {
	count := 0

	for {
		if _, ok := codeSource.Exceptions().NextResult(); !ok {
			break
		}

		count++
	}

	return map[string]int{"CodeModelProvider": count}
}
