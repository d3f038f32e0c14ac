package provider

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/varpipe-io/varpipe/internal/cache"
	"github.com/varpipe-io/varpipe/internal/pipeline"
)

// Config carries the per-kind knobs read from the pipeline configuration
// (spec.md §6: "*.provider.timeout", "*.provider.cache.read/.write",
// plus the "[NEW]" *.provider.rate_limit).
type Config struct {
	// Kind names the model kind for cache keys and logging, e.g.
	// "variability", "build", "code".
	Kind string

	Timeout    time.Duration
	Threads    int
	ReadCache  bool
	WriteCache bool
	RateLimit  float64
}

// Codec marshals a provider's result for cache storage and reconstructs it
// from cached bytes. Every payload type in internal/model has a Marshal
// method; VariabilityModel and SourceFile also have a matching Unmarshal
// function there, while BuildModel's decoder lives in internal/sources.
type Codec[T any] struct {
	Marshal   func(T) ([]byte, error)
	Unmarshal func(target Target, data []byte) (T, error)
}

// AbstractProvider supervises an Extractor across a target list, mediating
// a Cache and exposing results and exceptions as two independent streams
// (spec.md §4.3). It implements pipeline.Component[T] via its embedded
// result stage.
type AbstractProvider[T any] struct {
	*pipeline.Stage[T]

	cfg       Config
	extractor Extractor[T]
	cache     cache.Cache
	codec     Codec[T]
	targets   []Target
	logger    *slog.Logger
	limiter   *rate.Limiter

	exceptions *pipeline.Stage[*ExtractorError]
	resultDone chan struct{}
}

// New builds a provider over extractor with the given name (used as the
// result stage's display name, e.g. "VariabilityModelProvider").
func New[T any](name string, cfg Config, extractor Extractor[T], c cache.Cache, codec Codec[T], targets []Target, logger *slog.Logger) *AbstractProvider[T] {
	if logger == nil {
		logger = slog.Default()
	}

	p := &AbstractProvider[T]{
		cfg:        cfg,
		extractor:  extractor,
		cache:      c,
		codec:      codec,
		targets:    targets,
		logger:     logger.With(slog.String("provider", name)),
		limiter:    newThrottle(cfg.RateLimit),
		resultDone: make(chan struct{}),
	}

	p.Stage = pipeline.New[T](name, pipeline.DefaultCapacity, p.run).WithLogger(p.logger)
	p.Stage.SetOnFinish(func() { close(p.resultDone) })

	p.exceptions = pipeline.New[*ExtractorError](name+"Exceptions", pipeline.DefaultCapacity, func(_ func(*ExtractorError)) {
		<-p.resultDone
	}).WithLogger(p.logger)
	p.exceptions.MarkInternalHelper()

	return p
}

// Exceptions returns the provider's independent error stream (spec.md §4.3
// "exception() / nextException()"). It is safe to read concurrently with
// the result stream.
func (p *AbstractProvider[T]) Exceptions() pipeline.Component[*ExtractorError] {
	return p.exceptions
}

func (p *AbstractProvider[T]) run(add func(T)) {
	if p.extractor == nil {
		p.logger.Error(ErrNoExtractor.Error())

		return
	}

	targetsCh := make(chan Target)

	go func() {
		defer close(targetsCh)

		for _, t := range p.targets {
			targetsCh <- t
		}
	}()

	threads := p.cfg.Threads
	if threads < 1 {
		threads = 1
	}

	var wg sync.WaitGroup

	for i := 0; i < threads; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for t := range targetsCh {
				p.processTarget(t, add)
			}
		}()
	}

	wg.Wait()
}

func (p *AbstractProvider[T]) processTarget(target Target, add func(T)) {
	if p.cfg.ReadCache && p.cache != nil {
		if v, ok := p.tryCacheHit(target); ok {
			add(v)

			return
		}
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(context.Background()); err != nil {
			p.recordException(target, err)

			return
		}
	}

	ctx := context.Background()

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	value, err := p.extractor.Extract(ctx, target)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.Join(ErrExtractionTimeout, err)
		}

		p.recordException(target, err)

		return
	}

	p.tryCacheWrite(target, value)
	add(value)
}

func (p *AbstractProvider[T]) tryCacheHit(target Target) (T, bool) {
	var zero T

	data, err := p.cache.Read(p.cfg.Kind, target.Key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			p.logger.Warn("cache read failed, falling back to extraction",
				slog.String("target", target.Key), slog.String("error", err.Error()))
		}

		return zero, false
	}

	value, err := p.codec.Unmarshal(target, data)
	if err != nil {
		p.logger.Warn("cached entry could not be decoded, falling back to extraction",
			slog.String("target", target.Key), slog.String("error", err.Error()))

		return zero, false
	}

	return value, true
}

func (p *AbstractProvider[T]) tryCacheWrite(target Target, value T) {
	if !p.cfg.WriteCache || p.cache == nil {
		return
	}

	data, err := p.codec.Marshal(value)
	if err != nil {
		p.logger.Error("failed to marshal result for cache write",
			slog.String("target", target.Key), slog.String("error", err.Error()))

		return
	}

	if err := p.cache.Write(p.cfg.Kind, target.Key, data); err != nil {
		p.logger.Error("cache write failed",
			slog.String("target", target.Key), slog.String("error", err.Error()))
	}
}

func (p *AbstractProvider[T]) recordException(target Target, err error) {
	p.logger.Error("extraction failed",
		slog.String("target", target.Key), slog.String("error", err.Error()))

	p.exceptions.AddResult(&ExtractorError{Target: target, Err: err})
}
