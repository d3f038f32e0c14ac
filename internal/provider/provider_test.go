package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varpipe-io/varpipe/internal/cache"
)

func stringCodec() Codec[string] {
	return Codec[string]{
		Marshal:   func(v string) ([]byte, error) { return []byte(v), nil },
		Unmarshal: func(_ Target, data []byte) (string, error) { return string(data), nil },
	}
}

func TestAbstractProvider_SingleThreadPreservesTargetOrder(t *testing.T) {
	targets := []Target{{Key: "a"}, {Key: "b"}, {Key: "c"}}

	extractor := ExtractorFunc[string](func(_ context.Context, target Target) (string, error) {
		return "value-" + target.Key, nil
	})

	p := New[string]("Ordered", Config{Kind: "code", Threads: 1}, extractor, nil, stringCodec(), targets, nil)

	var got []string

	for {
		v, ok := p.NextResult()
		if !ok {
			break
		}

		got = append(got, v)
	}

	assert.Equal(t, []string{"value-a", "value-b", "value-c"}, got)
}

func TestAbstractProvider_TimeoutRecordsExceptionAndContinues(t *testing.T) {
	targets := []Target{{Key: "slow"}, {Key: "fast"}}

	extractor := ExtractorFunc[string](func(ctx context.Context, target Target) (string, error) {
		if target.Key == "slow" {
			select {
			case <-time.After(200 * time.Millisecond):
				return "too-late", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		return "value-" + target.Key, nil
	})

	p := New[string]("Timed", Config{Kind: "code", Threads: 2, Timeout: 20 * time.Millisecond}, extractor, nil, stringCodec(), targets, nil)

	var results []string

	for {
		v, ok := p.NextResult()
		if !ok {
			break
		}

		results = append(results, v)
	}

	assert.Equal(t, []string{"value-fast"}, results)

	var exceptions []*ExtractorError

	for {
		e, ok := p.Exceptions().NextResult()
		if !ok {
			break
		}

		exceptions = append(exceptions, e)
	}

	require.Len(t, exceptions, 1)
	assert.Equal(t, "slow", exceptions[0].Target.Key)
	assert.True(t, errors.Is(exceptions[0].Err, ErrExtractionTimeout))
}

func TestAbstractProvider_RateLimitQueueingDoesNotConsumeTimeout(t *testing.T) {
	targets := []Target{{Key: "a"}, {Key: "b"}, {Key: "c"}}

	extractor := ExtractorFunc[string](func(_ context.Context, target Target) (string, error) {
		return "value-" + target.Key, nil
	})

	// Burst is 2, so the third target must wait roughly 500ms for a token to
	// refill. A timeout this tight would spuriously fire if the per-target
	// deadline started before the limiter released the worker.
	p := New[string]("RateLimited", Config{
		Kind:      "code",
		Threads:   1,
		Timeout:   20 * time.Millisecond,
		RateLimit: 2,
	}, extractor, nil, stringCodec(), targets, nil)

	var results []string

	for {
		v, ok := p.NextResult()
		if !ok {
			break
		}

		results = append(results, v)
	}

	assert.Equal(t, []string{"value-a", "value-b", "value-c"}, results)

	_, hasException := p.Exceptions().NextResult()
	assert.False(t, hasException)
}

func TestAbstractProvider_CacheHitSkipsExtractor(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Write("variability", "/src", []byte("Var_A\nVar_B")))

	invocations := 0

	extractor := ExtractorFunc[string](func(_ context.Context, _ Target) (string, error) {
		invocations++

		return "", errors.New("extractor should not run on a cache hit")
	})

	p := New[string]("Variability", Config{Kind: "variability", Threads: 1, ReadCache: true},
		extractor, c, stringCodec(), []Target{{Key: "/src"}}, nil)

	v, ok := p.NextResult()
	require.True(t, ok)
	assert.Equal(t, "Var_A\nVar_B", v)
	assert.Equal(t, 0, invocations)
}

func TestAbstractProvider_SuccessfulExtractionWritesCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)

	extractor := ExtractorFunc[string](func(_ context.Context, target Target) (string, error) {
		return "extracted-" + target.Key, nil
	})

	p := New[string]("Variability", Config{Kind: "variability", Threads: 1, WriteCache: true},
		extractor, c, stringCodec(), []Target{{Key: "/src"}}, nil)

	v, ok := p.NextResult()
	require.True(t, ok)
	assert.Equal(t, "extracted-/src", v)

	cached, err := c.Read("variability", "/src")
	require.NoError(t, err)
	assert.Equal(t, "extracted-/src", string(cached))
}
