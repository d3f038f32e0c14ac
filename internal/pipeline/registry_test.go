package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varpipe-io/varpipe/internal/config"
)

func TestRegistry_BuildsLinearPipeline(t *testing.T) {
	r := NewRegistry()
	r.Register("Upper", func(_ *config.Configuration, input Component[string]) *Stage[string] {
		return New[string]("Upper", DefaultCapacity, func(add func(string)) {
			for {
				v, ok := input.NextResult()
				if !ok {
					return
				}

				add(strings.ToUpper(v))
			}
		})
	})

	source := New[string]("Source", DefaultCapacity, func(add func(string)) {
		add("a")
		add("b")
	})

	terminal, err := r.Build(config.New(nil), []string{"Upper"}, source)
	require.NoError(t, err)

	var got []string

	for {
		v, ok := terminal.NextResult()
		if !ok {
			break
		}

		got = append(got, v)
	}

	assert.Equal(t, []string{"A", "B"}, got)
}

func TestRegistry_UnknownStageName(t *testing.T) {
	r := NewRegistry()

	source := New[string]("Source", DefaultCapacity, func(_ func(string)) {})

	_, err := r.Build(config.New(nil), []string{"DoesNotExist"}, source)
	require.ErrorIs(t, err, ErrUnknownStage)
}

func TestRegistry_EmptyPipeline(t *testing.T) {
	r := NewRegistry()

	source := New[string]("Source", DefaultCapacity, func(_ func(string)) {})

	_, err := r.Build(config.New(nil), nil, source)
	require.ErrorIs(t, err, ErrEmptyPipeline)
}
