package pipeline

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineWriterFactory_StringsWrittenVerbatimOneLineEach(t *testing.T) {
	var buf bytes.Buffer

	w := LineWriterFactory{}.NewWriter(&buf)

	require.NoError(t, w.WriteRecord("Result1"))
	require.NoError(t, w.WriteRecord("Result2"))
	require.NoError(t, w.Close())

	assert.Equal(t, "Result1\nResult2\n", buf.String())
}

func TestLineWriterFactory_Extension(t *testing.T) {
	assert.Equal(t, "txt", LineWriterFactory{}.Extension())
}
