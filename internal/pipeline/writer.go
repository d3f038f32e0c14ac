package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
)

// RecordWriter is a line-oriented sink for one stage's result stream. The
// core only ever calls WriteRecord once per produced value and Close once
// after end-of-stream; it never inspects the bytes written.
type RecordWriter interface {
	WriteRecord(value any) error
	Close() error
}

// WriterFactory produces a RecordWriter for a stage's output. The concrete
// format is deliberately outside the core's concern (spec.md §4.4: "the
// concrete format ... is not part of the core"); a pipeline supplies its own
// factory when the default line format does not fit.
type WriterFactory interface {
	NewWriter(w io.Writer) RecordWriter
	// Extension names the file suffix results written by this factory
	// should carry, without the leading dot.
	Extension() string
}

// LineWriterFactory is the default WriterFactory: strings and byte slices
// are written verbatim with a trailing newline, fmt.Stringer values are
// written as their String() form with a trailing newline, and anything else
// is rendered as one JSON value per line.
type LineWriterFactory struct{}

func (LineWriterFactory) NewWriter(w io.Writer) RecordWriter {
	return &lineWriter{w: w}
}

func (LineWriterFactory) Extension() string { return "txt" }

type lineWriter struct {
	w io.Writer
}

func (lw *lineWriter) WriteRecord(value any) error {
	switch v := value.(type) {
	case string:
		_, err := fmt.Fprintln(lw.w, v)

		return err
	case []byte:
		_, err := fmt.Fprintln(lw.w, string(v))

		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(lw.w, v.String())

		return err
	default:
		enc := json.NewEncoder(lw.w)

		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("%w: %T: %w", ErrNoWriterForType, v, err)
		}

		return nil
	}
}

func (lw *lineWriter) Close() error {
	if c, ok := lw.w.(io.Closer); ok {
		return c.Close()
	}

	return nil
}
