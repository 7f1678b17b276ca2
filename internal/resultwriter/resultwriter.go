// Package resultwriter exports ranked compositions as CSV, one row per
// Comp, for consumption by spreadsheets or downstream tooling.
package resultwriter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/kneasle/monument/internal/render"
)

// Writer is the common surface a caller writes compositions through,
// independent of the backing sink.
type Writer interface {
	WriteComp(rank int, c render.Comp) error
	Flush() error
	Close() error
}

// CSVWriter writes one row per composition to a CSV file, thread-safe so
// the orchestrator may write results as soon as the collector yields them.
type CSVWriter struct {
	mu      sync.Mutex
	file    *os.File
	writer  *csv.Writer
	flushed bool
}

// NewCSVWriter creates or truncates filename and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create directory %q: %w", dir, err)
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open csv file: %w", err)
	}

	w := csv.NewWriter(file)
	header := []string{"rank", "length", "score", "avg_score", "rotation", "start_idx", "call_string"}
	if err := w.Write(header); err != nil {
		file.Close()
		return nil, fmt.Errorf("cannot write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: file, writer: w}, nil
}

// WriteComp writes a single composition row.
func (cw *CSVWriter) WriteComp(rank int, c render.Comp) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.flushed {
		return fmt.Errorf("cannot write: writer already closed")
	}

	record := []string{
		strconv.Itoa(rank),
		strconv.Itoa(c.Length),
		strconv.FormatFloat(c.Score, 'f', 3, 64),
		strconv.FormatFloat(c.AvgScore, 'f', 3, 64),
		strconv.Itoa(c.Rotation),
		strconv.Itoa(c.StartIdx),
		c.CallString,
	}

	if err := cw.writer.Write(record); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}
	return nil
}

// Flush forces the buffered rows to disk.
func (cw *CSVWriter) Flush() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush error: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.flushed {
		return nil
	}

	cw.writer.Flush()
	cw.flushed = true

	if err := cw.writer.Error(); err != nil {
		_ = cw.file.Close()
		return fmt.Errorf("flush error: %w", err)
	}
	return cw.file.Close()
}

// WriteAll is a convenience for writing an entire ranked slice and closing
// the writer, used by cmd/compose's one-shot export path.
func WriteAll(filename string, comps []render.Comp) error {
	w, err := NewCSVWriter(filename)
	if err != nil {
		return err
	}
	for i, c := range comps {
		if err := w.WriteComp(i, c); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

