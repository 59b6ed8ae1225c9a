// Package dataset reads, projects, normalizes and writes the CSV tables of
// the log converter, one file at a time or as a concurrent batch.
package dataset

import (
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	ErrMissingColumn  = errors.New("missing column")
	ErrLengthMismatch = errors.New("value count does not match row count")
)

// Frame is a CSV table held in memory.
type Frame struct {
	Header []string
	Rows   [][]string
}

// IsGzip reports whether path names a gzip compressed file.
func IsGzip(path string) bool {
	return strings.HasSuffix(path, ".gz")
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g gzipFile) Close() error {
	return errors.Join(g.Reader.Close(), g.f.Close())
}

// Open opens a CSV file, transparently decompressing .gz files.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !IsGzip(path) {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("gzip %s: %w", path, err)
	}
	return gzipFile{Reader: zr, f: f}, nil
}

// ReadFrame loads a whole CSV table.
func ReadFrame(path string) (*Frame, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read %s: empty table", path)
	}
	return &Frame{Header: records[0], Rows: records[1:]}, nil
}

// WriteFrame writes f to path, gzip compressed when compress is set. The
// table is written to a temporary file in the same directory and renamed, so
// a failed write never leaves a partial table behind.
func WriteFrame(path string, f *Frame, compress bool) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}

	var w io.Writer = tmp
	var zw *gzip.Writer
	if compress {
		zw = gzip.NewWriter(tmp)
		w = zw
	}
	cw := csv.NewWriter(w)
	if err = cw.Write(f.Header); err != nil {
		return err
	}
	if err = cw.WriteAll(f.Rows); err != nil {
		return err
	}
	if zw != nil {
		if err = zw.Close(); err != nil {
			return err
		}
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Index returns the position of a column, or -1.
func (f *Frame) Index(name string) int {
	for i, h := range f.Header {
		if h == name {
			return i
		}
	}
	return -1
}

func (f *Frame) mustIndex(name string) (int, error) {
	i := f.Index(name)
	if i < 0 {
		return 0, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	return i, nil
}

// Float64s parses a column. Empty cells become NaN.
func (f *Frame) Float64s(name string) ([]float64, error) {
	col, err := f.mustIndex(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(f.Rows))
	for i, row := range f.Rows {
		cell := strings.TrimSpace(row[col])
		if cell == "" {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", name, i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

// SetFloat64s replaces a column. NaN is written as an empty cell.
func (f *Frame) SetFloat64s(name string, values []float64) error {
	col, err := f.mustIndex(name)
	if err != nil {
		return err
	}
	if len(values) != len(f.Rows) {
		return fmt.Errorf("%w: %q has %d values for %d rows", ErrLengthMismatch, name, len(values), len(f.Rows))
	}
	for i, v := range values {
		if math.IsNaN(v) {
			f.Rows[i][col] = ""
			continue
		}
		f.Rows[i][col] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return nil
}

// Project keeps only the named columns, in the order they appear in the file.
func (f *Frame) Project(names []string) (*Frame, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, err := f.mustIndex(n); err != nil {
			return nil, err
		}
		want[n] = true
	}

	var keep []int
	out := &Frame{}
	for i, h := range f.Header {
		if want[h] {
			keep = append(keep, i)
			out.Header = append(out.Header, h)
		}
	}
	out.Rows = make([][]string, len(f.Rows))
	for r, row := range f.Rows {
		projected := make([]string, len(keep))
		for j, i := range keep {
			projected[j] = row[i]
		}
		out.Rows[r] = projected
	}
	return out, nil
}
