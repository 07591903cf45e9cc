package source

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/podium/internal/domain/model"
)

const readBufferSize = 1 << 20

// CSVOption configures a CSVSource.
type CSVOption func(*CSVSource)

// WithComma sets the field delimiter.
func WithComma(r rune) CSVOption {
	return func(s *CSVSource) {
		if r != 0 {
			s.comma = r
		}
	}
}

// WithRequiredColumns makes Fetch fail with ErrFormat when the header lacks
// any of the named columns.
func WithRequiredColumns(cols ...string) CSVOption {
	return func(s *CSVSource) {
		s.required = append(s.required[:0], cols...)
	}
}

// CSVSource reads a headered CSV file. Files ending in .gz are decompressed.
type CSVSource struct {
	path     string
	comma    rune
	required []string
}

// NewCSV creates a CSV source for path.
func NewCSV(path string, opts ...CSVOption) *CSVSource {
	s := &CSVSource{path: path, comma: ','}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name identifies the source in logs.
func (s *CSVSource) Name() string {
	return "csv:" + s.path
}

// Fetch reads every data row. Lines that fail to parse are skipped.
func (s *CSVSource) Fetch(ctx context.Context) ([]model.RawRow, error) {
	rc, err := openAuto(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	defer func() { _ = rc.Close() }()

	return s.read(ctx, rc)
}

func (s *CSVSource) read(ctx context.Context, r io.Reader) ([]model.RawRow, error) {
	cr := csv.NewReader(bufio.NewReaderSize(r, readBufferSize))
	cr.Comma = s.comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s has no header", ErrFormat, s.path)
		}
		return nil, fmt.Errorf("%w: read header: %w", ErrFormat, err)
	}
	names := make([]string, len(header))
	index := make(map[string]struct{}, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		names[i] = name
		index[name] = struct{}{}
	}
	for _, col := range s.required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrFormat, col)
		}
	}

	var rows []model.RawRow
	for line := 0; ; line++ {
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		row := make(model.RawRow, len(names))
		for i, name := range names {
			if i < len(rec) {
				row[name] = rec[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// openAuto opens path, transparently decompressing .gz files.
func openAuto(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(path) != ".gz" {
		return f, nil
	}
	gr, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &multiCloser{Reader: gr, closers: []io.Closer{gr, f}}, nil
}

type multiCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if e := c.Close(); err == nil && e != nil {
			err = e
		}
	}
	return err
}
