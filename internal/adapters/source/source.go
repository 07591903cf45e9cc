// Package source reads the raw medal dataset from files or databases.
//
// A Source returns every raw row it can read. Row-level defects are left to
// normalization; a Source fails only when the dataset as a whole cannot be
// opened or understood.
package source

import (
	"context"
	"errors"

	"github.com/okian/podium/internal/domain/model"
)

// Sentinel error kinds for this package.
var (
	ErrOpen   = errors.New("source unreachable")
	ErrFormat = errors.New("source format not understood")
	ErrQuery  = errors.New("source query failed")
)

// Source fetches the full raw dataset.
type Source interface {
	Fetch(ctx context.Context) ([]model.RawRow, error)
	Name() string
}

// Func adapts a function to Source.
type Func func(ctx context.Context) ([]model.RawRow, error)

// Fetch calls f.
func (f Func) Fetch(ctx context.Context) ([]model.RawRow, error) {
	return f(ctx)
}

// Name identifies the source in logs.
func (f Func) Name() string {
	return "func"
}
