// Package repository holds the process-wide cache of normalized medal records.
package repository

import (
	"context"
	"time"

	"github.com/okian/podium/internal/domain/model"
)

// Info describes the cached dataset.
type Info struct {
	LoadID   string        `json:"load_id" yaml:"load_id"`
	Source   string        `json:"source" yaml:"source"`
	LoadedAt time.Time     `json:"loaded_at" yaml:"loaded_at"`
	Records  int           `json:"records" yaml:"records"`
	Dropped  int           `json:"dropped" yaml:"dropped"`
	Duration time.Duration `json:"duration_ns" yaml:"duration_ns"`
}

// Store provides the cached record sequence.
type Store interface {
	// Load returns the cached records, fetching them on first use.
	// The returned slice is shared; callers must not modify it.
	Load(ctx context.Context) ([]model.MedalRecord, error)

	// LoadInfo is Load plus the Info describing the returned records.
	LoadInfo(ctx context.Context) ([]model.MedalRecord, Info, error)

	// Clear empties the cache so the next Load fetches again.
	Clear()

	// Info reports the current dataset, or false if nothing is loaded.
	Info() (Info, bool)
}
