package repository

import (
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/normalize"
	"github.com/okian/podium/pkg/logger"
)

// Option applies a configuration option to the RecordCache.
type Option func(*RecordCache)

// WithLogger sets the cache logger.
func WithLogger(l logger.Logger) Option {
	return func(c *RecordCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithColumns sets the raw column names used by normalization.
func WithColumns(cols model.Columns) Option {
	return func(c *RecordCache) {
		c.normalizer = normalize.New(cols)
	}
}
