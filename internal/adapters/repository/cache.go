package repository

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/okian/podium/internal/adapters/source"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/normalize"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// result is one completed load, successful or not.
type result struct {
	records []model.MedalRecord
	info    Info
	err     error
}

// RecordCache is a single-slot cache of normalized records.
//
// The slot is empty until the first Load. Concurrent first loads share one
// fetch. A failed load is kept and returned to every caller until Clear.
// Clear bumps a generation counter so a fetch that was in flight when the
// cache was cleared never repopulates it.
type RecordCache struct {
	src        source.Source
	normalizer *normalize.Normalizer
	logger     logger.Logger

	group singleflight.Group

	mu    sync.Mutex
	gen   uint64
	state *result
}

// NewRecordCache creates an empty cache over src.
func NewRecordCache(src source.Source, opts ...Option) *RecordCache {
	c := &RecordCache{
		src:        src,
		normalizer: normalize.New(model.DefaultColumns()),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("repository")
	}
	return c
}

// Load returns the cached records, fetching and normalizing the source on
// first use. A caller whose ctx ends stops waiting; the shared fetch keeps
// running for the others.
func (c *RecordCache) Load(ctx context.Context) ([]model.MedalRecord, error) {
	records, _, err := c.LoadInfo(ctx)
	return records, err
}

// LoadInfo is Load that also returns the Info of the load the records came from.
func (c *RecordCache) LoadInfo(ctx context.Context) ([]model.MedalRecord, Info, error) {
	c.mu.Lock()
	if st := c.state; st != nil {
		c.mu.Unlock()
		if st.err == nil {
			metrics.RecordCacheHit()
		}
		return st.records, st.info, st.err
	}
	gen := c.gen
	c.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		return c.fill(detached, gen), nil
	})

	select {
	case <-ctx.Done():
		return nil, Info{}, ctx.Err()
	case res := <-ch:
		st := res.Val.(*result)
		return st.records, st.info, st.err
	}
}

// fill fetches the source for generation gen and stores the outcome if the
// cache was not cleared meanwhile.
func (c *RecordCache) fill(ctx context.Context, gen uint64) *result {
	c.mu.Lock()
	if c.gen == gen && c.state != nil {
		st := c.state
		c.mu.Unlock()
		return st
	}
	c.mu.Unlock()

	start := time.Now()
	st := &result{}
	rows, err := c.src.Fetch(ctx)
	elapsed := time.Since(start)
	metrics.RecordLoadDuration(float64(elapsed.Microseconds()) / 1000)

	if err != nil {
		st.err = fmt.Errorf("%w from %s: %w", ErrLoad, c.src.Name(), err)
		metrics.RecordCacheLoad("error")
		c.logger.Error(ctx, "medal records load failed",
			logger.String("source", c.src.Name()),
			logger.Duration("duration", elapsed),
			logger.Error(err),
		)
	} else {
		records, dropped := c.normalizer.Records(rows)
		st.records = records
		st.info = Info{
			LoadID:   uuid.NewString(),
			Source:   c.src.Name(),
			LoadedAt: time.Now().UTC(),
			Records:  len(records),
			Dropped:  dropped,
			Duration: elapsed,
		}
		metrics.RecordCacheLoad("success")
		metrics.RecordRowsDropped(dropped)
		metrics.UpdateRecordsLoaded(len(records))
		metrics.UpdateLastLoadTimestamp(float64(st.info.LoadedAt.Unix()))
		c.logger.Info(ctx, "medal records loaded",
			logger.String("load_id", st.info.LoadID),
			logger.String("source", st.info.Source),
			logger.Int("records", len(records)),
			logger.Int("dropped", dropped),
			logger.Duration("duration", elapsed),
		)
	}

	c.mu.Lock()
	if c.gen == gen {
		c.state = st
	}
	c.mu.Unlock()
	return st
}

// Clear empties the cache. The next Load fetches the source again.
func (c *RecordCache) Clear() {
	c.mu.Lock()
	c.state = nil
	c.gen++
	c.mu.Unlock()
	metrics.RecordCacheClear()
	metrics.UpdateRecordsLoaded(0)
}

// Info reports the loaded dataset. It is false while empty or after a failed load.
func (c *RecordCache) Info() (Info, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == nil || c.state.err != nil {
		return Info{}, false
	}
	return c.state.info, true
}
