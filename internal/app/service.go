// Package service provides the medal dashboard service that backs the HTTP API.
//
// The service owns the record cache and turns the cached records into the
// dashboard views. Aggregation itself lives in the domain packages.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/adapters/snapshot"
	"github.com/okian/podium/internal/adapters/source"
	"github.com/okian/podium/internal/domain/aggregate"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// ErrNotStarted is returned by view methods before Start.
var ErrNotStarted = errors.New("service not started")

// View names used for metrics and snapshots.
const (
	ViewCountries   = "countries"
	ViewTotals      = "totals"
	ViewDaily       = "daily"
	ViewDisciplines = "disciplines"
)

// Defaults holds the dashboard's presentation parameters.
type Defaults struct {
	BarTopN       int    `json:"bar_top_n"`
	StreamTopN    int    `json:"stream_top_n"`
	WaffleCountry string `json:"waffle_country"`
	WaffleTopK    int    `json:"waffle_top_k"`
}

// DefaultViews returns the stock dashboard parameters.
func DefaultViews() Defaults {
	return Defaults{
		BarTopN:       12,
		StreamTopN:    8,
		WaffleCountry: "United States",
		WaffleTopK:    12,
	}
}

// SnapshotWriter persists computed views.
type SnapshotWriter interface {
	Save(ctx context.Context, loadID string, views []snapshot.View) error
}

// Service implements the API dependencies for the medal dashboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	source    source.Source
	cache     repository.Store
	snapshots SnapshotWriter

	// Configuration
	columns  model.Columns
	defaults Defaults
	warmup   bool

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource sets the dataset source. A record cache over it is created on Start.
func WithSource(src source.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithCache sets the record store directly, overriding WithSource.
func WithCache(c repository.Store) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithColumns sets the raw column names used when building the cache.
func WithColumns(cols model.Columns) Option {
	return func(s *Service) {
		s.columns = cols
	}
}

// WithSnapshotStore enables writing the default views after every Reload.
func WithSnapshotStore(w SnapshotWriter) Option {
	return func(s *Service) {
		s.snapshots = w
	}
}

// WithDefaults sets the presentation parameters. Zero fields keep their defaults.
func WithDefaults(d Defaults) Option {
	return func(s *Service) {
		if d.BarTopN > 0 {
			s.defaults.BarTopN = d.BarTopN
		}
		if d.StreamTopN > 0 {
			s.defaults.StreamTopN = d.StreamTopN
		}
		if d.WaffleCountry != "" {
			s.defaults.WaffleCountry = d.WaffleCountry
		}
		if d.WaffleTopK > 0 {
			s.defaults.WaffleTopK = d.WaffleTopK
		}
	}
}

// WithWarmup makes Start load the dataset before returning.
func WithWarmup(enabled bool) Option {
	return func(s *Service) {
		s.warmup = enabled
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		columns:  model.DefaultColumns(),
		defaults: DefaultViews(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start wires the record cache and, with warmup enabled, loads the dataset.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.cache == nil {
		if s.source == nil {
			return fmt.Errorf("%w: no source or cache configured", ErrNotStarted)
		}
		s.cache = repository.NewRecordCache(s.source,
			repository.WithColumns(s.columns),
			repository.WithLogger(s.logger.Named("repository")),
		)
	}

	s.logger.Info(ctx, "starting medal service...")

	if s.warmup {
		if _, err := s.cache.Load(ctx); err != nil {
			return err
		}
	}

	s.started = true
	s.logger.Info(ctx, "medal service started",
		logger.Bool("warmup", s.warmup),
		logger.Int("barTopN", s.defaults.BarTopN),
		logger.Int("streamTopN", s.defaults.StreamTopN),
		logger.String("waffleCountry", s.defaults.WaffleCountry),
		logger.Int("waffleTopK", s.defaults.WaffleTopK),
	)
	return nil
}

// Stop releases the source if it holds resources.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping medal service...")

	if c, ok := s.source.(io.Closer); ok {
		_ = c.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "medal service stopped")
}

// Defaults returns the presentation parameters.
func (s *Service) Defaults() Defaults {
	return s.defaults
}

func (s *Service) records(ctx context.Context) ([]model.MedalRecord, error) {
	s.mu.RLock()
	cache, started := s.cache, s.started
	s.mu.RUnlock()

	if !started {
		return nil, ErrNotStarted
	}
	return cache.Load(ctx)
}

func observe(view string, start time.Time) {
	metrics.RecordView(view, float64(time.Since(start).Microseconds())/1000)
}

// CountryMedals returns the topN countries by medal total, ordered by
// diversity ratio. desc orders from most to least diverse.
func (s *Service) CountryMedals(ctx context.Context, topN int, desc bool) ([]model.CountryMedalSummary, error) {
	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}
	defer observe(ViewCountries, time.Now())
	return aggregate.SummarizeByCountry(records, topN, desc), nil
}

// TopCountries returns the n countries with the most rows.
func (s *Service) TopCountries(ctx context.Context, n int) ([]model.CountryTotal, error) {
	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}
	defer observe(ViewTotals, time.Now())
	return aggregate.RankCountriesByTotal(records, n), nil
}

// DailyMatrix returns the day by country matrix for the n countries with the
// most rows.
func (s *Service) DailyMatrix(ctx context.Context, n int) (model.DailyMatrix, error) {
	records, err := s.records(ctx)
	if err != nil {
		return model.DailyMatrix{}, err
	}
	defer observe(ViewDaily, time.Now())
	return dailyMatrix(records, n), nil
}

func dailyMatrix(records []model.MedalRecord, n int) model.DailyMatrix {
	countries := aggregate.Countries(aggregate.RankCountriesByTotal(records, n))
	daily := aggregate.BuildDailyCounts(records, countries)
	return aggregate.BuildDailyMatrix(daily.Days, daily.PerCountryDaily, countries)
}

// CategoryBreakdown returns the topK disciplines of country plus an Other bucket.
func (s *Service) CategoryBreakdown(ctx context.Context, country string, topK int) ([]model.CategoryBreakdownEntry, error) {
	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}
	defer observe(ViewDisciplines, time.Now())
	return aggregate.BreakdownByCategory(records, country, topK), nil
}

// Reload clears the cache and loads the dataset again. When a snapshot store
// is configured the default views are written for the new load.
func (s *Service) Reload(ctx context.Context) (repository.Info, error) {
	s.mu.RLock()
	cache, started := s.cache, s.started
	s.mu.RUnlock()
	if !started {
		return repository.Info{}, ErrNotStarted
	}

	cache.Clear()
	records, info, err := cache.LoadInfo(ctx)
	if err != nil {
		return repository.Info{}, err
	}

	if s.snapshots != nil {
		s.writeSnapshots(ctx, info.LoadID, records)
	}
	return info, nil
}

func (s *Service) writeSnapshots(ctx context.Context, loadID string, records []model.MedalRecord) {
	d := s.defaults
	views := []snapshot.View{
		{Name: ViewCountries, Payload: aggregate.SummarizeByCountry(records, d.BarTopN, true)},
		{Name: ViewDaily, Payload: dailyMatrix(records, d.StreamTopN).View()},
		{Name: ViewDisciplines, Payload: aggregate.BreakdownByCategory(records, d.WaffleCountry, d.WaffleTopK)},
	}
	if err := s.snapshots.Save(ctx, loadID, views); err != nil {
		s.logger.Warn(ctx, "failed to write view snapshots",
			logger.String("loadID", loadID),
			logger.Error(err),
		)
		return
	}
	s.logger.Debug(ctx, "view snapshots written",
		logger.String("loadID", loadID),
		logger.Int("views", len(views)),
	)
}

// ClearCache empties the record cache.
func (s *Service) ClearCache() {
	s.mu.RLock()
	cache := s.cache
	s.mu.RUnlock()
	if cache != nil {
		cache.Clear()
	}
}

// Info reports the loaded dataset, if any.
func (s *Service) Info() (repository.Info, bool) {
	s.mu.RLock()
	cache := s.cache
	s.mu.RUnlock()
	if cache == nil {
		return repository.Info{}, false
	}
	return cache.Info()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":  s.started,
		"warmup":   s.warmup,
		"defaults": s.defaults,
		"loaded":   false,
	}
	if s.source != nil {
		stats["source"] = s.source.Name()
	}

	if s.cache != nil {
		if info, ok := s.cache.Info(); ok {
			stats["loaded"] = true
			stats["loadID"] = info.LoadID
			stats["loadedAt"] = info.LoadedAt
			stats["records"] = info.Records
			stats["dropped"] = info.Dropped
			stats["source"] = info.Source
		}
	}

	return stats
}
