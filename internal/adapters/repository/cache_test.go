package repository

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/podium/internal/adapters/source"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func sampleRows() []model.RawRow {
	return []model.RawRow{
		{"medal_date": "2024-07-27", "medal_type": "Gold Medal", "country": "France", "discipline": "Judo"},
		{"medal_date": "2024-07-28", "medal_type": "Silver Medal", "country": "Japan", "discipline": "Judo"},
		{"medal_date": "not a date", "medal_type": "Gold Medal", "country": "Japan", "discipline": "Judo"},
	}
}

// countingSource returns rows and counts fetches. When gate is non-nil each
// fetch signals entered and then waits for gate to close.
type countingSource struct {
	calls   atomic.Int32
	err     atomic.Pointer[error]
	gate    chan struct{}
	entered chan struct{}
}

func (s *countingSource) Fetch(ctx context.Context) ([]model.RawRow, error) {
	s.calls.Add(1)
	if s.gate != nil {
		if s.entered != nil {
			select {
			case s.entered <- struct{}{}:
			default:
			}
		}
		<-s.gate
	}
	if p := s.err.Load(); p != nil {
		return nil, *p
	}
	return sampleRows(), nil
}

func (s *countingSource) Name() string { return "counting" }

func (s *countingSource) failWith(err error) {
	if err == nil {
		s.err.Store(nil)
		return
	}
	s.err.Store(&err)
}

func TestRecordCache_LoadOnce(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{}
	cache := NewRecordCache(src)

	if _, ok := cache.Info(); ok {
		t.Fatal("expected empty cache before first load")
	}

	first, err := cache.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 records, got %d", len(first))
	}

	second, err := cache.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if &first[0] != &second[0] {
		t.Error("expected the identical cached slice on repeat load")
	}
	if calls := src.calls.Load(); calls != 1 {
		t.Errorf("expected 1 fetch, got %d", calls)
	}

	info, ok := cache.Info()
	if !ok {
		t.Fatal("expected info after load")
	}
	if info.LoadID == "" {
		t.Error("expected a load id")
	}
	if info.Records != 2 || info.Dropped != 1 {
		t.Errorf("expected 2 records and 1 dropped, got %d and %d", info.Records, info.Dropped)
	}
	if info.Source != "counting" {
		t.Errorf("expected source name counting, got %q", info.Source)
	}
}

func TestRecordCache_ClearReloads(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{}
	cache := NewRecordCache(src)

	if _, err := cache.Load(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before, _ := cache.Info()

	cache.Clear()
	if _, ok := cache.Info(); ok {
		t.Error("expected empty cache after clear")
	}

	if _, err := cache.Load(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after, _ := cache.Info()

	if calls := src.calls.Load(); calls != 2 {
		t.Errorf("expected 2 fetches, got %d", calls)
	}
	if before.LoadID == after.LoadID {
		t.Error("expected a new load id after clear")
	}
}

func TestRecordCache_LoadInfoPairsRecordsWithLoad(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	cache := NewRecordCache(src)

	type loaded struct {
		records []model.MedalRecord
		info    Info
		err     error
	}
	done := make(chan loaded, 1)
	go func() {
		records, info, err := cache.LoadInfo(ctx)
		done <- loaded{records, info, err}
	}()

	<-src.entered
	cache.Clear()
	close(src.gate)
	got := <-done

	if got.err != nil {
		t.Fatalf("unexpected error: %v", got.err)
	}
	if got.info.LoadID == "" || got.info.Records != len(got.records) {
		t.Errorf("info %+v does not describe the %d returned records", got.info, len(got.records))
	}
	if _, ok := cache.Info(); ok {
		t.Error("expected the cleared cache to stay empty")
	}

	records, info, err := cache.LoadInfo(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	current, ok := cache.Info()
	if !ok || current.LoadID != info.LoadID {
		t.Errorf("expected load id %q, cache reports %q", info.LoadID, current.LoadID)
	}
	if info.LoadID == got.info.LoadID || info.Records != len(records) {
		t.Errorf("expected a fresh load describing its records, got %+v", info)
	}
}

func TestRecordCache_ConcurrentLoadsShareFetch(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	cache := NewRecordCache(src)

	const callers = 16
	var wg sync.WaitGroup
	results := make([][]model.MedalRecord, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Load(ctx)
		}(i)
	}

	<-src.entered
	close(src.gate)
	wg.Wait()

	if calls := src.calls.Load(); calls != 1 {
		t.Errorf("expected 1 fetch, got %d", calls)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: unexpected error: %v", i, errs[i])
		}
		if &results[i][0] != &results[0][0] {
			t.Errorf("caller %d received a different slice", i)
		}
	}
}

func TestRecordCache_StickyError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk on fire")
	src := &countingSource{}
	src.failWith(boom)
	cache := NewRecordCache(src)

	for i := 0; i < 3; i++ {
		_, err := cache.Load(ctx)
		if !errors.Is(err, ErrLoad) {
			t.Fatalf("attempt %d: expected ErrLoad, got %v", i, err)
		}
		if !errors.Is(err, boom) {
			t.Fatalf("attempt %d: expected wrapped cause, got %v", i, err)
		}
	}
	if calls := src.calls.Load(); calls != 1 {
		t.Errorf("expected failure to be cached after 1 fetch, got %d", calls)
	}
	if _, ok := cache.Info(); ok {
		t.Error("expected no info after a failed load")
	}

	src.failWith(nil)
	cache.Clear()

	records, err := cache.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error after clear: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
}

func TestRecordCache_CallerCancellation(t *testing.T) {
	src := &countingSource{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	cache := NewRecordCache(src)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := cache.Load(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	close(src.gate)
	records, err := cache.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
	if calls := src.calls.Load(); calls != 1 {
		t.Errorf("expected the abandoned fetch to be reused, got %d fetches", calls)
	}
}

func TestRecordCache_ClearDuringLoad(t *testing.T) {
	src := &countingSource{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	cache := NewRecordCache(src)

	done := make(chan error, 1)
	go func() {
		_, err := cache.Load(context.Background())
		done <- err
	}()

	<-src.entered
	cache.Clear()
	close(src.gate)

	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cache.Info(); ok {
		t.Error("expected a load in flight during clear not to repopulate the cache")
	}

	if _, err := cache.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls := src.calls.Load(); calls != 2 {
		t.Errorf("expected 2 fetches, got %d", calls)
	}
}

func TestRecordCache_FuncSource(t *testing.T) {
	cols := model.Columns{Date: "day", Medal: "medal", Country: "noc", Category: "sport"}
	src := source.Func(func(context.Context) ([]model.RawRow, error) {
		return []model.RawRow{{"day": "2024-08-01", "medal": "Bronze Medal", "noc": "Kenya", "sport": "Athletics"}}, nil
	})
	cache := NewRecordCache(src, WithColumns(cols), WithLogger(logger.Named("test")))

	records, err := cache.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].Country != "Kenya" || records[0].Category != "Athletics" {
		t.Errorf("unexpected records: %+v", records)
	}
}
