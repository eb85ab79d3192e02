package dataset

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"salesdash/internal/cache"
	"salesdash/internal/core"
	applog "salesdash/internal/log"
	"salesdash/internal/pipeline"
	"salesdash/internal/source/memory"
)

func newStore() *Store {
	logger := applog.New(applog.Config{Output: io.Discard})
	return New(cache.NewLRU[*Dataset](4, 0), pipeline.DefaultOptions(), logger)
}

func orders(sales ...string) *core.Table {
	recs := make([][]string, len(sales))
	for i, s := range sales {
		recs[i] = []string{"c" + s, s}
	}
	return core.FromRecords([]string{"Customer_ID", "Sales"}, recs)
}

func TestGetCachesPreparedDataset(t *testing.T) {
	ctx := context.Background()
	src := memory.New("orders", orders("1", "2", "2"))
	s := newStore()

	ds, err := s.Get(ctx, src)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ds.RawRows != 3 || ds.Prepared.Table.Len() != 2 || ds.Prepared.DuplicatesDropped != 1 {
		t.Fatalf("unexpected dataset %+v", ds)
	}
	if !ds.Prepared.Table.Has("customer_id") {
		t.Fatalf("dataset was not prepared")
	}

	again, err := s.Get(ctx, src)
	if err != nil || again != ds {
		t.Fatalf("expected the cached dataset")
	}
	if src.Loads() != 1 {
		t.Fatalf("loads = %d, want 1", src.Loads())
	}
}

func TestConcurrentGetsShareOneLoad(t *testing.T) {
	ctx := context.Background()
	src := memory.New("orders", orders("1"))
	s := newStore()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Get(ctx, src); err != nil {
				t.Errorf("Get: %v", err)
			}
		}()
	}
	wg.Wait()
	if src.Loads() != 1 {
		t.Fatalf("loads = %d, want 1", src.Loads())
	}
}

type gatedLoader struct {
	started chan struct{}
	release chan struct{}
	table   *core.Table
	once    sync.Once
}

func (g *gatedLoader) Identity() string { return "gated" }

func (g *gatedLoader) Load(ctx context.Context) (*core.Table, error) {
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
		return g.table, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestCanceledCallerDoesNotFailSharedLoad(t *testing.T) {
	src := &gatedLoader{
		started: make(chan struct{}),
		release: make(chan struct{}),
		table:   orders("1", "2"),
	}
	s := newStore()

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := s.Get(first, src)
		firstErr <- err
	}()
	<-src.started

	second := make(chan error, 1)
	go func() {
		ds, err := s.Get(context.Background(), src)
		if err == nil && ds.RawRows != 2 {
			err = errors.New("unexpected dataset")
		}
		second <- err
	}()

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("first caller: %v", err)
	}
	close(src.release)
	if err := <-second; err != nil {
		t.Fatalf("second caller: %v", err)
	}
	if _, ok := s.cache.Get("gated"); !ok {
		t.Fatal("shared load was not cached")
	}
}

func TestReloadPicksUpNewData(t *testing.T) {
	ctx := context.Background()
	src := memory.New("orders", orders("1"))
	s := newStore()

	if _, err := s.Get(ctx, src); err != nil {
		t.Fatal(err)
	}
	src.Set(orders("1", "5"))

	ds, _ := s.Get(ctx, src)
	if ds.Prepared.Table.Len() != 1 {
		t.Fatalf("cache should serve the old data until reload")
	}

	ds, err := s.Reload(ctx, src)
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if ds.Prepared.Table.Len() != 2 {
		t.Fatalf("reload did not pick up new data")
	}
}

func TestErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	src := memory.New("orders", orders("1"))
	src.Fail(core.SourceUnreadable("orders", errors.New("locked")))
	s := newStore()

	if _, err := s.Get(ctx, src); !errors.Is(err, core.ErrSourceUnreadable) {
		t.Fatalf("expected unreadable, got %v", err)
	}
	src.Set(orders("1"))
	if _, err := s.Get(ctx, src); err != nil {
		t.Fatalf("failed load was cached: %v", err)
	}
	if src.Loads() != 2 {
		t.Fatalf("loads = %d, want 2", src.Loads())
	}
}

func TestReloadFailureLeavesCacheEmpty(t *testing.T) {
	ctx := context.Background()
	src := memory.New("orders", orders("1"))
	s := newStore()
	if _, err := s.Get(ctx, src); err != nil {
		t.Fatal(err)
	}
	src.Set(nil)
	if _, err := s.Reload(ctx, src); !errors.Is(err, core.ErrSourceNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := s.Get(ctx, src); !errors.Is(err, core.ErrSourceNotFound) {
		t.Fatalf("stale data served after failed reload: %v", err)
	}
}
