// Package dataset caches prepared datasets per source.
//
// A Store loads a source once, prepares it and serves the prepared table to
// every report until the entry is invalidated or reloaded. Concurrent misses
// for the same source share one load. Failed loads are never cached.
package dataset

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"salesdash/internal/cache"
	applog "salesdash/internal/log"
	"salesdash/internal/pipeline"
	"salesdash/internal/source"
)

// Dataset is one prepared source. It is shared and must not be modified.
type Dataset struct {
	Identity string
	Prepared pipeline.Prepared
	RawRows  int
	LoadedAt time.Time
}

type Store struct {
	cache  cache.Cache[*Dataset]
	opts   pipeline.Options
	group  singleflight.Group
	logger *applog.Logger
	slog   *applog.StructuredLogger
	now    func() time.Time
}

// New returns a store backed by c. Options apply to every dataset the
// store prepares.
func New(c cache.Cache[*Dataset], opts pipeline.Options, logger *applog.Logger) *Store {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentDataset)
	return &Store{
		cache:  c,
		opts:   opts.WithDefaults(),
		logger: logger,
		slog:   applog.NewStructuredLogger(logger),
		now:    time.Now,
	}
}

// Options returns the preparation options in effect.
func (s *Store) Options() pipeline.Options {
	return s.opts
}

// Get returns the prepared dataset for l, loading it on a miss.
func (s *Store) Get(ctx context.Context, l source.Loader) (*Dataset, error) {
	key := l.Identity()
	if ds, ok := s.cache.Get(key); ok {
		return ds, nil
	}
	// The shared load outlives the caller that started it; each caller
	// stops waiting when its own context ends.
	ch := s.group.DoChan(key, func() (any, error) {
		if ds, ok := s.cache.Get(key); ok {
			return ds, nil
		}
		ds, err := s.load(context.WithoutCancel(ctx), l)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, ds)
		return ds, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.DebugContext(ctx, "Shared in-flight dataset load", applog.FieldSource, key)
		}
		return res.Val.(*Dataset), nil
	}
}

// Invalidate drops the cached dataset of l. The next Get reloads it.
func (s *Store) Invalidate(l source.Loader) {
	key := l.Identity()
	s.group.Forget(key)
	s.cache.Delete(key)
	s.logger.Info("Dataset invalidated", applog.FieldSource, key, applog.FieldOperation, applog.OpInvalidate)
}

// Reload invalidates l and loads it again. On failure the cache stays
// empty for l so that no stale data outlives an explicit reload.
func (s *Store) Reload(ctx context.Context, l source.Loader) (*Dataset, error) {
	s.Invalidate(l)
	return s.Get(ctx, l)
}

func (s *Store) load(ctx context.Context, l source.Loader) (*Dataset, error) {
	start := s.now()
	raw, err := l.Load(ctx)
	if err != nil {
		s.slog.LogError(ctx, "Dataset load failed", err, applog.ComponentDataset, applog.OpLoad,
			applog.NewFields().WithSource(l.Identity()))
		return nil, fmt.Errorf("load %s: %w", l.Identity(), err)
	}
	p := pipeline.Prepare(raw, s.opts)
	ds := &Dataset{
		Identity: l.Identity(),
		Prepared: p,
		RawRows:  raw.Len(),
		LoadedAt: s.now(),
	}
	s.slog.LogDatasetPrepared(ctx, ds.Identity,
		applog.NewFields().WithPreparation(p.Table.Len(), p.DuplicatesDropped,
			p.Date.Source, p.Date.Nulls, string(p.Sales.Strategy), p.Sales.Source, p.Sales.Defaulted),
		ds.LoadedAt.Sub(start).Milliseconds())
	for _, n := range p.Notices {
		s.logger.WarnContext(ctx, n.Message, applog.FieldSource, ds.Identity, "notice", string(n.Kind), "field", n.Field)
	}
	return ds, nil
}
