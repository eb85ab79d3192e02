// Package memory serves a fixed in-process table, for tests and demos.
package memory

import (
	"context"
	"sync"

	"salesdash/internal/core"
	"salesdash/internal/source"
)

var _ source.Loader = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	id    string
	table *core.Table
	err   error
	loads int
}

func New(id string, t *core.Table) *Store {
	return &Store{id: "memory:" + id, table: t}
}

// Set replaces the table returned by later loads.
func (s *Store) Set(t *core.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = t
	s.err = nil
}

// Fail makes later loads return err.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Loads returns how many times Load was called.
func (s *Store) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

func (s *Store) Identity() string {
	return s.id
}

func (s *Store) Load(ctx context.Context) (*core.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	if s.table == nil {
		return nil, core.SourceNotFound(s.id, nil)
	}
	return s.table, nil
}
