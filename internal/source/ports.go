// Package source defines how raw sales tables are read from storage.
//
// Implementations live in sub-packages, one per backend. Every loader
// reports a missing source with core.ErrSourceNotFound and a source that
// exists but cannot be read with core.ErrSourceUnreadable.
package source

import (
	"context"

	"salesdash/internal/core"
)

// Loader reads a raw, un-normalized table.
type Loader interface {
	Load(ctx context.Context) (*core.Table, error)
	// Identity names the dataset; loaders with equal identities read the
	// same data.
	Identity() string
}
