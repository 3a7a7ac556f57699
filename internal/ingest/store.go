package ingest

import (
	"context"

	"mudgraph/internal/store"
)

// Store is the part of the index the build pipeline writes through.
type Store interface {
	EnsureSchema(ctx context.Context) error
	Reset(ctx context.Context) error
	FileStates(ctx context.Context) (map[string]store.FileState, error)
	Begin(ctx context.Context) (store.Tx, error)
	RemoveMissingFiles(ctx context.Context, existing []string) (int64, error)
	RecordRun(ctx context.Context, run store.BuildRun) error
}
