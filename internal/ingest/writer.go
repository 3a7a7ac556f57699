package ingest

import (
	"context"
	"fmt"

	"mudgraph/internal/store"
)

// writer is the single committing path into the store. Rows are buffered
// in one open transaction, committed once batchSize rows are pending and
// at every zone boundary.
type writer struct {
	db        Store
	tx        store.Tx
	pending   int
	batchSize int
}

func newWriter(db Store, batchSize int) *writer {
	return &writer{db: db, batchSize: batchSize}
}

func (w *writer) begin(ctx context.Context) error {
	if w.tx != nil {
		return nil
	}
	tx, err := w.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	w.tx = tx
	return nil
}

// write replaces everything res's file owns. Unchanged files only refresh
// their fingerprint when it went stale.
func (w *writer) write(ctx context.Context, res *fileResult) error {
	if !res.changed && !res.touch {
		return nil
	}
	if err := w.begin(ctx); err != nil {
		return err
	}
	if err := w.apply(ctx, res); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	if w.pending >= w.batchSize {
		return w.commit()
	}
	return nil
}

func (w *writer) apply(ctx context.Context, res *fileResult) error {
	if res.changed {
		if err := w.tx.DeleteBySource(ctx, res.src.RelPath); err != nil {
			return err
		}
		if rows := res.rows; rows != nil {
			if err := w.tx.UpsertEntity(ctx, rows.Entity); err != nil {
				return err
			}
			if err := w.tx.InsertEdges(ctx, rows.Edges); err != nil {
				return err
			}
			if err := w.tx.InsertZoneCommands(ctx, rows.ZoneCommands); err != nil {
				return err
			}
			if err := w.tx.InsertRefs(ctx, rows.Refs); err != nil {
				return err
			}
			w.pending += rows.Len()
		}
		if res.parseErr != nil {
			if err := w.tx.InsertParseError(ctx, *res.parseErr); err != nil {
				return err
			}
			w.pending++
		}
	}
	if res.state.Path != "" {
		if err := w.tx.UpsertFileState(ctx, res.state); err != nil {
			return err
		}
		w.pending++
	}
	return nil
}

func (w *writer) commit() error {
	if w.tx == nil {
		return nil
	}
	tx := w.tx
	w.tx = nil
	w.pending = 0
	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	return nil
}

func (w *writer) rollback() {
	if w.tx == nil {
		return
	}
	w.tx.Rollback()
	w.tx = nil
	w.pending = 0
}
