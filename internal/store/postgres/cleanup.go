package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// RemoveMissingFiles drops file states not in existing and every row those
// files owned.
func (c *Client) RemoveMissingFiles(ctx context.Context, existing []string) (int64, error) {
	t, err := c.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer t.Rollback(ctx)

	rows, err := t.Query(ctx, `DELETE FROM file_state WHERE NOT (path = ANY($1)) RETURNING path`, existing)
	if err != nil {
		return 0, fmt.Errorf("removing stale file states: %w", err)
	}
	stale, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return 0, fmt.Errorf("collecting stale paths: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, st := range sourceTables {
		batch.Queue("DELETE FROM "+st.table+" WHERE "+st.column+" = ANY($1)", stale)
	}
	w := &tx{tx: t}
	if err := w.send(ctx, batch); err != nil {
		return 0, fmt.Errorf("removing rows of stale files: %w", err)
	}
	if err := t.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing prune: %w", err)
	}
	return int64(len(stale)), nil
}
