package sqlite

import (
	"context"
	"fmt"
)

// RemoveMissingFiles deletes every row owned by a recorded file that is no
// longer in existing, along with its file state. It returns the number of
// files removed.
func (c *Client) RemoveMissingFiles(ctx context.Context, existing []string) (int64, error) {
	keep := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		keep[p] = struct{}{}
	}

	states, err := c.FileStates(ctx)
	if err != nil {
		return 0, err
	}
	var stale []string
	for path := range states {
		if _, ok := keep[path]; !ok {
			stale = append(stale, path)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	w, err := c.Begin(ctx)
	if err != nil {
		return 0, err
	}
	t := w.(*tx)
	defer t.Rollback()

	for _, path := range stale {
		if err := t.DeleteBySource(ctx, path); err != nil {
			return 0, fmt.Errorf("removing stale file %s: %w", path, err)
		}
		if err := t.exec(ctx, "DELETE FROM file_state WHERE path = ?", path); err != nil {
			return 0, fmt.Errorf("removing file state for %s: %w", path, err)
		}
	}
	if err := t.Commit(); err != nil {
		return 0, err
	}
	return int64(len(stale)), nil
}
