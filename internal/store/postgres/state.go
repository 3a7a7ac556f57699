package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"mudgraph/internal/store"
	"mudgraph/internal/world"
)

func (c *Client) FileStates(ctx context.Context) (map[string]store.FileState, error) {
	rows, err := c.pool.Query(ctx, `SELECT path, mtime, size, hash FROM file_state`)
	if err != nil {
		return nil, fmt.Errorf("query file states: %w", err)
	}
	defer rows.Close()

	states := make(map[string]store.FileState)
	for rows.Next() {
		var fs store.FileState
		if err := rows.Scan(&fs.Path, &fs.MTime, &fs.Size, &fs.Hash); err != nil {
			return nil, fmt.Errorf("scanning file state: %w", err)
		}
		states[fs.Path] = fs
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating file states: %w", err)
	}
	return states, nil
}

func (c *Client) RecordRun(ctx context.Context, run store.BuildRun) error {
	_, err := c.pool.Exec(ctx, `
INSERT INTO build_run (id, started_at, finished_at, mode, zones, files_scanned, files_changed, entities, edges, errors)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`, run.ID, run.StartedAt, run.FinishedAt, run.Mode, run.Zones,
		run.FilesScanned, run.FilesChanged, run.Entities, run.Edges, run.Errors)
	if err != nil {
		return fmt.Errorf("recording build run: %w", err)
	}
	return nil
}

func (c *Client) ZoneCommands(ctx context.Context, zone int) ([]store.ZoneCommand, error) {
	rows, err := c.pool.Query(ctx, `
SELECT source_path, zone, idx, cmd, prob, if_flag, arg1, arg2, arg3, raw_json::text
FROM zone_cmd WHERE zone = $1 ORDER BY idx
`, zone)
	if err != nil {
		return nil, fmt.Errorf("query zone commands: %w", err)
	}
	defer rows.Close()

	cmds := []store.ZoneCommand{}
	for rows.Next() {
		var zc store.ZoneCommand
		var raw string
		if err := rows.Scan(&zc.SourcePath, &zc.Zone, &zc.Index, &zc.Code, &zc.Prob, &zc.IfFlag, &zc.Arg1, &zc.Arg2, &zc.Arg3, &raw); err != nil {
			return nil, fmt.Errorf("scanning zone command: %w", err)
		}
		if zc.Raw, err = store.DecodeJSON(raw); err != nil {
			return nil, err
		}
		cmds = append(cmds, zc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating zone commands: %w", err)
	}
	return cmds, nil
}

func (c *Client) CommandZones(ctx context.Context) ([]int, error) {
	rows, err := c.pool.Query(ctx, `SELECT DISTINCT zone FROM zone_cmd ORDER BY zone`)
	if err != nil {
		return nil, fmt.Errorf("query command zones: %w", err)
	}
	zones, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, fmt.Errorf("collecting command zones: %w", err)
	}
	return zones, nil
}

func (c *Client) ParseErrors(ctx context.Context) ([]store.ParseError, error) {
	rows, err := c.pool.Query(ctx, `
SELECT source_path, zone, etype, message, detail FROM parse_error ORDER BY source_path, id
`)
	if err != nil {
		return nil, fmt.Errorf("query parse errors: %w", err)
	}
	defer rows.Close()

	errs := []store.ParseError{}
	for rows.Next() {
		var pe store.ParseError
		var kind string
		if err := rows.Scan(&pe.SourcePath, &pe.Zone, &kind, &pe.Message, &pe.Detail); err != nil {
			return nil, fmt.Errorf("scanning parse error: %w", err)
		}
		pe.Kind = world.Kind(kind)
		errs = append(errs, pe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating parse errors: %w", err)
	}
	return errs, nil
}

var statsTables = []string{"entity", "edge", "zone_cmd", "ref", "parse_error", "file_state", "build_run"}

func (c *Client) Stats(ctx context.Context) (*store.Stats, error) {
	st := &store.Stats{Tables: map[string]int64{}, Kinds: map[world.Kind]int64{}}
	for _, table := range statsTables {
		var n int64
		if err := c.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("counting %s: %w", table, err)
		}
		st.Tables[table] = n
	}

	rows, err := c.pool.Query(ctx, `SELECT etype, COUNT(*) FROM entity GROUP BY etype`)
	if err != nil {
		return nil, fmt.Errorf("counting entity kinds: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scanning kind count: %w", err)
		}
		st.Kinds[world.Kind(kind)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating kind counts: %w", err)
	}

	if st.LastRun, err = c.LastRun(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func (c *Client) LastRun(ctx context.Context) (*store.BuildRun, error) {
	var run store.BuildRun
	err := c.pool.QueryRow(ctx, `
SELECT id, started_at, finished_at, mode, zones, files_scanned, files_changed, entities, edges, errors
FROM build_run ORDER BY started_at DESC LIMIT 1
`).Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Mode, &run.Zones,
		&run.FilesScanned, &run.FilesChanged, &run.Entities, &run.Edges, &run.Errors)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading last build run: %w", err)
	}
	return &run, nil
}
