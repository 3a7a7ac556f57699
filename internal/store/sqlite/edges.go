package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"mudgraph/internal/store"
	"mudgraph/internal/world"
)

const edgeColumns = `source_path, src_etype, src_vnum, dst_etype, dst_vnum, rel, zone, context_json`

func (c *Client) EdgesFrom(ctx context.Context, src store.EntityRef, relation string) ([]store.Edge, error) {
	return c.queryEdges(ctx, `
	SELECT `+edgeColumns+` FROM edge
	WHERE src_etype = ? AND src_vnum = ?
	  AND (? = '' OR rel = ?)
	ORDER BY id
	`, string(src.Kind), src.Vnum, relation, relation)
}

func (c *Client) EdgesTo(ctx context.Context, dst store.EntityRef, relation string) ([]store.Edge, error) {
	return c.queryEdges(ctx, `
	SELECT `+edgeColumns+` FROM edge
	WHERE dst_etype = ? AND dst_vnum = ?
	  AND (? = '' OR rel = ?)
	ORDER BY id
	`, string(dst.Kind), dst.Vnum, relation, relation)
}

// DanglingEdges lists structural edges whose destination entity is not in
// the index. Advisory ref edges and NULL destinations are excluded.
func (c *Client) DanglingEdges(ctx context.Context) ([]store.Edge, error) {
	return c.queryEdges(ctx, `
	SELECT `+edgeColumns+` FROM edge e
	WHERE e.dst_vnum IS NOT NULL
	  AND e.rel NOT LIKE 'ref:%'
	  AND NOT EXISTS (
		  SELECT 1 FROM entity n WHERE n.etype = e.dst_etype AND n.vnum = e.dst_vnum
	  )
	ORDER BY e.source_path, e.id
	`)
}

func (c *Client) queryEdges(ctx context.Context, query string, args ...any) ([]store.Edge, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()

	edges := []store.Edge{}
	for rows.Next() {
		var e store.Edge
		var srcKind, dstKind, ctxJSON string
		var dst sql.NullInt64
		if err := rows.Scan(&e.SourcePath, &srcKind, &e.Src.Vnum, &dstKind, &dst, &e.Relation, &e.Zone, &ctxJSON); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		e.Src.Kind = world.Kind(srcKind)
		e.Dst.Kind = world.Kind(dstKind)
		e.Dst.Vnum = store.NoVnum
		if dst.Valid {
			e.Dst.Vnum = int(dst.Int64)
		}
		if e.Context, err = store.DecodeJSON(ctxJSON); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating edges: %w", err)
	}
	return edges, nil
}
