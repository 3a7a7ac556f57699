package postgres

import (
	"context"
	"fmt"

	"mudgraph/internal/store"
	"mudgraph/internal/world"
)

const edgeColumns = `source_path, src_etype, src_vnum, dst_etype, dst_vnum, rel, zone, context_json::text`

func (c *Client) EdgesFrom(ctx context.Context, src store.EntityRef, relation string) ([]store.Edge, error) {
	return c.queryEdges(ctx, `
SELECT `+edgeColumns+` FROM edge
WHERE src_etype = $1 AND src_vnum = $2 AND ($3 = '' OR rel = $3)
ORDER BY id
`, string(src.Kind), src.Vnum, relation)
}

func (c *Client) EdgesTo(ctx context.Context, dst store.EntityRef, relation string) ([]store.Edge, error) {
	return c.queryEdges(ctx, `
SELECT `+edgeColumns+` FROM edge
WHERE dst_etype = $1 AND dst_vnum = $2 AND ($3 = '' OR rel = $3)
ORDER BY id
`, string(dst.Kind), dst.Vnum, relation)
}

func (c *Client) DanglingEdges(ctx context.Context) ([]store.Edge, error) {
	return c.queryEdges(ctx, `
SELECT `+edgeColumns+` FROM edge e
WHERE e.dst_vnum IS NOT NULL
  AND e.rel NOT LIKE 'ref:%'
  AND NOT EXISTS (SELECT 1 FROM entity n WHERE n.etype = e.dst_etype AND n.vnum = e.dst_vnum)
ORDER BY e.source_path, e.id
`)
}

func (c *Client) queryEdges(ctx context.Context, query string, args ...any) ([]store.Edge, error) {
	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()

	edges := []store.Edge{}
	for rows.Next() {
		var e store.Edge
		var srcKind, dstKind, ctxJSON string
		var dst *int
		if err := rows.Scan(&e.SourcePath, &srcKind, &e.Src.Vnum, &dstKind, &dst, &e.Relation, &e.Zone, &ctxJSON); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		e.Src.Kind = world.Kind(srcKind)
		e.Dst = store.EntityRef{Kind: world.Kind(dstKind), Vnum: store.NoVnum}
		if dst != nil {
			e.Dst.Vnum = *dst
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
