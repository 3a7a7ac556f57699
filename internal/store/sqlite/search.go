package sqlite

import (
	"context"
	"fmt"
	"strings"

	"mudgraph/internal/store"
	"mudgraph/internal/world"
)

const searchLimit = 50

// Search ranks entities by name, keywords and short description. Name hits
// weigh most.
func (c *Client) Search(ctx context.Context, query string, kind world.Kind) ([]store.SearchResult, error) {
	expr := matchExpr(store.ParseSearch(query))
	if expr == "" {
		return nil, fmt.Errorf("search %q has no terms", query)
	}

	rows, err := c.db.QueryContext(ctx, `
	SELECT e.etype, e.vnum, e.zone, e.name,
		   -bm25(entity_fts, 10.0, 4.0, 2.0) AS score,
		   snippet(entity_fts, -1, '**', '**', '...', 12) AS snippet
	FROM entity_fts
	JOIN entity e ON entity_fts.rowid = e.rowid
	WHERE entity_fts MATCH ?
	  AND (? = '' OR e.etype = ?)
	ORDER BY score DESC, e.etype ASC, e.vnum ASC
	LIMIT ?
	`, expr, string(kind), string(kind), searchLimit)
	if err != nil {
		return nil, fmt.Errorf("searching entities: %w", err)
	}
	defer rows.Close()

	results := []store.SearchResult{}
	for rows.Next() {
		var r store.SearchResult
		var k string
		if err := rows.Scan(&k, &r.Vnum, &r.Zone, &r.Name, &r.Score, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		r.Kind = world.Kind(k)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return results, nil
}

// matchExpr renders q as an FTS5 expression. Words are letters and digits
// only, so quoting them needs no escaping.
func matchExpr(q store.SearchQuery) string {
	if q.Empty() {
		return ""
	}
	include := make([]string, 0, len(q.Include))
	for _, words := range q.Include {
		include = append(include, ftsPhrase(words))
	}
	expr := strings.Join(include, " AND ")
	for _, words := range q.Exclude {
		expr += " NOT " + ftsPhrase(words)
	}
	return expr
}

func ftsPhrase(words []string) string {
	return `"` + strings.Join(words, " ") + `"*`
}
