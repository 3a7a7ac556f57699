package postgres

import (
	"context"
	"fmt"
	"strings"

	"mudgraph/internal/store"
	"mudgraph/internal/world"
)

const searchLimit = 50

// Search ranks entities by name, keywords and short description using the
// generated search_vector column.
func (c *Client) Search(ctx context.Context, query string, kind world.Kind) ([]store.SearchResult, error) {
	tsq := tsQuery(store.ParseSearch(query))
	if tsq == "" {
		return nil, fmt.Errorf("search %q has no terms", query)
	}

	sql := `
SELECT etype, vnum, zone, name,
    ts_rank(search_vector, to_tsquery('simple', $1)) AS score,
    ts_headline('simple', name || ' ' || keywords || ' ' || short_descr, to_tsquery('simple', $1),
        'MaxFragments=1, MaxWords=12, MinWords=3, StartSel=**, StopSel=**') AS snippet
FROM entity
WHERE search_vector @@ to_tsquery('simple', $1)
  AND ($2 = '' OR etype = $2)
ORDER BY score DESC, etype ASC, vnum ASC
LIMIT $3
`

	rows, err := c.pool.Query(ctx, sql, tsq, string(kind), searchLimit)
	if err != nil {
		return nil, fmt.Errorf("searching entities: %w", err)
	}
	defer rows.Close()

	results := []store.SearchResult{}
	for rows.Next() {
		var r store.SearchResult
		var k string
		var score float32
		if err := rows.Scan(&k, &r.Vnum, &r.Zone, &r.Name, &score, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		r.Kind = world.Kind(k)
		r.Score = float64(score)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return results, nil
}

// tsQuery renders q for to_tsquery. Phrase words are joined with <-> and
// the last word of each phrase matches as a prefix.
func tsQuery(q store.SearchQuery) string {
	if q.Empty() {
		return ""
	}
	parts := make([]string, 0, len(q.Include)+len(q.Exclude))
	for _, words := range q.Include {
		parts = append(parts, tsPhrase(words))
	}
	for _, words := range q.Exclude {
		parts = append(parts, "!"+tsPhrase(words))
	}
	return strings.Join(parts, " & ")
}

func tsPhrase(words []string) string {
	phrase := strings.Join(words, " <-> ") + ":*"
	if len(words) > 1 {
		return "(" + phrase + ")"
	}
	return phrase
}
