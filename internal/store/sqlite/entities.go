package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mudgraph/internal/store"
	"mudgraph/internal/world"
)

const entityColumns = `etype, vnum, zone, path, name, keywords, short_descr, last_edited, extra_json, raw_json`

func scanEntity(row interface{ Scan(...any) error }) (store.Entity, error) {
	var e store.Entity
	var kind, extra string
	err := row.Scan(&kind, &e.Vnum, &e.Zone, &e.SourcePath, &e.Name, &e.Keywords, &e.ShortDescr, &e.LastEdited, &extra, &e.Raw)
	if err != nil {
		return e, err
	}
	e.Kind = world.Kind(kind)
	e.Extra, err = store.DecodeJSON(extra)
	return e, err
}

func (c *Client) GetEntity(ctx context.Context, kind world.Kind, vnum int) (*store.Entity, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+entityColumns+` FROM entity WHERE etype = ? AND vnum = ?`, string(kind), vnum)
	e, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting entity %s %d: %w", kind, vnum, err)
	}
	return &e, nil
}

func (c *Client) FindEntities(ctx context.Context, vnum int) ([]store.Entity, error) {
	return c.queryEntities(ctx, `SELECT `+entityColumns+` FROM entity WHERE vnum = ? ORDER BY etype`, vnum)
}

// EntitiesWithExtra lists entities of kind whose extra bag holds key.
func (c *Client) EntitiesWithExtra(ctx context.Context, kind world.Kind, key string) ([]store.Entity, error) {
	return c.queryEntities(ctx, `
	SELECT `+entityColumns+` FROM entity
	WHERE etype = ?
	  AND json_extract(extra_json, '$."' || ? || '"') IS NOT NULL
	ORDER BY vnum
	`, string(kind), key)
}

func (c *Client) queryEntities(ctx context.Context, query string, args ...any) ([]store.Entity, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	entities := []store.Entity{}
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entities: %w", err)
	}
	return entities, nil
}

func (c *Client) ListEntities(ctx context.Context, kind world.Kind, zone *int) ([]store.EntitySummary, error) {
	query := `
	SELECT etype, vnum, zone, name
	FROM entity
	WHERE (? = '' OR etype = ?)
	  AND (? = 0 OR zone = ?)
	ORDER BY etype, vnum
	`
	hasZone, z := 0, 0
	if zone != nil {
		hasZone, z = 1, *zone
	}

	rows, err := c.db.QueryContext(ctx, query, string(kind), string(kind), hasZone, z)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	defer rows.Close()

	summaries := []store.EntitySummary{}
	for rows.Next() {
		var s store.EntitySummary
		var k string
		if err := rows.Scan(&k, &s.Vnum, &s.Zone, &s.Name); err != nil {
			return nil, fmt.Errorf("scanning entity summary: %w", err)
		}
		s.Kind = world.Kind(k)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entity summaries: %w", err)
	}
	return summaries, nil
}
