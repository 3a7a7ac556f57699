package postgres

import (
	"context"
	"fmt"
)

const ddl = `
CREATE TABLE IF NOT EXISTS file_state (
    path  TEXT PRIMARY KEY,
    mtime BIGINT NOT NULL,
    size  BIGINT NOT NULL,
    hash  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS entity (
    etype       TEXT NOT NULL,
    vnum        INTEGER NOT NULL,
    zone        INTEGER NOT NULL,
    path        TEXT NOT NULL,
    name        TEXT NOT NULL DEFAULT '',
    keywords    TEXT NOT NULL DEFAULT '',
    short_descr TEXT NOT NULL DEFAULT '',
    last_edited TEXT NOT NULL DEFAULT '',
    extra_json  JSONB NOT NULL DEFAULT '{}',
    raw_json    TEXT NOT NULL DEFAULT '',
    search_vector TSVECTOR GENERATED ALWAYS AS (
        to_tsvector('simple', name || ' ' || keywords || ' ' || short_descr)
    ) STORED,
    PRIMARY KEY (etype, vnum)
);

CREATE TABLE IF NOT EXISTS edge (
    id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    source_path  TEXT NOT NULL,
    src_etype    TEXT NOT NULL,
    src_vnum     INTEGER NOT NULL,
    dst_etype    TEXT NOT NULL,
    dst_vnum     INTEGER,
    rel          TEXT NOT NULL,
    zone         INTEGER NOT NULL,
    context_json JSONB NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS zone_cmd (
    source_path TEXT NOT NULL,
    zone        INTEGER NOT NULL,
    idx         INTEGER NOT NULL,
    cmd         TEXT NOT NULL,
    prob        INTEGER,
    if_flag     INTEGER,
    arg1        INTEGER,
    arg2        INTEGER,
    arg3        INTEGER,
    raw_json    JSONB NOT NULL DEFAULT '{}',
    PRIMARY KEY (zone, idx)
);

CREATE TABLE IF NOT EXISTS ref (
    id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    source_path  TEXT NOT NULL,
    src_etype    TEXT NOT NULL,
    src_vnum     INTEGER NOT NULL,
    keypath      TEXT NOT NULL,
    guess_etype  TEXT NOT NULL,
    dst_vnum     INTEGER NOT NULL,
    context_json JSONB NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS parse_error (
    id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    source_path TEXT NOT NULL,
    zone        INTEGER NOT NULL,
    etype       TEXT NOT NULL,
    message     TEXT NOT NULL,
    detail      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS build_run (
    id            TEXT PRIMARY KEY,
    started_at    TIMESTAMPTZ NOT NULL,
    finished_at   TIMESTAMPTZ NOT NULL,
    mode          TEXT NOT NULL,
    zones         TEXT NOT NULL DEFAULT '',
    files_scanned INTEGER NOT NULL DEFAULT 0,
    files_changed INTEGER NOT NULL DEFAULT 0,
    entities      INTEGER NOT NULL DEFAULT 0,
    edges         INTEGER NOT NULL DEFAULT 0,
    errors        INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_entity_search ON entity USING GIN (search_vector);
CREATE INDEX IF NOT EXISTS idx_entity_path ON entity (path);
CREATE INDEX IF NOT EXISTS idx_entity_zone ON entity (zone);
CREATE INDEX IF NOT EXISTS idx_entity_extra ON entity USING GIN (extra_json);
CREATE INDEX IF NOT EXISTS idx_edge_src ON edge (src_etype, src_vnum, rel);
CREATE INDEX IF NOT EXISTS idx_edge_dst ON edge (dst_etype, dst_vnum, rel);
CREATE INDEX IF NOT EXISTS idx_edge_source ON edge (source_path);
CREATE INDEX IF NOT EXISTS idx_zone_cmd_source ON zone_cmd (source_path);
CREATE INDEX IF NOT EXISTS idx_ref_source ON ref (source_path);
CREATE INDEX IF NOT EXISTS idx_ref_dst ON ref (dst_vnum);
CREATE INDEX IF NOT EXISTS idx_parse_error_source ON parse_error (source_path);
`

// EnsureSchema runs the whole DDL in one call, which PostgreSQL executes
// as a single implicit transaction.
func (c *Client) EnsureSchema(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}

func (c *Client) Reset(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, `TRUNCATE entity, edge, zone_cmd, ref, parse_error, file_state`)
	if err != nil {
		return fmt.Errorf("resetting index: %w", err)
	}
	return nil
}
