package sqlite

import (
	"context"
	"fmt"
	"strings"
)

const ddl = `
CREATE TABLE IF NOT EXISTS file_state (
	path  TEXT PRIMARY KEY,
	mtime INTEGER NOT NULL,
	size  INTEGER NOT NULL,
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
	extra_json  TEXT NOT NULL DEFAULT '{}',
	raw_json    TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (etype, vnum)
);

CREATE TABLE IF NOT EXISTS edge (
	id           INTEGER PRIMARY KEY,
	source_path  TEXT NOT NULL,
	src_etype    TEXT NOT NULL,
	src_vnum     INTEGER NOT NULL,
	dst_etype    TEXT NOT NULL,
	dst_vnum     INTEGER,
	rel          TEXT NOT NULL,
	zone         INTEGER NOT NULL,
	context_json TEXT NOT NULL DEFAULT '{}'
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
	raw_json    TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (zone, idx)
);

CREATE TABLE IF NOT EXISTS ref (
	id           INTEGER PRIMARY KEY,
	source_path  TEXT NOT NULL,
	src_etype    TEXT NOT NULL,
	src_vnum     INTEGER NOT NULL,
	keypath      TEXT NOT NULL,
	guess_etype  TEXT NOT NULL,
	dst_vnum     INTEGER NOT NULL,
	context_json TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS parse_error (
	id          INTEGER PRIMARY KEY,
	source_path TEXT NOT NULL,
	zone        INTEGER NOT NULL,
	etype       TEXT NOT NULL,
	message     TEXT NOT NULL,
	detail      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS build_run (
	id            TEXT PRIMARY KEY,
	started_at    TEXT NOT NULL,
	finished_at   TEXT NOT NULL,
	mode          TEXT NOT NULL,
	zones         TEXT NOT NULL DEFAULT '',
	files_scanned INTEGER NOT NULL DEFAULT 0,
	files_changed INTEGER NOT NULL DEFAULT 0,
	entities      INTEGER NOT NULL DEFAULT 0,
	edges         INTEGER NOT NULL DEFAULT 0,
	errors        INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_entity_path ON entity (path);
CREATE INDEX IF NOT EXISTS idx_entity_zone ON entity (zone);
CREATE INDEX IF NOT EXISTS idx_edge_src ON edge (src_etype, src_vnum, rel);
CREATE INDEX IF NOT EXISTS idx_edge_dst ON edge (dst_etype, dst_vnum, rel);
CREATE INDEX IF NOT EXISTS idx_edge_source ON edge (source_path);
CREATE INDEX IF NOT EXISTS idx_edge_rel ON edge (rel);
CREATE INDEX IF NOT EXISTS idx_zone_cmd_source ON zone_cmd (source_path);
CREATE INDEX IF NOT EXISTS idx_ref_source ON ref (source_path);
CREATE INDEX IF NOT EXISTS idx_ref_dst ON ref (dst_vnum);
CREATE INDEX IF NOT EXISTS idx_parse_error_source ON parse_error (source_path);

CREATE VIRTUAL TABLE IF NOT EXISTS entity_fts USING fts5(
	name,
	keywords,
	short_descr,
	content=entity,
	content_rowid=rowid
);

CREATE TRIGGER IF NOT EXISTS entity_ai AFTER INSERT ON entity BEGIN
	INSERT INTO entity_fts(rowid, name, keywords, short_descr)
	VALUES (new.rowid, new.name, new.keywords, new.short_descr);
END;

CREATE TRIGGER IF NOT EXISTS entity_ad AFTER DELETE ON entity BEGIN
	INSERT INTO entity_fts(entity_fts, rowid, name, keywords, short_descr)
	VALUES ('delete', old.rowid, old.name, old.keywords, old.short_descr);
END;

CREATE TRIGGER IF NOT EXISTS entity_au AFTER UPDATE ON entity BEGIN
	INSERT INTO entity_fts(entity_fts, rowid, name, keywords, short_descr)
	VALUES ('delete', old.rowid, old.name, old.keywords, old.short_descr);
	INSERT INTO entity_fts(rowid, name, keywords, short_descr)
	VALUES (new.rowid, new.name, new.keywords, new.short_descr);
END;
`

// indexTables are the tables a full rebuild clears, in dependency-free order.
var indexTables = []string{"entity", "edge", "zone_cmd", "ref", "parse_error", "file_state"}

func (c *Client) EnsureSchema(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(ddl) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}
	return nil
}

// Reset empties every index table. Build history is kept.
func (c *Client) Reset(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range indexTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reset: %w", err)
	}
	return nil
}

// splitStatements splits DDL on statement-terminating semicolons, keeping
// trigger bodies whole.
func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder
	inTrigger := false

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasPrefix(stripped, "CREATE TRIGGER") {
			inTrigger = true
		}
		if inTrigger {
			if stripped == "END;" {
				statements = append(statements, current.String())
				current.Reset()
				inTrigger = false
			}
			continue
		}
		if strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}

	return statements
}
