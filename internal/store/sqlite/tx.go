package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"mudgraph/internal/store"
)

const (
	upsertEntitySQL = `
	INSERT INTO entity (etype, vnum, zone, path, name, keywords, short_descr, last_edited, extra_json, raw_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (etype, vnum) DO UPDATE SET
		zone = excluded.zone,
		path = excluded.path,
		name = excluded.name,
		keywords = excluded.keywords,
		short_descr = excluded.short_descr,
		last_edited = excluded.last_edited,
		extra_json = excluded.extra_json,
		raw_json = excluded.raw_json
	`
	insertEdgeSQL = `
	INSERT INTO edge (source_path, src_etype, src_vnum, dst_etype, dst_vnum, rel, zone, context_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	insertZoneCmdSQL = `
	INSERT INTO zone_cmd (source_path, zone, idx, cmd, prob, if_flag, arg1, arg2, arg3, raw_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (zone, idx) DO UPDATE SET
		source_path = excluded.source_path,
		cmd = excluded.cmd,
		prob = excluded.prob,
		if_flag = excluded.if_flag,
		arg1 = excluded.arg1,
		arg2 = excluded.arg2,
		arg3 = excluded.arg3,
		raw_json = excluded.raw_json
	`
	insertRefSQL = `
	INSERT INTO ref (source_path, src_etype, src_vnum, keypath, guess_etype, dst_vnum, context_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	insertParseErrorSQL = `
	INSERT INTO parse_error (source_path, zone, etype, message, detail)
	VALUES (?, ?, ?, ?, ?)
	`
	upsertFileStateSQL = `
	INSERT INTO file_state (path, mtime, size, hash)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (path) DO UPDATE SET
		mtime = excluded.mtime,
		size = excluded.size,
		hash = excluded.hash
	`
)

var sourceTables = []struct{ table, column string }{
	{"entity", "path"},
	{"edge", "source_path"},
	{"zone_cmd", "source_path"},
	{"ref", "source_path"},
	{"parse_error", "source_path"},
}

type tx struct {
	tx    *sql.Tx
	stmts map[string]*sql.Stmt
}

var _ store.Tx = (*tx)(nil)

func (c *Client) Begin(ctx context.Context) (store.Tx, error) {
	t, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &tx{tx: t, stmts: make(map[string]*sql.Stmt)}, nil
}

func (t *tx) exec(ctx context.Context, query string, args ...any) error {
	stmt, ok := t.stmts[query]
	if !ok {
		var err error
		stmt, err = t.tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		t.stmts[query] = stmt
	}
	_, err := stmt.ExecContext(ctx, args...)
	return err
}

func (t *tx) DeleteBySource(ctx context.Context, path string) error {
	for _, st := range sourceTables {
		if err := t.exec(ctx, "DELETE FROM "+st.table+" WHERE "+st.column+" = ?", path); err != nil {
			return fmt.Errorf("deleting %s rows for %s: %w", st.table, path, err)
		}
	}
	return nil
}

func (t *tx) UpsertEntity(ctx context.Context, e store.Entity) error {
	extra, err := store.EncodeJSON(e.Extra)
	if err != nil {
		return err
	}
	err = t.exec(ctx, upsertEntitySQL,
		string(e.Kind), e.Vnum, e.Zone, e.SourcePath,
		e.Name, e.Keywords, e.ShortDescr, e.LastEdited,
		extra, e.Raw,
	)
	if err != nil {
		return fmt.Errorf("upserting entity %s %d: %w", e.Kind, e.Vnum, err)
	}
	return nil
}

func (t *tx) InsertEdges(ctx context.Context, edges []store.Edge) error {
	for _, e := range edges {
		if !store.IsKnownRelation(e.Relation) {
			return fmt.Errorf("invalid relation type: %q", e.Relation)
		}
		ctxJSON, err := store.EncodeJSON(e.Context)
		if err != nil {
			return err
		}
		err = t.exec(ctx, insertEdgeSQL,
			e.SourcePath, string(e.Src.Kind), e.Src.Vnum,
			string(e.Dst.Kind), nullVnum(e.Dst.Vnum),
			e.Relation, e.Zone, ctxJSON,
		)
		if err != nil {
			return fmt.Errorf("inserting edge %s: %w", e.Relation, err)
		}
	}
	return nil
}

func (t *tx) InsertZoneCommands(ctx context.Context, cmds []store.ZoneCommand) error {
	for _, c := range cmds {
		raw, err := store.EncodeJSON(c.Raw)
		if err != nil {
			return err
		}
		err = t.exec(ctx, insertZoneCmdSQL,
			c.SourcePath, c.Zone, c.Index, c.Code,
			nullInt(c.Prob), nullInt(c.IfFlag), nullInt(c.Arg1), nullInt(c.Arg2), nullInt(c.Arg3),
			raw,
		)
		if err != nil {
			return fmt.Errorf("inserting zone command %d/%d: %w", c.Zone, c.Index, err)
		}
	}
	return nil
}

func (t *tx) InsertRefs(ctx context.Context, refs []store.Ref) error {
	for _, r := range refs {
		ctxJSON, err := store.EncodeJSON(r.Context)
		if err != nil {
			return err
		}
		err = t.exec(ctx, insertRefSQL,
			r.SourcePath, string(r.Src.Kind), r.Src.Vnum, r.KeyPath, r.Guess, r.DstVnum, ctxJSON,
		)
		if err != nil {
			return fmt.Errorf("inserting ref %s: %w", r.KeyPath, err)
		}
	}
	return nil
}

func (t *tx) InsertParseError(ctx context.Context, pe store.ParseError) error {
	err := t.exec(ctx, insertParseErrorSQL, pe.SourcePath, pe.Zone, string(pe.Kind), pe.Message, pe.Detail)
	if err != nil {
		return fmt.Errorf("inserting parse error for %s: %w", pe.SourcePath, err)
	}
	return nil
}

func (t *tx) UpsertFileState(ctx context.Context, fs store.FileState) error {
	if err := t.exec(ctx, upsertFileStateSQL, fs.Path, fs.MTime, fs.Size, fs.Hash); err != nil {
		return fmt.Errorf("recording file state for %s: %w", fs.Path, err)
	}
	return nil
}

func (t *tx) Commit() error {
	t.closeStmts()
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (t *tx) Rollback() error {
	t.closeStmts()
	return t.tx.Rollback()
}

func (t *tx) closeStmts() {
	for q, stmt := range t.stmts {
		stmt.Close()
		delete(t.stmts, q)
	}
}

func nullVnum(vnum int) any {
	if vnum == store.NoVnum {
		return nil
	}
	return vnum
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
