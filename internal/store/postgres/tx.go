package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"mudgraph/internal/store"
)

var sourceTables = []struct{ table, column string }{
	{"entity", "path"},
	{"edge", "source_path"},
	{"zone_cmd", "source_path"},
	{"ref", "source_path"},
	{"parse_error", "source_path"},
}

type tx struct {
	tx pgx.Tx
}

var _ store.Tx = (*tx)(nil)

func (c *Client) Begin(ctx context.Context) (store.Tx, error) {
	t, err := c.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &tx{tx: t}, nil
}

// send runs a queued batch and reports the first failing statement.
func (t *tx) send(ctx context.Context, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	br := t.tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return err
		}
	}
	return br.Close()
}

func (t *tx) DeleteBySource(ctx context.Context, path string) error {
	batch := &pgx.Batch{}
	for _, st := range sourceTables {
		batch.Queue("DELETE FROM "+st.table+" WHERE "+st.column+" = $1", path)
	}
	if err := t.send(ctx, batch); err != nil {
		return fmt.Errorf("deleting rows for %s: %w", path, err)
	}
	return nil
}

func (t *tx) UpsertEntity(ctx context.Context, e store.Entity) error {
	extra, err := store.EncodeJSON(e.Extra)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `
INSERT INTO entity (etype, vnum, zone, path, name, keywords, short_descr, last_edited, extra_json, raw_json)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10)
ON CONFLICT (etype, vnum) DO UPDATE SET
    zone = EXCLUDED.zone,
    path = EXCLUDED.path,
    name = EXCLUDED.name,
    keywords = EXCLUDED.keywords,
    short_descr = EXCLUDED.short_descr,
    last_edited = EXCLUDED.last_edited,
    extra_json = EXCLUDED.extra_json,
    raw_json = EXCLUDED.raw_json
`,
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
	batch := &pgx.Batch{}
	for _, e := range edges {
		if !store.IsKnownRelation(e.Relation) {
			return fmt.Errorf("invalid relation type: %q", e.Relation)
		}
		ctxJSON, err := store.EncodeJSON(e.Context)
		if err != nil {
			return err
		}
		var dst any
		if e.HasDst() {
			dst = e.Dst.Vnum
		}
		batch.Queue(`
INSERT INTO edge (source_path, src_etype, src_vnum, dst_etype, dst_vnum, rel, zone, context_json)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)
`, e.SourcePath, string(e.Src.Kind), e.Src.Vnum, string(e.Dst.Kind), dst, e.Relation, e.Zone, ctxJSON)
	}
	if err := t.send(ctx, batch); err != nil {
		return fmt.Errorf("inserting edges: %w", err)
	}
	return nil
}

func (t *tx) InsertZoneCommands(ctx context.Context, cmds []store.ZoneCommand) error {
	batch := &pgx.Batch{}
	for _, c := range cmds {
		raw, err := store.EncodeJSON(c.Raw)
		if err != nil {
			return err
		}
		batch.Queue(`
INSERT INTO zone_cmd (source_path, zone, idx, cmd, prob, if_flag, arg1, arg2, arg3, raw_json)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb)
ON CONFLICT (zone, idx) DO UPDATE SET
    source_path = EXCLUDED.source_path,
    cmd = EXCLUDED.cmd,
    prob = EXCLUDED.prob,
    if_flag = EXCLUDED.if_flag,
    arg1 = EXCLUDED.arg1,
    arg2 = EXCLUDED.arg2,
    arg3 = EXCLUDED.arg3,
    raw_json = EXCLUDED.raw_json
`, c.SourcePath, c.Zone, c.Index, c.Code, c.Prob, c.IfFlag, c.Arg1, c.Arg2, c.Arg3, raw)
	}
	if err := t.send(ctx, batch); err != nil {
		return fmt.Errorf("inserting zone commands: %w", err)
	}
	return nil
}

func (t *tx) InsertRefs(ctx context.Context, refs []store.Ref) error {
	batch := &pgx.Batch{}
	for _, r := range refs {
		ctxJSON, err := store.EncodeJSON(r.Context)
		if err != nil {
			return err
		}
		batch.Queue(`
INSERT INTO ref (source_path, src_etype, src_vnum, keypath, guess_etype, dst_vnum, context_json)
VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
`, r.SourcePath, string(r.Src.Kind), r.Src.Vnum, r.KeyPath, r.Guess, r.DstVnum, ctxJSON)
	}
	if err := t.send(ctx, batch); err != nil {
		return fmt.Errorf("inserting refs: %w", err)
	}
	return nil
}

func (t *tx) InsertParseError(ctx context.Context, pe store.ParseError) error {
	_, err := t.tx.Exec(ctx, `
INSERT INTO parse_error (source_path, zone, etype, message, detail) VALUES ($1, $2, $3, $4, $5)
`, pe.SourcePath, pe.Zone, string(pe.Kind), pe.Message, pe.Detail)
	if err != nil {
		return fmt.Errorf("inserting parse error for %s: %w", pe.SourcePath, err)
	}
	return nil
}

func (t *tx) UpsertFileState(ctx context.Context, fs store.FileState) error {
	_, err := t.tx.Exec(ctx, `
INSERT INTO file_state (path, mtime, size, hash) VALUES ($1, $2, $3, $4)
ON CONFLICT (path) DO UPDATE SET mtime = EXCLUDED.mtime, size = EXCLUDED.size, hash = EXCLUDED.hash
`, fs.Path, fs.MTime, fs.Size, fs.Hash)
	if err != nil {
		return fmt.Errorf("recording file state for %s: %w", fs.Path, err)
	}
	return nil
}

func (t *tx) Commit() error {
	if err := t.tx.Commit(context.Background()); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (t *tx) Rollback() error {
	return t.tx.Rollback(context.Background())
}
