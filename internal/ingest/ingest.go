// Package ingest builds and incrementally refreshes the persisted index
// from a world directory.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mudgraph/internal/config"
	"mudgraph/internal/logging"
	"mudgraph/internal/store"
	"mudgraph/internal/world"
)

// ErrStoreWrite marks a rejected write. The open batch is rolled back;
// zones committed before it stay in the index.
var ErrStoreWrite = errors.New("store write failed")

type Options struct {
	Full      bool
	Zones     config.ZoneFilter
	Detection string
	Workers   int
	BatchSize int
	DeepRefs  string
	StoreRaw  bool
}

// OptionsFromConfig maps the build section of a project config.
func OptionsFromConfig(cfg *config.ProjectConfig) Options {
	return Options{
		Detection: cfg.Build.Detection,
		Workers:   cfg.Build.Workers,
		BatchSize: cfg.Build.BatchSize,
		DeepRefs:  cfg.Build.DeepRefs,
		StoreRaw:  cfg.Build.StoreRaw,
	}
}

type Result struct {
	RunID        string
	Zones        int
	FilesScanned int
	FilesChanged int
	FilesRemoved int
	Entities     int
	Edges        int
	ZoneCommands int
	Refs         int
	Errors       int
	Elapsed      time.Duration
}

func (r *Result) String() string {
	return fmt.Sprintf("zones=%d files=%d changed=%d removed=%d entities=%d edges=%d zone_cmds=%d refs=%d errors=%d elapsed=%s",
		r.Zones, r.FilesScanned, r.FilesChanged, r.FilesRemoved, r.Entities, r.Edges, r.ZoneCommands, r.Refs, r.Errors,
		r.Elapsed.Round(time.Millisecond))
}

// Run indexes every zone the filter selects. On ErrStoreWrite the partial
// result is returned alongside the error.
func Run(ctx context.Context, reader *world.Reader, db Store, opts Options, logger *zap.Logger) (*Result, error) {
	logger = logging.OrNop(logger)
	if opts.BatchSize <= 0 {
		opts.BatchSize = config.DefaultBatchSize
	}
	if opts.Workers <= 0 {
		opts.Workers = config.DefaultWorkers
	}
	if opts.Detection == "" {
		opts.Detection = config.DetectMtime
	}
	if opts.DeepRefs == "" {
		opts.DeepRefs = config.DeepRefsScripts
	}

	started := time.Now()
	result := &Result{RunID: uuid.NewString()}

	if err := db.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	zones, err := reader.ZoneDirs(opts.Zones)
	if err != nil {
		return nil, fmt.Errorf("listing zones: %w", err)
	}

	states := map[string]store.FileState{}
	if opts.Full {
		if err := db.Reset(ctx); err != nil {
			return nil, fmt.Errorf("resetting index: %w", err)
		}
	} else {
		states, err = db.FileStates(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading file states: %w", err)
		}
	}

	b := &build{
		db:      db,
		reader:  reader,
		opts:    opts,
		states:  states,
		logger:  logger,
		w:       newWriter(db, opts.BatchSize),
		result:  result,
		started: started,
	}
	runErr := b.zones(ctx, zones)

	if runErr == nil && opts.Zones.All() {
		removed, err := db.RemoveMissingFiles(ctx, b.seen)
		if err != nil {
			runErr = fmt.Errorf("%w: pruning removed files: %w", ErrStoreWrite, err)
		}
		result.FilesRemoved = int(removed)
	}

	result.Elapsed = time.Since(started)
	if runErr != nil {
		logger.Error("build aborted", zap.Error(runErr), zap.Stringer("summary", result))
		return result, runErr
	}

	mode := "incremental"
	if opts.Full {
		mode = "full"
	}
	run := store.BuildRun{
		ID:           result.RunID,
		StartedAt:    started,
		FinishedAt:   time.Now(),
		Mode:         mode,
		Zones:        opts.Zones.String(),
		FilesScanned: result.FilesScanned,
		FilesChanged: result.FilesChanged,
		Entities:     result.Entities,
		Edges:        result.Edges,
		Errors:       result.Errors,
	}
	if err := db.RecordRun(ctx, run); err != nil {
		return result, fmt.Errorf("%w: recording build run: %w", ErrStoreWrite, err)
	}

	logger.Info("build finished",
		zap.String("run_id", result.RunID),
		zap.String("mode", mode),
		zap.Stringer("summary", result),
	)
	return result, nil
}

type build struct {
	db      Store
	reader  *world.Reader
	opts    Options
	states  map[string]store.FileState
	logger  *zap.Logger
	w       *writer
	result  *Result
	seen    []string
	started time.Time
}

func (b *build) zones(ctx context.Context, zones []world.ZoneDir) error {
	for i, z := range zones {
		if err := b.zone(ctx, z, i, len(zones)); err != nil {
			b.w.rollback()
			return err
		}
	}
	return nil
}

func (b *build) zone(ctx context.Context, z world.ZoneDir, done, total int) error {
	zoneStart := time.Now()
	files, err := b.reader.ZoneFiles(z)
	if err != nil {
		return fmt.Errorf("listing zone %d: %w", z.Zone, err)
	}

	jobs := make([]fileJob, len(files))
	for i, f := range files {
		prior, known := b.states[f.RelPath]
		jobs[i] = fileJob{src: f, prior: prior, known: known}
		b.seen = append(b.seen, f.RelPath)
	}

	results, err := processAll(ctx, jobs, b.opts.Workers, b.opts)
	if err != nil {
		return err
	}

	var stats Result
	var zoneName string
	for i := range results {
		res := &results[i]
		if err := b.w.write(ctx, res); err != nil {
			return err
		}
		stats.FilesScanned++
		if res.zoneName != "" {
			zoneName = res.zoneName
		}
		if !res.changed {
			continue
		}
		stats.FilesChanged++
		if res.parseErr != nil {
			stats.Errors++
		}
		if rows := res.rows; rows != nil {
			stats.Entities++
			stats.Edges += len(rows.Edges)
			stats.ZoneCommands += len(rows.ZoneCommands)
			stats.Refs += len(rows.Refs)
		}
	}
	if err := b.w.commit(); err != nil {
		return err
	}

	r := b.result
	r.Zones++
	r.FilesScanned += stats.FilesScanned
	r.FilesChanged += stats.FilesChanged
	r.Entities += stats.Entities
	r.Edges += stats.Edges
	r.ZoneCommands += stats.ZoneCommands
	r.Refs += stats.Refs
	r.Errors += stats.Errors

	elapsed := time.Since(b.started)
	eta := time.Duration(0)
	if done+1 < total {
		eta = elapsed / time.Duration(done+1) * time.Duration(total-done-1)
	}
	b.logger.Info("zone indexed",
		zap.Int("zone", z.Zone),
		zap.String("name", zoneName),
		zap.Int("files", stats.FilesScanned),
		zap.Int("changed", stats.FilesChanged),
		zap.Int("entities", stats.Entities),
		zap.Int("edges", stats.Edges),
		zap.Int("zone_cmds", stats.ZoneCommands),
		zap.Int("refs", stats.Refs),
		zap.Int("errors", stats.Errors),
		zap.Duration("elapsed", time.Since(zoneStart)),
		zap.Duration("eta", eta),
		zap.String("progress", fmt.Sprintf("%d/%d", done+1, total)),
	)
	return nil
}
