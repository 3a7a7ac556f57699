package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"mudgraph/internal/config"
	"mudgraph/internal/parser"
	"mudgraph/internal/store"
	"mudgraph/internal/world"
	"mudgraph/internal/xref"
)

const (
	detailFileRead      = "file_read"
	detailSchemaAnomaly = "schema_anomaly"
)

// fileResult is what one worker learned about one source file.
type fileResult struct {
	src     world.SourceFile
	state   store.FileState
	changed bool
	// touch means the content is unchanged but the recorded fingerprint is stale.
	touch    bool
	rows     *xref.Rows
	parseErr *store.ParseError
	zoneName string
}

type fileJob struct {
	src   world.SourceFile
	prior store.FileState
	known bool
}

// processAll fingerprints, reads and parses jobs on at most workers
// goroutines. Results keep the order of jobs.
func processAll(ctx context.Context, jobs []fileJob, workers int, opts Options) ([]fileResult, error) {
	results := make([]fileResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = processFile(job, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func processFile(job fileJob, opts Options) fileResult {
	res := fileResult{src: job.src, changed: true}

	info, err := os.Stat(job.src.Path)
	if err != nil {
		res.parseErr = readError(job.src, err)
		return res
	}
	res.state = store.FileState{Path: job.src.RelPath, MTime: info.ModTime().UnixNano(), Size: info.Size()}

	sameStat := job.known && job.prior.MTime == res.state.MTime && job.prior.Size == res.state.Size
	if opts.Detection != config.DetectHash && sameStat {
		res.changed = false
		return res
	}

	content, err := os.ReadFile(job.src.Path)
	if err != nil {
		res.parseErr = readError(job.src, err)
		return res
	}
	if opts.Detection == config.DetectHash {
		res.state.Hash = computeHash(content)
		if job.known && job.prior.Hash == res.state.Hash {
			res.changed = false
			res.touch = !sameStat
			return res
		}
	}

	rec, err := parser.Parse(job.src.Kind, content, filepath.Base(job.src.Path), job.src.Zone)
	if err != nil {
		detail := detailFileRead
		if errors.Is(err, parser.ErrMissingVnum) {
			detail = detailSchemaAnomaly
		}
		res.parseErr = &store.ParseError{
			SourcePath: job.src.RelPath,
			Zone:       job.src.Zone,
			Kind:       job.src.Kind,
			Message:    err.Error(),
			Detail:     detail,
		}
		return res
	}
	if z, ok := rec.Data.(*parser.Zone); ok {
		res.zoneName = z.Name
	}

	rows, err := xref.Build(rec, job.src.RelPath, xref.Options{DeepRefs: opts.DeepRefs, StoreRaw: opts.StoreRaw})
	if err != nil {
		res.parseErr = &store.ParseError{
			SourcePath: job.src.RelPath,
			Zone:       job.src.Zone,
			Kind:       job.src.Kind,
			Message:    fmt.Sprintf("edge extraction failed: %v", err),
			Detail:     detailSchemaAnomaly,
		}
		return res
	}
	res.rows = rows
	return res
}

func readError(src world.SourceFile, err error) *store.ParseError {
	return &store.ParseError{
		SourcePath: src.RelPath,
		Zone:       src.Zone,
		Kind:       src.Kind,
		Message:    err.Error(),
		Detail:     detailFileRead,
	}
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
