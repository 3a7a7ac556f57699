package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"mudgraph/internal/config"
	"mudgraph/internal/logging"
	"mudgraph/internal/world"
)

const DefaultDebounce = 500 * time.Millisecond

type WatchOptions struct {
	// Debounce is how long a path must stay quiet before it is rebuilt.
	Debounce time.Duration
	// OnBuild, when set, is called after every build the watcher runs,
	// including the initial one.
	OnBuild func(*Result, error)
}

// Watcher keeps the index in step with the world tree. Edits are batched
// per zone and applied with an incremental Run.
type Watcher struct {
	reader  *world.Reader
	db      Store
	opts    Options
	wopts   WatchOptions
	logger  *zap.Logger
	fs      *fsnotify.Watcher
	pending map[string]time.Time
	// removals are pending deletes or renames; they need an all-zones run
	// before the index drops the vanished files.
	removals bool
}

func NewWatcher(reader *world.Reader, db Store, opts Options, wopts WatchOptions, logger *zap.Logger) (*Watcher, error) {
	if wopts.Debounce <= 0 {
		wopts.Debounce = DefaultDebounce
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	return &Watcher{
		reader:  reader,
		db:      db,
		opts:    opts,
		wopts:   wopts,
		logger:  logging.OrNop(logger),
		fs:      fs,
		pending: make(map[string]time.Time),
	}, nil
}

// Run performs an initial incremental build, then rebuilds touched zones
// until ctx is cancelled. Only store write failures end the loop early.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	if err := w.addTree(); err != nil {
		return err
	}
	if err := w.build(ctx, w.opts.Zones); err != nil {
		return err
	}

	ticker := time.NewTicker(w.wopts.Debounce / 5)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))

		case <-ticker.C:
			zones, full := w.settled()
			if len(zones) == 0 && !full {
				continue
			}
			filter := config.NewZoneFilter(zones...)
			if full {
				filter = w.opts.Zones
			}
			if err := w.build(ctx, filter); err != nil {
				return err
			}
		}
	}
}

func (w *Watcher) build(ctx context.Context, zones config.ZoneFilter) error {
	opts := w.opts
	opts.Full = false
	opts.Zones = zones

	res, err := Run(ctx, w.reader, w.db, opts, w.logger)
	if w.wopts.OnBuild != nil {
		w.wopts.OnBuild(res, err)
	}
	switch {
	case err == nil, ctx.Err() != nil:
		return nil
	case errors.Is(err, ErrStoreWrite):
		return err
	default:
		w.logger.Error("rebuild failed", zap.String("zones", zones.String()), zap.Error(err))
		return nil
	}
}

// addTree watches the world root, every selected zone directory and the
// kind subdirectories already present in them.
func (w *Watcher) addTree() error {
	if err := w.fs.Add(w.reader.Root()); err != nil {
		return fmt.Errorf("watching %s: %w", w.reader.Root(), err)
	}
	zones, err := w.reader.ZoneDirs(w.opts.Zones)
	if err != nil {
		return err
	}
	for _, z := range zones {
		if err := w.addZone(z.Path); err != nil {
			return err
		}
	}
	return nil
}

func (w *Watcher) addZone(path string) error {
	if err := w.fs.Add(path); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	for _, kind := range world.EntityKinds {
		dir := filepath.Join(path, string(kind))
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	return nil
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	zone, ok := w.zoneOf(event.Name)
	if !ok || !w.opts.Zones.Contains(zone) {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// A new zone directory or kind subdirectory.
			var err error
			if filepath.Dir(event.Name) == w.reader.Root() {
				err = w.addZone(event.Name)
			} else {
				err = w.fs.Add(event.Name)
			}
			if err != nil {
				w.logger.Warn("watching new directory", zap.String("path", event.Name), zap.Error(err))
			}
			w.pending[event.Name] = time.Now()
			return
		}
	}

	if !strings.HasSuffix(strings.ToLower(event.Name), ".json") &&
		event.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		w.removals = true
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
		w.logger.Debug("world file changed", zap.String("path", event.Name), zap.Stringer("op", event.Op))
		w.pending[event.Name] = time.Now()
	}
}

// settled drains paths that have been quiet for the debounce window and
// returns their zones. full reports that removals are among them.
func (w *Watcher) settled() (zones []int, full bool) {
	now := time.Now()
	seen := map[int]bool{}
	for path, at := range w.pending {
		if now.Sub(at) < w.wopts.Debounce {
			continue
		}
		delete(w.pending, path)
		if zone, ok := w.zoneOf(path); ok && !seen[zone] {
			seen[zone] = true
			zones = append(zones, zone)
		}
	}
	if w.removals && len(w.pending) == 0 {
		w.removals = false
		full = true
	}
	sort.Ints(zones)
	return zones, full
}

// zoneOf maps a path under the world root to its zone number.
func (w *Watcher) zoneOf(path string) (int, bool) {
	rel := w.reader.RelPath(path)
	first, _, _ := strings.Cut(rel, "/")
	zone, err := strconv.Atoi(first)
	if err != nil || zone < 0 {
		return 0, false
	}
	return zone, true
}
