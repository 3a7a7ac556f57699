package world

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"mudgraph/internal/config"
)

var ErrNoZones = errors.New("no zone directories found")

type ZoneDir struct {
	Zone int
	Path string
}

type SourceFile struct {
	Kind    Kind
	Zone    int
	Path    string
	RelPath string
}

type Reader struct {
	root     string
	resolver *Resolver
}

func NewReader(root string) *Reader {
	return &Reader{root: root, resolver: NewResolver(root)}
}

func (r *Reader) Root() string {
	return r.root
}

func (r *Reader) Resolver() *Resolver {
	return r.resolver
}

// DetectRoot returns path if it directly holds numeric zone directories,
// otherwise the first direct child that does.
func DetectRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving world root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("opening world root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("world root %s is not a directory", abs)
	}
	if hasZoneDirs(abs) {
		return abs, nil
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return "", fmt.Errorf("reading world root: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		child := filepath.Join(abs, entry.Name())
		if hasZoneDirs(child) {
			return child, nil
		}
	}
	return "", fmt.Errorf("%w under %s", ErrNoZones, abs)
}

func hasZoneDirs(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if _, ok := zoneNumber(entry); ok {
			return true
		}
	}
	return false
}

func zoneNumber(entry os.DirEntry) (int, bool) {
	if !entry.IsDir() || !isDigits(entry.Name()) {
		return 0, false
	}
	n, err := strconv.Atoi(entry.Name())
	if err != nil {
		return 0, false
	}
	return n, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// ZoneDirs lists zone directories in ascending zone order.
func (r *Reader) ZoneDirs(filter config.ZoneFilter) ([]ZoneDir, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("listing zones: %w", err)
	}
	var zones []ZoneDir
	for _, entry := range entries {
		zone, ok := zoneNumber(entry)
		if !ok || !filter.Contains(zone) {
			continue
		}
		zones = append(zones, ZoneDir{Zone: zone, Path: filepath.Join(r.root, entry.Name())})
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].Zone < zones[j].Zone })
	return zones, nil
}

// ZoneFiles lists the zone file followed by every entity file, each kind
// sorted by file name.
func (r *Reader) ZoneFiles(zone ZoneDir) ([]SourceFile, error) {
	var files []SourceFile

	zoneFile := filepath.Join(zone.Path, strconv.Itoa(zone.Zone)+".json")
	if info, err := os.Stat(zoneFile); err == nil && !info.IsDir() {
		files = append(files, r.sourceFile(KindZone, zone.Zone, zoneFile))
	}

	for _, kind := range EntityKinds {
		dir := filepath.Join(zone.Path, string(kind))
		entries, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("listing %s files in zone %d: %w", kind, zone.Zone, err)
		}
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".json") {
				continue
			}
			names = append(names, entry.Name())
		}
		sort.Strings(names)
		for _, name := range names {
			files = append(files, r.sourceFile(kind, zone.Zone, filepath.Join(dir, name)))
		}
	}
	return files, nil
}

func (r *Reader) sourceFile(kind Kind, zone int, path string) SourceFile {
	return SourceFile{Kind: kind, Zone: zone, Path: path, RelPath: r.RelPath(path)}
}

// RelPath is the slash-separated path relative to the world root used as the
// owning source key in the index.
func (r *Reader) RelPath(path string) string {
	rel, err := filepath.Rel(r.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// EntityPath locates the file for (kind, vnum), trying hint first when given.
func (r *Reader) EntityPath(kind Kind, vnum int, hint *int) (string, bool) {
	try := func(zone int) (string, bool) {
		var p string
		if kind == KindZone {
			p = filepath.Join(r.root, strconv.Itoa(vnum), strconv.Itoa(vnum)+".json")
		} else {
			p = filepath.Join(r.root, strconv.Itoa(zone), string(kind), strconv.Itoa(vnum)+".json")
		}
		if _, err := os.Stat(p); err != nil {
			return "", false
		}
		return p, true
	}

	if hint != nil {
		if p, ok := try(*hint); ok {
			return p, true
		}
	}
	zone, ok := r.resolver.Resolve(vnum)
	if !ok {
		return "", false
	}
	return try(zone)
}

// ReadEntity returns the raw bytes of the file for (kind, vnum).
func (r *Reader) ReadEntity(kind Kind, vnum int) ([]byte, string, error) {
	path, ok := r.EntityPath(kind, vnum, nil)
	if !ok {
		return nil, "", fmt.Errorf("%s %d: %w", kind, vnum, os.ErrNotExist)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s %d: %w", kind, vnum, err)
	}
	return data, path, nil
}
