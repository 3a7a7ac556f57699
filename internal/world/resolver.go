package world

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

type zoneRange struct {
	start int
	top   int
	zone  int
}

// Resolver maps a vnum to the zone that owns it. Results are memoized for
// the life of the resolver, so callers create one per indexing run.
type Resolver struct {
	root string

	mu      sync.Mutex
	memo    map[int]resolution
	ranges  []zoneRange
	indexed bool
}

type resolution struct {
	zone int
	ok   bool
}

func NewResolver(root string) *Resolver {
	return &Resolver{root: root, memo: make(map[int]resolution)}
}

// Resolve tries, in order: the vnum/100 directory, the tens-aligned
// directory of that, the zone ranges declared in zone files, then a linear
// scan of those ranges.
func (r *Resolver) Resolve(vnum int) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if res, ok := r.memo[vnum]; ok {
		return res.zone, res.ok
	}
	zone, ok := r.resolve(vnum)
	r.memo[vnum] = resolution{zone: zone, ok: ok}
	return zone, ok
}

func (r *Resolver) resolve(vnum int) (int, bool) {
	if vnum < 0 {
		return 0, false
	}

	z1 := vnum / 100
	if r.isZoneDir(z1) {
		return z1, true
	}

	z2 := (z1 / 10) * 10
	if r.isZoneDir(z2) {
		return z2, true
	}

	r.buildIndex()
	if len(r.ranges) == 0 {
		return 0, false
	}

	i := sort.Search(len(r.ranges), func(i int) bool { return r.ranges[i].start > vnum }) - 1
	if i >= 0 {
		if rg := r.ranges[i]; rg.start <= vnum && vnum <= rg.top {
			return rg.zone, true
		}
	}

	for _, rg := range r.ranges {
		if rg.start <= vnum && vnum <= rg.top {
			return rg.zone, true
		}
	}
	return 0, false
}

func (r *Resolver) isZoneDir(zone int) bool {
	info, err := os.Stat(filepath.Join(r.root, strconv.Itoa(zone)))
	return err == nil && info.IsDir()
}

func (r *Resolver) buildIndex() {
	if r.indexed {
		return
	}
	r.indexed = true

	entries, err := os.ReadDir(r.root)
	if err != nil {
		return
	}
	for _, entry := range entries {
		dirZone, ok := zoneNumber(entry)
		if !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(r.root, entry.Name(), entry.Name()+".json"))
		if err != nil {
			continue
		}
		var meta struct {
			Top  json.RawMessage `json:"top"`
			Zone json.RawMessage `json:"zone"`
		}
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		top, ok := rawInt(meta.Top)
		if !ok {
			continue
		}
		zone := dirZone
		if z, ok := rawInt(meta.Zone); ok {
			zone = z
		}
		r.ranges = append(r.ranges, zoneRange{start: zone * 100, top: top, zone: zone})
	}
	sort.Slice(r.ranges, func(i, j int) bool { return r.ranges[i].start < r.ranges[j].start })
}

func rawInt(raw json.RawMessage) (int, bool) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}
