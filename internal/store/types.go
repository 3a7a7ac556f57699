package store

import (
	"time"

	"mudgraph/internal/world"
)

// NoVnum marks an edge destination that the source data left empty. It is
// persisted as NULL.
const NoVnum = -1

type EntityRef struct {
	Kind world.Kind
	Vnum int
}

type Entity struct {
	Kind       world.Kind
	Vnum       int
	Zone       int
	SourcePath string
	Name       string
	Keywords   string
	ShortDescr string
	LastEdited string
	Extra      map[string]any
	Raw        string
}

func (e *Entity) Ref() EntityRef {
	return EntityRef{Kind: e.Kind, Vnum: e.Vnum}
}

type EntitySummary struct {
	Kind world.Kind
	Vnum int
	Zone int
	Name string
}

type Edge struct {
	SourcePath string
	Src        EntityRef
	Dst        EntityRef
	Relation   string
	Zone       int
	Context    map[string]any
}

func (e Edge) HasDst() bool {
	return e.Dst.Vnum != NoVnum
}

type ZoneCommand struct {
	SourcePath string
	Zone       int
	Index      int
	Code       string
	Prob       *int
	IfFlag     *int
	Arg1       *int
	Arg2       *int
	Arg3       *int
	Raw        map[string]any
}

// Ref is one integer found by the deep-reference scan. Guess is an entity
// kind, or "any" when the key named none.
type Ref struct {
	SourcePath string
	Src        EntityRef
	KeyPath    string
	Guess      string
	DstVnum    int
	Context    map[string]any
}

type ParseError struct {
	SourcePath string
	Zone       int
	Kind       world.Kind
	Message    string
	Detail     string
}

// FileState is the change-detection fingerprint of one source file. MTime
// is in nanoseconds; Hash is empty under mtime detection.
type FileState struct {
	Path  string
	MTime int64
	Size  int64
	Hash  string
}

type BuildRun struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	Mode         string
	Zones        string
	FilesScanned int
	FilesChanged int
	Entities     int
	Edges        int
	Errors       int
}

type SearchResult struct {
	Kind    world.Kind
	Vnum    int
	Zone    int
	Name    string
	Score   float64
	Snippet string
}

type Stats struct {
	Tables  map[string]int64
	Kinds   map[world.Kind]int64
	LastRun *BuildRun
}
