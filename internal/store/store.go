package store

import (
	"context"

	"mudgraph/internal/world"
)

type Store interface {
	Reader

	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error
	Reset(ctx context.Context) error

	FileStates(ctx context.Context) (map[string]FileState, error)
	Begin(ctx context.Context) (Tx, error)
	RemoveMissingFiles(ctx context.Context, existing []string) (int64, error)
	RecordRun(ctx context.Context, run BuildRun) error
}

// Tx is one write batch. DeleteBySource removes every row a file owns so
// the file's rows can be rewritten.
type Tx interface {
	DeleteBySource(ctx context.Context, path string) error
	UpsertEntity(ctx context.Context, e Entity) error
	InsertEdges(ctx context.Context, edges []Edge) error
	InsertZoneCommands(ctx context.Context, cmds []ZoneCommand) error
	InsertRefs(ctx context.Context, refs []Ref) error
	InsertParseError(ctx context.Context, pe ParseError) error
	UpsertFileState(ctx context.Context, fs FileState) error
	Commit() error
	Rollback() error
}

type Reader interface {
	GetEntity(ctx context.Context, kind world.Kind, vnum int) (*Entity, error)
	FindEntities(ctx context.Context, vnum int) ([]Entity, error)
	ListEntities(ctx context.Context, kind world.Kind, zone *int) ([]EntitySummary, error)
	EntitiesWithExtra(ctx context.Context, kind world.Kind, key string) ([]Entity, error)

	// EdgesFrom and EdgesTo match every relation when relation is empty.
	EdgesFrom(ctx context.Context, src EntityRef, relation string) ([]Edge, error)
	EdgesTo(ctx context.Context, dst EntityRef, relation string) ([]Edge, error)
	DanglingEdges(ctx context.Context) ([]Edge, error)

	ZoneCommands(ctx context.Context, zone int) ([]ZoneCommand, error)
	CommandZones(ctx context.Context) ([]int, error)
	ParseErrors(ctx context.Context) ([]ParseError, error)

	Search(ctx context.Context, query string, kind world.Kind) ([]SearchResult, error)
	Stats(ctx context.Context) (*Stats, error)
	LastRun(ctx context.Context) (*BuildRun, error)
	RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}
