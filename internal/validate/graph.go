package validate

import (
	"context"

	"mudgraph/internal/store"
	"mudgraph/internal/world"
)

// Index is the part of the store the checks read. store.Reader satisfies it.
type Index interface {
	ListEntities(ctx context.Context, kind world.Kind, zone *int) ([]store.EntitySummary, error)
	DanglingEdges(ctx context.Context) ([]store.Edge, error)
	CommandZones(ctx context.Context) ([]int, error)
	ZoneCommands(ctx context.Context, zone int) ([]store.ZoneCommand, error)
	ParseErrors(ctx context.Context) ([]store.ParseError, error)
}
