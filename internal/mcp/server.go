package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"mudgraph/internal/reach"
	"mudgraph/internal/store"
	"mudgraph/internal/world"
)

// Querier is the query interface the tools expose. *query.Service
// satisfies it.
type Querier interface {
	ResolveZone(ctx context.Context, vnum int, hint *int) (int, error)
	GetEntity(ctx context.Context, kind world.Kind, vnum int) (*store.Entity, error)
	LoadLocations(ctx context.Context, vnum int) ([]reach.Location, error)
	Reach(ctx context.Context, vnum int) (*reach.Result, error)
	EdgesFrom(ctx context.Context, kind world.Kind, vnum int, relation string) ([]store.Edge, error)
	EdgesTo(ctx context.Context, kind world.Kind, vnum int, relation string) ([]store.Edge, error)
	Search(ctx context.Context, text string, kind world.Kind) ([]store.SearchResult, error)
}

type Server struct {
	query Querier
	mcp   *sdk.Server
}

func NewServer(q Querier, version string) *Server {
	s := &Server{
		query: q,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "mudgraph",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
