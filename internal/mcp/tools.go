package mcp

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"mudgraph/internal/reach"
	"mudgraph/internal/store"
	"mudgraph/internal/world"
)

type ResolveZoneInput struct {
	Vnum int  `json:"vnum" jsonschema:"virtual number to resolve"`
	Zone *int `json:"zone,omitempty" jsonschema:"zone hint, returned as is when given"`
}

type EntityKeyInput struct {
	Kind string `json:"kind" jsonschema:"zone, room, mobile, object, script, assemble or shop"`
	Vnum int    `json:"vnum" jsonschema:"virtual number"`
}

type VnumInput struct {
	Vnum int `json:"vnum" jsonschema:"object virtual number"`
}

type EdgesInput struct {
	Kind     string `json:"kind" jsonschema:"entity kind"`
	Vnum     int    `json:"vnum" jsonschema:"virtual number"`
	Relation string `json:"relation,omitempty" jsonschema:"relation filter, all relations when empty"`
}

type SearchEntitiesInput struct {
	Query string `json:"query" jsonschema:"search terms"`
	Kind  string `json:"kind,omitempty" jsonschema:"restrict to one entity kind"`
}

type ResolveZoneOutput struct {
	Vnum int `json:"vnum"`
	Zone int `json:"zone"`
}

type EntityOutput struct {
	Kind       string         `json:"kind"`
	Vnum       int            `json:"vnum"`
	Zone       int            `json:"zone"`
	Name       string         `json:"name"`
	Keywords   string         `json:"keywords,omitempty"`
	ShortDescr string         `json:"short_descr,omitempty"`
	LastEdited string         `json:"last_edited,omitempty"`
	SourcePath string         `json:"source_path"`
	Extra      map[string]any `json:"extra"`
}

type EntityRefOutput struct {
	Kind string `json:"kind"`
	Vnum *int   `json:"vnum"`
}

type EdgeOutput struct {
	From       EntityRefOutput `json:"from"`
	To         EntityRefOutput `json:"to"`
	Relation   string          `json:"relation"`
	Zone       int             `json:"zone"`
	SourcePath string          `json:"source_path"`
	Context    map[string]any  `json:"context,omitempty"`
}

type EdgesOutput struct {
	Edges []EdgeOutput `json:"edges"`
}

type LocationOutput struct {
	Kind        string `json:"kind"`
	Zone        int    `json:"zone"`
	Description string `json:"description"`
	Probability int    `json:"probability"`
}

type LoadLocationsOutput struct {
	Locations []LocationOutput `json:"locations"`
}

type HintOutput struct {
	Source EntityRefOutput `json:"source"`
	Tier   string          `json:"tier"`
	Reason string          `json:"reason"`
}

type ReachOutput struct {
	Vnum        int          `json:"vnum"`
	Reachable   bool         `json:"reachable"`
	Probability float64      `json:"probability"`
	Basis       string       `json:"basis"`
	Tier        string       `json:"tier,omitempty"`
	Explanation string       `json:"explanation"`
	Via         []EdgeOutput `json:"via,omitempty"`
	Hints       []HintOutput `json:"hints,omitempty"`
}

type SearchResultOutput struct {
	Kind    string  `json:"kind"`
	Vnum    int     `json:"vnum"`
	Zone    int     `json:"zone"`
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet,omitempty"`
}

type SearchEntitiesOutput struct {
	Results []SearchResultOutput `json:"results"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "resolve_zone",
		Description: "Find the zone that owns a virtual number",
	}, s.handleResolveZone)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_entity",
		Description: "Retrieve one indexed entity by kind and virtual number",
	}, s.handleGetEntity)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "load_locations",
		Description: "List where an object loads, most likely first",
	}, s.handleLoadLocations)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "reach",
		Description: "Decide whether an object can be obtained and with what probability",
	}, s.handleReach)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "edges_from",
		Description: "List edges leaving an entity",
	}, s.handleEdgesFrom)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "edges_to",
		Description: "List edges arriving at an entity",
	}, s.handleEdgesTo)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "search_entities",
		Description: "Search entities by name, keywords and short description",
	}, s.handleSearchEntities)
}

func (s *Server) handleResolveZone(ctx context.Context, req *sdk.CallToolRequest, input ResolveZoneInput) (*sdk.CallToolResult, ResolveZoneOutput, error) {
	if input.Vnum < 0 {
		return nil, ResolveZoneOutput{}, fmt.Errorf("vnum must not be negative")
	}
	zone, err := s.query.ResolveZone(ctx, input.Vnum, input.Zone)
	if err != nil {
		return nil, ResolveZoneOutput{}, err
	}
	return nil, ResolveZoneOutput{Vnum: input.Vnum, Zone: zone}, nil
}

func (s *Server) handleGetEntity(ctx context.Context, req *sdk.CallToolRequest, input EntityKeyInput) (*sdk.CallToolResult, EntityOutput, error) {
	kind, err := world.ParseKind(input.Kind)
	if err != nil {
		return nil, EntityOutput{}, err
	}
	entity, err := s.query.GetEntity(ctx, kind, input.Vnum)
	if err != nil {
		return nil, EntityOutput{}, err
	}
	return nil, entityOutputFromStore(entity), nil
}

func (s *Server) handleLoadLocations(ctx context.Context, req *sdk.CallToolRequest, input VnumInput) (*sdk.CallToolResult, LoadLocationsOutput, error) {
	locs, err := s.query.LoadLocations(ctx, input.Vnum)
	if err != nil {
		return nil, LoadLocationsOutput{}, err
	}
	output := make([]LocationOutput, 0, len(locs))
	for _, loc := range locs {
		output = append(output, LocationOutput{
			Kind:        string(loc.Kind),
			Zone:        loc.Zone,
			Description: loc.Description,
			Probability: loc.Probability,
		})
	}
	return nil, LoadLocationsOutput{Locations: output}, nil
}

func (s *Server) handleReach(ctx context.Context, req *sdk.CallToolRequest, input VnumInput) (*sdk.CallToolResult, ReachOutput, error) {
	res, err := s.query.Reach(ctx, input.Vnum)
	if err != nil {
		return nil, ReachOutput{}, err
	}
	return nil, reachOutputFromResult(res), nil
}

func (s *Server) handleEdgesFrom(ctx context.Context, req *sdk.CallToolRequest, input EdgesInput) (*sdk.CallToolResult, EdgesOutput, error) {
	return s.edges(ctx, input, s.query.EdgesFrom)
}

func (s *Server) handleEdgesTo(ctx context.Context, req *sdk.CallToolRequest, input EdgesInput) (*sdk.CallToolResult, EdgesOutput, error) {
	return s.edges(ctx, input, s.query.EdgesTo)
}

type edgeLister func(ctx context.Context, kind world.Kind, vnum int, relation string) ([]store.Edge, error)

func (s *Server) edges(ctx context.Context, input EdgesInput, list edgeLister) (*sdk.CallToolResult, EdgesOutput, error) {
	kind, err := world.ParseKind(input.Kind)
	if err != nil {
		return nil, EdgesOutput{}, err
	}
	edges, err := list(ctx, kind, input.Vnum, input.Relation)
	if err != nil {
		return nil, EdgesOutput{}, err
	}
	return nil, EdgesOutput{Edges: edgeOutputs(edges)}, nil
}

func (s *Server) handleSearchEntities(ctx context.Context, req *sdk.CallToolRequest, input SearchEntitiesInput) (*sdk.CallToolResult, SearchEntitiesOutput, error) {
	if input.Query == "" {
		return nil, SearchEntitiesOutput{}, fmt.Errorf("query is required")
	}
	var kind world.Kind
	if input.Kind != "" {
		k, err := world.ParseKind(input.Kind)
		if err != nil {
			return nil, SearchEntitiesOutput{}, err
		}
		kind = k
	}
	results, err := s.query.Search(ctx, input.Query, kind)
	if err != nil {
		return nil, SearchEntitiesOutput{}, err
	}

	output := make([]SearchResultOutput, 0, len(results))
	for _, r := range results {
		output = append(output, SearchResultOutput{
			Kind:    string(r.Kind),
			Vnum:    r.Vnum,
			Zone:    r.Zone,
			Name:    r.Name,
			Score:   r.Score,
			Snippet: r.Snippet,
		})
	}
	return nil, SearchEntitiesOutput{Results: output}, nil
}

func entityOutputFromStore(e *store.Entity) EntityOutput {
	if e == nil {
		return EntityOutput{}
	}
	extra := map[string]any{}
	for key, value := range e.Extra {
		extra[key] = value
	}
	return EntityOutput{
		Kind:       string(e.Kind),
		Vnum:       e.Vnum,
		Zone:       e.Zone,
		Name:       e.Name,
		Keywords:   e.Keywords,
		ShortDescr: e.ShortDescr,
		LastEdited: e.LastEdited,
		SourcePath: e.SourcePath,
		Extra:      extra,
	}
}

func refOutput(ref store.EntityRef) EntityRefOutput {
	out := EntityRefOutput{Kind: string(ref.Kind)}
	if ref.Vnum != store.NoVnum {
		v := ref.Vnum
		out.Vnum = &v
	}
	return out
}

func edgeOutputs(edges []store.Edge) []EdgeOutput {
	out := make([]EdgeOutput, 0, len(edges))
	for _, e := range edges {
		out = append(out, EdgeOutput{
			From:       refOutput(e.Src),
			To:         refOutput(e.Dst),
			Relation:   e.Relation,
			Zone:       e.Zone,
			SourcePath: e.SourcePath,
			Context:    e.Context,
		})
	}
	return out
}

func reachOutputFromResult(res *reach.Result) ReachOutput {
	out := ReachOutput{
		Vnum:        res.Vnum,
		Reachable:   res.Reachable,
		Probability: res.Probability,
		Basis:       string(res.Basis),
		Tier:        string(res.Tier),
		Explanation: res.Explanation,
	}
	if len(res.Via) > 0 {
		out.Via = edgeOutputs(res.Via)
	}
	for _, h := range res.Hints {
		out.Hints = append(out.Hints, HintOutput{Source: refOutput(h.Source), Tier: string(h.Tier), Reason: h.Reason})
	}
	return out
}
