// Package query is the read-only interface other tools use to ask the index
// about entities, edges, zones and reachability.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mudgraph/internal/cache"
	"mudgraph/internal/logging"
	"mudgraph/internal/reach"
	"mudgraph/internal/store"
	"mudgraph/internal/world"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnknownRelation = errors.New("unknown relation")
	ErrReadOnly        = errors.New("only read-only statements are allowed")
)

// ZoneResolver maps a vnum to its owning zone. *world.Resolver satisfies it.
type ZoneResolver interface {
	Resolve(vnum int) (int, bool)
}

type Service struct {
	db       store.Reader
	resolver ZoneResolver
	engine   *reach.Engine
	cache    cache.Cache
	logger   *zap.Logger
}

// New builds a Service. resolver may be nil when no world tree is at hand;
// zones are then resolved from the index alone.
func New(db store.Reader, resolver ZoneResolver, logger *zap.Logger) *Service {
	logger = logging.OrNop(logger)
	return &Service{
		db:       db,
		resolver: resolver,
		engine:   reach.New(db, logger),
		logger:   logger,
	}
}

// ResolveZone returns hint when given, then the world tree's answer, then
// the zone of any indexed entity with this vnum.
func (s *Service) ResolveZone(ctx context.Context, vnum int, hint *int) (int, error) {
	if hint != nil {
		return *hint, nil
	}
	if s.resolver != nil {
		if zone, ok := s.resolver.Resolve(vnum); ok {
			return zone, nil
		}
	}
	entities, err := s.db.FindEntities(ctx, vnum)
	if err != nil {
		return 0, fmt.Errorf("resolving zone of %d: %w", vnum, err)
	}
	for _, e := range entities {
		if e.Kind != world.KindZone {
			return e.Zone, nil
		}
	}
	if len(entities) > 0 {
		return entities[0].Zone, nil
	}
	return 0, fmt.Errorf("zone of vnum %d: %w", vnum, ErrNotFound)
}

func (s *Service) GetEntity(ctx context.Context, kind world.Kind, vnum int) (*store.Entity, error) {
	e, err := s.db.GetEntity(ctx, kind, vnum)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("%s %d: %w", kind, vnum, ErrNotFound)
	}
	return e, nil
}

// FindEntities returns every entity of any kind with this vnum.
func (s *Service) FindEntities(ctx context.Context, vnum int) ([]store.Entity, error) {
	return s.db.FindEntities(ctx, vnum)
}

func (s *Service) ListEntities(ctx context.Context, kind world.Kind, zone *int) ([]store.EntitySummary, error) {
	return s.db.ListEntities(ctx, kind, zone)
}

// UseCache shares LoadLocations and Reach answers through c.
func (s *Service) UseCache(c cache.Cache) {
	s.cache = c
}

func (s *Service) LoadLocations(ctx context.Context, vnum int) ([]reach.Location, error) {
	return cached(ctx, s, "locations", vnum, func() ([]reach.Location, error) {
		return s.engine.LoadLocations(ctx, vnum)
	})
}

func (s *Service) Reach(ctx context.Context, vnum int) (*reach.Result, error) {
	return cached(ctx, s, "reach", vnum, func() (*reach.Result, error) {
		return s.engine.Reach(ctx, vnum)
	})
}

// EdgesFrom lists edges leaving (kind, vnum). An empty relation matches all.
func (s *Service) EdgesFrom(ctx context.Context, kind world.Kind, vnum int, relation string) ([]store.Edge, error) {
	if err := checkRelation(relation); err != nil {
		return nil, err
	}
	return s.db.EdgesFrom(ctx, store.EntityRef{Kind: kind, Vnum: vnum}, relation)
}

// EdgesTo lists edges arriving at (kind, vnum). An empty relation matches all.
func (s *Service) EdgesTo(ctx context.Context, kind world.Kind, vnum int, relation string) ([]store.Edge, error) {
	if err := checkRelation(relation); err != nil {
		return nil, err
	}
	return s.db.EdgesTo(ctx, store.EntityRef{Kind: kind, Vnum: vnum}, relation)
}

func checkRelation(relation string) error {
	if relation == "" || store.IsKnownRelation(relation) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownRelation, relation)
}

func (s *Service) Search(ctx context.Context, text string, kind world.Kind) ([]store.SearchResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("search text is required")
	}
	return s.db.Search(ctx, text, kind)
}

func (s *Service) Stats(ctx context.Context) (*store.Stats, error) {
	return s.db.Stats(ctx)
}

func (s *Service) ZoneCommands(ctx context.Context, zone int) ([]store.ZoneCommand, error) {
	return s.db.ZoneCommands(ctx, zone)
}

func (s *Service) ParseErrors(ctx context.Context) ([]store.ParseError, error) {
	return s.db.ParseErrors(ctx)
}

var readOnlyPrefixes = []string{"select", "with", "explain", "values"}

// RunSQL runs a single read-only statement against the index.
func (s *Service) RunSQL(ctx context.Context, statement string, params map[string]any) ([]map[string]any, error) {
	if !isReadOnly(statement) {
		return nil, ErrReadOnly
	}
	return s.db.RunSQL(ctx, statement, params)
}

func isReadOnly(statement string) bool {
	stmt := strings.TrimSpace(statement)
	stmt = strings.TrimSuffix(stmt, ";")
	if strings.Contains(stmt, ";") {
		return false
	}
	lower := strings.ToLower(stmt)
	for _, p := range readOnlyPrefixes {
		if strings.HasPrefix(lower, p) && (len(lower) == len(p) || !isWordByte(lower[len(p)])) {
			return !strings.Contains(" "+lower+" ", " insert ") &&
				!strings.Contains(" "+lower+" ", " update ") &&
				!strings.Contains(" "+lower+" ", " delete ")
		}
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}
