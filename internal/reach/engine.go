// Package reach answers whether an object can be obtained and how likely it
// is, combining placement sites and assembly recipes from the index.
package reach

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"mudgraph/internal/logging"
	"mudgraph/internal/store"
	"mudgraph/internal/world"
)

// Graph is the part of the index the engine reads. store.Reader satisfies it.
type Graph interface {
	GetEntity(ctx context.Context, kind world.Kind, vnum int) (*store.Entity, error)
	EdgesFrom(ctx context.Context, src store.EntityRef, relation string) ([]store.Edge, error)
	EdgesTo(ctx context.Context, dst store.EntityRef, relation string) ([]store.Edge, error)
	EntitiesWithExtra(ctx context.Context, kind world.Kind, key string) ([]store.Entity, error)
}

type Basis string

const (
	BasisStructural Basis = "structural"
	BasisHeuristic  Basis = "heuristic"
	BasisNone       Basis = "none"
)

// Result is the answer for one object. Probability is in 0..100 and is only
// non-zero on a structural basis. Via holds the edges of the winning site or
// recipe.
type Result struct {
	Vnum        int
	Reachable   bool
	Probability float64
	Basis       Basis
	Tier        Tier
	Via         []store.Edge
	Hints       []Hint
	Explanation string
}

// Engine evaluates reachability queries. A query's memo and in-progress set
// live only for that query; queries on one Engine are serialized.
type Engine struct {
	graph  Graph
	logger *zap.Logger
	mu     sync.Mutex
}

func New(graph Graph, logger *zap.Logger) *Engine {
	return &Engine{graph: graph, logger: logging.OrNop(logger)}
}

// LoadLocations lists the placement sites of an object, most likely first,
// one per (zone, description).
func (e *Engine) LoadLocations(ctx context.Context, vnum int) ([]Location, error) {
	locs, err := sites(ctx, e.graph, vnum)
	if err != nil {
		return nil, err
	}
	return sortLocations(locs), nil
}

func (e *Engine) Reach(ctx context.Context, vnum int) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	q := &query{graph: e.graph, logger: e.logger, memo: make(map[int]outcome), inProgress: make(map[int]struct{})}
	out, err := q.evaluate(ctx, vnum)
	if err != nil {
		return nil, err
	}

	res := &Result{Vnum: vnum, Probability: out.prob, Via: out.via}
	if out.prob > 0 {
		res.Reachable = true
		res.Basis = BasisStructural
		res.Explanation = out.why
		return res, nil
	}
	if out.structural {
		res.Basis = BasisStructural
		res.Explanation = out.why
		return res, nil
	}

	hints, err := scanHints(ctx, e.graph, vnum)
	if err != nil {
		return nil, err
	}
	if len(hints) == 0 {
		res.Basis = BasisNone
		res.Explanation = "no placement site, recipe, script or special procedure found"
		return res, nil
	}
	res.Reachable = true
	res.Basis = BasisHeuristic
	res.Tier = hints[0].Tier
	res.Hints = hints
	res.Explanation = fmt.Sprintf("heuristic (%s): %s", res.Tier, hints[0].Reason)
	return res, nil
}

type outcome struct {
	prob float64
	// structural is set when the object has a placement site or a recipe,
	// even if every one of them evaluates to zero.
	structural bool
	via        []store.Edge
	why        string
}

type recipe struct {
	produces store.Edge
	parts    []store.Edge
}

type frame struct {
	vnum    int
	site    *Location
	recipes []recipe
	ri, pi  int
	acc     float64
	best    float64
	bestIdx int
}

type query struct {
	graph      Graph
	logger     *zap.Logger
	memo       map[int]outcome
	inProgress map[int]struct{}
}

// evaluate walks recipe parts depth first on an explicit stack. A part that
// is already in progress contributes zero.
func (q *query) evaluate(ctx context.Context, target int) (outcome, error) {
	var stack []*frame

	push := func(vnum int) error {
		f, err := q.load(ctx, vnum)
		if err != nil {
			return err
		}
		q.inProgress[vnum] = struct{}{}
		stack = append(stack, f)
		return nil
	}

	if err := push(target); err != nil {
		return outcome{}, err
	}

	var result outcome
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return outcome{}, err
		}
		f := stack[len(stack)-1]

		if f.ri >= len(f.recipes) {
			out := f.finish()
			q.memo[f.vnum] = out
			delete(q.inProgress, f.vnum)
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				result = out
				break
			}
			stack[len(stack)-1].feed(out.prob)
			continue
		}

		r := f.recipes[f.ri]
		if f.pi >= len(r.parts) {
			f.feed(-1)
			continue
		}
		part := r.parts[f.pi]
		if !part.HasDst() {
			f.feed(0)
			continue
		}
		if out, ok := q.memo[part.Dst.Vnum]; ok {
			f.feed(out.prob)
			continue
		}
		if _, ok := q.inProgress[part.Dst.Vnum]; ok {
			q.logger.Debug("recipe cycle",
				zap.Int("object", f.vnum),
				zap.Int("part", part.Dst.Vnum),
				zap.Int("assemble", r.produces.Src.Vnum),
			)
			f.feed(0)
			continue
		}
		if err := push(part.Dst.Vnum); err != nil {
			return outcome{}, err
		}
	}
	return result, nil
}

func (q *query) load(ctx context.Context, vnum int) (*frame, error) {
	f := &frame{vnum: vnum, acc: 100, bestIdx: -1}

	locs, err := sites(ctx, q.graph, vnum)
	if err != nil {
		return nil, err
	}
	for i := range locs {
		if f.site == nil || locs[i].Probability > f.site.Probability {
			f.site = &locs[i]
		}
	}

	obj := store.EntityRef{Kind: world.KindObject, Vnum: vnum}
	produced, err := q.graph.EdgesTo(ctx, obj, store.RelProduces)
	if err != nil {
		return nil, fmt.Errorf("loading recipes of object %d: %w", vnum, err)
	}
	for _, p := range produced {
		parts, err := q.graph.EdgesFrom(ctx, p.Src, store.RelRequiresPart)
		if err != nil {
			return nil, fmt.Errorf("loading parts of assemble %d: %w", p.Src.Vnum, err)
		}
		f.recipes = append(f.recipes, recipe{produces: p, parts: parts})
	}
	return f, nil
}

// feed applies the value of the current part. A negative value closes the
// current recipe with its accumulated product. Zero closes it unreachable
// without looking at the remaining parts.
func (f *frame) feed(prob float64) {
	switch {
	case prob < 0:
		r := f.recipes[f.ri]
		if len(r.parts) > 0 && f.acc > f.best {
			f.best, f.bestIdx = f.acc, f.ri
		}
	case prob == 0:
	default:
		f.acc = f.acc * prob / 100
		f.pi++
		return
	}
	f.ri++
	f.pi = 0
	f.acc = 100
}

func (f *frame) finish() outcome {
	out := outcome{structural: f.site != nil || len(f.recipes) > 0}
	siteProb := 0.0
	if f.site != nil {
		siteProb = float64(f.site.Probability)
	}

	switch {
	case f.site != nil && siteProb >= f.best && siteProb > 0:
		out.prob = siteProb
		out.via = []store.Edge{f.site.Edge}
		out.why = "placed " + f.site.String()
	case f.bestIdx >= 0 && f.best > 0:
		r := f.recipes[f.bestIdx]
		out.prob = f.best
		out.via = append([]store.Edge{r.produces}, r.parts...)
		out.why = fmt.Sprintf("assembled by assemble %d from %s, %s%%", r.produces.Src.Vnum, partList(r.parts), formatProb(f.best))
	case f.site != nil:
		out.why = "every placement site has probability 0"
	case len(f.recipes) > 0:
		out.why = "every recipe has an unreachable part"
	}
	return out
}

func partList(parts []store.Edge) string {
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if !p.HasDst() {
			names = append(names, "object ?")
			continue
		}
		names = append(names, "object "+strconv.Itoa(p.Dst.Vnum))
	}
	return strings.Join(names, ", ")
}

func formatProb(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
