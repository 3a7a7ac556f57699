package reach

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"mudgraph/internal/store"
	"mudgraph/internal/world"
)

// Tier is the confidence of a heuristic hint, strongest first.
type Tier string

const (
	TierDirect      Tier = "direct"
	TierConditional Tier = "conditional"
	TierReferenced  Tier = "referenced"
)

func (t Tier) rank() int {
	switch t {
	case TierDirect:
		return 0
	case TierConditional:
		return 1
	default:
		return 2
	}
}

// Hint is one script or special procedure that may create an object.
type Hint struct {
	Source store.EntityRef
	Tier   Tier
	Reason string
}

var (
	branchPattern   = regexp.MustCompile(`(?i)\b(?:if|random)\b`)
	transferPattern = regexp.MustCompile(`\bobj_to_(?:char|room)\b`)
)

var scriptBodyKeys = []string{"code", "script"}

// scanHints looks for scripts that mention the object next to a creation
// command and for special procedures on spawned mobiles of the object's zone.
func scanHints(ctx context.Context, g Graph, vnum int) ([]Hint, error) {
	num := regexp.QuoteMeta(strconv.Itoa(vnum))
	mention := regexp.MustCompile(`\b` + num + `\b`)
	create := regexp.MustCompile(`(?i)\b(?:oload|load\s+obj|create|give|drop)\s+` + num + `\b`)

	var hints []Hint
	seen := make(map[int]struct{})
	for _, key := range scriptBodyKeys {
		scripts, err := g.EntitiesWithExtra(ctx, world.KindScript, key)
		if err != nil {
			return nil, fmt.Errorf("loading scripts: %w", err)
		}
		for _, s := range scripts {
			if _, ok := seen[s.Vnum]; ok {
				continue
			}
			code, _ := s.Extra[key].(string)
			if !mention.MatchString(code) {
				continue
			}
			seen[s.Vnum] = struct{}{}

			h := Hint{Source: s.Ref()}
			switch {
			case create.MatchString(code) && branchPattern.MatchString(code):
				h.Tier, h.Reason = TierConditional, fmt.Sprintf("script %d creates it under a condition", s.Vnum)
			case create.MatchString(code):
				h.Tier, h.Reason = TierDirect, fmt.Sprintf("script %d creates it", s.Vnum)
			case transferPattern.MatchString(code):
				h.Tier, h.Reason = TierConditional, fmt.Sprintf("script %d hands it out", s.Vnum)
			default:
				h.Tier, h.Reason = TierReferenced, fmt.Sprintf("script %d mentions it", s.Vnum)
			}
			hints = append(hints, h)
		}
	}

	specHints, err := specProcHints(ctx, g, vnum)
	if err != nil {
		return nil, err
	}
	hints = append(hints, specHints...)

	sort.SliceStable(hints, func(i, j int) bool {
		a, b := hints[i], hints[j]
		if a.Tier.rank() != b.Tier.rank() {
			return a.Tier.rank() < b.Tier.rank()
		}
		if a.Source.Kind != b.Source.Kind {
			return a.Source.Kind < b.Source.Kind
		}
		return a.Source.Vnum < b.Source.Vnum
	})
	return hints, nil
}

func specProcHints(ctx context.Context, g Graph, vnum int) ([]Hint, error) {
	obj, err := g.GetEntity(ctx, world.KindObject, vnum)
	if err != nil {
		return nil, fmt.Errorf("loading object %d: %w", vnum, err)
	}
	if obj == nil {
		return nil, nil
	}

	mobiles, err := g.EntitiesWithExtra(ctx, world.KindMobile, "spec_proc")
	if err != nil {
		return nil, fmt.Errorf("loading special procedures: %w", err)
	}
	var hints []Hint
	for _, m := range mobiles {
		proc, _ := m.Extra["spec_proc"].(string)
		proc = strings.TrimSpace(proc)
		if m.Zone != obj.Zone || proc == "" {
			continue
		}
		spawns, err := g.EdgesFrom(ctx, m.Ref(), store.RelSpawnsIn)
		if err != nil {
			return nil, fmt.Errorf("loading spawns of mobile %d: %w", m.Vnum, err)
		}
		if len(spawns) == 0 {
			continue
		}
		hints = append(hints, Hint{
			Source: m.Ref(),
			Tier:   TierReferenced,
			Reason: fmt.Sprintf("mobile %d in zone %d runs special procedure %q", m.Vnum, m.Zone, proc),
		})
	}
	return hints, nil
}
