package validate

import (
	"context"
	"fmt"
	"strings"

	"mudgraph/internal/parser"
	"mudgraph/internal/store"
	"mudgraph/internal/world"
	"mudgraph/internal/zonecmd"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeParseError      = "parse_error"
	codeDanglingEdge    = "dangling_edge"
	codeNoMobileContext = "no_mobile_context"
	codeUnknownCommand  = "unknown_command"
	codeMissingName     = "missing_name"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	Zone     int
	Entity   string
	FilePath string
}

type Report struct {
	Issues []Issue
}

func (r *Report) Count(severity Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}

// namedKinds must carry a display name.
var namedKinds = []world.Kind{world.KindRoom, world.KindMobile, world.KindObject}

func Run(ctx context.Context, index Index) (*Report, error) {
	if index == nil {
		return nil, fmt.Errorf("index is required")
	}

	issues := make([]Issue, 0)

	parseErrors, err := index.ParseErrors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list parse errors: %w", err)
	}
	for _, pe := range parseErrors {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     codeParseError,
			Message:  fmt.Sprintf("%s (%s)", pe.Message, pe.Detail),
			Zone:     pe.Zone,
			Entity:   string(pe.Kind),
			FilePath: pe.SourcePath,
		})
	}

	dangling, err := index.DanglingEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("list dangling edges: %w", err)
	}
	for _, e := range dangling {
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeDanglingEdge,
			Message:  fmt.Sprintf("%s target %s %d is not indexed", e.Relation, e.Dst.Kind, e.Dst.Vnum),
			Zone:     e.Zone,
			Entity:   entityLabel(e.Src.Kind, e.Src.Vnum),
			FilePath: e.SourcePath,
		})
	}

	zones, err := index.CommandZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("list command zones: %w", err)
	}
	for _, zone := range zones {
		cmds, err := index.ZoneCommands(ctx, zone)
		if err != nil {
			return nil, fmt.Errorf("list commands of zone %d: %w", zone, err)
		}
		issues = append(issues, validateCommands(zone, cmds)...)
	}

	for _, kind := range namedKinds {
		entities, err := index.ListEntities(ctx, kind, nil)
		if err != nil {
			return nil, fmt.Errorf("list %s entities: %w", kind, err)
		}
		for _, e := range entities {
			if strings.TrimSpace(e.Name) != "" {
				continue
			}
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeMissingName,
				Message:  "entity has no name",
				Zone:     e.Zone,
				Entity:   entityLabel(e.Kind, e.Vnum),
			})
		}
	}

	return &Report{Issues: issues}, nil
}

// validateCommands replays a zone's stored commands through the interpreter.
func validateCommands(zone int, stored []store.ZoneCommand) []Issue {
	if len(stored) == 0 {
		return nil
	}
	cmds := make([]parser.Command, 0, len(stored))
	for _, c := range stored {
		cmds = append(cmds, parser.Command{
			Index:  c.Index,
			Code:   c.Code,
			Arg1:   c.Arg1,
			Arg2:   c.Arg2,
			Arg3:   c.Arg3,
			Prob:   c.Prob,
			IfFlag: c.IfFlag,
			Fields: c.Raw,
		})
	}

	var issues []Issue
	events, _ := zonecmd.Interpret(zone, cmds)
	for _, ev := range events {
		switch {
		case ev.NoMobileContext:
			issues = append(issues, commandIssue(stored[0].SourcePath, ev, codeNoMobileContext,
				fmt.Sprintf("%s command has no preceding mobile load", ev.Op)))
		case ev.Op == zonecmd.OpUnknown:
			issues = append(issues, commandIssue(stored[0].SourcePath, ev, codeUnknownCommand,
				fmt.Sprintf("unknown command code %q", ev.Code)))
		}
	}
	return issues
}

func commandIssue(path string, ev zonecmd.Event, code, message string) Issue {
	return Issue{
		Severity: SeverityWarn,
		Code:     code,
		Message:  message,
		Zone:     ev.Zone,
		Entity:   fmt.Sprintf("zone %d command %d", ev.Zone, ev.Index),
		FilePath: path,
	}
}

func entityLabel(kind world.Kind, vnum int) string {
	return fmt.Sprintf("%s %d", kind, vnum)
}
