package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mudgraph/internal/store"
	"mudgraph/internal/world"
)

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query the index from the CLI",
	}
	cmd.AddCommand(queryEntityCmd())
	cmd.AddCommand(queryEdgesCmd())
	cmd.AddCommand(queryLocationsCmd())
	cmd.AddCommand(queryReachCmd())
	cmd.AddCommand(queryZoneCmd())
	cmd.AddCommand(queryListCmd())
	cmd.AddCommand(queryCmdsCmd())
	cmd.AddCommand(querySearchCmd())
	cmd.AddCommand(querySQLCmd())
	cmd.AddCommand(queryStatsCmd())
	return cmd
}

func parseVnum(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid vnum %q", arg)
	}
	return n, nil
}

func parseKindVnum(kindArg, vnumArg string) (world.Kind, int, error) {
	kind, err := world.ParseKind(kindArg)
	if err != nil {
		return "", 0, err
	}
	vnum, err := parseVnum(vnumArg)
	if err != nil {
		return "", 0, err
	}
	return kind, vnum, nil
}

func formatRef(ref store.EntityRef) string {
	if ref.Vnum == store.NoVnum {
		return fmt.Sprintf("%s -", ref.Kind)
	}
	return fmt.Sprintf("%s %d", ref.Kind, ref.Vnum)
}

func formatEdge(e store.Edge) string {
	line := fmt.Sprintf("%s -[%s]-> %s", formatRef(e.Src), e.Relation, formatRef(e.Dst))
	if len(e.Context) > 0 {
		line += " " + formatContext(e.Context)
	}
	return line
}

func formatContext(ctx map[string]any) string {
	keys := sortedKeys(ctx)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", key, ctx[key]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

func formatOptInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
