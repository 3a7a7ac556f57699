package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"mudgraph/internal/store"
)

func queryEntityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entity [kind] <vnum>",
		Short: "Display an entity and its properties",
		Long:  "Display one entity. Without a kind, every entity sharing the vnum is shown.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryEntity(cmd, args)
		},
	}
	return cmd
}

func runQueryEntity(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	idx, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer idx.Close(ctx)

	if len(args) == 1 {
		vnum, err := parseVnum(args[0])
		if err != nil {
			return err
		}
		entities, err := idx.svc.FindEntities(ctx, vnum)
		if err != nil {
			return err
		}
		if len(entities) == 0 {
			fmt.Fprintf(os.Stdout, "No entity found for vnum %d.\n", vnum)
			return nil
		}
		for i := range entities {
			if i > 0 {
				fmt.Fprintln(os.Stdout, "")
			}
			printEntity(&entities[i])
		}
		return nil
	}

	kind, vnum, err := parseKindVnum(args[0], args[1])
	if err != nil {
		return err
	}
	entity, err := idx.svc.GetEntity(ctx, kind, vnum)
	if err != nil {
		return err
	}
	printEntity(entity)
	return nil
}

func printEntity(entity *store.Entity) {
	fmt.Fprintf(os.Stdout, "%s %d (zone %d)\n", entity.Kind, entity.Vnum, entity.Zone)
	if entity.Name != "" {
		fmt.Fprintf(os.Stdout, "Name: %s\n", entity.Name)
	}
	if entity.Keywords != "" {
		fmt.Fprintf(os.Stdout, "Keywords: %s\n", entity.Keywords)
	}
	if entity.ShortDescr != "" {
		fmt.Fprintf(os.Stdout, "Short: %s\n", entity.ShortDescr)
	}
	if entity.LastEdited != "" {
		fmt.Fprintf(os.Stdout, "Last edited: %s\n", entity.LastEdited)
	}
	fmt.Fprintf(os.Stdout, "Source: %s\n", entity.SourcePath)

	if len(entity.Extra) == 0 {
		return
	}
	fmt.Fprintln(os.Stdout, "Properties:")
	for _, key := range sortedKeys(entity.Extra) {
		fmt.Fprintf(os.Stdout, "  %s: %v\n", key, entity.Extra[key])
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
