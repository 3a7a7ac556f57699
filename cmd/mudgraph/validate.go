package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mudgraph/internal/config"
	"mudgraph/internal/validate"
)

func validateCmd() *cobra.Command {
	var zoneSpec string
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Report parse failures and suspicious references in the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			zones, err := config.ParseZoneSpec(zoneSpec)
			if err != nil {
				return err
			}
			return runValidate(cmd, zones, strict)
		},
	}
	cmd.Flags().StringVar(&zoneSpec, "zones", "", "Only report issues in these zones")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on warnings as well as errors")
	return cmd
}

func runValidate(cmd *cobra.Command, zones config.ZoneFilter, strict bool) error {
	ctx := context.Background()

	idx, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer idx.Close(ctx)

	report, err := validate.Run(ctx, idx.db)
	if err != nil {
		return err
	}

	bySeverity := map[validate.Severity][]validate.Issue{}
	for _, issue := range report.Issues {
		if zones.Contains(issue.Zone) {
			bySeverity[issue.Severity] = append(bySeverity[issue.Severity], issue)
		}
	}

	out := cmd.OutOrStdout()
	sections := []struct {
		title    string
		severity validate.Severity
	}{
		{"Errors", validate.SeverityError},
		{"Warnings", validate.SeverityWarn},
	}
	printed := 0
	for _, sec := range sections {
		issues := bySeverity[sec.severity]
		if len(issues) == 0 {
			continue
		}
		if printed > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s (%d):\n", sec.title, len(issues))
		printIssues(out, issues)
		printed++
	}
	if printed == 0 {
		fmt.Fprintln(out, "No issues found.")
		return nil
	}

	errs, warns := len(bySeverity[validate.SeverityError]), len(bySeverity[validate.SeverityWarn])
	if errs > 0 || (strict && warns > 0) {
		return fmt.Errorf("validation failed: %d errors, %d warnings", errs, warns)
	}
	return nil
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		location := fmt.Sprintf("zone %d", issue.Zone)
		if issue.Entity != "" {
			location = fmt.Sprintf("%s [zone %d]", issue.Entity, issue.Zone)
		}
		if issue.FilePath != "" {
			location += " (" + issue.FilePath + ")"
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}
