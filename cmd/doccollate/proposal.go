package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/doccollate/internal/fields"
	"github.com/joseph-ayodele/doccollate/internal/proposal"
)

var (
	proposalPreset  string
	proposalStrict  bool
	proposalCompany string
	proposalProject string
	proposalMapping bool
)

func init() {
	proposalCmd.Flags().StringVar(&proposalPreset, "preset", "", "YAML file with cover, revisions, sign-offs and schedule")
	proposalCmd.Flags().BoolVar(&proposalStrict, "strict", false, "Fail on the first validation error instead of auto-fixing")
	proposalCmd.Flags().StringVar(&proposalCompany, "company", "", "Company name when no preset is given")
	proposalCmd.Flags().StringVar(&proposalProject, "project", "", "Project name when no preset is given (default: file name)")
	proposalCmd.Flags().BoolVar(&proposalMapping, "placeholders", false, "Print the flat placeholder map instead of the document")
	rootCmd.AddCommand(proposalCmd)
}

var proposalCmd = &cobra.Command{
	Use:   "proposal FILE",
	Short: "Generate a validated project proposal from a document",
	Long: `Generate a project proposal in one completion call, validate it and
repair tables that fail validation.

Examples:
  doccollate proposal --preset preset.yaml spec.docx
  doccollate proposal --company 示例科技有限公司 --project 考勤管理系统 --strict spec.md`,
	Args: cobra.ExactArgs(1),
	RunE: runProposal,
}

func runProposal(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	switch {
	case proposalPreset != "":
		in, err := proposal.LoadPreset(proposalPreset)
		if err != nil {
			return err
		}
		a.processor.Inputs = in
	case proposalCompany != "":
		project := proposalProject
		if project == "" {
			project = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}
		in := a.generator.InputsFor(ctx, proposalCompany, project)
		if err := in.Validate(); err != nil {
			return err
		}
		a.processor.Inputs = in
	case proposalProject != "":
		a.processor.Meta.AppName = proposalProject
	}

	out, err := a.processor.ProcessFile(ctx, args[0], fields.TargetProposal, "")
	if err != nil {
		if errs, ok := proposal.Violations(err); ok {
			for _, e := range errs {
				a.logger.Error("proposal.violation", "error", e)
			}
		}
		return err
	}

	var v any = out.Proposal.Document
	if proposalMapping {
		v = out.Proposal.Placeholders
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode proposal: %w", err)
	}
	return writeOut(b)
}
