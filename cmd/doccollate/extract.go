package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/doccollate/internal/fields"
)

var extractTarget string

func init() {
	extractCmd.Flags().StringVar(&extractTarget, "target", fields.TargetTestForms, "Output target: test_forms or copyright")
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract FILE",
	Short: "Extract the fields of one form target from a document",
	Long: `Extract the fields of one form target and print them as JSON.

Examples:
  # Assessment forms from a Word manual
  doccollate extract --target test_forms manual.docx

  # Copyright registration, written to a file
  doccollate extract --target copyright --app-name 考勤管理系统 --app-version V1.0 --out fields.json manual.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	if extractTarget == fields.TargetProposal {
		return fmt.Errorf("use the proposal command for target %q", extractTarget)
	}
	ctx := cmd.Context()
	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.processor.ProcessFile(ctx, args[0], extractTarget, "")
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(out.Fields, "", "  ")
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	return writeOut(b)
}
