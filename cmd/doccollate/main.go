// Command doccollate extracts form fields and proposals from software
// specification documents.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "dev"

	// global flags
	logLevel      string
	outPath       string
	appName       string
	appVersion    string
	applicantType string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "doccollate",
	Short: "Collate form fields from software specification documents",
	Long: `doccollate reads a specification document (pdf, docx, markdown or text),
finds the evidence each form field needs and asks the completion service for
the values. Targets are test_forms, copyright and proposal.

Configuration is read from the environment (OPENAI_API_KEY, OPENAI_MODEL,
DOCCOLLATE_RANKER, DOCCOLLATE_WORKERS, DOCCOLLATE_STORE_DSN, ...).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		setupLogger(logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&outPath, "out", "", "Output file (extract, proposal) or directory (batch, watch)")
	rootCmd.PersistentFlags().StringVar(&appName, "app-name", "", "Software name, overrides the extracted value")
	rootCmd.PersistentFlags().StringVar(&appVersion, "app-version", "", "Software version, overrides the extracted value")
	rootCmd.PersistentFlags().StringVar(&applicantType, "applicant-type", "", "Copyright applicant: holder or agent")
}

// setupLogger installs a JSON handler on stderr as the default logger.
func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

// writeOut writes b to --out, or stdout when it is empty.
func writeOut(b []byte) error {
	if outPath == "" {
		_, err := os.Stdout.Write(append(b, '\n'))
		return err
	}
	if err := os.WriteFile(outPath, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	slog.Info("output.written", "path", outPath)
	return nil
}
