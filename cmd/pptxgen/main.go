// Command pptxgen extracts layout catalogs from templates and generates
// decks from job specifications.
//
// Usage:
//
//	pptxgen tpl-extract --template corporate.pptx --output out/extract
//	pptxgen map spec.json --layouts out/extract/layouts.jsonl --cards cards.json
//	pptxgen gen spec.json --template corporate.pptx --export-pdf
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tsawler/pptxgen"
)

var (
	// Global flags
	verbose bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pptxgen",
	Short: "Generate presentation decks from job specifications",
	Long: `pptxgen renders business presentations from a JSON job specification
and a PowerPoint template, then audits the result.

  tpl-extract  builds the layout catalog of a template
  map          matches slides to catalog layouts
  gen          validates, renders, audits and optionally exports to PDF`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logger != nil {
			return nil
		}
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(extractCmd, mapCmd, genCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		reportError(os.Stderr, err)
	}
	os.Exit(pptxgen.ExitCode(err))
}

// reportError prints the error category and a JSON details block.
func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s: %v\n", pptxgen.Category(err), err)
	data, jerr := json.MarshalIndent(pptxgen.Details(err), "", "  ")
	if jerr != nil {
		return
	}
	fmt.Fprintln(w, string(data))
}
