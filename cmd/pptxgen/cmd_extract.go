package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsawler/pptxgen"
)

var extractFlags struct {
	template       string
	output         string
	layoutPrefix   string
	anchorPrefix   string
	baseline       string
	snapshot       string
	useIdentifiers bool
}

var extractCmd = &cobra.Command{
	Use:   "tpl-extract",
	Short: "Extract the layout catalog of a template",
	Long: `Reads every slide layout of a PowerPoint template and writes
layouts.jsonl and diagnostics.json. With --baseline the catalog is compared
to a previous layouts.jsonl and diff_report.json is written as well.

Example:
  pptxgen tpl-extract --template corporate.pptx --output out/extract`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.StringVar(&extractFlags.template, "template", "", "Template file (.pptx or .potx)")
	f.StringVar(&extractFlags.output, "output", pptxgen.DefaultExtractDir, "Output directory")
	f.StringVar(&extractFlags.layoutPrefix, "layout", "", "Only layouts whose name starts with this prefix")
	f.StringVar(&extractFlags.anchorPrefix, "anchor", "", "Only shapes whose name starts with this prefix")
	f.StringVar(&extractFlags.baseline, "baseline", "", "Previous layouts.jsonl to diff against")
	f.StringVar(&extractFlags.snapshot, "analyzer-snapshot", "", "Anchors observed on produced decks")
	f.BoolVar(&extractFlags.useIdentifiers, "use-identifiers", false, "Derive layout ids from layout identifiers")
	_ = extractCmd.MarkFlagRequired("template")
}

func runExtract(cmd *cobra.Command, args []string) error {
	e := pptxgen.ExtractTemplate(extractFlags.template).
		Output(extractFlags.output).
		LayoutPrefix(extractFlags.layoutPrefix).
		AnchorPrefix(extractFlags.anchorPrefix).
		Baseline(extractFlags.baseline).
		AnalyzerSnapshot(extractFlags.snapshot).
		Logger(logger)
	if extractFlags.useIdentifiers {
		e = e.UseIdentifiers()
	}

	res, err := e.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "layouts:     %s\n", res.LayoutsPath)
	fmt.Fprintf(out, "diagnostics: %s\n", res.DiagnosticsPath)
	if res.DiffReportPath != "" {
		fmt.Fprintf(out, "diff report: %s\n", res.DiffReportPath)
	}
	fmt.Fprintf(out, "%d layout(s), %d placeholder(s), %d warning(s), %d error(s)\n",
		res.Counts.Layouts, res.Counts.Placeholders, res.Counts.Warnings, res.Counts.Errors)
	return nil
}
