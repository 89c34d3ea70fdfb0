package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsawler/pptxgen"
)

var genFlags struct {
	workdir   string
	template  string
	output    string
	rules     string
	branding  string
	exportPDF bool
	pdfMode   string
	pdfOutput string

	layouts  string
	cards    string
	draft    string
	analysis string
}

var genCmd = &cobra.Command{
	Use:   "gen SPEC",
	Short: "Render and audit a deck from a job specification",
	Long: `Validates the job specification, renders it onto the template, audits
the deck and optionally converts it to PDF. With --layouts and --cards the
slides are first matched to catalog layouts.

Exit codes:
  0  success
  2  the specification does not match the schema
  3  the specification breaks a business rule
  4  a file is missing
  1  any other failure`,
	Args: cobra.ExactArgs(1),
	RunE: runGen,
}

func init() {
	f := genCmd.Flags()
	f.StringVar(&genFlags.workdir, "workdir", pptxgen.DefaultWorkdir, "Directory for the deck and artifacts")
	f.StringVar(&genFlags.template, "template", "", "Template file; defaults to meta.template_path of the job specification")
	f.StringVar(&genFlags.output, "output", pptxgen.DefaultOutputName, "File name of the deck")
	f.StringVar(&genFlags.rules, "rules", "", "Rules file (YAML or JSON)")
	f.StringVar(&genFlags.branding, "branding", "", "Branding file (YAML or JSON)")
	f.BoolVar(&genFlags.exportPDF, "export-pdf", false, "Convert the deck to PDF with LibreOffice")
	f.StringVar(&genFlags.pdfMode, "pdf-mode", pptxgen.PDFModeBoth, "Keep both files (both) or the PDF only (only)")
	f.StringVar(&genFlags.pdfOutput, "pdf-output", "", "File name of the PDF")
	addMappingFlags(genCmd, &genFlags.layouts, &genFlags.cards, &genFlags.draft, &genFlags.analysis)
}

func addMappingFlags(cmd *cobra.Command, layouts, cards, draft, analysis *string) {
	f := cmd.Flags()
	f.StringVar(layouts, "layouts", "", "Layout catalog (layouts.jsonl)")
	f.StringVar(cards, "cards", "", "Approved content cards")
	f.StringVar(draft, "draft", "", "Draft with layout hints and sections")
	f.StringVar(analysis, "analysis", "", "Analyzer results of a previous deck")
}

func runGen(cmd *cobra.Command, args []string) error {
	g := pptxgen.Generate(args[0]).
		Workdir(genFlags.workdir).
		Template(genFlags.template).
		Output(genFlags.output).
		Rules(genFlags.rules).
		Branding(genFlags.branding).
		Logger(logger)
	if genFlags.layouts != "" || genFlags.cards != "" {
		g = g.Mapping(genFlags.layouts, genFlags.cards, genFlags.draft).Analysis(genFlags.analysis)
	}
	if genFlags.exportPDF {
		g = g.ExportPDF(genFlags.pdfMode, genFlags.pdfOutput)
	}

	res, err := g.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if res.DeckPath != "" {
		fmt.Fprintf(out, "deck:  %s\n", res.DeckPath)
	}
	if res.PDFPath != "" {
		fmt.Fprintf(out, "pdf:   %s\n", res.PDFPath)
	}
	fmt.Fprintf(out, "audit: %s (%d warning(s))\n", res.AuditPath, res.Audit.Meta.WarningsTotal)
	return nil
}
