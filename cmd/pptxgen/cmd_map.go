package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsawler/pptxgen"
)

var mapFlags struct {
	workdir  string
	rules    string
	layouts  string
	cards    string
	draft    string
	analysis string
}

var mapCmd = &cobra.Command{
	Use:   "map SPEC",
	Short: "Match slides to catalog layouts",
	Long: `Scores every slide of the job specification against the layout
catalog and writes rendering_ready.json, mapping_log.json and, when a
capacity fallback fired, fallback_report.json into the workdir.

Example:
  pptxgen map spec.json --layouts out/extract/layouts.jsonl --cards cards.json`,
	Args: cobra.ExactArgs(1),
	RunE: runMap,
}

func init() {
	mapCmd.Flags().StringVar(&mapFlags.workdir, "workdir", pptxgen.DefaultWorkdir, "Directory for the artifacts")
	mapCmd.Flags().StringVar(&mapFlags.rules, "rules", "", "Rules file (YAML or JSON)")
	addMappingFlags(mapCmd, &mapFlags.layouts, &mapFlags.cards, &mapFlags.draft, &mapFlags.analysis)
	_ = mapCmd.MarkFlagRequired("layouts")
	_ = mapCmd.MarkFlagRequired("cards")
}

func runMap(cmd *cobra.Command, args []string) error {
	res, err := pptxgen.Generate(args[0]).
		Workdir(mapFlags.workdir).
		Rules(mapFlags.rules).
		Mapping(mapFlags.layouts, mapFlags.cards, mapFlags.draft).
		Analysis(mapFlags.analysis).
		Logger(logger).
		Plan(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "rendering ready: %s\n", res.Mapping.RenderingReady)
	fmt.Fprintf(out, "mapping log:     %s\n", res.Mapping.MappingLog)
	if res.Mapping.FallbackReport != "" {
		fmt.Fprintf(out, "fallback report: %s\n", res.Mapping.FallbackReport)
	}
	return nil
}
