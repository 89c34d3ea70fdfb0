package layouts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tsawler/pptxgen/internal/atomicfile"
	"github.com/tsawler/pptxgen/model"
	"github.com/tsawler/pptxgen/template"
)

// Artifact file names written to the output directory.
const (
	LayoutsFile     = "layouts.jsonl"
	DiagnosticsFile = "diagnostics.json"
	DiffReportFile  = "diff_report.json"
)

// Options configures Validate.
type Options struct {
	// TemplateID overrides the id derived from the template file name.
	TemplateID string
	// BaselinePath is a previous layouts.jsonl to diff against.
	BaselinePath string
	// AnalyzerSnapshotPath lists anchors observed on produced decks. It is
	// only read when BaselinePath is set.
	AnalyzerSnapshotPath string
	// LayoutPrefix and AnchorPrefix filter layouts and shapes by name.
	LayoutPrefix string
	AnchorPrefix string
	// UseIdentifiers derives layout ids from the template's layout
	// identifiers instead of layout names.
	UseIdentifiers bool
	// ExtraTags extends the canonical tag vocabulary.
	ExtraTags []string
	// LayoutTags adds configured tags to layouts by name. Tags outside the
	// vocabulary are reported and dropped.
	LayoutTags map[string][]string
	Logger     *zap.Logger
}

func (o *Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Counts summarizes a run.
type Counts struct {
	Layouts      int `json:"layouts"`
	Placeholders int `json:"placeholders"`
	Warnings     int `json:"warnings"`
	Errors       int `json:"errors"`
}

// Result lists the artifacts of a run. DiffReportPath is empty when no
// baseline was given.
type Result struct {
	LayoutsPath     string
	DiagnosticsPath string
	DiffReportPath  string
	Records         []Record
	Diagnostics     *Diagnostics
	DiffReport      *DiffReport
	Counts          Counts
}

// Validate extracts the template, builds the layout catalog and writes
// layouts.jsonl, diagnostics.json and, with a baseline, diff_report.json
// into outputDir. Extraction failures are returned as
// *template.ExtractError; artifacts failing their schema as *SuiteError.
func Validate(ctx context.Context, templatePath, outputDir string, opts Options) (*Result, error) {
	log := opts.logger()

	start := time.Now()
	spec, err := template.Extract(templatePath,
		template.WithLayoutPrefix(opts.LayoutPrefix),
		template.WithAnchorPrefix(opts.AnchorPrefix),
		template.WithLayoutIdentifiers(opts.UseIdentifiers),
		template.WithLogger(log))
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.TemplateID == "" {
		opts.TemplateID = TemplateIDFromPath(templatePath)
	}
	records, diag := BuildRecords(spec, opts)
	diag.Stats.ExtractionTimeMS = elapsed.Milliseconds()

	var diff *DiffReport
	if opts.BaselinePath != "" {
		baseline, err := LoadRecords(opts.BaselinePath)
		if err != nil {
			return nil, fmt.Errorf("loading baseline: %w", err)
		}
		var snapshot *AnalyzerSnapshot
		if opts.AnalyzerSnapshotPath != "" {
			if snapshot, err = LoadAnalyzerSnapshot(opts.AnalyzerSnapshotPath); err != nil {
				return nil, fmt.Errorf("loading analyzer snapshot: %w", err)
			}
		}
		diff = Diff(baseline, records, snapshot)
		diff.TargetTemplateID = opts.TemplateID
	}

	sc := newSchema(NewVocabulary(opts.ExtraTags...))
	if err := sc.records(records); err != nil {
		return nil, &SuiteError{Artifact: LayoutsFile, Err: err}
	}
	if err := sc.diagnostics(diag); err != nil {
		return nil, &SuiteError{Artifact: DiagnosticsFile, Err: err}
	}
	if diff != nil {
		if err := sc.diffReport(diff); err != nil {
			return nil, &SuiteError{Artifact: DiffReportFile, Err: err}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, &SuiteError{Artifact: outputDir, Err: err}
	}
	res := &Result{
		LayoutsPath:     filepath.Join(outputDir, LayoutsFile),
		DiagnosticsPath: filepath.Join(outputDir, DiagnosticsFile),
		Records:         records,
		Diagnostics:     diag,
		DiffReport:      diff,
		Counts: Counts{
			Layouts:      diag.Stats.LayoutsTotal,
			Placeholders: diag.Stats.PlaceholdersTotal,
			Warnings:     len(diag.Warnings),
			Errors:       len(diag.Errors),
		},
	}

	data, err := encodeRecords(records)
	if err != nil {
		return nil, &SuiteError{Artifact: LayoutsFile, Err: err}
	}
	if err := atomicfile.WriteFile(res.LayoutsPath, data); err != nil {
		return nil, &SuiteError{Artifact: LayoutsFile, Err: err}
	}
	if err := atomicfile.WriteJSON(res.DiagnosticsPath, diag); err != nil {
		return nil, &SuiteError{Artifact: DiagnosticsFile, Err: err}
	}
	if diff != nil {
		res.DiffReportPath = filepath.Join(outputDir, DiffReportFile)
		if err := atomicfile.WriteJSON(res.DiffReportPath, diff); err != nil {
			return nil, &SuiteError{Artifact: DiffReportFile, Err: err}
		}
	}

	log.Info("layouts validated",
		zap.String("template_id", opts.TemplateID),
		zap.Int("layouts", res.Counts.Layouts),
		zap.Int("placeholders", res.Counts.Placeholders),
		zap.Int("warnings", res.Counts.Warnings),
		zap.Int("errors", res.Counts.Errors),
		zap.Bool("diff", diff != nil))
	return res, nil
}

// TemplateIDFromPath derives a template id from the file name.
func TemplateIDFromPath(path string) string {
	base := filepath.Base(path)
	id := Slugify(strings.TrimSuffix(base, filepath.Ext(base)))
	if id == "" {
		return "template"
	}
	return id
}

// BuildRecords normalizes an extracted template into layout records.
// Malformed layouts produce an error entry and no record.
func BuildRecords(spec *template.Spec, opts Options) ([]Record, *Diagnostics) {
	templateID := opts.TemplateID
	if templateID == "" {
		templateID = TemplateIDFromPath(spec.TemplatePath)
	}
	vocab := NewVocabulary(opts.ExtraTags...)
	diag := &Diagnostics{TemplateID: templateID, Warnings: []Issue{}, Errors: []Issue{}}
	ids := newIDAllocator()
	records := []Record{}

	for i := range spec.Layouts {
		l := &spec.Layouts[i]
		if l.Malformed() {
			diag.fail(CodeLayoutMalformed, "", l.Name, l.Error)
			continue
		}
		rec := Record{
			TemplateID:   templateID,
			LayoutID:     ids.next(l.Name, l.Identifier, i+1),
			LayoutName:   l.Name,
			Placeholders: []Placeholder{},
			Version:      SchemaVersion,
		}

		var inputs []tagInput
		names := make(map[string]bool)
		for _, sh := range l.Shapes {
			if sh.Error != "" {
				diag.warn(CodeShapeError, rec.LayoutID, sh.Name, sh.Error)
			}
			if sh.Conflict != "" {
				diag.warn(CodeAnchorConflict, rec.LayoutID, sh.Name, sh.Conflict)
			}
			if len(sh.MissingFields) > 0 {
				diag.warn(CodeMissingFields, rec.LayoutID, sh.Name, strings.Join(sh.MissingFields, ","))
			}
			if !sh.IsPlaceholder {
				continue
			}
			typ, known := NormalizePlaceholderType(sh.PlaceholderKind)
			if !known {
				diag.warn(CodePlaceholderUnknownType, rec.LayoutID, sh.Name, sh.PlaceholderKind)
			}
			if names[sh.Name] {
				diag.warn(CodeDuplicatePlaceholder, rec.LayoutID, sh.Name, "")
			}
			names[sh.Name] = true

			rec.Placeholders = append(rec.Placeholders, Placeholder{
				Name: sh.Name,
				Type: typ,
				Idx:  sh.PlaceholderIdx,
				BBox: bboxOf(clampBox(sh.Box)),
			})
			inputs = append(inputs, tagInput{name: sh.Name, kind: sh.PlaceholderKind, typ: typ})
		}

		tags := deriveTags(vocab, l.Name, inputs, opts.LayoutTags[l.Name])
		if tags.suppressed {
			diag.warn(CodeTitleSuppressed, rec.LayoutID, l.Name, "title placeholder with body on a non-title layout")
		}
		for _, t := range tags.unknown {
			diag.warn(CodeUnknownTag, rec.LayoutID, l.Name, t)
		}
		rec.UsageTags = tags.tags
		rec.TextHint, rec.MediaHint = capacity(rec.Placeholders)

		records = append(records, rec)
		diag.Stats.PlaceholdersTotal += len(rec.Placeholders)
	}
	diag.Stats.LayoutsTotal = len(records)
	return records, diag
}

// clampBox replaces negative extents with zero so the record stays valid;
// the extractor already reports them as missing fields.
func clampBox(b model.Box) model.Box {
	b.Width = max(b.Width, 0)
	b.Height = max(b.Height, 0)
	return b
}
