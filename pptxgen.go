// Package pptxgen provides a fluent API for the presentation generation
// pipeline: template extraction, layout mapping, rendering, auditing and
// export.
//
// Basic usage:
//
//	res, err := pptxgen.Generate("spec.json").
//	    Template("templates/corporate.pptx").
//	    Run(ctx)
//	if err != nil {
//	    os.Exit(pptxgen.ExitCode(err))
//	}
//
// With mapping and PDF export:
//
//	res, err := pptxgen.Generate("spec.json").
//	    Workdir("out").
//	    Mapping("layouts.jsonl", "cards.json", "draft.json").
//	    ExportPDF(pptxgen.PDFModeBoth, "").
//	    Run(ctx)
//
// Template artifacts are produced with ExtractTemplate:
//
//	res, err := pptxgen.ExtractTemplate("templates/corporate.pptx").
//	    Output("out/extract").
//	    Run(ctx)
//
// Every chain method returns a new value; a configuration error is kept
// and returned by the terminal operation.
package pptxgen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tsawler/pptxgen/audit"
	"github.com/tsawler/pptxgen/cards"
	"github.com/tsawler/pptxgen/config"
	"github.com/tsawler/pptxgen/export"
	"github.com/tsawler/pptxgen/jobspec"
	"github.com/tsawler/pptxgen/layouts"
	"github.com/tsawler/pptxgen/llm"
	"github.com/tsawler/pptxgen/mapping"
	"github.com/tsawler/pptxgen/recommend"
	"github.com/tsawler/pptxgen/render"
	"github.com/tsawler/pptxgen/template"
)

// Generator configures a generation run over one job specification.
type Generator struct {
	specPath string
	options  GenerateOptions

	rulesPath    string
	brandingPath string

	// runner replaces the external command runner in tests.
	runner export.Runner

	// Accumulated error (fail-fast)
	err error
}

// Generate returns a Generator for the job specification at specPath.
func Generate(specPath string) *Generator {
	return &Generator{specPath: specPath, options: defaultGenerateOptions()}
}

func (g *Generator) clone() *Generator {
	return &Generator{
		specPath:     g.specPath,
		options:      g.options.clone(),
		rulesPath:    g.rulesPath,
		brandingPath: g.brandingPath,
		runner:       g.runner,
		err:          g.err,
	}
}

// Workdir sets the directory receiving the deck and all artifacts.
func (g *Generator) Workdir(dir string) *Generator {
	n := g.clone()
	n.options.workdir = dir
	return n
}

// Template sets the template. Without it the template path of the job
// specification is used.
func (g *Generator) Template(path string) *Generator {
	n := g.clone()
	n.options.templatePath = path
	return n
}

// Output sets the file name of the deck inside the workdir.
func (g *Generator) Output(name string) *Generator {
	n := g.clone()
	if name != "" {
		n.options.outputName = name
	}
	return n
}

// Rules loads validation and post-processing rules from path when the run
// starts.
func (g *Generator) Rules(path string) *Generator {
	n := g.clone()
	n.rulesPath = path
	return n
}

// WithRules uses rules as given.
func (g *Generator) WithRules(rules *config.Rules) *Generator {
	n := g.clone()
	n.options.rules = rules
	return n
}

// Branding loads the branding from path when the run starts.
func (g *Generator) Branding(path string) *Generator {
	n := g.clone()
	n.brandingPath = path
	return n
}

// WithBranding uses branding as given.
func (g *Generator) WithBranding(b *config.Branding) *Generator {
	n := g.clone()
	n.options.branding = b
	return n
}

// Env replaces the settings read from the process environment.
func (g *Generator) Env(env config.Env) *Generator {
	n := g.clone()
	n.options.env = env
	n.options.envSet = true
	return n
}

// Mapping enables the mapping step: the slides are matched against the
// layout catalog at layoutsPath using the content cards at cardsPath.
// draftPath is optional; when given it must be a valid draft.
func (g *Generator) Mapping(layoutsPath, cardsPath, draftPath string) *Generator {
	n := g.clone()
	n.options.layoutsPath = layoutsPath
	n.options.cardsPath = cardsPath
	n.options.draftPath = draftPath
	if (layoutsPath == "") != (cardsPath == "") {
		n.err = errors.New("mapping needs both a layout catalog and content cards")
	}
	return n
}

// Analysis adds analyzer results to the mapping step.
func (g *Generator) Analysis(path string) *Generator {
	n := g.clone()
	n.options.analysisPath = path
	return n
}

// ExportPDF converts the deck to PDF after the audit. In PDFModeBoth a
// failed conversion is logged and the run succeeds; in PDFModeOnly it is
// fatal and the deck is removed once the PDF exists. An empty name derives
// the PDF name from the deck name.
func (g *Generator) ExportPDF(mode, name string) *Generator {
	n := g.clone()
	if mode == "" {
		mode = PDFModeBoth
	}
	if mode != PDFModeBoth && mode != PDFModeOnly {
		n.err = fmt.Errorf("unknown pdf mode %q", mode)
		return n
	}
	n.options.exportPDF = true
	n.options.pdfMode = mode
	n.options.pdfOutput = name
	return n
}

// Logger sets the logger passed to every step.
func (g *Generator) Logger(log *zap.Logger) *Generator {
	n := g.clone()
	n.options.logger = log
	return n
}

// Result lists what a generation run produced. DeckPath is empty when the
// deck was replaced by its PDF.
type Result struct {
	Spec      *jobspec.Spec
	DeckPath  string
	PDFPath   string
	AuditPath string
	Mapping   *mapping.Paths
	Render    *render.Result
	Audit     *audit.Log
	Elapsed   time.Duration
}

// run carries the state shared by the steps of one generation run.
type run struct {
	opts     GenerateOptions
	log      *zap.Logger
	rules    *config.Rules
	branding *config.Branding
	env      config.Env
	runner   export.Runner

	spec            *jobspec.Spec
	deckPath        string
	templateVersion string
	res             *Result
}

// step is one stage of a run.
type step struct {
	name string
	skip bool
	fn   func(context.Context) error
}

func (g *Generator) newRun() *run {
	r := &run{
		opts:   g.options,
		log:    g.options.log(),
		runner: g.runner,
		res:    &Result{},
	}
	r.deckPath = filepath.Join(r.opts.workdir, r.opts.outputName)
	return r
}

func (g *Generator) validateStep(r *run) step {
	return step{StepValidate, false, func(context.Context) error {
		return r.validate(g.specPath, g.rulesPath, g.brandingPath)
	}}
}

// exec runs steps in order and stops at the first failure.
func (r *run) exec(ctx context.Context, steps []step) error {
	for _, s := range steps {
		if s.skip {
			continue
		}
		if err := ctx.Err(); err != nil {
			return &StepError{Step: s.name, Err: err}
		}
		if err := s.fn(ctx); err != nil {
			r.log.Error("step failed", zap.String("step", s.name), zap.Error(err))
			return &StepError{Step: s.name, Err: err}
		}
	}
	r.res.Spec = r.spec
	return nil
}

// Run executes the pipeline: validation, optional mapping, rendering,
// optional polishing, auditing and optional PDF export. A failing step is
// logged and returned as *StepError.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	if g.err != nil {
		return nil, g.err
	}
	start := time.Now()
	r := g.newRun()
	err := r.exec(ctx, []step{
		g.validateStep(r),
		{StepMapping, !r.opts.mapping(), r.mapping},
		{StepRender, false, r.render},
		{StepPolish, false, r.polish},
		{StepAudit, false, func(context.Context) error { return r.audit() }},
		{StepPDF, !r.opts.exportPDF, r.pdf},
	})
	if err != nil {
		return nil, err
	}

	r.res.Elapsed = time.Since(start)
	r.log.Info("generation completed",
		zap.String("deck", r.res.DeckPath),
		zap.String("pdf", r.res.PDFPath),
		zap.Int("warnings", r.res.Audit.Meta.WarningsTotal),
		zap.Duration("elapsed", r.res.Elapsed))
	return r.res, nil
}

// Plan runs validation and mapping only and writes the mapping artifacts
// into the workdir. It fails when no mapping inputs are configured.
func (g *Generator) Plan(ctx context.Context) (*Result, error) {
	if g.err != nil {
		return nil, g.err
	}
	if !g.options.mapping() {
		return nil, errors.New("mapping needs a layout catalog and content cards")
	}
	start := time.Now()
	r := g.newRun()
	if err := r.exec(ctx, []step{g.validateStep(r), {StepMapping, false, r.mapping}}); err != nil {
		return nil, err
	}
	r.res.Elapsed = time.Since(start)
	r.log.Info("plan written",
		zap.String("rendering_ready", r.res.Mapping.RenderingReady),
		zap.Duration("elapsed", r.res.Elapsed))
	return r.res, nil
}

func (r *run) validate(specPath, rulesPath, brandingPath string) error {
	r.rules = r.opts.rules
	if rulesPath != "" {
		rules, err := config.LoadRules(rulesPath)
		if err != nil {
			return fmt.Errorf("loading rules: %w", err)
		}
		r.rules = rules
	}
	if r.rules == nil {
		r.rules = config.DefaultRules()
	}

	r.branding = r.opts.branding
	if brandingPath != "" {
		b, err := config.LoadBranding(brandingPath)
		if err != nil {
			return fmt.Errorf("loading branding: %w", err)
		}
		r.branding = b
	}

	r.env = r.opts.env
	if !r.opts.envSet {
		r.env = config.LoadEnv()
	}

	spec, err := jobspec.Load(specPath)
	if err != nil {
		return err
	}
	if err := jobspec.CheckRules(spec, r.rules); err != nil {
		return err
	}
	r.spec = spec
	r.log.Info("job specification validated",
		zap.String("path", specPath),
		zap.Int("slides", len(spec.Slides)))
	return nil
}

func (r *run) mapping(ctx context.Context) error {
	records, err := layouts.LoadRecords(r.opts.layoutsPath)
	if err != nil {
		return fmt.Errorf("loading layouts: %w", err)
	}
	set, err := cards.LoadCards(r.opts.cardsPath)
	if err != nil {
		return fmt.Errorf("loading cards: %w", err)
	}
	var analysis *cards.Analysis
	if r.opts.analysisPath != "" {
		if analysis, err = cards.LoadAnalysis(r.opts.analysisPath); err != nil {
			return fmt.Errorf("loading analysis: %w", err)
		}
	}

	vocab := layouts.NewVocabulary()
	ropts := recommend.OptionsFromRules(r.rules.Recommender)
	ropts.Vocabulary = vocab
	ropts.Classifier = llm.FromEnv(ctx, r.env, vocab, r.log)
	ropts.Logger = r.log
	engine := mapping.New(mapping.Options{Recommender: recommend.New(ropts), Logger: r.log})

	out, err := engine.Map(ctx, mapping.Input{
		Job:          r.spec,
		Cards:        set,
		DraftPath:    r.opts.draftPath,
		RequireDraft: r.opts.draftPath != "",
		Layouts:      records,
		Analysis:     analysis,
	})
	if err != nil {
		return err
	}
	paths, err := out.WriteArtifacts(r.opts.workdir)
	if err != nil {
		return err
	}
	mapped, err := out.Apply(r.spec)
	if err != nil {
		return err
	}
	r.spec = mapped
	r.templateVersion = out.Ready.Meta.TemplateVersion
	r.res.Mapping = &paths
	return nil
}

func (r *run) render(ctx context.Context) error {
	renderer := render.New(render.Options{Branding: r.branding, Logger: r.log})
	res, err := renderer.Render(ctx, r.spec, r.opts.templatePath, r.deckPath)
	if err != nil {
		return err
	}
	r.res.Render = res
	r.res.DeckPath = res.Path
	if r.templateVersion == "" {
		tpl := r.opts.templatePath
		if tpl == "" {
			tpl = r.spec.Meta.TemplatePath
		}
		r.templateVersion = layouts.TemplateIDFromPath(tpl)
	}
	return nil
}

func (r *run) polish(ctx context.Context) error {
	p := export.NewPolisher(r.rules.Polisher, r.log)
	if p == nil {
		return nil
	}
	if r.runner != nil {
		p.Runner = r.runner
	}
	return p.Polish(ctx, r.deckPath)
}

func (r *run) audit() error {
	l, err := audit.Audit(r.deckPath, r.spec, audit.Options{
		TemplateVersion: r.templateVersion,
		RenderingTime:   r.res.Render.Elapsed,
		Logger:          r.log,
	})
	if err != nil {
		return err
	}
	path := filepath.Join(r.opts.workdir, audit.FileName)
	if err := l.WriteLog(path); err != nil {
		return err
	}
	r.res.Audit = l
	r.res.AuditPath = path
	return nil
}

func (r *run) pdf(ctx context.Context) error {
	conv := export.NewPDFConverter(r.env, r.rules.PDF, r.log)
	if r.runner != nil {
		conv.Runner = r.runner
	}
	name := r.opts.pdfOutput
	if name == "" {
		name = strings.TrimSuffix(r.opts.outputName, filepath.Ext(r.opts.outputName)) + ".pdf"
	}

	pdfPath, err := conv.Convert(ctx, r.deckPath, filepath.Join(r.opts.workdir, name))
	switch {
	case errors.Is(err, export.ErrSkipped):
		return nil
	case err != nil && r.opts.pdfMode == PDFModeBoth:
		r.log.Warn("pdf export failed, keeping the deck only", zap.Error(err))
		return nil
	case err != nil:
		return err
	}
	r.res.PDFPath = pdfPath

	if r.opts.pdfMode == PDFModeOnly {
		if err := os.Remove(r.deckPath); err != nil {
			return fmt.Errorf("removing deck: %w", err)
		}
		r.res.DeckPath = ""
	}
	return nil
}

// TemplateExtractor configures extraction and validation of a template.
type TemplateExtractor struct {
	path    string
	options ExtractOptions
}

// ExtractTemplate returns a TemplateExtractor for the template at path.
func ExtractTemplate(path string) *TemplateExtractor {
	return &TemplateExtractor{path: path, options: defaultExtractOptions()}
}

func (e *TemplateExtractor) clone() *TemplateExtractor {
	return &TemplateExtractor{path: e.path, options: e.options.clone()}
}

// Output sets the directory receiving layouts.jsonl, diagnostics.json and
// diff_report.json.
func (e *TemplateExtractor) Output(dir string) *TemplateExtractor {
	n := e.clone()
	if dir != "" {
		n.options.outputDir = dir
	}
	return n
}

// LayoutPrefix keeps only layouts whose name starts with prefix.
func (e *TemplateExtractor) LayoutPrefix(prefix string) *TemplateExtractor {
	n := e.clone()
	n.options.layoutPrefix = prefix
	return n
}

// AnchorPrefix keeps only shapes whose name starts with prefix.
func (e *TemplateExtractor) AnchorPrefix(prefix string) *TemplateExtractor {
	n := e.clone()
	n.options.anchorPrefix = prefix
	return n
}

// Baseline diffs the catalog against a previous layouts.jsonl.
func (e *TemplateExtractor) Baseline(path string) *TemplateExtractor {
	n := e.clone()
	n.options.baseline = path
	return n
}

// AnalyzerSnapshot adds anchors observed on produced decks to the diff.
func (e *TemplateExtractor) AnalyzerSnapshot(path string) *TemplateExtractor {
	n := e.clone()
	n.options.snapshot = path
	return n
}

// UseIdentifiers derives layout ids from the template's layout identifiers.
func (e *TemplateExtractor) UseIdentifiers() *TemplateExtractor {
	n := e.clone()
	n.options.identifiers = true
	return n
}

// Logger sets the logger.
func (e *TemplateExtractor) Logger(log *zap.Logger) *TemplateExtractor {
	n := e.clone()
	n.options.logger = log
	return n
}

// Spec extracts the template structure without writing artifacts.
func (e *TemplateExtractor) Spec() (*template.Spec, error) {
	spec, err := template.Extract(e.path,
		template.WithLayoutPrefix(e.options.layoutPrefix),
		template.WithAnchorPrefix(e.options.anchorPrefix),
		template.WithLayoutIdentifiers(e.options.identifiers),
		template.WithLogger(e.options.logger))
	if err != nil {
		return nil, &StepError{Step: StepExtract, Err: err}
	}
	return spec, nil
}

// Run extracts the template and writes the layout catalog artifacts.
func (e *TemplateExtractor) Run(ctx context.Context) (*layouts.Result, error) {
	res, err := layouts.Validate(ctx, e.path, e.options.outputDir, layouts.Options{
		BaselinePath:         e.options.baseline,
		AnalyzerSnapshotPath: e.options.snapshot,
		LayoutPrefix:         e.options.layoutPrefix,
		AnchorPrefix:         e.options.anchorPrefix,
		UseIdentifiers:       e.options.identifiers,
		Logger:               e.options.logger,
	})
	if err != nil {
		if e.options.logger != nil {
			e.options.logger.Error("step failed", zap.String("step", StepExtract), zap.Error(err))
		}
		return nil, &StepError{Step: StepExtract, Err: err}
	}
	return res, nil
}
