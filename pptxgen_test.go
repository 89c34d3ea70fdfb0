package pptxgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tsawler/pptxgen/audit"
	"github.com/tsawler/pptxgen/config"
	"github.com/tsawler/pptxgen/jobspec"
	"github.com/tsawler/pptxgen/layouts"
	"github.com/tsawler/pptxgen/mapping"
	"github.com/tsawler/pptxgen/pptx"
	"github.com/tsawler/pptxgen/pptx/pptxtest"
	"github.com/tsawler/pptxgen/render"
)

const titleSpec = `{
  "meta": {"schema_version": "1.1", "title": "Review"},
  "auth": {"created_by": "planner"},
  "slides": [{"id": "s1", "layout": "Title", "title": "Kickoff"}]
}`

const contentSpec = `{
  "meta": {"schema_version": "1.1", "title": "Review"},
  "auth": {"created_by": "planner"},
  "slides": [
    {"id": "s1", "layout": "Title", "title": "Kickoff"},
    {"id": "s2", "layout": "Title and Content", "title": "Agenda",
     "bullets": [{"items": [{"id": "b1", "text": "Scope", "level": 0}, {"id": "b2", "text": "Plan", "level": 0}]}]}
  ]
}`

const approvedCards = `[
  {"slide_id": "s1", "intent": "title", "elements": {"title": "Kickoff"}, "status": "approved"},
  {"slide_id": "s2", "intent": "content", "elements": {"title": "Agenda", "body": ["Scope", "Plan"]}, "status": "approved"}
]`

// noAI keeps runs independent of the process environment.
var noAI = config.Env{LLMProvider: "none"}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testTemplate(t *testing.T) string {
	t.Helper()
	return pptxtest.Template{Layouts: []pptxtest.Layout{
		pptxtest.TitleLayout("Title"),
		pptxtest.TitleAndContentLayout("Title and Content"),
	}}.Write(t)
}

// pdfRunner pretends to be LibreOffice.
type pdfRunner struct {
	fail  bool
	calls int
}

func (p *pdfRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	p.calls++
	if p.fail {
		return []byte("soffice crashed"), errors.New("exit status 1")
	}
	outDir, in := args[len(args)-2], args[len(args)-1]
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	return nil, os.WriteFile(filepath.Join(outDir, base+".pdf"), []byte("%PDF-1.7"), 0o644)
}

func TestGenerateTitleOnlyDeck(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	work := t.TempDir()

	res, err := Generate(writeFile(t, "spec.json", titleSpec)).
		Template(testTemplate(t)).
		Workdir(work).
		Env(noAI).
		Logger(zap.New(core)).
		Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(work, DefaultOutputName), res.DeckPath)
	assert.FileExists(t, res.DeckPath)
	assert.Equal(t, filepath.Join(work, audit.FileName), res.AuditPath)
	assert.FileExists(t, res.AuditPath)
	assert.Nil(t, res.Mapping)
	assert.Empty(t, res.PDFPath)

	require.NotNil(t, res.Audit)
	assert.Equal(t, 0, res.Audit.Meta.WarningsTotal)
	assert.Equal(t, "template", res.Audit.Meta.TemplateVersion)
	require.Len(t, res.Audit.Slides, 1)
	assert.True(t, res.Audit.Slides[0].Detected.Title)

	deck, err := pptx.Open(res.DeckPath)
	require.NoError(t, err)
	defer deck.Close()
	assert.Len(t, deck.Slides(), 1)

	for _, msg := range []string{"job specification validated", "deck rendered", "audit completed", "generation completed"} {
		assert.Equal(t, 1, logs.FilterMessage(msg).Len(), msg)
	}
}

func TestGenerateUsesSpecTemplatePath(t *testing.T) {
	tpl := testTemplate(t)
	spec := strings.Replace(titleSpec, `"title": "Review"`, fmt.Sprintf(`"title": "Review", "template_path": %q`, tpl), 1)

	res, err := Generate(writeFile(t, "spec.json", spec)).
		Workdir(t.TempDir()).
		Output("kickoff.pptx").
		Env(noAI).
		Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "kickoff.pptx", filepath.Base(res.DeckPath))
}

func TestGenerateFailures(t *testing.T) {
	tpl := testTemplate(t)
	longTitle := strings.Replace(titleSpec, `"title": "Kickoff"`, `"title": "`+strings.Repeat("x", 26)+`"`, 1)

	tests := []struct {
		name     string
		spec     string
		template string
		step     string
		code     int
		category string
	}{
		{"schema", `{"meta": {}}`, tpl, StepValidate, ExitSchema, CategorySchema},
		{"business rule", longTitle, tpl, StepValidate, ExitBusinessRule, CategoryBusinessRule},
		{"missing template", titleSpec, filepath.Join(t.TempDir(), "none.pptx"), StepRender, ExitMissingFile, CategoryMissingFile},
		{"no template", titleSpec, "", StepRender, ExitFailure, CategoryRender},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.ErrorLevel)
			work := t.TempDir()
			_, err := Generate(writeFile(t, "spec.json", tt.spec)).
				Template(tt.template).
				Workdir(work).
				Env(noAI).
				Logger(zap.New(core)).
				Run(context.Background())
			require.Error(t, err)

			var step *StepError
			require.ErrorAs(t, err, &step)
			assert.Equal(t, tt.step, step.Step)
			assert.Equal(t, tt.code, ExitCode(err))
			assert.Equal(t, tt.category, Category(err))
			assert.NoFileExists(t, filepath.Join(work, audit.FileName))

			entries := logs.FilterMessage("step failed").All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.step, entries[0].ContextMap()["step"])
		})
	}
}

func TestGenerateMissingSpec(t *testing.T) {
	_, err := Generate(filepath.Join(t.TempDir(), "spec.json")).Env(noAI).Run(context.Background())
	assert.Equal(t, ExitMissingFile, ExitCode(err))
	assert.Equal(t, CategoryMissingFile, Category(err))
}

func TestGenerateLoadsRulesAndBranding(t *testing.T) {
	rules := writeFile(t, "rules.yaml", "max_title_length: 3\n")
	_, err := Generate(writeFile(t, "spec.json", titleSpec)).
		Template(testTemplate(t)).
		Workdir(t.TempDir()).
		Rules(rules).
		Env(noAI).
		Run(context.Background())
	assert.Equal(t, ExitBusinessRule, ExitCode(err))

	_, err = Generate(writeFile(t, "spec.json", titleSpec)).
		Branding(filepath.Join(t.TempDir(), "branding.yaml")).
		Env(noAI).
		Run(context.Background())
	assert.Equal(t, ExitMissingFile, ExitCode(err))
}

func TestGenerateWithMapping(t *testing.T) {
	tpl := testTemplate(t)
	catalog, err := ExtractTemplate(tpl).Output(t.TempDir()).Run(context.Background())
	require.NoError(t, err)

	work := t.TempDir()
	res, err := Generate(writeFile(t, "spec.json", contentSpec)).
		Template(tpl).
		Workdir(work).
		Mapping(catalog.LayoutsPath, writeFile(t, "cards.json", approvedCards), "").
		Env(noAI).
		Run(context.Background())
	require.NoError(t, err)

	require.NotNil(t, res.Mapping)
	assert.Equal(t, filepath.Join(work, mapping.RenderingReadyFile), res.Mapping.RenderingReady)
	assert.FileExists(t, res.Mapping.RenderingReady)
	assert.FileExists(t, res.Mapping.MappingLog)

	require.Len(t, res.Spec.Slides, 2)
	for _, s := range res.Spec.Slides {
		assert.Contains(t, []string{"Title", "Title and Content"}, s.Layout, "mapped layouts are template layout names")
	}
	assert.Equal(t, "template", res.Audit.Meta.TemplateVersion)
	assert.Len(t, res.Audit.Slides, 2)
}

func TestGenerateMappingRejectsUnapprovedCards(t *testing.T) {
	tpl := testTemplate(t)
	catalog, err := ExtractTemplate(tpl).Output(t.TempDir()).Run(context.Background())
	require.NoError(t, err)

	cards := strings.Replace(approvedCards, `"status": "approved"}`, `"status": "draft"}`, 1)
	_, err = Generate(writeFile(t, "spec.json", contentSpec)).
		Template(tpl).
		Workdir(t.TempDir()).
		Mapping(catalog.LayoutsPath, writeFile(t, "cards.json", cards), "").
		Env(noAI).
		Run(context.Background())

	var step *StepError
	require.ErrorAs(t, err, &step)
	assert.Equal(t, StepMapping, step.Step)
	assert.Equal(t, CategoryMapping, Category(err))
	assert.Equal(t, "s1", Details(err)["slide_id"])
}

func TestGenerateRequiredDraft(t *testing.T) {
	tpl := testTemplate(t)
	catalog, err := ExtractTemplate(tpl).Output(t.TempDir()).Run(context.Background())
	require.NoError(t, err)

	_, err = Generate(writeFile(t, "spec.json", contentSpec)).
		Template(tpl).
		Workdir(t.TempDir()).
		Mapping(catalog.LayoutsPath, writeFile(t, "cards.json", approvedCards), writeFile(t, "draft.json", "{")).
		Env(noAI).
		Run(context.Background())
	var merr *mapping.Error
	assert.ErrorAs(t, err, &merr)
}

func TestGenerateExportPDF(t *testing.T) {
	t.Run("both", func(t *testing.T) {
		work := t.TempDir()
		g := Generate(writeFile(t, "spec.json", titleSpec)).
			Template(testTemplate(t)).
			Workdir(work).
			Env(noAI).
			ExportPDF(PDFModeBoth, "")
		runner := &pdfRunner{}
		g.runner = runner

		res, err := g.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(work, "proposal.pdf"), res.PDFPath)
		assert.FileExists(t, res.PDFPath)
		assert.FileExists(t, res.DeckPath)
		assert.Equal(t, 1, runner.calls)
	})

	t.Run("only", func(t *testing.T) {
		work := t.TempDir()
		g := Generate(writeFile(t, "spec.json", titleSpec)).
			Template(testTemplate(t)).
			Workdir(work).
			Env(noAI).
			ExportPDF(PDFModeOnly, "report.pdf")
		g.runner = &pdfRunner{}

		res, err := g.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(work, "report.pdf"), res.PDFPath)
		assert.Empty(t, res.DeckPath)
		assert.NoFileExists(t, filepath.Join(work, DefaultOutputName))
		assert.FileExists(t, res.AuditPath)
	})

	t.Run("failure keeps deck", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		g := Generate(writeFile(t, "spec.json", titleSpec)).
			Template(testTemplate(t)).
			Workdir(t.TempDir()).
			Env(noAI).
			WithRules(&config.Rules{MaxTitleLength: 25, MaxBulletLength: 120, MaxBulletLevel: 3}).
			Logger(zap.New(core)).
			ExportPDF(PDFModeBoth, "")
		g.runner = &pdfRunner{fail: true}

		res, err := g.Run(context.Background())
		require.NoError(t, err)
		assert.Empty(t, res.PDFPath)
		assert.FileExists(t, res.DeckPath)
		assert.Equal(t, 1, logs.FilterMessage("pdf export failed, keeping the deck only").Len())
	})

	t.Run("failure is fatal when pdf only", func(t *testing.T) {
		work := t.TempDir()
		g := Generate(writeFile(t, "spec.json", titleSpec)).
			Template(testTemplate(t)).
			Workdir(work).
			Env(noAI).
			ExportPDF(PDFModeOnly, "")
		g.runner = &pdfRunner{fail: true}

		_, err := g.Run(context.Background())
		var step *StepError
		require.ErrorAs(t, err, &step)
		assert.Equal(t, StepPDF, step.Step)
		assert.FileExists(t, filepath.Join(work, DefaultOutputName), "partial artifacts stay on disk")
	})

	t.Run("skipped", func(t *testing.T) {
		g := Generate(writeFile(t, "spec.json", titleSpec)).
			Template(testTemplate(t)).
			Workdir(t.TempDir()).
			Env(config.Env{LLMProvider: "none", SkipPDFConvert: true}).
			ExportPDF(PDFModeOnly, "")
		runner := &pdfRunner{}
		g.runner = runner

		res, err := g.Run(context.Background())
		require.NoError(t, err)
		assert.Empty(t, res.PDFPath)
		assert.FileExists(t, res.DeckPath)
		assert.Zero(t, runner.calls)
	})
}

func TestGeneratorConfigurationErrors(t *testing.T) {
	_, err := Generate("spec.json").ExportPDF("pdf", "").Run(context.Background())
	assert.EqualError(t, err, `unknown pdf mode "pdf"`)

	_, err = Generate("spec.json").Mapping("layouts.jsonl", "", "").Run(context.Background())
	assert.Error(t, err)
}

func TestGeneratorIsImmutable(t *testing.T) {
	base := Generate("spec.json")
	custom := base.Workdir("out").Output("deck.pptx").ExportPDF(PDFModeOnly, "")

	assert.Equal(t, DefaultWorkdir, base.options.workdir)
	assert.Equal(t, DefaultOutputName, base.options.outputName)
	assert.False(t, base.options.exportPDF)
	assert.Equal(t, "out", custom.options.workdir)
	assert.True(t, custom.options.exportPDF)
	assert.Equal(t, DefaultOutputName, base.Output("").options.outputName)
}

func TestCancelledRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Generate(writeFile(t, "spec.json", titleSpec)).Env(noAI).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractTemplate(t *testing.T) {
	tpl := testTemplate(t)
	out := t.TempDir()

	res, err := ExtractTemplate(tpl).Output(out).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, layouts.LayoutsFile), res.LayoutsPath)
	assert.FileExists(t, res.LayoutsPath)
	assert.FileExists(t, res.DiagnosticsPath)
	assert.Empty(t, res.DiffReportPath)
	assert.Equal(t, 2, res.Counts.Layouts)

	again, err := ExtractTemplate(tpl).Output(t.TempDir()).Baseline(res.LayoutsPath).Run(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, again.DiffReportPath)

	filtered, err := ExtractTemplate(tpl).LayoutPrefix("Title and").Spec()
	require.NoError(t, err)
	require.Len(t, filtered.Layouts, 1)
	assert.Equal(t, "Title and Content", filtered.Layouts[0].Name)
}

func TestExtractTemplateMissingFile(t *testing.T) {
	_, err := ExtractTemplate(filepath.Join(t.TempDir(), "none.pptx")).Output(t.TempDir()).Run(context.Background())
	var step *StepError
	require.ErrorAs(t, err, &step)
	assert.Equal(t, StepExtract, step.Step)
	assert.Equal(t, ExitMissingFile, ExitCode(err))
	assert.Equal(t, CategoryMissingFile, Category(err))

	_, err = ExtractTemplate(filepath.Join(t.TempDir(), "none.pptx")).Spec()
	assert.Equal(t, ExitMissingFile, ExitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitSchema, ExitCode(&StepError{Step: StepValidate, Err: &jobspec.SchemaError{}}))
	assert.Equal(t, ExitBusinessRule, ExitCode(fmt.Errorf("wrapped: %w", &jobspec.BusinessRuleError{})))
	assert.Equal(t, ExitMissingFile, ExitCode(&StepError{Step: StepRender, Err: fmt.Errorf("x: %w", os.ErrNotExist)}))
	assert.Equal(t, ExitFailure, ExitCode(errors.New("boom")))
}

func TestDetails(t *testing.T) {
	assert.Nil(t, Details(nil))

	schema := &StepError{Step: StepValidate, Err: &jobspec.SchemaError{Errors: []jobspec.FieldError{{Loc: "meta.title", Msg: "field required"}}}}
	data, err := json.Marshal(Details(schema))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"category": "SchemaError",
		"step": "validate",
		"message": "validate: job spec schema: 1 error(s): meta.title: field required",
		"errors": [{"loc": "meta.title", "msg": "field required"}]
	}`, string(data))

	rules := &jobspec.BusinessRuleError{Violations: []jobspec.Violation{{Rule: jobspec.RuleTitleLength, ID: "s1", Message: "title too long"}}}
	d := Details(rules)
	assert.Equal(t, CategoryBusinessRule, d["category"])
	assert.Equal(t, []string{"s1"}, d["ids"])
	assert.NotContains(t, d, "step")

	rerr := &StepError{Step: StepRender, Err: &render.Error{SlideID: "s2", Anchor: "Left", Err: render.ErrAnchorNotFound}}
	d = Details(rerr)
	assert.Equal(t, CategoryRender, d["category"])
	assert.Equal(t, "s2", d["slide_id"])
	assert.Equal(t, "Left", d["anchor"])

	suite := &layouts.SuiteError{Artifact: layouts.LayoutsFile, Err: errors.New("invalid")}
	assert.Equal(t, layouts.LayoutsFile, Details(suite)["artifact"])
	assert.Equal(t, CategorySuite, Category(suite))
}

func TestPlan(t *testing.T) {
	tpl := testTemplate(t)
	catalog, err := ExtractTemplate(tpl).Output(t.TempDir()).Run(context.Background())
	require.NoError(t, err)

	work := t.TempDir()
	res, err := Generate(writeFile(t, "spec.json", contentSpec)).
		Workdir(work).
		Mapping(catalog.LayoutsPath, writeFile(t, "cards.json", approvedCards), "").
		Env(noAI).
		Plan(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Mapping)
	assert.FileExists(t, res.Mapping.RenderingReady)
	assert.NoFileExists(t, filepath.Join(work, DefaultOutputName))
	assert.Nil(t, res.Audit)

	_, err = Generate("spec.json").Plan(context.Background())
	assert.Error(t, err)
}
