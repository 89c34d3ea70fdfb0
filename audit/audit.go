// Package audit compares a rendered deck with the job specification it was
// built from and records what is missing. Findings are warnings; they never
// fail a run.
package audit

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tsawler/pptxgen/internal/atomicfile"
	"github.com/tsawler/pptxgen/jobspec"
	"github.com/tsawler/pptxgen/pptx"
)

// FileName is the name of the audit artifact.
const FileName = "rendering_log.json"

// Warning codes.
const (
	CodeMissingTitle     = "missing_title"
	CodeMissingSubtitle  = "missing_subtitle"
	CodeMissingBody      = "missing_body"
	CodeMissingNotes     = "missing_notes"
	CodeEmptyPlaceholder = "empty_placeholder"
	CodeMissingSlide     = "missing_slide"
)

// Log is the content of rendering_log.json.
type Log struct {
	Meta   Meta    `json:"meta"`
	Slides []Slide `json:"slides"`
}

// Meta aggregates the run. The slide counts are set only when they differ.
type Meta struct {
	GeneratedAt        string `json:"generated_at"`
	TemplateVersion    string `json:"template_version,omitempty"`
	RenderingTimeMS    int64  `json:"rendering_time_ms"`
	WarningsTotal      int    `json:"warnings_total"`
	EmptyPlaceholders  int    `json:"empty_placeholders"`
	SlideCountActual   *int   `json:"slide_count_actual,omitempty"`
	SlideCountExpected *int   `json:"slide_count_expected,omitempty"`
}

// Slide is the audit of one page.
type Slide struct {
	PageNo   int       `json:"page_no"`
	SlideID  string    `json:"slide_id,omitempty"`
	LayoutID string    `json:"layout_id,omitempty"`
	Detected Detected  `json:"detected"`
	Warnings []Warning `json:"warnings"`
}

// Detected reports which kinds of content carry text on the slide.
type Detected struct {
	Title    bool `json:"title"`
	Subtitle bool `json:"subtitle"`
	Body     bool `json:"body"`
	Notes    bool `json:"notes"`
}

// Warning is one finding.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Options configures Audit.
type Options struct {
	TemplateVersion string
	RenderingTime   time.Duration
	Logger          *zap.Logger
	Now             func() time.Time
}

// Audit opens the deck at pptxPath and checks every slide against job.
func Audit(pptxPath string, job *jobspec.Spec, opts Options) (*Log, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	if job == nil {
		return nil, fmt.Errorf("audit: no job specification")
	}

	r, err := pptx.Open(pptxPath)
	if err != nil {
		return nil, fmt.Errorf("audit: opening %s: %w", pptxPath, err)
	}
	defer r.Close()

	out := &Log{
		Meta: Meta{
			GeneratedAt:     now().UTC().Format(time.RFC3339),
			TemplateVersion: opts.TemplateVersion,
			RenderingTimeMS: opts.RenderingTime.Milliseconds(),
		},
		Slides: []Slide{},
	}

	rendered := r.Slides()
	for i, sl := range rendered {
		var expected *jobspec.Slide
		if i < len(job.Slides) {
			expected = &job.Slides[i]
		}
		out.Slides = append(out.Slides, auditSlide(i+1, sl, expected))
	}
	for i := len(rendered); i < len(job.Slides); i++ {
		out.Slides = append(out.Slides, Slide{
			PageNo:   i + 1,
			SlideID:  job.Slides[i].ID,
			Warnings: []Warning{{Code: CodeMissingSlide, Message: fmt.Sprintf("slide %s was not rendered", job.Slides[i].ID)}},
		})
	}

	if actual, expected := len(rendered), len(job.Slides); actual != expected {
		out.Meta.SlideCountActual = &actual
		out.Meta.SlideCountExpected = &expected
	}
	for _, s := range out.Slides {
		out.Meta.WarningsTotal += len(s.Warnings)
		for _, w := range s.Warnings {
			if w.Code == CodeEmptyPlaceholder {
				out.Meta.EmptyPlaceholders++
			}
		}
	}

	log.Info("audit completed",
		zap.String("path", pptxPath),
		zap.Int("slides", len(rendered)),
		zap.Int("warnings_total", out.Meta.WarningsTotal),
		zap.Int("empty_placeholders", out.Meta.EmptyPlaceholders))
	return out, nil
}

// Placeholder classes used by the checks.
var (
	titleTypes    = map[string]bool{"title": true, "ctrTitle": true}
	subtitleTypes = map[string]bool{"subTitle": true}
	bodyTypes     = map[string]bool{"body": true, "obj": true}
	chromeTypes   = map[string]bool{"dt": true, "ftr": true, "sldNum": true}
)

func auditSlide(pageNo int, sl *pptx.Slide, expected *jobspec.Slide) Slide {
	out := Slide{PageNo: pageNo, LayoutID: sl.LayoutName, Warnings: []Warning{}}

	for _, sh := range sl.Shapes {
		filled := hasText(sh)
		switch {
		case sh.Placeholder == nil:
			if filled && sh.Kind == pptx.KindShape {
				out.Detected.Body = true
			}
		case titleTypes[sh.Placeholder.EffectiveType()]:
			out.Detected.Title = out.Detected.Title || filled
		case subtitleTypes[sh.Placeholder.EffectiveType()]:
			out.Detected.Subtitle = out.Detected.Subtitle || filled
		case bodyTypes[sh.Placeholder.EffectiveType()]:
			out.Detected.Body = out.Detected.Body || filled
		}
	}
	out.Detected.Notes = sl.HasNotes && strings.TrimSpace(sl.Notes) != ""

	flagged := map[string]bool{}
	if expected != nil {
		out.SlideID = expected.ID
		if expected.Title != "" && !out.Detected.Title {
			out.Warnings = append(out.Warnings, Warning{CodeMissingTitle, "title was specified but the title placeholder is empty"})
			flagged[CodeMissingTitle] = true
		}
		if expected.Subtitle != "" && !out.Detected.Subtitle {
			out.Warnings = append(out.Warnings, Warning{CodeMissingSubtitle, "subtitle was specified but no subtitle placeholder carries text"})
			flagged[CodeMissingSubtitle] = true
		}
		if expected.HasBody() && !out.Detected.Body {
			out.Warnings = append(out.Warnings, Warning{CodeMissingBody, "body bullets were specified but no body shape carries text"})
			flagged[CodeMissingBody] = true
		}
		if expected.Notes != "" && !out.Detected.Notes {
			out.Warnings = append(out.Warnings, Warning{CodeMissingNotes, "notes were specified but the notes frame is blank"})
		}
	}

	for _, sh := range sl.Shapes {
		if sh.Placeholder == nil || !sh.HasTextFrame || hasText(sh) {
			continue
		}
		typ := sh.Placeholder.EffectiveType()
		switch {
		case chromeTypes[typ]:
			continue
		case titleTypes[typ] && flagged[CodeMissingTitle],
			subtitleTypes[typ] && flagged[CodeMissingSubtitle],
			bodyTypes[typ] && flagged[CodeMissingBody]:
			continue
		}
		out.Warnings = append(out.Warnings, Warning{
			Code:    CodeEmptyPlaceholder,
			Message: fmt.Sprintf("placeholder %q is empty", sh.Name),
		})
	}
	return out
}

func hasText(sh pptx.Shape) bool {
	return strings.TrimSpace(sh.Text) != ""
}

// WriteLog writes the log as JSON to path.
func (l *Log) WriteLog(path string) error {
	return atomicfile.WriteJSON(path, l)
}
