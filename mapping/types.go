// Package mapping turns a job specification, its approved content cards
// and the layout catalog into the rendering plan: the layout and elements
// of every slide, capacity fallbacks as replayable patches, and the
// mapping log.
package mapping

import (
	"errors"
	"fmt"

	"github.com/tsawler/pptxgen/cards"
	"github.com/tsawler/pptxgen/jobspec"
	"github.com/tsawler/pptxgen/model"
	"github.com/tsawler/pptxgen/patch"
)

// Artifact file names.
const (
	RenderingReadyFile = "rendering_ready.json"
	MappingLogFile     = "mapping_log.json"
	FallbackReportFile = "fallback_report.json"
)

// Fallback kinds. Only FallbackShrinkText is applied; the others are
// reserved names for log consumers.
const (
	FallbackNone       = "none"
	FallbackShrinkText = "shrink_text"
	FallbackDropText   = "drop_text"
	FallbackSplitSlide = "split_slide"
)

// KnownFallback reports whether kind is a recognized fallback name.
func KnownFallback(kind string) bool {
	switch kind {
	case FallbackShrinkText, FallbackDropText, FallbackSplitSlide:
		return true
	}
	return false
}

// ErrCardNotApproved is wrapped when a card that is not approved reaches
// the mapping stage.
var ErrCardNotApproved = errors.New("content card is not approved")

// Error is a mapping failure, optionally tied to a slide.
type Error struct {
	SlideID string
	Err     error
}

func (e *Error) Error() string {
	if e.SlideID != "" {
		return fmt.Sprintf("mapping slide %s: %v", e.SlideID, e.Err)
	}
	return fmt.Sprintf("mapping: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// SlideMeta is the per-slide metadata of the rendering plan.
type SlideMeta struct {
	Section  string   `json:"section,omitempty"`
	PageNo   int      `json:"page_no"`
	Sources  []string `json:"sources"`
	Fallback string   `json:"fallback"`
}

// ReadySlide is one slide of rendering_ready.json.
type ReadySlide struct {
	LayoutID string          `json:"layout_id"`
	Elements *model.Elements `json:"elements"`
	Meta     SlideMeta       `json:"meta"`
}

// ReadyMeta is the deck metadata of rendering_ready.json.
type ReadyMeta struct {
	TemplateVersion string       `json:"template_version,omitempty"`
	ContentHash     string       `json:"content_hash,omitempty"`
	GeneratedAt     string       `json:"generated_at"`
	JobMeta         jobspec.Meta `json:"job_meta"`
	JobAuth         jobspec.Auth `json:"job_auth"`
	TemplatePath    string       `json:"template_path,omitempty"`
	DeckID          string       `json:"deck_id"`
	RunID           string       `json:"run_id"`
}

// RenderingReady is the rendering plan.
type RenderingReady struct {
	Slides []ReadySlide `json:"slides"`
	Meta   ReadyMeta    `json:"meta"`
}

// FallbackState records the fallbacks applied to a slide.
type FallbackState struct {
	Applied bool     `json:"applied"`
	History []string `json:"history"`
	Reason  string   `json:"reason,omitempty"`
}

// Last returns the last applied fallback or FallbackNone.
func (f FallbackState) Last() string {
	if len(f.History) == 0 {
		return FallbackNone
	}
	return f.History[len(f.History)-1]
}

// AnalyzerLog lists the analyzer findings of a slide.
type AnalyzerLog struct {
	IssueCount int                   `json:"issue_count"`
	Issues     []cards.AnalyzerIssue `json:"issues"`
}

// LogSlide is one slide of mapping_log.json.
type LogSlide struct {
	RefID          string            `json:"ref_id"`
	SelectedLayout string            `json:"selected_layout"`
	Candidates     []cards.Candidate `json:"candidates"`
	Fallback       FallbackState     `json:"fallback"`
	AIPatch        []patch.Patch     `json:"ai_patch"`
	Warnings       []string          `json:"warnings"`
	Analyzer       *AnalyzerLog      `json:"analyzer,omitempty"`
	UnknownTags    []string          `json:"unknown_tags,omitempty"`
	AIProvider     string            `json:"ai_provider,omitempty"`
}

// LogMeta aggregates the mapping log.
type LogMeta struct {
	MappingTimeMS                 int64          `json:"mapping_time_ms"`
	FallbackCount                 int            `json:"fallback_count"`
	AIPatchCount                  int            `json:"ai_patch_count"`
	AnalyzerIssueCount            int            `json:"analyzer_issue_count"`
	AnalyzerIssueCountsByType     map[string]int `json:"analyzer_issue_counts_by_type"`
	AnalyzerIssueCountsBySeverity map[string]int `json:"analyzer_issue_counts_by_severity"`
	DeckID                        string         `json:"deck_id"`
	RunID                         string         `json:"run_id"`
}

// Log is mapping_log.json.
type Log struct {
	Slides []LogSlide `json:"slides"`
	Meta   LogMeta    `json:"meta"`
}

// FallbackEntry is one slide of fallback_report.json.
type FallbackEntry struct {
	RefID    string        `json:"ref_id"`
	PageNo   int           `json:"page_no"`
	LayoutID string        `json:"layout_id"`
	Fallback FallbackState `json:"fallback"`
	Patches  []patch.Patch `json:"patches"`
}

// FallbackReport lists the slides that needed a fallback.
type FallbackReport struct {
	Slides []FallbackEntry `json:"slides"`
	Meta   struct {
		GeneratedAt   string `json:"generated_at"`
		FallbackCount int    `json:"fallback_count"`
		RunID         string `json:"run_id"`
	} `json:"meta"`
}
