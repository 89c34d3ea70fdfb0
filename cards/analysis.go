package cards

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Issue severities.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// AnalyzerIssue is one finding of the quality analyzer on a slide.
type AnalyzerIssue struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message,omitempty"`
}

// SlideAnalysis is the analyzer output for one slide.
type SlideAnalysis struct {
	SlideID           string          `json:"slide_id"`
	LayoutConsistency string          `json:"layout_consistency,omitempty"`
	BlockingTags      []string        `json:"blocking_tags,omitempty"`
	Issues            []AnalyzerIssue `json:"issues"`
}

// Analysis is an analyzer report of a previous run.
type Analysis struct {
	Slides []SlideAnalysis `json:"slides"`
}

// AnalyzerSummary condenses the analyzer findings of a slide for scoring.
type AnalyzerSummary struct {
	SeverityHigh      int      `json:"severity_high"`
	SeverityMedium    int      `json:"severity_medium"`
	SeverityLow       int      `json:"severity_low"`
	LayoutConsistency string   `json:"layout_consistency,omitempty"`
	BlockingTags      []string `json:"blocking_tags,omitempty"`
}

// LoadAnalysis reads an analyzer report.
func LoadAnalysis(path string) (*Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading analysis: %w", err)
	}
	var a Analysis
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parsing analysis %s: %w", path, err)
	}
	return &a, nil
}

// Slide returns the analysis of a slide.
func (a *Analysis) Slide(id string) (*SlideAnalysis, bool) {
	if a == nil {
		return nil, false
	}
	for i := range a.Slides {
		if a.Slides[i].SlideID == id {
			return &a.Slides[i], true
		}
	}
	return nil, false
}

// Summary counts the issues of the slide by severity. Unknown severities
// count as low.
func (s *SlideAnalysis) Summary() *AnalyzerSummary {
	sum := &AnalyzerSummary{
		LayoutConsistency: s.LayoutConsistency,
		BlockingTags:      append([]string(nil), s.BlockingTags...),
	}
	for _, is := range s.Issues {
		switch is.Severity {
		case SeverityHigh:
			sum.SeverityHigh++
		case SeverityMedium:
			sum.SeverityMedium++
		default:
			sum.SeverityLow++
		}
	}
	sort.Strings(sum.BlockingTags)
	return sum
}
