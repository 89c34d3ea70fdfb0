package cards

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrMalformedDraft is wrapped by draft parsing failures.
var ErrMalformedDraft = errors.New("malformed draft")

// Draft is the slide structure of a deck as approved in the draft store.
type Draft struct {
	Sections []Section `json:"sections"`
}

// Section groups draft slides.
type Section struct {
	Name   string       `json:"name"`
	Slides []DraftSlide `json:"slides"`
}

// DraftSlide is the draft card of one slide.
type DraftSlide struct {
	RefID             string       `json:"ref_id"`
	LayoutHint        string       `json:"layout_hint,omitempty"`
	LayoutCandidates  []Candidate  `json:"layout_candidates,omitempty"`
	LayoutScoreDetail *ScoreDetail `json:"layout_score_detail,omitempty"`
}

// Candidate is a scored layout.
type Candidate struct {
	LayoutID string  `json:"layout_id"`
	Score    float64 `json:"score"`
}

// Score component bounds.
const (
	minComponent = -0.5
	maxComponent = 1.0
)

// ScoreDetail is the breakdown of a candidate score.
type ScoreDetail struct {
	UsesTag          float64 `json:"uses_tag"`
	ContentCapacity  float64 `json:"content_capacity"`
	Diversity        float64 `json:"diversity"`
	AnalyzerSupport  float64 `json:"analyzer_support"`
	AIRecommendation float64 `json:"ai_recommendation"`
}

// Clamp bounds every component to [-0.5, 1].
func (d ScoreDetail) Clamp() ScoreDetail {
	return ScoreDetail{
		UsesTag:          clamp(d.UsesTag, minComponent, maxComponent),
		ContentCapacity:  clamp(d.ContentCapacity, minComponent, maxComponent),
		Diversity:        clamp(d.Diversity, minComponent, maxComponent),
		AnalyzerSupport:  clamp(d.AnalyzerSupport, minComponent, maxComponent),
		AIRecommendation: clamp(d.AIRecommendation, minComponent, maxComponent),
	}
}

// Sum adds the clamped components without bounding the result.
func (d ScoreDetail) Sum() float64 {
	c := d.Clamp()
	return c.UsesTag + c.ContentCapacity + c.Diversity + c.AnalyzerSupport + c.AIRecommendation
}

// Total is the score in [0, 1].
func (d ScoreDetail) Total() float64 {
	return clamp(d.Sum(), 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// LoadDraft reads a draft file. Parse failures wrap ErrMalformedDraft.
func LoadDraft(path string) (*Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading draft: %w", err)
	}
	return ParseDraft(data)
}

// ParseDraft decodes a draft. Every slide needs a ref_id, unique across
// sections.
func ParseDraft(data []byte) (*Draft, error) {
	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDraft, err)
	}
	seen := make(map[string]bool)
	for si, sec := range d.Sections {
		for i, s := range sec.Slides {
			if s.RefID == "" {
				return nil, fmt.Errorf("%w: sections[%d].slides[%d]: ref_id is required", ErrMalformedDraft, si, i)
			}
			if seen[s.RefID] {
				return nil, fmt.Errorf("%w: duplicate ref_id %q", ErrMalformedDraft, s.RefID)
			}
			seen[s.RefID] = true
		}
	}
	return &d, nil
}

// TrivialDraft builds a draft with one section per slide. Each section is
// named after its slide and hints the given layout.
func TrivialDraft(slideIDs, layouts []string) *Draft {
	d := &Draft{Sections: make([]Section, 0, len(slideIDs))}
	for i, id := range slideIDs {
		s := DraftSlide{RefID: id}
		if i < len(layouts) {
			s.LayoutHint = layouts[i]
		}
		d.Sections = append(d.Sections, Section{Name: id, Slides: []DraftSlide{s}})
	}
	return d
}

// Lookup returns the draft slide for a slide id and its section name.
func (d *Draft) Lookup(refID string) (*DraftSlide, string, bool) {
	if d == nil {
		return nil, "", false
	}
	for si := range d.Sections {
		sec := &d.Sections[si]
		for i := range sec.Slides {
			if sec.Slides[i].RefID == refID {
				return &sec.Slides[i], sec.Name, true
			}
		}
	}
	return nil, "", false
}
