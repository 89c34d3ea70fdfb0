// Package llm provides the layout classifiers consulted by the
// recommender. Every provider implements Classifier; Guard enforces the
// response contract shared by all of them.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidResponse is wrapped by every response that breaks the
// classifier contract.
var ErrInvalidResponse = errors.New("invalid classifier response")

// Classifier scores candidate layouts for a slide.
type Classifier interface {
	Classify(ctx context.Context, req Request) (Response, error)
}

// Candidate is a layout offered to the classifier.
type Candidate struct {
	LayoutID   string   `json:"layout_id"`
	LayoutName string   `json:"layout_name,omitempty"`
	UsageTags  []string `json:"usage_tags"`
	MaxLines   int      `json:"max_lines"`
	AllowTable bool     `json:"allow_table"`
	AllowChart bool     `json:"allow_chart"`
	AllowImage bool     `json:"allow_image"`
}

// Request describes the slide and its candidates.
type Request struct {
	SlideID    string      `json:"slide_id"`
	Intent     string      `json:"intent,omitempty"`
	TypeHint   string      `json:"type_hint,omitempty"`
	Title      string      `json:"title,omitempty"`
	Body       []string    `json:"body,omitempty"`
	HasTable   bool        `json:"has_table"`
	Candidates []Candidate `json:"candidates"`
	// Vocabulary lists the tags a response may use.
	Vocabulary []string `json:"vocabulary"`
}

// Recommendation is the classifier's verdict on one candidate.
type Recommendation struct {
	LayoutID string   `json:"layout_id"`
	Score    float64  `json:"score"`
	Reason   string   `json:"reason,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	// UnknownTags holds tags outside the vocabulary. Guard moves them here
	// from Tags.
	UnknownTags []string `json:"-"`
}

// Response is the classifier output.
type Response struct {
	Provider        string           `json:"-"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Find returns the recommendation for a layout.
func (r Response) Find(layoutID string) (Recommendation, bool) {
	for _, rec := range r.Recommendations {
		if rec.LayoutID == layoutID {
			return rec, true
		}
	}
	return Recommendation{}, false
}

const systemPrompt = `You classify presentation slide layouts.
Given a slide and candidate layouts, answer with a JSON object of the form
{"recommendations":[{"layout_id":"...","score":0.0,"reason":"...","tags":["..."]}]}.
Score every candidate between 0 and 1. Use only tags from the vocabulary.`

// prompt renders the user message of a request.
func prompt(req Request) (string, error) {
	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}
	return "Slide and candidates:\n" + string(data), nil
}

// decode parses a model answer, tolerating a fenced code block.
func decode(text string) (Response, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	var resp Response
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if resp.Recommendations == nil {
		return Response{}, fmt.Errorf("%w: missing recommendations", ErrInvalidResponse)
	}
	return resp, nil
}
