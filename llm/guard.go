package llm

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tsawler/pptxgen/layouts"
)

// Guard wraps a classifier with a per-call timeout and checks the
// response: every recommendation names a requested candidate, scores lie
// in [0, 1] and tags come from the vocabulary. Unknown tags are moved to
// Recommendation.UnknownTags.
type Guard struct {
	Classifier Classifier
	Timeout    time.Duration
	Vocabulary *layouts.Vocabulary
}

// Classify implements Classifier.
func (g *Guard) Classify(ctx context.Context, req Request) (Response, error) {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}
	resp, err := g.Classifier.Classify(ctx, req)
	if err != nil {
		return Response{}, err
	}
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	vocab := g.Vocabulary
	if vocab == nil {
		vocab = layouts.NewVocabulary(req.Vocabulary...)
	}
	known := make(map[string]bool, len(req.Candidates))
	for _, c := range req.Candidates {
		known[c.LayoutID] = true
	}
	seen := make(map[string]bool, len(resp.Recommendations))
	for i := range resp.Recommendations {
		rec := &resp.Recommendations[i]
		if !known[rec.LayoutID] {
			return Response{}, fmt.Errorf("%w: unknown layout_id %q", ErrInvalidResponse, rec.LayoutID)
		}
		if seen[rec.LayoutID] {
			return Response{}, fmt.Errorf("%w: duplicate layout_id %q", ErrInvalidResponse, rec.LayoutID)
		}
		seen[rec.LayoutID] = true
		if math.IsNaN(rec.Score) || rec.Score < 0 || rec.Score > 1 {
			return Response{}, fmt.Errorf("%w: score %g for %s outside 0..1", ErrInvalidResponse, rec.Score, rec.LayoutID)
		}
		var tags []string
		for _, t := range rec.Tags {
			if canon, ok := vocab.Normalize(t); ok {
				tags = append(tags, canon)
			} else {
				rec.UnknownTags = append(rec.UnknownTags, t)
			}
		}
		rec.Tags = vocab.Sort(tags)
	}
	return resp, nil
}
