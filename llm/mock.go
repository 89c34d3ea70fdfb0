package llm

import (
	"context"
	"fmt"
	"math"
)

// Mock scores candidates by position: the first gets 1.0 and every later
// one 0.1 less, down to 0. It never fails and returns no tags.
type Mock struct{}

// Classify implements Classifier.
func (Mock) Classify(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	resp := Response{Provider: "mock", Recommendations: make([]Recommendation, 0, len(req.Candidates))}
	for i, c := range req.Candidates {
		score := math.Max(0, math.Round((1-0.1*float64(i))*100)/100)
		resp.Recommendations = append(resp.Recommendations, Recommendation{
			LayoutID: c.LayoutID,
			Score:    score,
			Reason:   fmt.Sprintf("mock rank %d", i+1),
		})
	}
	return resp, nil
}
