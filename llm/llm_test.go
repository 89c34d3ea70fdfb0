package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tsawler/pptxgen/config"
)

func testRequest() Request {
	return Request{
		SlideID: "s1",
		Intent:  "problem",
		Title:   "Churn",
		Candidates: []Candidate{
			{LayoutID: "content", UsageTags: []string{"content"}},
			{LayoutID: "title", UsageTags: []string{"title"}},
			{LayoutID: "table", UsageTags: []string{"table"}},
		},
	}
}

type stubClassifier struct {
	resp  Response
	err   error
	delay time.Duration
}

func (s stubClassifier) Classify(ctx context.Context, _ Request) (Response, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return Response{}, ctx.Err()
		}
	}
	return s.resp, s.err
}

func TestMock(t *testing.T) {
	resp, err := Mock{}.Classify(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "mock", resp.Provider)
	require.Len(t, resp.Recommendations, 3)
	assert.Equal(t, 1.0, resp.Recommendations[0].Score)
	assert.Equal(t, 0.9, resp.Recommendations[1].Score)
	assert.Equal(t, 0.8, resp.Recommendations[2].Score)

	again, _ := Mock{}.Classify(context.Background(), testRequest())
	assert.Equal(t, resp, again)

	req := Request{}
	for i := 0; i < 12; i++ {
		req.Candidates = append(req.Candidates, Candidate{LayoutID: string(rune('a' + i))})
	}
	resp, _ = Mock{}.Classify(context.Background(), req)
	assert.Equal(t, 0.0, resp.Recommendations[11].Score)
}

func TestGuardTags(t *testing.T) {
	g := &Guard{Classifier: stubClassifier{resp: Response{Recommendations: []Recommendation{
		{LayoutID: "content", Score: 0.7, Tags: []string{"Body", "problem", "sparkles"}},
		{LayoutID: "table", Score: 0},
	}}}}
	resp, err := g.Classify(context.Background(), testRequest())
	require.NoError(t, err)

	rec, ok := resp.Find("content")
	require.True(t, ok)
	assert.Equal(t, []string{"content", "problem"}, rec.Tags)
	assert.Equal(t, []string{"sparkles"}, rec.UnknownTags)

	_, ok = resp.Find("title")
	assert.False(t, ok)
}

func TestGuardRejects(t *testing.T) {
	tests := map[string][]Recommendation{
		"unknown layout": {{LayoutID: "other", Score: 0.5}},
		"score above":    {{LayoutID: "content", Score: 1.2}},
		"score below":    {{LayoutID: "content", Score: -0.1}},
		"duplicate":      {{LayoutID: "content", Score: 0.1}, {LayoutID: "content", Score: 0.2}},
	}
	for name, recs := range tests {
		t.Run(name, func(t *testing.T) {
			g := &Guard{Classifier: stubClassifier{resp: Response{Recommendations: recs}}}
			_, err := g.Classify(context.Background(), testRequest())
			assert.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

func TestGuardTimeout(t *testing.T) {
	g := &Guard{Classifier: stubClassifier{delay: time.Second}, Timeout: 10 * time.Millisecond}
	_, err := g.Classify(context.Background(), testRequest())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGuardPassesErrors(t *testing.T) {
	boom := errors.New("boom")
	g := &Guard{Classifier: stubClassifier{err: boom}}
	_, err := g.Classify(context.Background(), testRequest())
	assert.ErrorIs(t, err, boom)
}

func TestDecode(t *testing.T) {
	resp, err := decode("```json\n{\"recommendations\":[{\"layout_id\":\"a\",\"score\":0.5}]}\n```")
	require.NoError(t, err)
	assert.Equal(t, []Recommendation{{LayoutID: "a", Score: 0.5}}, resp.Recommendations)

	_, err = decode(`{"other": 1}`)
	assert.ErrorIs(t, err, ErrInvalidResponse)
	_, err = decode(`not json`)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestOpenAI(t *testing.T) {
	var got openAIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		content := `{"recommendations":[{"layout_id":"table","score":0.9,"reason":"has table","tags":["table"]}]}`
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
		})
	}))
	defer srv.Close()

	c, err := NewOpenAI(OpenAIConfig{APIKey: "key", BaseURL: srv.URL + "/", Model: "m"})
	require.NoError(t, err)
	resp, err := c.Classify(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "openai", resp.Provider)
	assert.Equal(t, "m", got.Model)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	require.Len(t, got.Messages, 2)
	assert.Contains(t, got.Messages[1].Content, `"slide_id": "s1"`)
	rec, ok := resp.Find("table")
	require.True(t, ok)
	assert.Equal(t, 0.9, rec.Score)
	assert.Equal(t, "has table", rec.Reason)
}

func TestOpenAIErrors(t *testing.T) {
	_, err := NewOpenAI(OpenAIConfig{})
	assert.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()
	c, err := NewOpenAI(OpenAIConfig{APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = c.Classify(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"no json here"}}]}`))
	}))
	defer bad.Close()
	c, _ = NewOpenAI(OpenAIConfig{APIKey: "key", BaseURL: bad.URL})
	_, err = c.Classify(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestGemini(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		text := `{"recommendations":[{"layout_id":"content","score":0.4}]}`
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}},
			}},
		})
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), GeminiConfig{APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)
	resp, err := g.Classify(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "gemini", resp.Provider)
	rec, ok := resp.Find("content")
	require.True(t, ok)
	assert.Equal(t, 0.4, rec.Score)

	_, err = NewGemini(context.Background(), GeminiConfig{})
	assert.Error(t, err)
}

func TestFromEnv(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	log := zap.New(core)

	c := FromEnv(context.Background(), config.Env{LLMProvider: "openai"}, nil, log)
	g, ok := c.(*Guard)
	require.True(t, ok)
	assert.IsType(t, Mock{}, g.Classifier)
	assert.Equal(t, 1, logs.FilterMessage("llm provider misconfigured, using mock").Len())

	c = FromEnv(context.Background(), config.Env{LLMProvider: "claude"}, nil, log)
	assert.IsType(t, Mock{}, c.(*Guard).Classifier)
	assert.Equal(t, 1, logs.FilterMessage("unknown llm provider, using mock").Len())

	c = FromEnv(context.Background(), config.Env{LLMProvider: "openai", OpenAIAPIKey: "k"}, nil, log)
	assert.IsType(t, &OpenAI{}, c.(*Guard).Classifier)

	assert.Nil(t, FromEnv(context.Background(), config.Env{LLMProvider: "none"}, nil, log))
	assert.IsType(t, Mock{}, FromEnv(context.Background(), config.Env{}, nil, nil).(*Guard).Classifier)
}
