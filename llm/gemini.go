package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiConfig configures the Gemini classifier.
type GeminiConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint.
	BaseURL string
}

// Gemini classifies through the Gemini API with a JSON response type.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini returns a Gemini classifier. An API key is required.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key not configured")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}
	return &Gemini{client: client, model: cfg.Model}, nil
}

// Classify implements Classifier.
func (g *Gemini) Classify(ctx context.Context, req Request) (Response, error) {
	user, err := prompt(req)
	if err != nil {
		return Response{}, err
	}
	result, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(user),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			Temperature:       genai.Ptr[float32](0),
		})
	if err != nil {
		return Response{}, fmt.Errorf("gemini: %w", err)
	}
	parsed, err := decode(result.Text())
	if err != nil {
		return Response{}, fmt.Errorf("gemini: %w", err)
	}
	parsed.Provider = "gemini"
	return parsed, nil
}
