package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashureev/riddler/internal/domain"
	"google.golang.org/genai"
)

// GeminiUpstream generates riddles with Google's Gemini API.
type GeminiUpstream struct {
	client *genai.Client
	model  string
}

// NewGeminiUpstream creates a Gemini upstream.
func NewGeminiUpstream(ctx context.Context, apiKey, model string) (*GeminiUpstream, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is missing")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiUpstream{client: client, model: model}, nil
}

// Name returns the upstream name.
func (g *GeminiUpstream) Name() string {
	return "gemini"
}

// Fetch asks the model for one riddle and parses its reply.
func (g *GeminiUpstream) Fetch(ctx context.Context, topic string) (domain.Riddle, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.95),
		MaxOutputTokens: 256,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(BuildPrompt(topic)), cfg)
	if err != nil {
		return domain.Riddle{}, fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return domain.Riddle{}, errNoCandidates
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}

	r, err := ParseModelOutput(sb.String())
	if err != nil {
		return domain.Riddle{}, fmt.Errorf("gemini output: %w", err)
	}
	r.Source = g.Name()
	return r, nil
}
