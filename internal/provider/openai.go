package provider

import (
	"context"
	"fmt"

	"github.com/ashureev/riddler/internal/domain"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIUpstream generates riddles through any OpenAI-compatible chat
// completions endpoint, such as the Hugging Face inference router.
type OpenAIUpstream struct {
	client *openai.Client
	model  string
}

// NewOpenAIUpstream creates an OpenAI-compatible upstream. baseURL may be empty
// to use the OpenAI default.
func NewOpenAIUpstream(apiKey, baseURL, model string, opts ...option.RequestOption) (*OpenAIUpstream, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI-compatible API key is missing")
	}
	if model == "" {
		return nil, fmt.Errorf("OpenAI-compatible model is missing")
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)

	client := openai.NewClient(reqOpts...)
	return &OpenAIUpstream{client: &client, model: model}, nil
}

// Name returns the upstream name.
func (o *OpenAIUpstream) Name() string {
	return "openai-compat"
}

// Fetch asks the model for one riddle and parses its reply.
func (o *OpenAIUpstream) Fetch(ctx context.Context, topic string) (domain.Riddle, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(BuildPrompt(topic)),
		},
		Temperature: openai.Float(0.8),
		MaxTokens:   openai.Int(200),
	})
	if err != nil {
		return domain.Riddle{}, fmt.Errorf("openai-compatible chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Riddle{}, errNoCandidates
	}

	r, err := ParseModelOutput(resp.Choices[0].Message.Content)
	if err != nil {
		return domain.Riddle{}, fmt.Errorf("openai-compatible output: %w", err)
	}
	r.Source = o.Name()
	return r, nil
}
