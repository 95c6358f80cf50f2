package llm

import (
	"context"
	"errors"
	"fmt"
	"math"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"
)

// provider performs a single, unguarded completion against a model endpoint.
type provider interface {
	complete(ctx context.Context, prompt string) (string, error)
	close() error
}

func newProvider(ctx context.Context, cfg *Config) (provider, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return newOpenAIProvider(cfg)
	case ProviderEino:
		return newEinoProvider(ctx, cfg)
	case ProviderGemini:
		return newGeminiProvider(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// openaiProvider talks to the OpenAI chat completions API, or any endpoint
// compatible with it when BaseURL is set.
type openaiProvider struct {
	client      *openai.Client
	model       string
	temperature float32
}

func newOpenAIProvider(cfg *Config) (*openaiProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	// go-openai omits a zero temperature, which the API reads as 1.0
	temperature := float32(cfg.Temperature)
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	return &openaiProvider{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		temperature: temperature,
	}, nil
}

func (p *openaiProvider) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: p.temperature,
	})
	if err != nil {
		return "", openaiStatus(err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *openaiProvider) close() error { return nil }

func openaiStatus(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &StatusError{StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &StatusError{StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	return err
}

// einoProvider drives an OpenAI-compatible endpoint, such as a self-hosted
// Qwen inference server, through an eino chat model.
type einoProvider struct {
	chat        model.ChatModel
	temperature float32
}

func newEinoProvider(ctx context.Context, cfg *Config) (*einoProvider, error) {
	chat, err := einoopenai.NewChatModel(ctx, &einoopenai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("create eino chat model: %w", err)
	}

	return &einoProvider{
		chat:        chat,
		temperature: float32(cfg.Temperature),
	}, nil
}

func (p *einoProvider) complete(ctx context.Context, prompt string) (string, error) {
	messages := []*schema.Message{
		{Role: schema.User, Content: prompt},
	}

	resp, err := p.chat.Generate(ctx, messages, model.WithTemperature(p.temperature))
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", ErrEmptyResponse
	}
	return resp.Content, nil
}

func (p *einoProvider) close() error { return nil }

// geminiProvider calls Google's Gemini models.
type geminiProvider struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func newGeminiProvider(ctx context.Context, cfg *Config) (*geminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	gm := client.GenerativeModel(cfg.Model)
	gm.SetTemperature(float32(cfg.Temperature))

	return &geminiProvider{client: client, model: gm}, nil
}

func (p *geminiProvider) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (p *geminiProvider) close() error {
	return p.client.Close()
}
