package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"github.com/MikeSquared-Agency/tina/internal/oracle"
)

const (
	DefaultModel   = "gpt-4o-mini"
	DefaultBaseURL = "https://api.openai.com/v1"
)

const systemPrompt = "You are Tina, a professional and friendly insurance assistant. Reply in plain text without markdown formatting."

// Client is an oracle for any OpenAI-compatible chat completion endpoint
// (OpenAI, OpenRouter, vLLM, Ollama's compatibility layer).
type Client struct {
	llm llms.Model
}

var _ oracle.Oracle = (*Client)(nil)

func NewClient(token, baseURL, model string, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}

	llm, err := lcopenai.New(
		lcopenai.WithToken(token),
		lcopenai.WithBaseURL(baseURL),
		lcopenai.WithModel(model),
		lcopenai.WithCallback(NewLogCallbackHandler(logger)),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return &Client{llm: llm}, nil
}

func (c *Client) Classify(ctx context.Context, prompt string, schema oracle.Schema, out any) error {
	text, err := c.generate(ctx, oracle.StructuredPrompt(prompt, schema),
		llms.WithJSONMode(),
		llms.WithTemperature(0),
		llms.WithMaxTokens(512),
	)
	if err != nil {
		return err
	}
	return oracle.DecodeJSON(text, out)
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt,
		llms.WithTemperature(0.7),
		llms.WithMaxTokens(1024),
	)
}

func (c *Client) generate(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := c.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %w", oracle.ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no chat completion found", oracle.ErrUnavailable)
	}

	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty chat completion", oracle.ErrUnavailable)
	}
	return text, nil
}
