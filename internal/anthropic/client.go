package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/tina/internal/oracle"
)

const (
	apiURL       = "https://api.anthropic.com/v1/messages"
	DefaultModel = "claude-sonnet-4-20250514"

	classifyMaxTokens = 512
	generateMaxTokens = 1024
)

const systemPrompt = "You are Tina, a professional and friendly insurance assistant. Reply in plain text without markdown formatting."

type Client struct {
	apiKey string
	model  string
	url    string
	client *http.Client
}

var _ oracle.Oracle = (*Client)(nil)

func NewClient(apiKey, model string) *Client {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		url:    apiURL,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

// SetTestTransport points the client at a test server.
func (c *Client) SetTestTransport(url string) {
	c.url = url
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	Messages    []Message `json:"messages"`
}

type response struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Classify asks for JSON matching schema. The Messages API has no native
// schema mode, so the schema travels in the prompt.
func (c *Client) Classify(ctx context.Context, prompt string, schema oracle.Schema, out any) error {
	zero := 0.0
	text, err := c.complete(ctx, request{
		System:      systemPrompt,
		MaxTokens:   classifyMaxTokens,
		Temperature: &zero,
		Messages:    []Message{{Role: "user", Content: oracle.StructuredPrompt(prompt, schema)}},
	})
	if err != nil {
		return err
	}
	return oracle.DecodeJSON(text, out)
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.Complete(ctx, systemPrompt, []Message{{Role: "user", Content: prompt}}, generateMaxTokens)
}

// Complete sends a message to the Anthropic API and returns the text response.
func (c *Client) Complete(ctx context.Context, system string, messages []Message, maxTokens int) (string, error) {
	return c.complete(ctx, request{
		System:    system,
		MaxTokens: maxTokens,
		Messages:  messages,
	})
}

func (c *Client) complete(ctx context.Context, reqBody request) (string, error) {
	reqBody.Model = c.model

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: api call: %w", oracle.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", oracle.ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Type != "" {
			return "", fmt.Errorf("%w: api error %d: %s: %s", oracle.ErrUnavailable, resp.StatusCode, errResp.Error.Type, errResp.Error.Message)
		}
		return "", fmt.Errorf("%w: api error %d: %s", oracle.ErrUnavailable, resp.StatusCode, string(respBody))
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("%w: unmarshal response: %w", oracle.ErrMalformedResponse, err)
	}

	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("%w: empty response content", oracle.ErrUnavailable)
	}

	text := strings.TrimSpace(apiResp.Content[0].Text)
	if text == "" {
		return "", fmt.Errorf("%w: empty response text", oracle.ErrUnavailable)
	}
	return text, nil
}
