package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/tina/internal/intake"
)

type chatReply struct {
	Response    string             `json:"response"`
	MessageType intake.MessageType `json:"messageType"`
	History     intake.Transcript  `json:"history"`
}

type recommendReply struct {
	Recommendations string            `json:"recommendations"`
	History         intake.Transcript `json:"history"`
}

type client struct {
	base string
	http *http.Client
}

func newClient(addr string) *client {
	return &client{
		base: strings.TrimRight(addr, "/"),
		// Oracle retries can hold a turn open for minutes.
		http: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (c *client) start(ctx context.Context, message string) (*chatReply, []byte, error) {
	var reply chatReply
	raw, err := c.post(ctx, "/chat/v1/start", map[string]any{"message": message}, &reply)
	return &reply, raw, err
}

func (c *client) continueChat(ctx context.Context, message string, history intake.Transcript) (*chatReply, []byte, error) {
	var reply chatReply
	raw, err := c.post(ctx, "/chat/v1/continue", map[string]any{"message": message, "history": history}, &reply)
	return &reply, raw, err
}

func (c *client) recommend(ctx context.Context, summary string) (*recommendReply, []byte, error) {
	var reply recommendReply
	raw, err := c.post(ctx, "/chat/v1/recommend", map[string]any{"context": summary}, &reply)
	return &reply, raw, err
}

func (c *client) health(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var body struct {
		Status string `json:"status"`
	}
	raw, err := c.do(req, &body)
	if err != nil {
		return raw, err
	}
	if body.Status != "ok" {
		return raw, fmt.Errorf("unhealthy: status %q", body.Status)
	}
	return raw, nil
}

func (c *client) post(ctx context.Context, path string, payload, out any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *client) do(req *http.Request, out any) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return raw, fmt.Errorf("api error %d: %s", resp.StatusCode, apiErr.Error)
		}
		return raw, fmt.Errorf("api error %d: %s", resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return raw, fmt.Errorf("parse response: %w", err)
	}
	return raw, nil
}
