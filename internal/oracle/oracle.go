// Package oracle defines the narrow contract Tina uses to talk to an
// external language model, and the retry discipline wrapped around it.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

var (
	// ErrUnavailable covers transport failures, non-2xx responses and empty answers.
	ErrUnavailable = errors.New("oracle unavailable")
	// ErrMalformedResponse means the answer did not decode into the requested schema.
	ErrMalformedResponse = errors.New("oracle returned a malformed response")
)

// Schema is a named structured-output schema. Providers with native schema
// support enforce Spec directly; the rest embed its JSON in the prompt.
type Schema struct {
	Name string
	Spec *genai.Schema
}

// JSON renders the schema for prompt embedding.
func (s Schema) JSON() string {
	raw, err := json.MarshalIndent(s.Spec, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// Oracle is the only way the conversation core reaches a language model.
type Oracle interface {
	// Classify asks for a value conforming to schema and decodes it into out.
	Classify(ctx context.Context, prompt string, schema Schema, out any) error
	// Generate asks for free-form text.
	Generate(ctx context.Context, prompt string) (string, error)
}

// DecodeJSON decodes a model answer into out, tolerating markdown fences
// around the JSON body.
func DecodeJSON(raw string, out any) error {
	body := strings.TrimSpace(raw)
	body = strings.Trim(body, "`")
	body = strings.TrimSpace(body)
	body = strings.TrimPrefix(body, "json")
	body = strings.TrimSpace(body)

	if body == "" {
		return fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

// StructuredPrompt appends schema instructions for providers that only
// offer a plain JSON mode.
func StructuredPrompt(prompt string, schema Schema) string {
	return fmt.Sprintf(`%s

Respond with valid JSON matching this schema (%s):
%s

Return ONLY the JSON object, no markdown fences or other text.`, prompt, schema.Name, schema.JSON())
}
