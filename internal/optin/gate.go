// Package optin decides whether the user agreed to answer Tina's questions.
package optin

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/MikeSquared-Agency/tina/internal/oracle"
)

var Schema = oracle.Schema{
	Name: "opt_in",
	Spec: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"opt_in": {
				Type:        genai.TypeBoolean,
				Description: "true only when the user clearly agreed to answer questions",
			},
		},
		Required: []string{"opt_in"},
	},
}

const prompt = `Tina, an insurance assistant, asked the user whether they are happy to answer a few personal questions so she can recommend an insurance policy.

The user replied:
---
%s
---

Set opt_in to true only if the reply clearly agrees (for example "yes", "sure", "go ahead", "ok, help me").
Set opt_in to false if the reply refuses, hesitates, changes the subject or is ambiguous.`

type answer struct {
	OptIn *bool `json:"opt_in"`
}

// Gate classifies an opt-in reply. It fails closed: any doubt, including an
// unreachable oracle, counts as a refusal.
type Gate struct {
	oracle oracle.Oracle
	logger *slog.Logger
}

func New(o oracle.Oracle, logger *slog.Logger) *Gate {
	return &Gate{oracle: o, logger: logger}
}

func (g *Gate) Decide(ctx context.Context, utterance string) bool {
	var a answer
	if err := g.oracle.Classify(ctx, fmt.Sprintf(prompt, utterance), Schema, &a); err != nil {
		g.logger.Warn("opt-in classification failed, treating as declined", "error", err)
		return false
	}
	if a.OptIn == nil {
		g.logger.Warn("opt-in classification missing opt_in field, treating as declined")
		return false
	}

	g.logger.Debug("opt-in classified", "opt_in", *a.OptIn)
	return *a.OptIn
}
