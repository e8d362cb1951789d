// Package extractor derives vehicle facts from a conversation transcript.
package extractor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MikeSquared-Agency/tina/internal/intake"
	"github.com/MikeSquared-Agency/tina/internal/oracle"
)

type Extractor struct {
	oracle oracle.Oracle
	logger *slog.Logger
}

func New(o oracle.Oracle, logger *slog.Logger) *Extractor {
	return &Extractor{oracle: o, logger: logger}
}

// Analyze re-derives the facts from the whole transcript. When the oracle
// cannot answer, every fact is Unknown and the conversation keeps gathering.
func (e *Extractor) Analyze(ctx context.Context, transcript intake.Transcript) Analysis {
	prompt := fmt.Sprintf(extractionPrompt, transcript.Format())

	e.logger.Debug("extracting vehicle facts", "turns", len(transcript))

	var resp llmResponse
	if err := e.oracle.Classify(ctx, prompt, Schema, &resp); err != nil {
		e.logger.Warn("fact extraction failed, continuing to gather", "error", err, "turns", len(transcript))
		return Analysis{Policies: intake.PolicySet{}, Hint: intake.PolicySet{}}
	}

	facts := resp.facts()
	analysis := Analysis{
		Facts:      facts,
		Sufficient: intake.Sufficient(facts),
		Policies:   intake.Decide(facts),
		Hint:       resp.hint(),
	}

	if !analysis.Policies.Equal(analysis.Hint) {
		e.logger.Warn("oracle policy suggestion disagrees with rule table",
			"oracle", analysis.Hint.Codes(),
			"rules", analysis.Policies.Codes(),
			"truck", facts.Truck,
			"racing", facts.Racing,
			"age", facts.Age,
		)
	}

	e.logger.Info("extraction complete",
		"truck", facts.Truck,
		"racing", facts.Racing,
		"age", facts.Age,
		"sufficient", analysis.Sufficient,
		"policies", analysis.Policies.Codes(),
	)

	return analysis
}
