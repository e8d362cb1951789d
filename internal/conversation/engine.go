// Package conversation runs Tina's intake flow. The engine keeps no state
// between calls: the phase is re-derived from the transcript every turn.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MikeSquared-Agency/tina/internal/extractor"
	"github.com/MikeSquared-Agency/tina/internal/intake"
	"github.com/MikeSquared-Agency/tina/internal/oracle"
	"github.com/MikeSquared-Agency/tina/internal/render"
)

type OptInGate interface {
	Decide(ctx context.Context, utterance string) bool
}

type FactExtractor interface {
	Analyze(ctx context.Context, transcript intake.Transcript) extractor.Analysis
}

type Renderer interface {
	Render(ctx context.Context, facts intake.VehicleFacts, policies intake.PolicySet) (string, error)
}

// Reply is the outcome of one turn. History is authoritative: clients send
// it back verbatim on the next turn.
type Reply struct {
	Response string
	Type     intake.MessageType
	History  intake.Transcript
	Phase    intake.Phase
	Facts    intake.VehicleFacts
	Policies intake.PolicySet
	// Concluded is set on the turn that first reaches a terminal phase.
	Concluded bool
}

type Engine struct {
	gate      OptInGate
	extractor FactExtractor
	renderer  Renderer
	oracle    oracle.Oracle
	logger    *slog.Logger
}

func New(gate OptInGate, ext FactExtractor, renderer Renderer, o oracle.Oracle, logger *slog.Logger) *Engine {
	return &Engine{
		gate:      gate,
		extractor: ext,
		renderer:  renderer,
		oracle:    o,
		logger:    logger,
	}
}

// Start opens a conversation. A blank message always starts over with the
// greeting, discarding any history that was sent.
func (e *Engine) Start(ctx context.Context, message string, history intake.Transcript) (Reply, error) {
	if strings.TrimSpace(message) == "" {
		return Reply{
			Response: Greeting,
			Type:     intake.MessageGreeting,
			History:  intake.Transcript{intake.AssistantTurn(Greeting)},
			Phase:    intake.PhaseAwaitingOptIn,
			Policies: intake.PolicySet{},
		}, nil
	}

	if len(history) == 0 {
		history = intake.Transcript{intake.AssistantTurn(Greeting)}
	}
	return e.Continue(ctx, message, history)
}

// Continue advances the conversation by one user turn.
func (e *Engine) Continue(ctx context.Context, message string, history intake.Transcript) (Reply, error) {
	if strings.TrimSpace(message) == "" {
		return Reply{}, required("message")
	}
	if history == nil {
		return Reply{}, required("history")
	}

	transcript := history.Append(intake.UserTurn(message))

	phase := Phase(history)
	e.logger.Debug("continuing conversation", "phase", phase, "turns", len(history))

	switch phase {
	case intake.PhaseAwaitingOptIn:
		return e.optIn(ctx, message, transcript), nil
	case intake.PhaseDeclined:
		return e.reply(transcript, ClosedFarewell, intake.MessageFarewell, intake.PhaseDeclined), nil
	case intake.PhaseRecommended:
		return e.reply(transcript, ClosedRecommendation, intake.MessageFarewell, intake.PhaseRecommended), nil
	default:
		return e.gather(ctx, transcript)
	}
}

// Phase infers where a conversation stands from its last assistant turn. A
// turn that faithfully names a policy set the rule table can produce is a
// recommendation; questions never name policy codes.
func Phase(history intake.Transcript) intake.Phase {
	last, ok := history.LastAssistant()
	switch {
	case len(history) <= 1, !ok, last.Text == Greeting:
		return intake.PhaseAwaitingOptIn
	case last.Text == Farewell, last.Text == ClosedFarewell:
		return intake.PhaseDeclined
	case last.Text == ClosedRecommendation:
		return intake.PhaseRecommended
	}

	if _, recommended := render.Recommended(last.Text); recommended {
		return intake.PhaseRecommended
	}
	return intake.PhaseGathering
}

func (e *Engine) optIn(ctx context.Context, message string, transcript intake.Transcript) Reply {
	if !e.gate.Decide(ctx, message) {
		e.logger.Info("user declined to continue")
		r := e.reply(transcript, Farewell, intake.MessageFarewell, intake.PhaseDeclined)
		r.Concluded = true
		return r
	}

	e.logger.Info("user opted in")
	return e.reply(transcript, FirstQuestion, intake.MessageQuestion, intake.PhaseGathering)
}

func (e *Engine) gather(ctx context.Context, transcript intake.Transcript) (Reply, error) {
	analysis := e.extractor.Analyze(ctx, transcript)

	if analysis.Sufficient {
		text, err := e.renderer.Render(ctx, analysis.Facts, analysis.Policies)
		if err != nil {
			return Reply{}, fmt.Errorf("%w: render recommendation: %w", ErrInternal, err)
		}

		r := e.reply(transcript, text, intake.MessageRecommendation, intake.PhaseRecommended)
		r.Facts = analysis.Facts
		r.Policies = analysis.Policies
		r.Concluded = true
		e.logger.Info("recommendation made", "policies", analysis.Policies.Codes())
		return r, nil
	}

	question, err := e.nextQuestion(ctx, transcript, analysis.Facts)
	if err != nil {
		return Reply{}, err
	}

	r := e.reply(transcript, question, intake.MessageQuestion, intake.PhaseGathering)
	r.Facts = analysis.Facts
	return r, nil
}

func (e *Engine) nextQuestion(ctx context.Context, transcript intake.Transcript, facts intake.VehicleFacts) (string, error) {
	var missing strings.Builder
	for _, m := range facts.Missing() {
		missing.WriteString("- " + m + "\n")
	}

	text, err := e.oracle.Generate(ctx, fmt.Sprintf(questionPrompt, transcript.Format(), missing.String()))
	if err != nil {
		return "", fmt.Errorf("%w: generate question: %w", ErrInternal, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: generate question: empty response", ErrInternal)
	}
	return text, nil
}

// Recommend produces free-form follow-up suggestions for a conversation. It
// does not touch the intake flow and returns history unchanged.
func (e *Engine) Recommend(ctx context.Context, summary string, history intake.Transcript) (string, intake.Transcript, error) {
	if strings.TrimSpace(summary) == "" {
		return "", nil, required("context")
	}

	text, err := e.oracle.Generate(ctx, fmt.Sprintf(recommendPrompt, summary))
	if err != nil {
		return "", nil, fmt.Errorf("%w: generate recommendations: %w", ErrInternal, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil, fmt.Errorf("%w: generate recommendations: empty response", ErrInternal)
	}
	return text, history, nil
}

func (e *Engine) reply(transcript intake.Transcript, text string, typ intake.MessageType, phase intake.Phase) Reply {
	return Reply{
		Response: text,
		Type:     typ,
		History:  transcript.Append(intake.AssistantTurn(text)),
		Phase:    phase,
		Policies: intake.PolicySet{},
	}
}
