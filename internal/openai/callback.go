package openai

import (
	"context"
	"log/slog"

	"github.com/tmc/langchaingo/callbacks"
	"github.com/tmc/langchaingo/llms"
)

var _ callbacks.Handler = (*LogCallbackHandler)(nil)

// LogCallbackHandler forwards langchaingo LLM events to slog. Events it
// does not override are dropped by the embedded SimpleHandler.
type LogCallbackHandler struct {
	callbacks.SimpleHandler
	logger *slog.Logger
}

func NewLogCallbackHandler(logger *slog.Logger) *LogCallbackHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogCallbackHandler{logger: logger}
}

func (l *LogCallbackHandler) HandleLLMGenerateContentEnd(ctx context.Context, res *llms.ContentResponse) {
	if res == nil || len(res.Choices) == 0 {
		return
	}
	l.logger.DebugContext(ctx, "LLM generate content end",
		"stop_reason", res.Choices[0].StopReason,
		"chars", len(res.Choices[0].Content),
	)
}

func (l *LogCallbackHandler) HandleLLMError(ctx context.Context, err error) {
	l.logger.ErrorContext(ctx, "LLM error", "error", err)
}
