// Package oracletest provides a scripted Oracle for deterministic tests.
package oracletest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/tina/internal/oracle"
)

// Call records one request made to the stub.
type Call struct {
	Method string // "classify" or "generate"
	Schema string
	Prompt string
}

// Stub answers Classify with raw JSON keyed by schema name and Generate
// with a fixed text, unless the Func hooks are set.
type Stub struct {
	// Answers maps schema name to the raw JSON returned for it.
	Answers map[string]string
	// Text is returned by Generate.
	Text string

	ClassifyFunc func(ctx context.Context, prompt string, schema oracle.Schema) (string, error)
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	mu    sync.Mutex
	calls []Call
}

var _ oracle.Oracle = (*Stub)(nil)

func (s *Stub) Classify(ctx context.Context, prompt string, schema oracle.Schema, out any) error {
	s.record(Call{Method: "classify", Schema: schema.Name, Prompt: prompt})

	var raw string
	if s.ClassifyFunc != nil {
		var err error
		raw, err = s.ClassifyFunc(ctx, prompt, schema)
		if err != nil {
			return err
		}
	} else {
		answer, ok := s.Answers[schema.Name]
		if !ok {
			return fmt.Errorf("%w: no scripted answer for %s", oracle.ErrUnavailable, schema.Name)
		}
		raw = answer
	}
	return oracle.DecodeJSON(raw, out)
}

func (s *Stub) Generate(ctx context.Context, prompt string) (string, error) {
	s.record(Call{Method: "generate", Prompt: prompt})
	if s.GenerateFunc != nil {
		return s.GenerateFunc(ctx, prompt)
	}
	return s.Text, nil
}

func (s *Stub) record(c Call) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
}

// Calls returns a copy of the recorded calls.
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Count returns how many calls of the given method were made.
func (s *Stub) Count(method string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Failing returns an error for every call.
func Failing(err error) *Stub {
	return &Stub{
		ClassifyFunc: func(context.Context, string, oracle.Schema) (string, error) { return "", err },
		GenerateFunc: func(context.Context, string) (string, error) { return "", err },
	}
}

// NoWait is a Backoff that retries without sleeping.
func NoWait(maxRetries int) oracle.Backoff {
	return oracle.Backoff{
		MaxRetries: maxRetries,
		Sleep:      func(ctx context.Context, _ time.Duration) error { return ctx.Err() },
	}
}
