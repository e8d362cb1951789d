package outcome

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/tina/internal/hermes"
)

const defaultTimeout = 10 * time.Second

type Store interface {
	WriteOutcome(ctx context.Context, o Outcome) error
}

type Publisher interface {
	Publish(subject string, data any) error
}

type LeadPoster interface {
	PostLead(ctx context.Context, o Outcome) error
}

// Sinks are the optional destinations. Leave a field nil to skip it.
type Sinks struct {
	Store     Store
	Publisher Publisher
	Leads     LeadPoster
}

type Recorder struct {
	sinks   Sinks
	logger  *slog.Logger
	timeout time.Duration

	wg sync.WaitGroup
}

func NewRecorder(sinks Sinks, logger *slog.Logger) *Recorder {
	return &Recorder{sinks: sinks, logger: logger, timeout: defaultTimeout}
}

// Enabled reports whether any sink is configured.
func (r *Recorder) Enabled() bool {
	return r.sinks.Store != nil || r.sinks.Publisher != nil || r.sinks.Leads != nil
}

// Record writes o in the background on a context detached from the request.
func (r *Recorder) Record(o Outcome) {
	if !r.Enabled() {
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.Write(ctx, o); err != nil {
			r.logger.Error("outcome recording incomplete", "outcome_id", o.ID, "kind", o.Kind, "error", err)
		}
	}()
}

// Write fans o out to every sink and waits. Each sink failure is logged;
// the first one is returned.
func (r *Recorder) Write(ctx context.Context, o Outcome) error {
	var g errgroup.Group

	if r.sinks.Store != nil {
		g.Go(func() error {
			return r.logged("postgres", o, r.sinks.Store.WriteOutcome(ctx, o))
		})
	}

	if r.sinks.Publisher != nil {
		g.Go(func() error {
			return r.logged("nats", o, r.sinks.Publisher.Publish(Subject(o.Kind), o))
		})
	}

	if r.sinks.Leads != nil && o.Kind == KindRecommended {
		g.Go(func() error {
			return r.logged("slack", o, r.sinks.Leads.PostLead(ctx, o))
		})
	}

	return g.Wait()
}

func (r *Recorder) logged(sink string, o Outcome, err error) error {
	if err != nil {
		r.logger.Warn("outcome sink failed", "sink", sink, "outcome_id", o.ID, "error", err)
		return fmt.Errorf("%s: %w", sink, err)
	}
	r.logger.Debug("outcome recorded", "sink", sink, "outcome_id", o.ID)
	return nil
}

// Close waits for in-flight recordings.
func (r *Recorder) Close() {
	r.wg.Wait()
}

// Subject is the NATS subject an outcome kind is published on.
func Subject(kind Kind) string {
	if kind == KindDeclined {
		return hermes.SubjectDeclined
	}
	return hermes.SubjectRecommended
}
