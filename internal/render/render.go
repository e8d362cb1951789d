// Package render turns a policy decision into the message shown to the user.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/elliotchance/pie/v2"

	"github.com/MikeSquared-Agency/tina/internal/intake"
	"github.com/MikeSquared-Agency/tina/internal/oracle"
)

// NeedMoreInformation is returned for an empty policy set.
const NeedMoreInformation = "I need a little more information about your vehicle before I can recommend a policy."

const stylePrompt = `Rewrite the insurance recommendation below in a warm, professional tone for the customer. Keep it short and in plain text without markdown.

You must mention exactly these policies, each with its full name and code in brackets: %s.
Do not mention any other insurance policy.

Vehicle facts: truck=%s, racing=%s, age=%s

Recommendation:
%s`

type Renderer struct {
	oracle oracle.Oracle
	logger *slog.Logger
	style  bool
}

type Option func(*Renderer)

// WithStyling lets the oracle rephrase the template. A rephrasing that adds
// or drops a policy is discarded in favour of the template.
func WithStyling(enabled bool) Option {
	return func(r *Renderer) { r.style = enabled }
}

func New(o oracle.Oracle, logger *slog.Logger, opts ...Option) *Renderer {
	r := &Renderer{oracle: o, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) Render(ctx context.Context, facts intake.VehicleFacts, policies intake.PolicySet) (string, error) {
	if policies.Empty() {
		return NeedMoreInformation, nil
	}

	text := Template(facts, policies)
	if !r.style || r.oracle == nil {
		return text, nil
	}

	prompt := fmt.Sprintf(stylePrompt,
		strings.Join(pie.Map(policies, label), ", "),
		facts.Truck, facts.Racing, facts.Age,
		text,
	)
	styled, err := r.oracle.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("style recommendation: %w", err)
	}

	if !Faithful(styled, policies) {
		r.logger.Warn("styled recommendation changed the policy set, using template",
			"policies", policies.Codes(),
		)
		return text, nil
	}
	return strings.TrimSpace(styled), nil
}

// Template is the deterministic recommendation text.
func Template(facts intake.VehicleFacts, policies intake.PolicySet) string {
	names := pie.Map(policies, label)

	var sb strings.Builder
	sb.WriteString("Thanks for answering my questions. ")
	if reason := qualifier(facts); reason != "" {
		sb.WriteString("Since " + reason + ", ")
	} else {
		sb.WriteString("Based on what you've told me, ")
	}

	if len(names) == 1 {
		sb.WriteString("I recommend " + names[0] + ".")
	} else {
		sb.WriteString("I recommend the following policies: ")
		sb.WriteString(strings.Join(names[:len(names)-1], ", "))
		sb.WriteString(" and " + names[len(names)-1] + ".")
	}
	return sb.String()
}

// Faithful reports whether text names every selected policy code and no
// policy outside the selection.
func Faithful(text string, policies intake.PolicySet) bool {
	for _, p := range policies {
		if !strings.Contains(text, string(p)) {
			return false
		}
	}

	lower := strings.ToLower(text)
	excluded := pie.Filter(intake.AllPolicies, func(p intake.PolicyID) bool { return !policies.Contains(p) })
	for _, p := range excluded {
		if strings.Contains(text, string(p)) || strings.Contains(lower, strings.ToLower(p.Name())) {
			return false
		}
	}
	return true
}

// Recommended reports which policy set text recommends, if it faithfully
// names one that the rule table can produce.
func Recommended(text string) (intake.PolicySet, bool) {
	for _, set := range intake.Outcomes() {
		if Faithful(text, set) {
			return set, true
		}
	}
	return nil, false
}

func label(p intake.PolicyID) string {
	return fmt.Sprintf("%s (%s)", p.Name(), p)
}

func qualifier(f intake.VehicleFacts) string {
	switch {
	case f.Truck == intake.ConfirmedYes && f.Racing == intake.ConfirmedYes:
		return "your vehicle is a truck used for racing"
	case f.Truck == intake.ConfirmedYes:
		return "your vehicle is a truck"
	case f.Racing == intake.ConfirmedYes:
		return "your vehicle is a racing car"
	}

	var parts []string
	if f.Truck == intake.ConfirmedNo && f.Racing == intake.ConfirmedNo {
		parts = append(parts, "your vehicle is neither a truck nor a racing car")
	}
	switch f.Age {
	case intake.ConfirmedOld:
		parts = append(parts, "it is more than 10 years old")
	case intake.ConfirmedNew:
		parts = append(parts, "it is 10 years old or less")
	}
	return strings.Join(parts, " and ")
}
