// Package outcome records how conversations end. Recording happens off the
// request path and never affects what the user sees.
package outcome

import (
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/tina/internal/conversation"
	"github.com/MikeSquared-Agency/tina/internal/intake"
)

type Kind string

const (
	KindRecommended Kind = "recommended"
	KindDeclined    Kind = "declined"
)

// Outcome is a terminal conversation result. The transcript text is never
// part of it.
type Outcome struct {
	ID       uuid.UUID           `json:"id"`
	Kind     Kind                `json:"kind"`
	Facts    intake.VehicleFacts `json:"facts"`
	Policies intake.PolicySet    `json:"policies"`
	Turns    int                 `json:"turns"`
	At       time.Time           `json:"at"`
}

// FromReply builds the outcome for a concluded reply. It reports false for
// replies that did not end the conversation.
func FromReply(reply conversation.Reply) (Outcome, bool) {
	if !reply.Concluded {
		return Outcome{}, false
	}

	var kind Kind
	switch reply.Type {
	case intake.MessageRecommendation:
		kind = KindRecommended
	case intake.MessageFarewell:
		kind = KindDeclined
	default:
		return Outcome{}, false
	}

	policies := reply.Policies
	if policies == nil {
		policies = intake.PolicySet{}
	}

	return Outcome{
		ID:       uuid.New(),
		Kind:     kind,
		Facts:    reply.Facts,
		Policies: policies,
		Turns:    len(reply.History),
		At:       time.Now().UTC(),
	}, true
}
