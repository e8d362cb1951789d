package intake

import (
	"fmt"
	"strings"
)

// Speaker identifies who produced a turn. The wire values follow the
// Gemini chat history convention the web client was built against.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "model"
)

// Turn is one utterance in a conversation.
type Turn struct {
	Role Speaker `json:"role" validate:"oneof=user model"`
	Text string  `json:"parts"`
}

// UserTurn and AssistantTurn build turns for the respective speakers.
func UserTurn(text string) Turn      { return Turn{Role: SpeakerUser, Text: text} }
func AssistantTurn(text string) Turn { return Turn{Role: SpeakerAssistant, Text: text} }

// Transcript is the caller-owned, append-only log of a conversation.
type Transcript []Turn

// Append returns a new transcript with the turns added. The receiver is
// never modified, so a caller's slice cannot be aliased by the result.
func (t Transcript) Append(turns ...Turn) Transcript {
	out := make(Transcript, 0, len(t)+len(turns))
	out = append(out, t...)
	return append(out, turns...)
}

// LastAssistant returns the most recent assistant turn, if any.
func (t Transcript) LastAssistant() (Turn, bool) {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Role == SpeakerAssistant {
			return t[i], true
		}
	}
	return Turn{}, false
}

// Format renders the transcript as User:/Assistant: lines for prompts.
func (t Transcript) Format() string {
	if len(t) == 0 {
		return "(no messages yet)"
	}

	var sb strings.Builder
	for _, turn := range t {
		switch turn.Role {
		case SpeakerUser:
			sb.WriteString("User: ")
		case SpeakerAssistant:
			sb.WriteString("Assistant: ")
		default:
			sb.WriteString(string(turn.Role) + ": ")
		}
		sb.WriteString(strings.TrimSpace(turn.Text))
		sb.WriteString("\n")
	}
	return sb.String()
}

// TriState is a confirmation status. The zero value is Unknown: a status is
// only ever set from an explicit confirmation or denial, never from silence.
type TriState int

const (
	Unknown TriState = iota
	ConfirmedYes
	ConfirmedNo
	ConfirmedOld
	ConfirmedNew
)

var triStateNames = map[TriState]string{
	Unknown:      "UNKNOWN",
	ConfirmedYes: "CONFIRMED_YES",
	ConfirmedNo:  "CONFIRMED_NO",
	ConfirmedOld: "CONFIRMED_OLD",
	ConfirmedNew: "CONFIRMED_NEW",
}

func (s TriState) String() string {
	if name, ok := triStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("TriState(%d)", int(s))
}

func (s TriState) Known() bool { return s != Unknown }

func (s TriState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseTruckStatus and ParseRacingStatus accept only the yes/no family.
// Anything else, including an age value in the wrong slot, is Unknown.
func ParseTruckStatus(v string) TriState  { return parseStatus(v, ConfirmedYes, ConfirmedNo) }
func ParseRacingStatus(v string) TriState { return parseStatus(v, ConfirmedYes, ConfirmedNo) }

// ParseAgeStatus accepts only the old/new family.
func ParseAgeStatus(v string) TriState { return parseStatus(v, ConfirmedOld, ConfirmedNew) }

func parseStatus(v string, allowed ...TriState) TriState {
	v = strings.ToUpper(strings.TrimSpace(v))
	for _, s := range allowed {
		if s.String() == v {
			return s
		}
	}
	return Unknown
}

// VehicleFacts is re-derived from the whole transcript on every turn.
type VehicleFacts struct {
	Truck  TriState `json:"truck"`
	Racing TriState `json:"racing"`
	Age    TriState `json:"age"`
}

// Missing lists the facts that still have to be asked about, in the order
// they should be asked. Age is only needed for an ordinary car.
func (f VehicleFacts) Missing() []string {
	var missing []string
	if !f.Truck.Known() {
		missing = append(missing, "whether the vehicle is a truck")
	}
	if !f.Racing.Known() {
		missing = append(missing, "whether the vehicle is a racing car")
	}
	if f.Truck != ConfirmedYes && f.Racing != ConfirmedYes && !f.Age.Known() {
		missing = append(missing, "whether the vehicle is more than 10 years old")
	}
	return missing
}

// Phase is the conversation state, derived from transcript shape each turn.
type Phase int

const (
	PhaseGreeting Phase = iota
	PhaseAwaitingOptIn
	PhaseGathering
	PhaseRecommended
	PhaseDeclined
)

func (p Phase) String() string {
	switch p {
	case PhaseGreeting:
		return "greeting"
	case PhaseAwaitingOptIn:
		return "awaiting_opt_in"
	case PhaseGathering:
		return "gathering"
	case PhaseRecommended:
		return "recommended"
	case PhaseDeclined:
		return "declined"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Terminal reports whether the phase ends the conversation.
func (p Phase) Terminal() bool {
	return p == PhaseRecommended || p == PhaseDeclined
}

// MessageType is the public name of a reply, used by clients to decide
// whether to keep collecting input.
type MessageType string

const (
	MessageGreeting       MessageType = "greeting"
	MessageQuestion       MessageType = "question"
	MessageRecommendation MessageType = "recommendation"
	MessageFarewell       MessageType = "farewell"
)
