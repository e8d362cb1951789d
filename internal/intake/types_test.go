package intake

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscript_AppendDoesNotAlias(t *testing.T) {
	base := make(Transcript, 1, 8)
	base[0] = AssistantTurn("hello")

	a := base.Append(UserTurn("yes"))
	b := base.Append(UserTurn("no"))

	assert.Len(t, base, 1)
	assert.Equal(t, "yes", a[1].Text)
	assert.Equal(t, "no", b[1].Text)
}

func TestTranscript_LastAssistant(t *testing.T) {
	tr := Transcript{AssistantTurn("q1"), UserTurn("a1"), AssistantTurn("q2"), UserTurn("a2")}
	turn, ok := tr.LastAssistant()
	require.True(t, ok)
	assert.Equal(t, "q2", turn.Text)

	_, ok = Transcript{UserTurn("hi")}.LastAssistant()
	assert.False(t, ok)
}

func TestTranscript_Format(t *testing.T) {
	tr := Transcript{AssistantTurn("Is it a truck?"), UserTurn("  Yes, a Ford F-150 ")}
	assert.Equal(t, "Assistant: Is it a truck?\nUser: Yes, a Ford F-150\n", tr.Format())
	assert.Equal(t, "(no messages yet)", Transcript{}.Format())
}

func TestTurn_WireFormat(t *testing.T) {
	raw := `[{"role":"model","parts":"Hi"},{"role":"user","parts":"Yes"}]`

	var tr Transcript
	require.NoError(t, json.Unmarshal([]byte(raw), &tr))
	assert.Equal(t, Transcript{AssistantTurn("Hi"), UserTurn("Yes")}, tr)

	out, err := json.Marshal(tr)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestVehicleFacts_Missing(t *testing.T) {
	assert.Len(t, VehicleFacts{}.Missing(), 3)
	assert.Empty(t, VehicleFacts{Truck: ConfirmedYes, Racing: ConfirmedNo}.Missing())
	assert.Equal(t,
		[]string{"whether the vehicle is more than 10 years old"},
		VehicleFacts{Truck: ConfirmedNo, Racing: ConfirmedNo}.Missing())
}

func TestPhase_Terminal(t *testing.T) {
	assert.True(t, PhaseRecommended.Terminal())
	assert.True(t, PhaseDeclined.Terminal())
	assert.False(t, PhaseGathering.Terminal())
	assert.False(t, PhaseAwaitingOptIn.Terminal())
}
