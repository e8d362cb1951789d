package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/MikeSquared-Agency/tina/internal/extractor"
	"github.com/MikeSquared-Agency/tina/internal/intake"
	"github.com/MikeSquared-Agency/tina/internal/optin"
	"github.com/MikeSquared-Agency/tina/internal/oracle"
	"github.com/MikeSquared-Agency/tina/internal/oracle/oracletest"
	"github.com/MikeSquared-Agency/tina/internal/render"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const (
	truckFacts  = `{"truck_status":"CONFIRMED_YES","racing_status":"CONFIRMED_NO","age_status":"UNKNOWN","policy_recommendations":["3RDP"]}`
	oldCarFacts = `{"truck_status":"CONFIRMED_NO","racing_status":"CONFIRMED_NO","age_status":"CONFIRMED_OLD","policy_recommendations":["MBI","3RDP"]}`
	noFacts     = `{"truck_status":"UNKNOWN","racing_status":"UNKNOWN","age_status":"UNKNOWN","policy_recommendations":[]}`
)

func newEngine(o oracle.Oracle) *Engine {
	logger := discardLogger()
	return New(
		optin.New(o, logger),
		extractor.New(o, logger),
		render.New(o, logger),
		o,
		logger,
	)
}

func gathering() intake.Transcript {
	return intake.Transcript{
		intake.AssistantTurn(Greeting),
		intake.UserTurn("Yes, please help"),
		intake.AssistantTurn(FirstQuestion),
	}
}

func TestStart_BlankMessageGreets(t *testing.T) {
	stub := &oracletest.Stub{}
	reply, err := newEngine(stub).Start(context.Background(), "  ", nil)
	require.NoError(t, err)

	assert.Equal(t, Greeting, reply.Response)
	assert.Equal(t, intake.MessageGreeting, reply.Type)
	assert.Equal(t, intake.PhaseAwaitingOptIn, reply.Phase)
	assert.Len(t, reply.History, 1)
	assert.Empty(t, stub.Calls())
}

func TestStart_BlankMessageDiscardsHistory(t *testing.T) {
	reply, err := newEngine(&oracletest.Stub{}).Start(context.Background(), "", gathering())
	require.NoError(t, err)

	assert.Equal(t, intake.Transcript{intake.AssistantTurn(Greeting)}, reply.History)
}

func TestStart_OptIn(t *testing.T) {
	stub := &oracletest.Stub{Answers: map[string]string{optin.Schema.Name: `{"opt_in": true}`}}

	reply, err := newEngine(stub).Start(context.Background(), "Yes, please help", nil)
	require.NoError(t, err)

	assert.Equal(t, intake.MessageQuestion, reply.Type)
	assert.Equal(t, intake.PhaseGathering, reply.Phase)
	assert.False(t, reply.Concluded)
	if assert.Len(t, reply.History, 3) {
		assert.Equal(t, intake.AssistantTurn(Greeting), reply.History[0])
		assert.Equal(t, intake.UserTurn("Yes, please help"), reply.History[1])
		assert.Equal(t, intake.AssistantTurn(FirstQuestion), reply.History[2])
	}
}

func TestStart_Declined(t *testing.T) {
	stub := &oracletest.Stub{Answers: map[string]string{optin.Schema.Name: `{"opt_in": false}`}}

	reply, err := newEngine(stub).Start(context.Background(), "No thanks", nil)
	require.NoError(t, err)

	assert.Equal(t, Farewell, reply.Response)
	assert.Equal(t, intake.MessageFarewell, reply.Type)
	assert.Equal(t, intake.PhaseDeclined, reply.Phase)
	assert.True(t, reply.Concluded)
	assert.Len(t, reply.History, 3)
}

func TestStart_WithHistoryContinues(t *testing.T) {
	stub := &oracletest.Stub{Answers: map[string]string{extractor.Schema.Name: truckFacts}}

	reply, err := newEngine(stub).Start(context.Background(), "It's a truck, not a race car", gathering())
	require.NoError(t, err)
	assert.Equal(t, intake.MessageRecommendation, reply.Type)
	assert.Zero(t, stub.Count("generate"))
}

func TestContinue_GateFailsClosed(t *testing.T) {
	stub := oracletest.Failing(fmt.Errorf("%w: 503", oracle.ErrUnavailable))
	o := oracle.WithRetry(stub, oracletest.NoWait(oracle.DefaultMaxRetries), discardLogger())

	reply, err := newEngine(o).Continue(context.Background(), "Yes", intake.Transcript{intake.AssistantTurn(Greeting)})
	require.NoError(t, err)
	assert.Equal(t, intake.MessageFarewell, reply.Type)
	assert.Equal(t, oracle.DefaultMaxRetries+1, stub.Count("classify"))
}

func TestContinue_AfterFarewellIsTerminal(t *testing.T) {
	stub := &oracletest.Stub{}
	history := intake.Transcript{
		intake.AssistantTurn(Greeting),
		intake.UserTurn("No thanks"),
		intake.AssistantTurn(Farewell),
	}

	reply, err := newEngine(stub).Continue(context.Background(), "Actually, wait", history)
	require.NoError(t, err)

	assert.Equal(t, ClosedFarewell, reply.Response)
	assert.Equal(t, intake.MessageFarewell, reply.Type)
	assert.Equal(t, intake.PhaseDeclined, reply.Phase)
	assert.False(t, reply.Concluded)
	assert.Len(t, reply.History, 5)
	assert.Empty(t, stub.Calls())

	again, err := newEngine(stub).Continue(context.Background(), "Hello?", reply.History)
	require.NoError(t, err)
	assert.Equal(t, ClosedFarewell, again.Response)
	assert.Empty(t, stub.Calls())
}

func TestContinue_TruckRecommendsThirdPartyOnly(t *testing.T) {
	stub := &oracletest.Stub{Answers: map[string]string{extractor.Schema.Name: truckFacts}}

	reply, err := newEngine(stub).Continue(context.Background(), "It's a truck. Not a racing car.", gathering())
	require.NoError(t, err)

	assert.Equal(t, intake.MessageRecommendation, reply.Type)
	assert.Equal(t, intake.PhaseRecommended, reply.Phase)
	assert.True(t, reply.Concluded)
	assert.Contains(t, reply.Response, "3RDP")
	assert.NotContains(t, reply.Response, "MBI")
	assert.NotContains(t, reply.Response, "CCI")
	if diff := cmp.Diff(intake.NewPolicySet(intake.PolicyThirdParty), reply.Policies); diff != "" {
		t.Errorf("policies mismatch (-want +got):\n%s", diff)
	}
}

func TestContinue_OldCar(t *testing.T) {
	stub := &oracletest.Stub{Answers: map[string]string{extractor.Schema.Name: oldCarFacts}}
	history := gathering().Append(
		intake.UserTurn("It's a car, not a truck, and I don't race it"),
		intake.AssistantTurn("How old is your car?"),
	)

	reply, err := newEngine(stub).Continue(context.Background(), "14 years old", history)
	require.NoError(t, err)

	assert.Equal(t, intake.MessageRecommendation, reply.Type)
	assert.Contains(t, reply.Response, "MBI")
	assert.Contains(t, reply.Response, "3RDP")
	assert.NotContains(t, reply.Response, "CCI")
}

func TestContinue_AsksNextQuestion(t *testing.T) {
	stub := &oracletest.Stub{
		Answers: map[string]string{extractor.Schema.Name: noFacts},
		Text:    "  Is your vehicle a truck?  ",
	}

	reply, err := newEngine(stub).Continue(context.Background(), "I drive a Toyota", gathering())
	require.NoError(t, err)

	assert.Equal(t, "Is your vehicle a truck?", reply.Response)
	assert.Equal(t, intake.MessageQuestion, reply.Type)
	assert.Equal(t, intake.PhaseGathering, reply.Phase)
	assert.Len(t, reply.History, 5)

	calls := stub.Calls()
	if assert.Len(t, calls, 2) {
		assert.Equal(t, "generate", calls[1].Method)
		assert.Contains(t, calls[1].Prompt, "whether the vehicle is a truck")
		assert.Contains(t, calls[1].Prompt, "User: I drive a Toyota")
	}
}

func TestContinue_ExtractorFailureKeepsGathering(t *testing.T) {
	stub := &oracletest.Stub{Text: "Is it a truck?"}

	reply, err := newEngine(stub).Continue(context.Background(), "It's a truck", gathering())
	require.NoError(t, err)
	assert.Equal(t, intake.MessageQuestion, reply.Type)
}

func TestContinue_QuestionFailureIsInternal(t *testing.T) {
	cause := fmt.Errorf("%w: timeout", oracle.ErrUnavailable)
	stub := &oracletest.Stub{
		Answers:      map[string]string{extractor.Schema.Name: noFacts},
		GenerateFunc: func(context.Context, string) (string, error) { return "", cause },
	}

	_, err := newEngine(stub).Continue(context.Background(), "hmm", gathering())
	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, oracle.ErrUnavailable)
}

func recommended(t *testing.T) intake.Transcript {
	t.Helper()
	stub := &oracletest.Stub{Answers: map[string]string{extractor.Schema.Name: truckFacts}}

	first, err := newEngine(stub).Continue(context.Background(), "A truck, no racing", gathering())
	require.NoError(t, err)
	require.Equal(t, intake.MessageRecommendation, first.Type)
	require.True(t, first.Concluded)
	return first.History
}

func TestContinue_AfterRecommendationIsTerminal(t *testing.T) {
	tests := []struct {
		name string
		stub *oracletest.Stub
		msg  string
	}{
		{"extractor failing", oracletest.Failing(fmt.Errorf("%w: 503", oracle.ErrUnavailable)), "Thanks!"},
		{"facts changed", &oracletest.Stub{Answers: map[string]string{extractor.Schema.Name: oldCarFacts}}, "Actually it's a 14 year old sedan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := recommended(t)

			reply, err := newEngine(tt.stub).Continue(context.Background(), tt.msg, history)
			require.NoError(t, err)

			assert.Equal(t, ClosedRecommendation, reply.Response)
			assert.Equal(t, intake.MessageFarewell, reply.Type)
			assert.Equal(t, intake.PhaseRecommended, reply.Phase)
			assert.False(t, reply.Concluded)
			assert.True(t, reply.Policies.Empty())
			assert.Len(t, reply.History, len(history)+2)
			assert.Empty(t, tt.stub.Calls())

			again, err := newEngine(tt.stub).Continue(context.Background(), "Hello?", reply.History)
			require.NoError(t, err)
			assert.Equal(t, ClosedRecommendation, again.Response)
			assert.False(t, again.Concluded)
			assert.Empty(t, tt.stub.Calls())
		})
	}
}

func TestContinue_AfterStyledRecommendationIsTerminal(t *testing.T) {
	history := gathering().Append(
		intake.UserTurn("It's a 3 year old hatchback, no racing, not a truck"),
		intake.AssistantTurn("Great news! Mechanical Breakdown Insurance (MBI) and Comprehensive Car Insurance (CCI) suit your car."),
	)
	stub := &oracletest.Stub{Answers: map[string]string{extractor.Schema.Name: truckFacts}}

	reply, err := newEngine(stub).Continue(context.Background(), "What about a truck?", history)
	require.NoError(t, err)

	assert.Equal(t, ClosedRecommendation, reply.Response)
	assert.Empty(t, stub.Calls())
}

func TestContinue_Validation(t *testing.T) {
	engine := newEngine(&oracletest.Stub{})

	_, err := engine.Continue(context.Background(), "", gathering())
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "message", verr.Field)
	assert.Equal(t, "message is required", verr.Error())

	_, err = engine.Continue(context.Background(), "hello", nil)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "history", verr.Field)
}

func TestContinue_DoesNotMutateInput(t *testing.T) {
	stub := &oracletest.Stub{Answers: map[string]string{extractor.Schema.Name: noFacts}, Text: "Is it a truck?"}

	history := make(intake.Transcript, 3, 10)
	copy(history, gathering())
	before := append(intake.Transcript(nil), history...)

	reply, err := newEngine(stub).Continue(context.Background(), "hi", history)
	require.NoError(t, err)

	assert.Equal(t, before, history)
	assert.Equal(t, intake.Turn{}, history[:cap(history)][3])
	reply.History[0] = intake.UserTurn("tampered")
	assert.Equal(t, before[0], history[0])
}

func TestPhase(t *testing.T) {
	tests := []struct {
		name    string
		history intake.Transcript
		want    intake.Phase
	}{
		{"empty", intake.Transcript{}, intake.PhaseAwaitingOptIn},
		{"greeting only", intake.Transcript{intake.AssistantTurn(Greeting)}, intake.PhaseAwaitingOptIn},
		{"gathering", gathering(), intake.PhaseGathering},
		{"declined", intake.Transcript{intake.AssistantTurn(Greeting), intake.UserTurn("no"), intake.AssistantTurn(Farewell)}, intake.PhaseDeclined},
		{"recommended", gathering().Append(intake.UserTurn("a truck"), intake.AssistantTurn(render.Template(intake.VehicleFacts{Truck: intake.ConfirmedYes}, intake.NewPolicySet(intake.PolicyThirdParty)))), intake.PhaseRecommended},
		{"closed after recommendation", gathering().Append(intake.UserTurn("thanks"), intake.AssistantTurn(ClosedRecommendation)), intake.PhaseRecommended},
		{"question", gathering().Append(intake.UserTurn("a car"), intake.AssistantTurn("Is it used for racing?")), intake.PhaseGathering},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Phase(tt.history))
		})
	}
}

func TestRecommend(t *testing.T) {
	stub := &oracletest.Stub{Text: "1. Compare excess levels\n2. Ask about multi-car discounts\n3. Review cover yearly"}
	history := gathering()

	text, got, err := newEngine(stub).Recommend(context.Background(), "User asked about insurance for a ute", history)
	require.NoError(t, err)
	assert.Contains(t, text, "multi-car")
	assert.Equal(t, history, got)

	calls := stub.Calls()
	if assert.Len(t, calls, 1) {
		assert.Contains(t, calls[0].Prompt, "User asked about insurance for a ute")
	}
}

func TestRecommend_Errors(t *testing.T) {
	_, _, err := newEngine(&oracletest.Stub{}).Recommend(context.Background(), " ", nil)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "context", verr.Field)

	_, _, err = newEngine(oracletest.Failing(oracle.ErrUnavailable)).Recommend(context.Background(), "cars", nil)
	assert.ErrorIs(t, err, ErrInternal)

	_, _, err = newEngine(&oracletest.Stub{Text: "  "}).Recommend(context.Background(), "cars", nil)
	assert.ErrorIs(t, err, ErrInternal)
}
