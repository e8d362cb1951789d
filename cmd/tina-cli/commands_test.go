package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/tina/internal/api"
	"github.com/MikeSquared-Agency/tina/internal/conversation"
	"github.com/MikeSquared-Agency/tina/internal/extractor"
	"github.com/MikeSquared-Agency/tina/internal/optin"
	"github.com/MikeSquared-Agency/tina/internal/oracle/oracletest"
	"github.com/MikeSquared-Agency/tina/internal/render"
)

func tinaServer(t *testing.T, stub *oracletest.Stub) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := conversation.New(
		optin.New(stub, logger),
		extractor.New(stub, logger),
		render.New(stub, logger),
		stub,
		logger,
	)
	srv := api.NewServer(0, engine, api.Options{Logger: logger})

	server := httptest.NewServer(srv.Handler())
	t.Cleanup(server.Close)
	return server
}

func TestRunChat_ToRecommendation(t *testing.T) {
	stub := &oracletest.Stub{Answers: map[string]string{
		optin.Schema.Name:     `{"opt_in": true}`,
		extractor.Schema.Name: `{"truck_status":"CONFIRMED_YES","racing_status":"CONFIRMED_NO","age_status":"UNKNOWN","policy_recommendations":["3RDP"]}`,
	}}
	server := tinaServer(t, stub)

	in := strings.NewReader("yes please\n\nit's a truck, never raced\nthis line is never read\n")
	var out bytes.Buffer

	require.NoError(t, runChat(context.Background(), newClient(server.URL), in, &out, false))

	text := out.String()
	assert.Contains(t, text, "Tina: "+conversation.Greeting)
	assert.Contains(t, text, "Tina: "+conversation.FirstQuestion)
	assert.Contains(t, text, "Third Party Car Insurance (3RDP)")
	assert.Equal(t, 2, stub.Count("classify"))
}

func TestRunChat_Declined(t *testing.T) {
	stub := &oracletest.Stub{Answers: map[string]string{optin.Schema.Name: `{"opt_in": false}`}}
	server := tinaServer(t, stub)

	var out bytes.Buffer
	require.NoError(t, runChat(context.Background(), newClient(server.URL), strings.NewReader("no thanks\n"), &out, true))

	assert.Contains(t, out.String(), `"messageType":"farewell"`)
}

func TestRunChat_EOF(t *testing.T) {
	server := tinaServer(t, &oracletest.Stub{})

	var out bytes.Buffer
	require.NoError(t, runChat(context.Background(), newClient(server.URL), strings.NewReader(""), &out, false))
	assert.Contains(t, out.String(), conversation.Greeting)
}

func TestRecommendCmd(t *testing.T) {
	server := tinaServer(t, &oracletest.Stub{Text: "Ask about roadside assistance."})

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"recommend", "--addr", server.URL, "old", "hatchback"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "Ask about roadside assistance.\n", out.String())
}

func TestHealthCmd(t *testing.T) {
	server := tinaServer(t, &oracletest.Stub{})

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"health", "--addr", server.URL})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "ok\n", out.String())
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"context is required"}`))
	}))
	defer server.Close()

	_, _, err := newClient(server.URL).recommend(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context is required")
}
