package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/tina/internal/intake"
	"github.com/MikeSquared-Agency/tina/internal/outcome"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

// Poster notifies the sales channel when a conversation ends in a
// recommendation.
type Poster struct {
	token   string
	channel string
	client  *http.Client
	logger  *slog.Logger
	apiURL  string
}

func NewPoster(token, channel string, logger *slog.Logger) *Poster {
	return &Poster{
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  defaultPostMessageURL,
		logger:  logger,
	}
}

// PostLead posts a recommended outcome to the leads channel.
func (p *Poster) PostLead(ctx context.Context, o outcome.Outcome) error {
	text := formatLeadMessage(o)

	ts, err := p.post(ctx, map[string]any{
		"channel": p.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": text,
				},
			},
			{
				"type": "context",
				"elements": []map[string]any{
					{
						"type": "mrkdwn",
						"text": fmt.Sprintf("Outcome `%s` | %d turns", o.ID, o.Turns),
					},
				},
			},
		},
	})
	if err != nil {
		return err
	}

	p.logger.Info("posted lead to slack", "ts", ts, "outcome_id", o.ID)
	return nil
}

func (p *Poster) post(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return "", fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return "", fmt.Errorf("slack error: %s", slackResp.Error)
	}
	return slackResp.TS, nil
}

func formatLeadMessage(o outcome.Outcome) string {
	var sb strings.Builder

	sb.WriteString("*New policy recommendation*\n")
	fmt.Fprintf(&sb, "*Vehicle:* %s\n", describeVehicle(o.Facts))

	if o.Policies.Empty() {
		sb.WriteString("*Policies:* none\n")
	} else {
		sb.WriteString("*Policies:*\n")
		for _, p := range o.Policies {
			fmt.Fprintf(&sb, "• %s (%s)\n", p.Name(), p)
		}
	}

	fmt.Fprintf(&sb, "_Recommended at %s_", o.At.Format(time.RFC3339))
	return sb.String()
}

func describeVehicle(f intake.VehicleFacts) string {
	var parts []string
	switch f.Truck {
	case intake.ConfirmedYes:
		parts = append(parts, "truck")
	case intake.ConfirmedNo:
		parts = append(parts, "not a truck")
	}
	switch f.Racing {
	case intake.ConfirmedYes:
		parts = append(parts, "racing car")
	case intake.ConfirmedNo:
		parts = append(parts, "not a racing car")
	}
	switch f.Age {
	case intake.ConfirmedOld:
		parts = append(parts, "over 10 years old")
	case intake.ConfirmedNew:
		parts = append(parts, "10 years old or less")
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, ", ")
}
