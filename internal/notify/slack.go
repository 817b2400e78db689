package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hamed0406/probeagent/internal/errs"
)

// Slack posts to an incoming webhook.
type Slack struct {
	Webhook  string
	Username string // shown as the sender; defaults to "probe-agent@<hostname>"
	Client   *http.Client
}

// NewSlack returns nil when no webhook is configured.
func NewSlack(webhook string) *Slack {
	webhook = strings.TrimSpace(webhook)
	if webhook == "" {
		return nil
	}
	name := "probe-agent"
	if h, err := os.Hostname(); err == nil && h != "" {
		name += "@" + h
	}
	return &Slack{
		Webhook:  webhook,
		Username: name,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type slackMessage struct {
	Text     string `json:"text"`
	Username string `json:"username,omitempty"`
}

func (s *Slack) Send(ctx context.Context, title, text string) error {
	if s == nil || s.Webhook == "" {
		return errs.New(errs.CodeNotifyFailure, "slack disabled")
	}
	body, err := json.Marshal(slackMessage{Text: "*" + title + "*\n" + text, Username: s.Username})
	if err != nil {
		return errs.Wrap(err, errs.CodeNotifyFailure, "encode slack message")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Webhook, bytes.NewReader(body))
	if err != nil {
		return errs.Wrap(err, errs.CodeNotifyFailure, "build slack request")
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return errs.Wrap(err, errs.CodeNotifyFailure, "post to slack")
	}
	defer resp.Body.Close()

	// Slack answers a short plain-text reason ("invalid_payload", "no_service").
	reason, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	if resp.StatusCode != http.StatusOK {
		return errs.New(errs.CodeNotifyFailure, "slack rejected message",
			errs.Field("status", resp.StatusCode),
			errs.Field("reason", strings.TrimSpace(string(reason))))
	}
	return nil
}
