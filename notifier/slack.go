package notifier

import (
	"fmt"

	slackapi "github.com/slack-go/slack"

	"github.com/chaitanyaenr/container-plugin/report"
)

const NotifierSlack = "slack"

// Slack posts a short invocation summary to a Slack incoming webhook.
type Slack struct {
	Webhook string

	// post is swappable for testing
	post func(url string, msg *slackapi.WebhookMessage) error
}

func NewSlackNotifier(webhook string) *Slack {
	return &Slack{
		Webhook: webhook,
		post:    slackapi.PostWebhook,
	}
}

func (s *Slack) NotifyInvocation(rep report.InvocationReport) error {
	msg := &slackapi.WebhookMessage{
		Text: summary(rep),
	}

	if err := s.post(s.Webhook, msg); err != nil {
		return fmt.Errorf("posting to slack webhook: %w", err)
	}

	return nil
}

func summary(rep report.InvocationReport) string {
	succeeded := 0
	for _, outcome := range rep.Outcomes {
		if outcome.Status.Success() {
			succeeded++
		}
	}

	return fmt.Sprintf("container kill finished with %s: %d/%d actions succeeded in %s",
		rep.OverallStatus, succeeded, len(rep.Outcomes), rep.FinishedAt.Sub(rep.StartedAt))
}
