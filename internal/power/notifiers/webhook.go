package notifiers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/power-fluctuation-advisory/internal/power"
)

// Advisory is the JSON payload posted to a webhook.
type Advisory struct {
	ReportID         string             `json:"reportId"`
	Source           string             `json:"source"`
	CreatedAt        time.Time          `json:"createdAt"`
	Tier             power.SeverityTier `json:"tier"`
	PercentDeviation float64            `json:"percentDeviation"`
	MeanVoltage      float64            `json:"meanVoltage"`
	Recommendation   string             `json:"recommendation"`
	UnstableCount    int                `json:"unstableCount"`
	Message          string             `json:"message"`
}

// NewAdvisory builds the webhook payload for a report.
func NewAdvisory(r power.Report) Advisory {
	return Advisory{
		ReportID:         r.ID,
		Source:           r.Source,
		CreatedAt:        r.CreatedAt,
		Tier:             r.Severity.Tier,
		PercentDeviation: r.Severity.PercentDeviation,
		MeanVoltage:      r.Severity.MeanVoltage,
		Recommendation:   r.Severity.Recommendation,
		UnstableCount:    r.UnstableCount,
		Message:          r.Message,
	}
}

// WebhookNotifier implements the power.Notifier interface for a generic JSON webhook.
type WebhookNotifier struct {
	name    string
	url     string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWebhookNotifier(client *http.Client, url string) *WebhookNotifier {
	return &WebhookNotifier{
		name: "webhook",
		url:  url,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
		},
		circuit: newBreaker("webhook"),
	}
}

// WithBackoff overrides the retry schedule.
func (n *WebhookNotifier) WithBackoff(b BackoffConfig) *WebhookNotifier {
	n.httpCfg.Backoff = b
	return n
}

func (n *WebhookNotifier) Name() string {
	return n.name
}

func (n *WebhookNotifier) Notify(ctx context.Context, report power.Report) error {
	if n.url == "" {
		return fmt.Errorf("webhook url is not configured")
	}

	body, err := json.Marshal(NewAdvisory(report))
	if err != nil {
		return err
	}

	return postWithResilience(ctx, n.httpCfg, n.circuit, n.url, body)
}
