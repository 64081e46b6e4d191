package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Dan9191/rental-yield/internal/config"
	"github.com/Dan9191/rental-yield/internal/models"
	"github.com/Dan9191/rental-yield/internal/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ErrNotConfigured is returned when no webhook URL is set
var ErrNotConfigured = errors.New("webhook not configured")

// Client forwards proposals to the review channel webhook
type Client struct {
	url     string
	secret  string
	client  *http.Client
	limiter *rate.Limiter
	log     *logrus.Logger
}

// NewClient initializes a webhook client limited to cfg.WebhookRPS requests per second
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url:     cfg.WebhookURL,
		secret:  cfg.WebhookSecret,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(cfg.WebhookRPS), 1),
		log:     log,
	}
}

type payload struct {
	Text     string          `json:"text"`
	Proposal models.Proposal `json:"proposal"`
}

func summary(p models.Proposal) string {
	s := fmt.Sprintf("New proposal for %s (%s): value %.0f CLP", p.Title, p.Address, p.PropertyValue)
	for _, code := range []string{"A", "B", "C"} {
		if rent, ok := p.PlanRents[code]; ok {
			s += fmt.Sprintf(", plan %s %.0f CLP", code, rent)
		}
	}
	if p.RecommendedPlan != "" {
		s += fmt.Sprintf(". Recommended: plan %s", p.RecommendedPlan)
	}
	return s
}

// SendProposal posts p as JSON, signed with the configured secret
func (c *Client) SendProposal(ctx context.Context, p models.Proposal) error {
	if c.url == "" {
		return ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(payload{Text: summary(p), Proposal: p})
	if err != nil {
		return fmt.Errorf("failed to encode proposal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.Header.Set("X-Signature", utils.SignatureHeader(body, c.secret))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	c.log.Infof("Proposal %s forwarded to webhook", p.AnalysisID)
	return nil
}
