// Package delivery performs the webhook call that hands a composed
// message to the external channel provider and classifies the result.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/acme/outbound-campaign-dispatch/internal/compose"
	"github.com/acme/outbound-campaign-dispatch/internal/domain"
)

// maxDiagnosticLen bounds the error text persisted on a failed entry.
const maxDiagnosticLen = 1000

// Outcome is the classified result of one delivery attempt.
type Outcome struct {
	Kind   domain.DispatchOutcome
	Detail string
}

// Delivered reports whether the attempt reached the provider successfully.
func (o Outcome) Delivered() bool {
	return o.Kind == domain.OutcomeDelivered
}

// Client issues webhook deliveries. One synchronous request per entry,
// no in-process retry.
type Client struct {
	httpClient      *http.Client
	defaultEndpoint string
}

// NewClient constructs a delivery client. The timeout bounds the whole
// webhook round trip.
func NewClient(defaultEndpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient:      &http.Client{Timeout: timeout},
		defaultEndpoint: defaultEndpoint,
	}
}

type webhookPayload struct {
	Channel    string          `json:"channel"`
	CampaignID uuid.UUID       `json:"campaign_id"`
	ContactID  uuid.UUID       `json:"contact_id"`
	To         string          `json:"to"`
	Subject    string          `json:"subject"`
	Body       string          `json:"body"`
	Contact    *domain.Contact `json:"contact"`
}

// Deliver resolves the destination address and performs the webhook
// call. A contact without a usable address short-circuits to
// address_missing with no network traffic.
func (c *Client) Deliver(ctx context.Context, campaign *domain.Campaign, channel domain.Channel, entry *domain.QueueEntry, contact *domain.Contact, msg compose.Message) Outcome {
	to := resolveAddress(channel, contact)
	if to == "" {
		return Outcome{
			Kind:   domain.OutcomeAddressMissing,
			Detail: fmt.Sprintf("no %s destination for contact %s", channel, entry.ContactID),
		}
	}

	payload := webhookPayload{
		Channel:    string(channel),
		CampaignID: campaign.ID,
		ContactID:  entry.ContactID,
		To:         to,
		Subject:    msg.Subject,
		Body:       msg.Body,
		Contact:    contact,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Outcome{Kind: domain.OutcomeTransportError, Detail: Truncate(err.Error())}
	}

	endpoint := campaign.WebhookURL
	if endpoint == "" {
		endpoint = c.defaultEndpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Outcome{Kind: domain.OutcomeTransportError, Detail: Truncate(err.Error())}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Outcome{Kind: domain.OutcomeTransportError, Detail: Truncate(err.Error())}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return Outcome{Kind: domain.OutcomeDelivered}
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxDiagnosticLen+1))
	return Outcome{
		Kind:   domain.OutcomeProviderRejected,
		Detail: Truncate(fmt.Sprintf("webhook status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))),
	}
}

func resolveAddress(channel domain.Channel, contact *domain.Contact) string {
	if contact == nil {
		return ""
	}
	switch channel {
	case domain.ChannelEmail:
		return strings.TrimSpace(contact.Email)
	case domain.ChannelWhatsapp, domain.ChannelCall:
		return strings.TrimSpace(contact.Phone)
	default:
		return ""
	}
}

// Truncate bounds diagnostic text to the persisted maximum.
func Truncate(s string) string {
	if len(s) <= maxDiagnosticLen {
		return s
	}
	return s[:maxDiagnosticLen]
}
