package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acme/outbound-campaign-dispatch/internal/compose"
	"github.com/acme/outbound-campaign-dispatch/internal/domain"
)

func testFixtures() (*domain.Campaign, *domain.QueueEntry, *domain.Contact) {
	campaign := &domain.Campaign{
		ID:          uuid.New(),
		Name:        "spring promo",
		Status:      domain.CampaignStatusActive,
		Description: "Channel: Email\nSubject: Hi\nBody: Hello there",
	}
	contact := &domain.Contact{
		ID:    uuid.New(),
		Name:  "Ada",
		Email: " ada@example.com ",
		Phone: "+15550100",
	}
	entry := &domain.QueueEntry{
		ID:         uuid.New(),
		CampaignID: campaign.ID,
		ContactID:  contact.ID,
		Status:     domain.QueueEntryStatusPending,
	}
	return campaign, entry, contact
}

func TestDeliverSuccess(t *testing.T) {
	campaign, entry, contact := testFixtures()

	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	outcome := client.Deliver(context.Background(), campaign, domain.ChannelEmail, entry, contact, compose.Message{Subject: "Hi", Body: "Hello there"})

	require.True(t, outcome.Delivered())
	assert.Equal(t, "email", got.Channel)
	assert.Equal(t, campaign.ID, got.CampaignID)
	assert.Equal(t, entry.ContactID, got.ContactID)
	assert.Equal(t, "ada@example.com", got.To, "address must be trimmed")
	assert.Equal(t, "Hi", got.Subject)
	assert.Equal(t, "Hello there", got.Body)
	require.NotNil(t, got.Contact)
	assert.Equal(t, contact.ID, got.Contact.ID)
}

func TestDeliverProviderRejection(t *testing.T) {
	campaign, entry, contact := testFixtures()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "provider exploded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	outcome := client.Deliver(context.Background(), campaign, domain.ChannelEmail, entry, contact, compose.Message{})

	assert.Equal(t, domain.OutcomeProviderRejected, outcome.Kind)
	assert.Contains(t, outcome.Detail, "500")
	assert.Contains(t, outcome.Detail, "provider exploded")
}

func TestDeliverRejectionDetailIsBounded(t *testing.T) {
	campaign, entry, contact := testFixtures()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(strings.Repeat("x", 5000)))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	outcome := client.Deliver(context.Background(), campaign, domain.ChannelEmail, entry, contact, compose.Message{})

	assert.Equal(t, domain.OutcomeProviderRejected, outcome.Kind)
	assert.LessOrEqual(t, len(outcome.Detail), maxDiagnosticLen)
	assert.Contains(t, outcome.Detail, "502")
}

func TestDeliverTransportError(t *testing.T) {
	campaign, entry, contact := testFixtures()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, time.Second)
	outcome := client.Deliver(context.Background(), campaign, domain.ChannelEmail, entry, contact, compose.Message{})

	assert.Equal(t, domain.OutcomeTransportError, outcome.Kind)
	assert.NotEmpty(t, outcome.Detail)
}

func TestDeliverAddressMissingMakesNoCall(t *testing.T) {
	campaign, entry, contact := testFixtures()
	contact.Email = "   "

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	outcome := client.Deliver(context.Background(), campaign, domain.ChannelEmail, entry, contact, compose.Message{})

	assert.Equal(t, domain.OutcomeAddressMissing, outcome.Kind)
	assert.Zero(t, calls, "no webhook call may be made for a missing address")
}

func TestDeliverNilContactIsAddressMissing(t *testing.T) {
	campaign, entry, _ := testFixtures()

	client := NewClient("http://unused.invalid", time.Second)
	outcome := client.Deliver(context.Background(), campaign, domain.ChannelEmail, entry, nil, compose.Message{})

	assert.Equal(t, domain.OutcomeAddressMissing, outcome.Kind)
}

func TestDeliverUsesCampaignWebhookOverride(t *testing.T) {
	campaign, entry, contact := testFixtures()

	override := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer override.Close()

	fallbackCalls := 0
	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fallbackCalls++
	}))
	defer fallback.Close()

	campaign.WebhookURL = override.URL
	client := NewClient(fallback.URL, time.Second)
	outcome := client.Deliver(context.Background(), campaign, domain.ChannelEmail, entry, contact, compose.Message{})

	assert.True(t, outcome.Delivered())
	assert.Zero(t, fallbackCalls)
}

func TestDeliverPhoneChannels(t *testing.T) {
	campaign, entry, contact := testFixtures()

	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	outcome := client.Deliver(context.Background(), campaign, domain.ChannelWhatsapp, entry, contact, compose.Message{Body: "hi"})

	require.True(t, outcome.Delivered())
	assert.Equal(t, "+15550100", got.To)
	assert.Equal(t, "whatsapp", got.Channel)
}

func TestTruncateBoundsText(t *testing.T) {
	long := strings.Repeat("a", 4000)
	assert.Len(t, Truncate(long), maxDiagnosticLen)
	assert.Equal(t, "short", Truncate("short"))
}
