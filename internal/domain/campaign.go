package domain

import (
	"time"

	"github.com/google/uuid"
)

// CampaignStatus enumerates lifecycle states of a campaign.
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
)

// Channel is the delivery medium inferred from campaign metadata.
type Channel string

const (
	ChannelWhatsapp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
	ChannelCall     Channel = "call"
	ChannelNone     Channel = "none"
)

// QueueEntryStatus enumerates lifecycle states of a queue entry.
type QueueEntryStatus string

const (
	QueueEntryStatusPending QueueEntryStatus = "pending"
	QueueEntryStatusSent    QueueEntryStatus = "sent"
	QueueEntryStatusFailed  QueueEntryStatus = "failed"
)

// DispatchOutcome classifies the result of a single delivery attempt.
// It is ephemeral: only its effect on the queue entry is persisted.
type DispatchOutcome string

const (
	OutcomeDelivered        DispatchOutcome = "delivered"
	OutcomeProviderRejected DispatchOutcome = "provider_rejected"
	OutcomeTransportError   DispatchOutcome = "transport_error"
	OutcomeAddressMissing   DispatchOutcome = "address_missing"
)

// Campaign models an outbound messaging campaign. The dispatcher only
// reads campaigns; mutation belongs to the campaign-management surface.
type Campaign struct {
	ID          uuid.UUID
	Name        string
	Status      CampaignStatus
	Description string
	WebhookURL  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// QueueEntry is one unit of pending/sent/failed work linking a campaign
// to a single contact. Entries are created by the external queue
// materializer and mutated only by the status recorder.
type QueueEntry struct {
	ID         uuid.UUID
	CampaignID uuid.UUID
	ContactID  uuid.UUID
	Status     QueueEntryStatus
	Attempts   int
	LastError  *string
	SentAt     *time.Time
	CreatedAt  time.Time
}

// Contact is an immutable recipient record.
type Contact struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}
