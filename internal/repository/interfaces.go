package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/acme/outbound-campaign-dispatch/internal/domain"
	apperrors "github.com/acme/outbound-campaign-dispatch/pkg/errors"
)

var (
	// ErrNotFound indicates the entity was not located.
	ErrNotFound = apperrors.ErrNotFound
)

// CampaignRepository reads campaign metadata. The dispatcher never
// writes campaigns.
type CampaignRepository interface {
	// ListActive returns campaigns with status 'active' ordered by
	// creation time ascending, oldest first.
	ListActive(ctx context.Context) ([]*domain.Campaign, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
}

// QueueRepository manages per-campaign dispatch queue entries.
type QueueRepository interface {
	// Materialize invokes the external queue-population procedure for
	// the campaign. The procedure is idempotent.
	Materialize(ctx context.Context, campaignID uuid.UUID) error
	// PendingBatch returns up to limit pending entries for the
	// campaign, ordered by creation time ascending.
	PendingBatch(ctx context.Context, campaignID uuid.UUID, limit int) ([]*domain.QueueEntry, error)
	// MarkSent records a successful delivery for the entry.
	MarkSent(ctx context.Context, entryID uuid.UUID, sentAt time.Time) error
	// MarkFailed records a terminal failure with a bounded diagnostic.
	MarkFailed(ctx context.Context, entryID uuid.UUID, lastError string) error
	// ListByCampaign lists entries for inspection, optionally filtered
	// by status.
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, status domain.QueueEntryStatus, limit int) ([]*domain.QueueEntry, error)
}

// ContactRepository bulk-loads contact records.
type ContactRepository interface {
	// GetByIDs fetches the given contacts in one query. Missing ids
	// are simply absent from the result.
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Contact, error)
}
