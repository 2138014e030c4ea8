package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acme/outbound-campaign-dispatch/internal/domain"
	"github.com/acme/outbound-campaign-dispatch/internal/repository"
)

// CampaignRepository implements repository.CampaignRepository using PostgreSQL.
type CampaignRepository struct {
	db *sqlx.DB
}

// NewCampaignRepository constructs a new repository.
func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

const campaignColumns = `id, name, status, description, webhook_url, created_at, updated_at`

// ListActive returns active campaigns oldest first so repeated runs
// treat campaigns fairly.
func (r *CampaignRepository) ListActive(ctx context.Context) ([]*domain.Campaign, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT `+campaignColumns+`
		FROM campaigns WHERE status = $1 ORDER BY created_at ASC`,
		domain.CampaignStatusActive)
	if err != nil {
		return nil, fmt.Errorf("campaign repo: list active: %w", err)
	}
	defer rows.Close()

	var results []*domain.Campaign
	for rows.Next() {
		var record campaignRecord
		if err := rows.StructScan(&record); err != nil {
			return nil, fmt.Errorf("campaign repo: scan: %w", err)
		}
		campaign := record.toDomain()
		results = append(results, &campaign)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("campaign repo: rows err: %w", err)
	}

	return results, nil
}

// Get fetches a campaign by id.
func (r *CampaignRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	row := r.db.QueryRowxContext(ctx, `SELECT `+campaignColumns+`
		FROM campaigns WHERE id = $1`, id)

	var record campaignRecord
	if err := row.StructScan(&record); err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("campaign repo: get: %w", err)
	}

	campaign := record.toDomain()
	return &campaign, nil
}

type campaignRecord struct {
	ID          uuid.UUID      `db:"id"`
	Name        string         `db:"name"`
	Status      string         `db:"status"`
	Description sql.NullString `db:"description"`
	WebhookURL  sql.NullString `db:"webhook_url"`
	CreatedAt   sql.NullTime   `db:"created_at"`
	UpdatedAt   sql.NullTime   `db:"updated_at"`
}

func (r campaignRecord) toDomain() domain.Campaign {
	return domain.Campaign{
		ID:          r.ID,
		Name:        r.Name,
		Status:      domain.CampaignStatus(r.Status),
		Description: r.Description.String,
		WebhookURL:  r.WebhookURL.String,
		CreatedAt:   r.CreatedAt.Time,
		UpdatedAt:   r.UpdatedAt.Time,
	}
}
