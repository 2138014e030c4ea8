package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acme/outbound-campaign-dispatch/internal/domain"
	"github.com/acme/outbound-campaign-dispatch/internal/repository"
)

// QueueRepository persists campaign queue entries.
type QueueRepository struct {
	db *sqlx.DB
}

// NewQueueRepository constructs the repository.
func NewQueueRepository(db *sqlx.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// Materialize calls the queue-population procedure owned by the storage
// layer. Repeated calls do not duplicate entries.
func (r *QueueRepository) Materialize(ctx context.Context, campaignID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `SELECT populate_campaign_queue($1)`, campaignID); err != nil {
		return fmt.Errorf("queue repo: materialize: %w", err)
	}
	return nil
}

// PendingBatch fetches up to limit pending entries, oldest first.
func (r *QueueRepository) PendingBatch(ctx context.Context, campaignID uuid.UUID, limit int) ([]*domain.QueueEntry, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := r.db.QueryxContext(ctx, `SELECT id, campaign_id, contact_id, status, attempts, last_error, sent_at, created_at
		FROM campaign_queue
		WHERE campaign_id = $1 AND status = $2
		ORDER BY created_at ASC
		LIMIT $3`, campaignID, domain.QueueEntryStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("queue repo: pending batch: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// MarkSent records a successful delivery. Single-row atomic update.
func (r *QueueRepository) MarkSent(ctx context.Context, entryID uuid.UUID, sentAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE campaign_queue
		SET status = $1, attempts = 1, sent_at = $2, last_error = NULL
		WHERE id = $3`, domain.QueueEntryStatusSent, sentAt, entryID)
	if err != nil {
		return fmt.Errorf("queue repo: mark sent: %w", err)
	}
	return checkAffected(res)
}

// MarkFailed records a terminal failure. The diagnostic is expected to
// be pre-truncated by the caller.
func (r *QueueRepository) MarkFailed(ctx context.Context, entryID uuid.UUID, lastError string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE campaign_queue
		SET status = $1, attempts = 1, last_error = $2
		WHERE id = $3`, domain.QueueEntryStatusFailed, lastError, entryID)
	if err != nil {
		return fmt.Errorf("queue repo: mark failed: %w", err)
	}
	return checkAffected(res)
}

// ListByCampaign lists entries for inspection, newest first.
func (r *QueueRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID, status domain.QueueEntryStatus, limit int) ([]*domain.QueueEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, campaign_id, contact_id, status, attempts, last_error, sent_at, created_at
		FROM campaign_queue
		WHERE campaign_id = $1`
	args := []any{campaignID}
	if status != "" {
		query += ` AND status = $2 ORDER BY created_at DESC LIMIT $3`
		args = append(args, status, limit)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("queue repo: list: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sqlx.Rows) ([]*domain.QueueEntry, error) {
	var results []*domain.QueueEntry
	for rows.Next() {
		var rec queueEntryRecord
		if err := rows.StructScan(&rec); err != nil {
			return nil, fmt.Errorf("queue repo: scan: %w", err)
		}
		entry := rec.toDomain()
		results = append(results, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("queue repo: rows err: %w", err)
	}
	return results, nil
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("queue repo: rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type queueEntryRecord struct {
	ID         uuid.UUID      `db:"id"`
	CampaignID uuid.UUID      `db:"campaign_id"`
	ContactID  uuid.UUID      `db:"contact_id"`
	Status     string         `db:"status"`
	Attempts   int            `db:"attempts"`
	LastError  sql.NullString `db:"last_error"`
	SentAt     sql.NullTime   `db:"sent_at"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (r queueEntryRecord) toDomain() domain.QueueEntry {
	entry := domain.QueueEntry{
		ID:         r.ID,
		CampaignID: r.CampaignID,
		ContactID:  r.ContactID,
		Status:     domain.QueueEntryStatus(r.Status),
		Attempts:   r.Attempts,
		CreatedAt:  r.CreatedAt,
	}
	if r.LastError.Valid {
		s := r.LastError.String
		entry.LastError = &s
	}
	if r.SentAt.Valid {
		t := r.SentAt.Time
		entry.SentAt = &t
	}
	return entry
}
