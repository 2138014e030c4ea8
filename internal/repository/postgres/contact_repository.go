package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acme/outbound-campaign-dispatch/internal/domain"
)

// ContactRepository implements repository.ContactRepository using PostgreSQL.
type ContactRepository struct {
	db *sqlx.DB
}

// NewContactRepository constructs the repository.
func NewContactRepository(db *sqlx.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// GetByIDs bulk-fetches contacts keyed by id. Ids with no matching row
// are absent from the returned map.
func (r *ContactRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Contact, error) {
	result := make(map[uuid.UUID]*domain.Contact, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryxContext(ctx, `SELECT id, name, email, phone, notes, created_at
		FROM contacts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("contact repo: get by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec contactRecord
		if err := rows.StructScan(&rec); err != nil {
			return nil, fmt.Errorf("contact repo: scan: %w", err)
		}
		contact := rec.toDomain()
		result[contact.ID] = &contact
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("contact repo: rows err: %w", err)
	}

	return result, nil
}

type contactRecord struct {
	ID        uuid.UUID      `db:"id"`
	Name      sql.NullString `db:"name"`
	Email     sql.NullString `db:"email"`
	Phone     sql.NullString `db:"phone"`
	Notes     sql.NullString `db:"notes"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r contactRecord) toDomain() domain.Contact {
	return domain.Contact{
		ID:        r.ID,
		Name:      r.Name.String,
		Email:     r.Email.String,
		Phone:     r.Phone.String,
		Notes:     r.Notes.String,
		CreatedAt: r.CreatedAt,
	}
}
