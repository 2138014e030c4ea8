package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acme/outbound-campaign-dispatch/internal/domain"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "pgx"), mock
}

func TestPendingBatchBoundsAndFilters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewQueueRepository(db)

	campaignID := uuid.New()
	entryID := uuid.New()
	contactID := uuid.New()
	created := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "campaign_id", "contact_id", "status", "attempts", "last_error", "sent_at", "created_at"}).
		AddRow(entryID, campaignID, contactID, "pending", 0, nil, nil, created)

	mock.ExpectQuery(`(?s)SELECT .+ FROM campaign_queue\s+WHERE campaign_id = \$1 AND status = \$2\s+ORDER BY created_at ASC\s+LIMIT \$3`).
		WithArgs(campaignID, string(domain.QueueEntryStatusPending), 5).
		WillReturnRows(rows)

	batch, err := repo.PendingBatch(context.Background(), campaignID, 5)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, entryID, batch[0].ID)
	assert.Equal(t, domain.QueueEntryStatusPending, batch[0].Status)
	assert.Nil(t, batch[0].LastError)
	assert.Nil(t, batch[0].SentAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSentSetsTerminalState(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewQueueRepository(db)

	entryID := uuid.New()
	sentAt := time.Now().UTC()

	mock.ExpectExec(`UPDATE campaign_queue\s+SET status = \$1, attempts = 1, sent_at = \$2, last_error = NULL\s+WHERE id = \$3`).
		WithArgs(string(domain.QueueEntryStatusSent), sentAt, entryID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkSent(context.Background(), entryID, sentAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkFailedWritesDiagnostic(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewQueueRepository(db)

	entryID := uuid.New()

	mock.ExpectExec(`UPDATE campaign_queue\s+SET status = \$1, attempts = 1, last_error = \$2\s+WHERE id = \$3`).
		WithArgs(string(domain.QueueEntryStatusFailed), "webhook status 500: boom", entryID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkFailed(context.Background(), entryID, "webhook status 500: boom"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterializeInvokesProcedure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewQueueRepository(db)

	campaignID := uuid.New()

	mock.ExpectExec(`SELECT populate_campaign_queue\(\$1\)`).
		WithArgs(campaignID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Materialize(context.Background(), campaignID))
	require.NoError(t, mock.ExpectationsWereMet())
}
