package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/acme/outbound-campaign-dispatch/internal/domain"
)

// OutcomeMessage describes one recorded delivery attempt.
type OutcomeMessage struct {
	EntryID    uuid.UUID              `json:"entry_id"`
	CampaignID uuid.UUID              `json:"campaign_id"`
	ContactID  uuid.UUID              `json:"contact_id"`
	Channel    domain.Channel         `json:"channel"`
	Outcome    domain.DispatchOutcome `json:"outcome"`
	Error      string                 `json:"error,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// OutcomePublisher emits dispatch outcome events. Publishing is
// best-effort: the dispatch loop never blocks on a broker failure.
type OutcomePublisher struct {
	writer *kafka.Writer
}

// NewOutcomePublisher constructs a publisher for the given topic.
func NewOutcomePublisher(k *Kafka, topic string) *OutcomePublisher {
	return &OutcomePublisher{writer: k.NewWriter(topic)}
}

// Publish emits an outcome message keyed by entry id.
func (p *OutcomePublisher) Publish(ctx context.Context, msg OutcomeMessage) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("outcome publisher: marshal message: %w", err)
	}
	record := kafka.Message{
		Key:   msg.EntryID[:],
		Value: value,
		Time:  time.Now().UTC(),
	}
	if err := p.writer.WriteMessages(ctx, record); err != nil {
		return fmt.Errorf("outcome publisher: write message: %w", err)
	}
	return nil
}

// Close closes the publisher.
func (p *OutcomePublisher) Close() error {
	return p.writer.Close()
}
