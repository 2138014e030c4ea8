// Package dispatch implements the outbound campaign dispatch run: one
// short-lived, stateless pass that drains bounded batches of pending
// queue entries for every active campaign and records the outcomes.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/acme/outbound-campaign-dispatch/internal/compose"
	"github.com/acme/outbound-campaign-dispatch/internal/delivery"
	"github.com/acme/outbound-campaign-dispatch/internal/domain"
	"github.com/acme/outbound-campaign-dispatch/internal/events"
	"github.com/acme/outbound-campaign-dispatch/internal/pacing"
	"github.com/acme/outbound-campaign-dispatch/internal/repository"
	apperrors "github.com/acme/outbound-campaign-dispatch/pkg/errors"
	"github.com/acme/outbound-campaign-dispatch/pkg/logger"
)

// DisabledMessage is reported when no webhook endpoint is configured.
const DisabledMessage = "dispatch disabled: no webhook endpoint configured"

// Deliverer performs one webhook delivery attempt.
type Deliverer interface {
	Deliver(ctx context.Context, campaign *domain.Campaign, channel domain.Channel, entry *domain.QueueEntry, contact *domain.Contact, msg compose.Message) delivery.Outcome
}

// OutcomePublisher emits outcome events after each status write.
type OutcomePublisher interface {
	Publish(ctx context.Context, msg events.OutcomeMessage) error
}

// RunLease guards against overlapping invocations.
type RunLease interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Result is the aggregate of one run. Processed counts entries that
// reached delivered; failures surface only through queue-entry state.
type Result struct {
	Processed int    `json:"processed"`
	Message   string `json:"message,omitempty"`
}

// Options tunes a Runner beyond its required collaborators.
type Options struct {
	BatchSize int
	Enabled   bool
	Lease     RunLease         // nil: rely on the external trigger to serialize runs
	Publisher OutcomePublisher // nil: outcome events disabled
}

// Runner orchestrates a dispatch pass. It holds no state across runs.
type Runner struct {
	campaigns repository.CampaignRepository
	queue     repository.QueueRepository
	contacts  repository.ContactRepository
	deliverer Deliverer
	pacers    pacing.Factory
	opts      Options
	logger    *logger.Logger
}

// NewRunner constructs a dispatch runner.
func NewRunner(
	campaigns repository.CampaignRepository,
	queue repository.QueueRepository,
	contacts repository.ContactRepository,
	deliverer Deliverer,
	pacers pacing.Factory,
	opts Options,
	lg *logger.Logger,
) *Runner {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}
	if lg == nil {
		lg = logger.NewNop()
	}
	return &Runner{
		campaigns: campaigns,
		queue:     queue,
		contacts:  contacts,
		deliverer: deliverer,
		pacers:    pacers,
		opts:      opts,
		logger:    lg,
	}
}

// Run executes one dispatch pass. Campaigns are processed strictly
// sequentially; a failure inside one campaign never halts the others.
// Only the initial active-campaign query aborts the run.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if !r.opts.Enabled {
		r.logger.Info("dispatch: skipped, no webhook endpoint configured")
		return Result{Message: DisabledMessage}, nil
	}

	if r.opts.Lease != nil {
		acquired, err := r.opts.Lease.Acquire(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("dispatch: acquire run lease: %w", err)
		}
		if !acquired {
			return Result{}, fmt.Errorf("%w: dispatch run already in progress", apperrors.ErrConflict)
		}
		defer func() {
			if err := r.opts.Lease.Release(ctx); err != nil {
				r.logger.Warn("dispatch: release run lease", zap.Error(err))
			}
		}()
	}

	tracer := otel.Tracer("outbound.dispatch")
	sctx, span := tracer.Start(ctx, "dispatch.run")
	defer span.End()

	campaigns, err := r.campaigns.ListActive(sctx)
	if err != nil {
		span.RecordError(err)
		return Result{}, fmt.Errorf("dispatch: list active campaigns: %w", err)
	}
	span.SetAttributes(attribute.Int("campaign.count", len(campaigns)))
	r.logger.Info("dispatch: run started", zap.Int("campaigns", len(campaigns)))

	processed := 0
	for _, campaign := range campaigns {
		if sctx.Err() != nil {
			break
		}
		processed += r.processCampaign(sctx, tracer, campaign)
	}

	r.logger.Info("dispatch: run finished", zap.Int("processed", processed))
	return Result{Processed: processed}, nil
}

// processCampaign drains one bounded batch for the campaign and returns
// the number of delivered entries. All failures are contained here.
func (r *Runner) processCampaign(ctx context.Context, tracer trace.Tracer, campaign *domain.Campaign) int {
	channel := compose.DetectChannel(campaign.Description)
	if channel == domain.ChannelNone {
		r.logger.Debug("dispatch: campaign has no channel marker",
			zap.String("campaign_id", campaign.ID.String()))
		return 0
	}

	cctx, span := tracer.Start(ctx, "dispatch.campaign", trace.WithAttributes(
		attribute.String("campaign.id", campaign.ID.String()),
		attribute.String("campaign.channel", string(channel)),
	))
	defer span.End()

	// Freshness nudge. Materialization is idempotent and owned by the
	// storage layer; its failure is indistinguishable from "no new
	// entries" here.
	if err := r.queue.Materialize(cctx, campaign.ID); err != nil {
		r.logger.Warn("dispatch: materialize queue",
			zap.Error(err), zap.String("campaign_id", campaign.ID.String()))
	}

	batch, err := r.queue.PendingBatch(cctx, campaign.ID, r.opts.BatchSize)
	if err != nil {
		span.RecordError(err)
		r.logger.Error("dispatch: read pending batch",
			zap.Error(err), zap.String("campaign_id", campaign.ID.String()))
		return 0
	}
	if len(batch) == 0 {
		return 0
	}
	span.SetAttributes(attribute.Int("batch.size", len(batch)))

	contacts, err := r.contacts.GetByIDs(cctx, contactIDs(batch))
	if err != nil {
		span.RecordError(err)
		r.logger.Error("dispatch: resolve contacts",
			zap.Error(err), zap.String("campaign_id", campaign.ID.String()))
		return 0
	}

	msg := compose.Build(campaign.Description)
	pacer := r.pacers()

	delivered := 0
	for _, entry := range batch {
		if err := pacer.Wait(cctx); err != nil {
			return delivered
		}

		outcome := r.deliverer.Deliver(cctx, campaign, channel, entry, contacts[entry.ContactID], msg)
		r.record(cctx, channel, entry, outcome)
		if outcome.Delivered() {
			delivered++
		} else {
			r.logger.Info("dispatch: delivery failed",
				zap.String("entry_id", entry.ID.String()),
				zap.String("outcome", string(outcome.Kind)))
		}
	}

	return delivered
}

// record persists the entry's terminal state and emits the outcome
// event. Both writes are best-effort: a persistence failure leaves the
// entry pending for a later invocation.
func (r *Runner) record(ctx context.Context, channel domain.Channel, entry *domain.QueueEntry, outcome delivery.Outcome) {
	var err error
	if outcome.Delivered() {
		err = r.queue.MarkSent(ctx, entry.ID, time.Now().UTC())
	} else {
		err = r.queue.MarkFailed(ctx, entry.ID, delivery.Truncate(outcome.Detail))
	}
	if err != nil {
		r.logger.Warn("dispatch: record status",
			zap.Error(err), zap.String("entry_id", entry.ID.String()))
	}

	if r.opts.Publisher == nil {
		return
	}
	event := events.OutcomeMessage{
		EntryID:    entry.ID,
		CampaignID: entry.CampaignID,
		ContactID:  entry.ContactID,
		Channel:    channel,
		Outcome:    outcome.Kind,
		Error:      outcome.Detail,
		OccurredAt: time.Now().UTC(),
	}
	if err := r.opts.Publisher.Publish(ctx, event); err != nil {
		r.logger.Warn("dispatch: publish outcome",
			zap.Error(err), zap.String("entry_id", entry.ID.String()))
	}
}

func contactIDs(batch []*domain.QueueEntry) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(batch))
	ids := make([]uuid.UUID, 0, len(batch))
	for _, entry := range batch {
		if _, ok := seen[entry.ContactID]; ok {
			continue
		}
		seen[entry.ContactID] = struct{}{}
		ids = append(ids, entry.ContactID)
	}
	return ids
}
