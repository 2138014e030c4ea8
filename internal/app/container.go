package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/acme/outbound-campaign-dispatch/internal/config"
	"github.com/acme/outbound-campaign-dispatch/internal/delivery"
	"github.com/acme/outbound-campaign-dispatch/internal/dispatch"
	"github.com/acme/outbound-campaign-dispatch/internal/events"
	"github.com/acme/outbound-campaign-dispatch/internal/infra/db"
	"github.com/acme/outbound-campaign-dispatch/internal/infra/redis"
	"github.com/acme/outbound-campaign-dispatch/internal/lease"
	"github.com/acme/outbound-campaign-dispatch/internal/pacing"
	"github.com/acme/outbound-campaign-dispatch/internal/repository"
	pgrepo "github.com/acme/outbound-campaign-dispatch/internal/repository/postgres"
	"github.com/acme/outbound-campaign-dispatch/pkg/logger"
)

// Container wires together shared infrastructure dependencies.
type Container struct {
	Config *config.Config
	Logger *logger.Logger

	Postgres *db.Postgres
	Redis    *redis.Client // nil: run lease disabled
	Kafka    *events.Kafka // nil: outcome events disabled

	// lazily initialised components
	components struct {
		once         sync.Once
		repositories *repositories
		publisher    *events.OutcomePublisher
		runner       *dispatch.Runner
	}
}

type repositories struct {
	Campaigns repository.CampaignRepository
	Queue     repository.QueueRepository
	Contacts  repository.ContactRepository
}

// Build constructs a container for the given configuration path.
func Build(ctx context.Context, configPath string) (*Container, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	lg, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, err
	}

	pg, err := db.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("bootstrap postgres: %w", err)
	}

	container := &Container{
		Config:   cfg,
		Logger:   lg,
		Postgres: pg,
	}

	if cfg.Redis.Address != "" {
		redisClient, err := redis.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("bootstrap redis: %w", err)
		}
		container.Redis = redisClient
	}

	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.OutcomeTopic != "" {
		kafka, err := events.NewKafka(cfg.Kafka)
		if err != nil {
			return nil, fmt.Errorf("bootstrap kafka: %w", err)
		}
		container.Kafka = kafka
	}

	return container, nil
}

func (c *Container) initComponents() {
	c.components.once.Do(func() {
		cfg := c.Config

		repos := &repositories{
			Campaigns: pgrepo.NewCampaignRepository(c.Postgres.DB()),
			Queue:     pgrepo.NewQueueRepository(c.Postgres.DB()),
			Contacts:  pgrepo.NewContactRepository(c.Postgres.DB()),
		}

		opts := dispatch.Options{
			BatchSize: cfg.Dispatch.BatchSize,
			Enabled:   cfg.Dispatch.WebhookURL != "",
		}

		if c.Redis != nil {
			opts.Lease = lease.New(c.Redis.Inner(), cfg.Dispatch.LeaseKey, cfg.Dispatch.LeaseTTL)
		}

		if c.Kafka != nil {
			publisher := events.NewOutcomePublisher(c.Kafka, cfg.Kafka.OutcomeTopic)
			c.components.publisher = publisher
			opts.Publisher = publisher
		}

		deliverer := delivery.NewClient(cfg.Dispatch.WebhookURL, cfg.Dispatch.DeliveryTimeout)

		c.components.repositories = repos
		c.components.runner = dispatch.NewRunner(
			repos.Campaigns,
			repos.Queue,
			repos.Contacts,
			deliverer,
			pacing.NewFactory(cfg.Dispatch.PacingInterval),
			opts,
			c.Logger,
		)
	})
}

// Repositories exposes initialized repositories.
func (c *Container) Repositories() *repositories {
	c.initComponents()
	return c.components.repositories
}

// Runner exposes the dispatch runner.
func (c *Container) Runner() *dispatch.Runner {
	c.initComponents()
	return c.components.runner
}

// Close releases all held resources.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.components.publisher != nil {
		if err := c.components.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("outcome publisher close: %w", err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if c.Postgres != nil {
		if err := c.Postgres.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres close: %w", err))
		}
	}
	if c.Logger != nil {
		c.Logger.Sync()
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
