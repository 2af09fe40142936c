package cmd

import (
	"fmt"
	"log/slog"

	apihttp "tradeflow/internal/adapters/in/http"
	"tradeflow/internal/adapters/out/gateway"
	"tradeflow/internal/adapters/out/kafka"
	"tradeflow/internal/adapters/out/metrics"
	"tradeflow/internal/adapters/out/postgres"
	"tradeflow/internal/core/application/ledger"
	"tradeflow/internal/core/application/logistics"
	"tradeflow/internal/core/application/usecases/commands"
	"tradeflow/internal/core/application/usecases/queries"
	"tradeflow/internal/core/domain/model/events"
	"tradeflow/internal/core/domain/services"
	"tradeflow/internal/jobs"

	"gorm.io/gorm"
)

// Reactor names as they appear in logs and in reactor failure metrics.
const (
	reactorLedger    = "payment_ledger"
	reactorShipments = "shipment_manager"
	reactorMetrics   = "metrics"
	reactorPublisher = "lifecycle_publisher"
)

// Option adjusts a CompositionRoot before its reactors are registered.
type Option func(*CompositionRoot)

// WithEventWriter publishes lifecycle events through w instead of a Kafka
// writer built from the config.
func WithEventWriter(w kafka.MessageWriter) Option {
	return func(c *CompositionRoot) {
		c.publisher = kafka.NewLifecyclePublisherWithWriter(w, c.logger)
	}
}

type CompositionRoot struct {
	cfg        Config
	gormDB     *gorm.DB
	uowFactory postgres.GormUnitOfWorkFactory
	logger     *slog.Logger

	metrics    *metrics.Metrics
	dispatcher *services.EventDispatcher
	ledger     *ledger.Ledger
	shipments  *logistics.Manager
	publisher  *kafka.LifecyclePublisher
}

// NewCompositionRoot builds every service the process runs. The Kafka
// publisher is added only when brokers are configured or a writer is given.
func NewCompositionRoot(cfg Config, gormDB *gorm.DB, logger *slog.Logger, opts ...Option) (*CompositionRoot, error) {
	c := &CompositionRoot{
		cfg:        cfg,
		gormDB:     gormDB,
		uowFactory: *postgres.NewGormUnitOfWorkFactory(gormDB),
		logger:     logger,
		metrics:    metrics.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.publisher == nil && len(cfg.Brokers()) > 0 {
		c.publisher = kafka.NewLifecyclePublisher(cfg.Brokers(), cfg.KafkaOrderEventsTopic, logger)
	}

	gw, err := gateway.New(cfg.PaymentProvider, gateway.Settings{
		WebhookSecret: cfg.PaymentWebhookSecret,
		PartnerID:     cfg.WorldFirstPartnerID,
		PublicURL:     cfg.PublicURL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating payment gateway: %w", err)
	}

	var ledgerUoW ledger.UnitOfWorkFactory = FuncLedgerUoWFactory(func() ledger.UnitOfWork {
		return c.uowFactory.Create()
	})
	c.ledger = ledger.NewLedger(ledgerUoW, gw, logger, c.metrics)

	var shipmentUoW logistics.UnitOfWorkFactory = FuncShipmentUoWFactory(func() logistics.UnitOfWork {
		return c.uowFactory.Create()
	})
	if c.shipments, err = logistics.NewManager(shipmentUoW, logger); err != nil {
		return nil, fmt.Errorf("creating shipment manager: %w", err)
	}

	c.dispatcher = services.NewEventDispatcher(logger, c.metrics)
	for _, kind := range c.ledger.Kinds() {
		c.dispatcher.Register(kind, reactorLedger, c.ledger)
	}
	for _, kind := range c.shipments.Kinds() {
		c.dispatcher.Register(kind, reactorShipments, c.shipments)
	}
	c.dispatcher.Register(events.OrderStatusChanged, reactorMetrics, c.metrics)
	if c.publisher != nil {
		for _, kind := range events.Kinds() {
			c.dispatcher.Register(kind, reactorPublisher, c.publisher)
		}
	}

	return c, nil
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.orderUoWFactory())
}

func (c *CompositionRoot) CreateTransitionStatusCommandHandler() commands.TransitionStatusCommandHandler {
	return commands.NewTransitionStatusCommandHandler(c.orderUoWFactory(), c.dispatcher)
}

func (c *CompositionRoot) CreateOpenDisputeCommandHandler() commands.OpenDisputeCommandHandler {
	return commands.NewOpenDisputeCommandHandler(c.disputeUoWFactory(), c.dispatcher)
}

func (c *CompositionRoot) CreateResolveDisputeCommandHandler() commands.ResolveDisputeCommandHandler {
	return commands.NewResolveDisputeCommandHandler(c.disputeUoWFactory(), c.dispatcher)
}

func (c *CompositionRoot) CreatePruneAuditLogCommandHandler() commands.PruneAuditLogCommandHandler {
	var f commands.AuditUoWFactory = FuncAuditUoWFactory(func() commands.AuditUoW {
		return c.uowFactory.Create()
	})
	return commands.NewPruneAuditLogCommandHandler(f)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateListOrdersQueryHandler() queries.ListOrdersQueryHandler {
	return queries.NewListOrdersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) Ledger() *ledger.Ledger {
	return c.ledger
}

func (c *CompositionRoot) Shipments() *logistics.Manager {
	return c.shipments
}

func (c *CompositionRoot) Metrics() *metrics.Metrics {
	return c.metrics
}

// HTTPServer wires every route to its handler.
func (c *CompositionRoot) HTTPServer() *apihttp.Server {
	return apihttp.NewServer(apihttp.Handlers{
		CreateOrder:      c.CreateCreateOrderCommandHandler(),
		TransitionStatus: c.CreateTransitionStatusCommandHandler(),
		OpenDispute:      c.CreateOpenDisputeCommandHandler(),
		ResolveDispute:   c.CreateResolveDisputeCommandHandler(),
		GetOrder:         c.CreateGetOrderQueryHandler(),
		ListOrders:       c.CreateListOrdersQueryHandler(),
		Disputes:         queries.NewDisputeQueryHandler(c.gormDB),
		Payments:         queries.NewPaymentQueryHandler(c.gormDB),
		Shipments:        queries.NewShipmentQueryHandler(c.gormDB),
		Ledger:           c.ledger,
		Tracker:          c.shipments,
		Metrics:          c.metrics.Handler(),
	}, c.logger)
}

func (c *CompositionRoot) JobManager() *jobs.JobManager {
	return jobs.NewJobManager(c.CreatePruneAuditLogCommandHandler(), jobs.AuditRetention{
		Retention: c.cfg.AuditRetention(),
		Schedule:  c.cfg.AuditPruneSchedule,
	}, c.logger)
}

// Close flushes the event publisher.
func (c *CompositionRoot) Close() error {
	if c.publisher == nil {
		return nil
	}
	return c.publisher.Close()
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) disputeUoWFactory() commands.DisputeUoWFactory {
	return FuncDisputeUoWFactory(func() commands.DisputeUoW {
		return c.uowFactory.Create()
	})
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncDisputeUoWFactory func() commands.DisputeUoW

func (f FuncDisputeUoWFactory) Create() commands.DisputeUoW {
	return f()
}

type FuncAuditUoWFactory func() commands.AuditUoW

func (f FuncAuditUoWFactory) Create() commands.AuditUoW {
	return f()
}

type FuncLedgerUoWFactory func() ledger.UnitOfWork

func (f FuncLedgerUoWFactory) Create() ledger.UnitOfWork {
	return f()
}

type FuncShipmentUoWFactory func() logistics.UnitOfWork

func (f FuncShipmentUoWFactory) Create() logistics.UnitOfWork {
	return f()
}
