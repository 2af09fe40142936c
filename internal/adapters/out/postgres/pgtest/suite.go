// Package pgtest runs repository and end-to-end tests against a throwaway
// PostgreSQL container with the real schema applied.
package pgtest

import (
	"context"
	"time"

	"tradeflow/internal/adapters/out/postgres/migrations"
	"tradeflow/internal/adapters/out/postgres/orderrepo"
	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// tables lists every table in dependency-safe truncate order.
const tables = "audit_log, shipment_events, shipments, memberships, membership_invoices, " +
	"payment_transactions, order_disputes, order_status_log, order_items, orders"

// Suite is embedded by integration suites. Each test starts with empty tables.
type Suite struct {
	suite.Suite
	container *postgres.PostgresContainer
	DB        *gorm.DB
}

func (s *Suite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)
	s.DB = db

	s.Require().NoError(migrations.Up(db))
}

func (s *Suite) SetupTest() {
	s.Require().NoError(s.DB.Exec("TRUNCATE TABLE " + tables).Error)
}

func (s *Suite) TearDownSuite() {
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(context.Background()))
	}
}

// NewOrder builds a proforma order with two lines: 2 x 50 at 10kg and
// 1 x 50 at 5kg with 0.5 cbm.
func (s *Suite) NewOrder(at time.Time) *order.Order {
	lines := make([]order.Item, 0, 2)
	for _, l := range []struct {
		qty, price, weight int64
		meta               map[string]any
	}{
		{2, 50, 10, nil},
		{1, 50, 5, map[string]any{order.MetadataVolumeCBM: 0.5}},
	} {
		item, err := order.NewItem(
			kernel.NewUUID(), "sku-1", "steel coil",
			decimal.NewFromInt(l.qty), decimal.NewFromInt(l.price), decimal.NewFromInt(l.weight),
			l.meta,
		)
		s.Require().NoError(err)
		lines = append(lines, item)
	}

	o, err := order.NewOrder(
		kernel.NewUUID(),
		order.Source{RequestID: "rfq-" + kernel.NewUUID().String(), BuyerID: "buyer-1", Currency: "USD"},
		"seller-1", "",
		lines,
		map[string]any{order.MetadataIncoterm: "CIF"},
		at,
	)
	s.Require().NoError(err)
	return o
}

// InsertOrder persists o outside of any unit of work.
func (s *Suite) InsertOrder(o *order.Order) {
	repo := orderrepo.NewGormOrderRepository(s.DB, noTracking{})
	s.Require().NoError(repo.Add(context.Background(), o))
}

type noTracking struct{}

func (noTracking) TrackAggregate(kernel.UUID, any) {}
