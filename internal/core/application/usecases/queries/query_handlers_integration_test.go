package queries_test

import (
	"context"
	"testing"
	"time"

	"tradeflow/internal/adapters/out/postgres"
	"tradeflow/internal/adapters/out/postgres/pgtest"
	"tradeflow/internal/core/application/usecases/queries"
	"tradeflow/internal/core/domain/model/dispute"
	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/order"
	"tradeflow/internal/core/domain/model/payment"
	"tradeflow/internal/core/domain/model/shipment"
	"tradeflow/internal/core/ports"
	"tradeflow/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

var base = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

type QueryHandlersTestSuite struct {
	pgtest.Suite
	uow ports.UnitOfWork
}

func (suite *QueryHandlersTestSuite) SetupTest() {
	suite.Suite.SetupTest()
	suite.uow = postgres.NewGormUnitOfWorkFactory(suite.DB).Create()
}

// seedOrder stores an order moved to shipped with one status-log row per step.
func (suite *QueryHandlersTestSuite) seedOrder(at time.Time) *order.Order {
	ctx := context.Background()
	o := suite.NewOrder(at)
	suite.Require().NoError(suite.uow.OrderRepository().Add(ctx, o))
	suite.Require().NoError(suite.uow.StatusLogRepository().Append(ctx,
		order.NewStatusLogEntry(o.ID(), order.Proforma, "Order created", "", at)))

	for i, target := range []order.Status{order.Confirmed, order.Financed, order.ReadyToShip, order.Shipped} {
		step := at.Add(time.Duration(i+1) * time.Minute)
		_, err := o.Transition(target, step)
		suite.Require().NoError(err)
		suite.Require().NoError(suite.uow.OrderRepository().Update(ctx, o))
		suite.Require().NoError(suite.uow.StatusLogRepository().Append(ctx,
			order.NewStatusLogEntry(o.ID(), target, "", "ops", step)))
	}
	return o
}

func (suite *QueryHandlersTestSuite) TestGetOrder() {
	ctx := context.Background()
	o := suite.seedOrder(base)
	d, err := dispute.NewDispute(kernel.NewUUID(), o.ID(), "buyer-1", "", "short shipment", nil, base.Add(time.Hour))
	suite.Require().NoError(err)
	suite.Require().NoError(suite.uow.DisputeRepository().Add(ctx, d))

	query, err := queries.NewGetOrderQuery(o.ID())
	suite.Require().NoError(err)
	view, err := queries.NewGetOrderQueryHandler(suite.DB).Handle(ctx, query)

	suite.Require().NoError(err)
	suite.True(view.ID.IsEqual(o.ID()))
	suite.Equal("shipped", view.Status)
	suite.Equal("in_transit", view.LogisticsStatus)
	suite.True(view.TotalAmount.Equal(decimal.NewFromInt(150)))
	suite.Equal(5, view.Version)
	suite.Equal("CIF", view.Metadata["incoterm"])
	suite.Require().NotNil(view.Milestones["shipped"])
	suite.Nil(view.Milestones["delivered"])
	suite.Require().Len(view.Items, 2)
	suite.True(view.Items[0].LineTotal.Equal(decimal.NewFromInt(100)))
	suite.Require().Len(view.History, 5)
	suite.Equal("proforma", view.History[0].Status)
	suite.Equal("shipped", view.History[4].Status)
	suite.Require().Len(view.Disputes, 1)
	suite.Equal("short shipment", view.Disputes[0].Reason)
	suite.Equal("open", view.Disputes[0].State)
}

func (suite *QueryHandlersTestSuite) TestGetOrder_NotFound() {
	query, err := queries.NewGetOrderQuery(kernel.NewUUID())
	suite.Require().NoError(err)

	_, err = queries.NewGetOrderQueryHandler(suite.DB).Handle(context.Background(), query)

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *QueryHandlersTestSuite) TestListOrders_NewestFirstWithStatusFilter() {
	ctx := context.Background()
	older := suite.seedOrder(base)
	newer := suite.NewOrder(base.Add(time.Hour))
	suite.Require().NoError(suite.uow.OrderRepository().Add(ctx, newer))
	handler := queries.NewListOrdersQueryHandler(suite.DB)

	query, err := queries.NewListOrdersQuery(0, "")
	suite.Require().NoError(err)
	all, err := handler.Handle(ctx, query)
	suite.Require().NoError(err)
	suite.Require().Len(all, 2)
	suite.True(all[0].ID.IsEqual(newer.ID()))
	suite.True(all[1].ID.IsEqual(older.ID()))

	query, err = queries.NewListOrdersQuery(10, "shipped")
	suite.Require().NoError(err)
	shipped, err := handler.Handle(ctx, query)
	suite.Require().NoError(err)
	suite.Require().Len(shipped, 1)
	suite.True(shipped[0].ID.IsEqual(older.ID()))

	query, err = queries.NewListOrdersQuery(1, "")
	suite.Require().NoError(err)
	page, err := handler.Handle(ctx, query)
	suite.Require().NoError(err)
	suite.Len(page, 1)
}

func (suite *QueryHandlersTestSuite) TestDisputeQueries() {
	ctx := context.Background()
	o := suite.seedOrder(base)
	d, err := dispute.NewDispute(kernel.NewUUID(), o.ID(), "seller-1", "seller", "unpaid", map[string]any{"doc": "x"}, base)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.uow.DisputeRepository().Add(ctx, d))
	handler := queries.NewDisputeQueryHandler(suite.DB)

	get, err := queries.NewGetDisputeQuery(d.ID())
	suite.Require().NoError(err)
	view, err := handler.Get(ctx, get)
	suite.Require().NoError(err)
	suite.Equal("seller", view.Role)
	suite.Equal("x", view.Evidence["doc"])
	suite.Nil(view.ClosedAt)

	missing, err := queries.NewGetDisputeQuery(kernel.NewUUID())
	suite.Require().NoError(err)
	_, err = handler.Get(ctx, missing)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)

	list, err := queries.NewListDisputesByOrderQuery(o.ID())
	suite.Require().NoError(err)
	views, err := handler.ListByOrder(ctx, list)
	suite.Require().NoError(err)
	suite.Len(views, 1)
}

func (suite *QueryHandlersTestSuite) TestPaymentQueries() {
	ctx := context.Background()
	first := suite.seedOrder(base)
	second := suite.seedOrder(base)
	repo := suite.uow.TransactionRepository()

	var lastID kernel.UUID
	for i, o := range []*order.Order{first, first, second} {
		tx, err := payment.NewTransaction(kernel.NewUUID(), o.ID(), payment.TypeEscrowHold, "held",
			o.Total(), "mock", "", nil, base.Add(time.Duration(i)*time.Minute))
		suite.Require().NoError(err)
		suite.Require().NoError(repo.Add(ctx, tx))
		lastID = tx.ID()
	}
	handler := queries.NewPaymentQueryHandler(suite.DB)

	all, err := queries.NewListPaymentsQuery(0, nil)
	suite.Require().NoError(err)
	views, err := handler.List(ctx, all)
	suite.Require().NoError(err)
	suite.Require().Len(views, 3)
	suite.True(views[0].ID.IsEqual(lastID), "newest first")
	suite.Empty(views[0].ProviderRef)

	firstID := first.ID()
	byOrder, err := queries.NewListPaymentsQuery(10, &firstID)
	suite.Require().NoError(err)
	views, err = handler.List(ctx, byOrder)
	suite.Require().NoError(err)
	suite.Len(views, 2)

	get, err := queries.NewGetTransactionQuery(lastID)
	suite.Require().NoError(err)
	view, err := handler.Get(ctx, get)
	suite.Require().NoError(err)
	suite.Equal("escrow_hold", view.Type)
	suite.True(view.Amount.Equal(decimal.NewFromInt(150)))

	missing, err := queries.NewGetTransactionQuery(kernel.NewUUID())
	suite.Require().NoError(err)
	_, err = handler.Get(ctx, missing)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *QueryHandlersTestSuite) TestListInvoices() {
	ctx := context.Background()
	for _, user := range []string{"u-1", "u-2", "u-1"} {
		invoice, err := payment.NewMembershipInvoice(kernel.NewUUID(), user, "gold", "", kernel.ZeroMoney("USD"), base)
		suite.Require().NoError(err)
		suite.Require().NoError(suite.uow.InvoiceRepository().Add(ctx, invoice))
	}
	handler := queries.NewPaymentQueryHandler(suite.DB)

	views, err := handler.ListInvoices(ctx, queries.NewListInvoicesQuery(0, "u-1"))
	suite.Require().NoError(err)
	suite.Require().Len(views, 2)
	suite.Equal("complimentary", views[0].Status)
	suite.Equal("gold", views[0].PlanLabel)

	views, err = handler.ListInvoices(ctx, queries.NewListInvoicesQuery(0, ""))
	suite.Require().NoError(err)
	suite.Len(views, 3)
}

func (suite *QueryHandlersTestSuite) TestShipmentQueries() {
	ctx := context.Background()
	o := suite.seedOrder(base)
	snapshot := o.Snapshot()
	s, err := shipment.NewShipment(kernel.NewUUID(), o.ID(), "BK-TEST-000001",
		shipment.Details{Carrier: "MSC"}, shipment.CalculateTotals(snapshot.Items), base)
	suite.Require().NoError(err)
	_, err = suite.uow.ShipmentRepository().AddIfAbsent(ctx, s)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.uow.ShipmentRepository().AppendEvent(ctx,
		shipment.NewEvent(s.ID(), shipment.EventCreated, "Shipment booked", "", base)))
	handler := queries.NewShipmentQueryHandler(suite.DB)

	byID, err := queries.NewGetShipmentQuery(s.ID())
	suite.Require().NoError(err)
	view, err := handler.Get(ctx, byID)
	suite.Require().NoError(err)
	suite.Equal("BK-TEST-000001", view.BookingRef)
	suite.Equal(2, view.Packages)
	suite.True(view.TotalWeight.Equal(decimal.NewFromInt(15)))
	suite.Equal("FOB", view.Incoterm)
	suite.Require().Len(view.Events, 1)
	suite.Equal("created", view.Events[0].Event)

	byOrder, err := queries.NewGetShipmentByOrderQuery(o.ID())
	suite.Require().NoError(err)
	view, err = handler.Get(ctx, byOrder)
	suite.Require().NoError(err)
	suite.True(view.ID.IsEqual(s.ID()))

	missing, err := queries.NewGetShipmentByOrderQuery(kernel.NewUUID())
	suite.Require().NoError(err)
	_, err = handler.Get(ctx, missing)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)

	list, err := queries.NewListShipmentsQuery(0, nil)
	suite.Require().NoError(err)
	views, err := handler.List(ctx, list)
	suite.Require().NoError(err)
	suite.Len(views, 1)
	suite.Empty(views[0].Events)
}

func TestQueryHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(QueryHandlersTestSuite))
}
