package commands_test

import (
	"context"
	"testing"
	"time"

	"tradeflow/internal/core/application/usecases/commands"
	"tradeflow/internal/core/domain/model/audit"
	"tradeflow/internal/core/domain/model/dispute"
	"tradeflow/internal/core/domain/model/events"
	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/order"
	"tradeflow/internal/core/ports"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

type MockStatusLogRepository struct{ mock.Mock }

func (m *MockStatusLogRepository) Append(ctx context.Context, entry order.StatusLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockStatusLogRepository) ListByOrder(ctx context.Context, orderID kernel.UUID) ([]order.StatusLogEntry, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.StatusLogEntry), args.Error(1)
}

type MockAuditRepository struct{ mock.Mock }

func (m *MockAuditRepository) Record(ctx context.Context, entry audit.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockDisputeRepository struct{ mock.Mock }

func (m *MockDisputeRepository) Add(ctx context.Context, d *dispute.Dispute) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDisputeRepository) Update(ctx context.Context, d *dispute.Dispute) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDisputeRepository) Get(ctx context.Context, id kernel.UUID) (*dispute.Dispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dispute.Dispute), args.Error(1)
}

func (m *MockDisputeRepository) ListByOrder(ctx context.Context, orderID kernel.UUID) ([]*dispute.Dispute, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dispute.Dispute), args.Error(1)
}

// MockUoW satisfies every unit-of-work shape the handlers ask for.
type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockUoW) StatusLogRepository() ports.StatusLogRepository {
	args := m.Called()
	return args.Get(0).(ports.StatusLogRepository)
}

func (m *MockUoW) AuditRepository() ports.AuditRepository {
	args := m.Called()
	return args.Get(0).(ports.AuditRepository)
}

func (m *MockUoW) DisputeRepository() ports.DisputeRepository {
	args := m.Called()
	return args.Get(0).(ports.DisputeRepository)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockDisputeUoWFactory struct{ mock.Mock }

func (m *MockDisputeUoWFactory) Create() commands.DisputeUoW {
	args := m.Called()
	return args.Get(0).(commands.DisputeUoW)
}

type MockAuditUoWFactory struct{ mock.Mock }

func (m *MockAuditUoWFactory) Create() commands.AuditUoW {
	args := m.Called()
	return args.Get(0).(commands.AuditUoW)
}

type MockDispatcher struct{ mock.Mock }

func (m *MockDispatcher) Dispatch(ctx context.Context, evs ...events.Event) []events.Failure {
	args := m.Called(ctx, evs)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]events.Failure)
}

// fixture wires one MockUoW with all of its repositories.
type fixture struct {
	uow        *MockUoW
	orders     *MockOrderRepository
	statusLog  *MockStatusLogRepository
	audit      *MockAuditRepository
	disputes   *MockDisputeRepository
	dispatcher *MockDispatcher
}

func newFixture() *fixture {
	f := &fixture{
		uow:        new(MockUoW),
		orders:     new(MockOrderRepository),
		statusLog:  new(MockStatusLogRepository),
		audit:      new(MockAuditRepository),
		disputes:   new(MockDisputeRepository),
		dispatcher: new(MockDispatcher),
	}
	f.uow.On("OrderRepository").Return(f.orders).Maybe()
	f.uow.On("StatusLogRepository").Return(f.statusLog).Maybe()
	f.uow.On("AuditRepository").Return(f.audit).Maybe()
	f.uow.On("DisputeRepository").Return(f.disputes).Maybe()
	return f
}

func (f *fixture) assertExpectations(t *testing.T) {
	t.Helper()
	f.uow.AssertExpectations(t)
	f.orders.AssertExpectations(t)
	f.statusLog.AssertExpectations(t)
	f.audit.AssertExpectations(t)
	f.disputes.AssertExpectations(t)
	f.dispatcher.AssertExpectations(t)
}

var happyPath = []order.Status{
	order.Confirmed, order.Financed, order.Production, order.ReadyToShip,
	order.Shipped, order.Delivered, order.Closed,
}

// orderAt builds a persisted-looking order that reached status through the
// lifecycle graph. Dispute is reached from shipped.
func orderAt(t *testing.T, id kernel.UUID, status order.Status) *order.Order {
	t.Helper()

	item, err := order.NewItem(kernel.NewUUID(), "p-1", "valve",
		decimal.NewFromInt(3), decimal.NewFromInt(50), decimal.NewFromInt(12), nil)
	require.NoError(t, err)

	o, err := order.NewOrder(id,
		order.Source{RequestID: "rfq-1", BuyerID: "buyer-1", Currency: "USD"},
		"seller-1", "", []order.Item{item}, nil, time.Now().UTC())
	require.NoError(t, err)

	at := time.Now().UTC()
	switch status {
	case order.Proforma:
	case order.Cancelled:
		_, err = o.Transition(order.Cancelled, at)
		require.NoError(t, err)
	case order.Dispute:
		for _, s := range happyPath[:5] {
			_, err = o.Transition(s, at)
			require.NoError(t, err)
		}
		_, err = o.Transition(order.Dispute, at)
		require.NoError(t, err)
	default:
		for _, s := range happyPath {
			_, err = o.Transition(s, at)
			require.NoError(t, err)
			if s == status {
				break
			}
		}
	}
	require.Equal(t, status, o.Status())

	// Hand out a copy so that retries read an untouched aggregate.
	restored, err := order.RestoreOrder(o.Snapshot())
	require.NoError(t, err)
	return restored
}

func eventKinds(evs []events.Event) []events.Kind {
	out := make([]events.Kind, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Kind)
	}
	return out
}
