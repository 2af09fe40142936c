package ledger_test

import (
	"context"
	"testing"
	"time"

	"tradeflow/internal/core/application/ledger"
	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/order"
	"tradeflow/internal/core/domain/model/payment"
	"tradeflow/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type MockGateway struct{ mock.Mock }

func (m *MockGateway) Name() string {
	return "mock"
}

func (m *MockGateway) Hold(ctx context.Context, orderID kernel.UUID, amount kernel.Money, metadata map[string]any) (ports.GatewayResponse, error) {
	args := m.Called(ctx, orderID, amount, metadata)
	return args.Get(0).(ports.GatewayResponse), args.Error(1)
}

func (m *MockGateway) Release(ctx context.Context, orderID kernel.UUID, providerRef string, metadata map[string]any) (ports.GatewayResponse, error) {
	args := m.Called(ctx, orderID, providerRef, metadata)
	return args.Get(0).(ports.GatewayResponse), args.Error(1)
}

func (m *MockGateway) Refund(ctx context.Context, orderID kernel.UUID, providerRef string, amount kernel.Money, metadata map[string]any) (ports.GatewayResponse, error) {
	args := m.Called(ctx, orderID, providerRef, amount, metadata)
	return args.Get(0).(ports.GatewayResponse), args.Error(1)
}

func (m *MockGateway) CheckoutMembership(ctx context.Context, checkout ports.MembershipCheckout) (ports.GatewayResponse, error) {
	args := m.Called(ctx, checkout)
	return args.Get(0).(ports.GatewayResponse), args.Error(1)
}

func (m *MockGateway) ParseWebhook(ctx context.Context, body []byte, signature string) (ports.Webhook, error) {
	args := m.Called(ctx, body, signature)
	return args.Get(0).(ports.Webhook), args.Error(1)
}

type MockTransactionRepository struct{ mock.Mock }

func (m *MockTransactionRepository) Add(ctx context.Context, tx *payment.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) Update(ctx context.Context, tx *payment.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) Get(ctx context.Context, id kernel.UUID) (*payment.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByProviderRef(ctx context.Context, providerRef string) (*payment.Transaction, error) {
	args := m.Called(ctx, providerRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListByOrder(ctx context.Context, orderID kernel.UUID, kind payment.Type) ([]*payment.Transaction, error) {
	args := m.Called(ctx, orderID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payment.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ApplyWebhook(ctx context.Context, update ports.WebhookUpdate) (*payment.Transaction, bool, error) {
	args := m.Called(ctx, update)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*payment.Transaction), args.Bool(1), args.Error(2)
}

type MockInvoiceRepository struct{ mock.Mock }

func (m *MockInvoiceRepository) Add(ctx context.Context, invoice *payment.MembershipInvoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Update(ctx context.Context, invoice *payment.MembershipInvoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Get(ctx context.Context, id kernel.UUID) (*payment.MembershipInvoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.MembershipInvoice), args.Error(1)
}

func (m *MockInvoiceRepository) GetByProviderRef(ctx context.Context, providerRef string) (*payment.MembershipInvoice, error) {
	args := m.Called(ctx, providerRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.MembershipInvoice), args.Error(1)
}

func (m *MockInvoiceRepository) ApplyWebhook(ctx context.Context, update ports.WebhookUpdate) (*payment.MembershipInvoice, bool, error) {
	args := m.Called(ctx, update)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*payment.MembershipInvoice), args.Bool(1), args.Error(2)
}

type MockActivator struct{ mock.Mock }

func (m *MockActivator) Activate(ctx context.Context, userID, planSlug string, at time.Time) error {
	args := m.Called(ctx, userID, planSlug, at)
	return args.Error(0)
}

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

func (m *MockUoW) TransactionRepository() ports.TransactionRepository {
	args := m.Called()
	return args.Get(0).(ports.TransactionRepository)
}

func (m *MockUoW) InvoiceRepository() ports.InvoiceRepository {
	args := m.Called()
	return args.Get(0).(ports.InvoiceRepository)
}

func (m *MockUoW) MembershipActivator() ports.MembershipActivator {
	args := m.Called()
	return args.Get(0).(ports.MembershipActivator)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() ledger.UnitOfWork {
	args := m.Called()
	return args.Get(0).(ledger.UnitOfWork)
}

type recordingObserver struct {
	outcomes []string
}

func (r *recordingObserver) ObserveWebhook(_, outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}

// fixture shares one MockUoW across every Create call.
type fixture struct {
	uow       *MockUoW
	factory   *MockUoWFactory
	gateway   *MockGateway
	txs       *MockTransactionRepository
	invoices  *MockInvoiceRepository
	activator *MockActivator
	orders    *MockOrderRepository
	observer  *recordingObserver
}

func newFixture() *fixture {
	f := &fixture{
		uow:       new(MockUoW),
		factory:   new(MockUoWFactory),
		gateway:   new(MockGateway),
		txs:       new(MockTransactionRepository),
		invoices:  new(MockInvoiceRepository),
		activator: new(MockActivator),
		orders:    new(MockOrderRepository),
		observer:  &recordingObserver{},
	}
	f.factory.On("Create").Return(f.uow).Maybe()
	f.uow.On("TransactionRepository").Return(f.txs).Maybe()
	f.uow.On("InvoiceRepository").Return(f.invoices).Maybe()
	f.uow.On("MembershipActivator").Return(f.activator).Maybe()
	f.uow.On("OrderRepository").Return(f.orders).Maybe()
	f.uow.On("Rollback", mock.Anything).Return(nil).Maybe()
	return f
}

func (f *fixture) expectTx() {
	f.uow.On("Begin", mock.Anything).Return(nil)
	f.uow.On("Commit", mock.Anything).Return(nil)
}

func (f *fixture) assertExpectations(t *testing.T) {
	t.Helper()
	f.uow.AssertExpectations(t)
	f.gateway.AssertExpectations(t)
	f.txs.AssertExpectations(t)
	f.invoices.AssertExpectations(t)
	f.activator.AssertExpectations(t)
	f.orders.AssertExpectations(t)
}
