package commands_test

import (
	"testing"
	"time"

	"tradeflow/internal/core/application/usecases/commands"
	"tradeflow/internal/core/domain/model/audit"
	"tradeflow/internal/core/domain/model/dispute"
	"tradeflow/internal/core/domain/model/events"
	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/order"
	"tradeflow/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOpenDisputeCommandHandler_Handle_ShippedOrder(t *testing.T) {
	ctx := t.Context()
	f := newFixture()
	factory := new(MockDisputeUoWFactory)
	factory.On("Create").Return(f.uow).Once()

	id := kernel.NewUUID()
	cmd, err := commands.NewOpenDisputeCommand(id, "buyer-1", "", "3 pallets missing", map[string]any{"photos": 4})
	require.NoError(t, err)

	var dispatched []events.Event
	mock.InOrder(
		f.uow.On("Begin", ctx).Return(nil).Once(),
		f.orders.On("Get", ctx, id).Return(orderAt(t, id, order.Shipped), nil).Once(),
		f.orders.On("Update", ctx, mock.Anything).Return(nil).Once(),
		f.statusLog.On("Append", ctx, mock.MatchedBy(func(e order.StatusLogEntry) bool {
			return e.Status == order.Dispute
		})).Return(nil).Once(),
		f.audit.On("Record", ctx, mock.MatchedBy(func(e audit.Entry) bool {
			return e.Action == audit.ActionOrderStatus && e.Context["source"] == commands.SourceDispute
		})).Return(nil).Once(),
		f.disputes.On("Add", ctx, mock.MatchedBy(func(d *dispute.Dispute) bool {
			return d.ID().IsEqual(cmd.DisputeID()) && d.Role() == dispute.DefaultRole && d.State() == dispute.StateOpen
		})).Return(nil).Once(),
		f.audit.On("Record", ctx, mock.MatchedBy(func(e audit.Entry) bool {
			return e.Action == audit.ActionDisputeOpened && e.Context["dispute_id"] == cmd.DisputeID().String()
		})).Return(nil).Once(),
		f.uow.On("Commit", ctx).Return(nil).Once(),
		f.uow.On("Rollback", ctx).Return(nil).Once(),
		f.dispatcher.On("Dispatch", ctx, mock.Anything).Run(func(args mock.Arguments) {
			dispatched = args.Get(1).([]events.Event)
		}).Return(nil).Once(),
	)

	result, err := commands.NewOpenDisputeCommandHandler(factory, f.dispatcher).Handle(ctx, cmd)

	require.NoError(t, err)
	assert.True(t, result.DisputeID.IsEqual(cmd.DisputeID()))
	assert.True(t, result.Changed)
	assert.Equal(t, order.Dispute, result.Order.Status)
	assert.Equal(t, order.EscrowFrozen, result.Order.SubStates.Escrow)

	require.Equal(t, []events.Kind{events.OrderStatusChanged, events.DisputeRequired}, eventKinds(dispatched))
	require.NotNil(t, dispatched[1].Dispute)
	assert.Equal(t, "3 pallets missing", dispatched[1].Dispute.Reason)
	assert.Equal(t, 4, dispatched[1].Dispute.Evidence["photos"])
	f.assertExpectations(t)
}

func TestOpenDisputeCommandHandler_Handle_TerminalOrderStoresNothing(t *testing.T) {
	ctx := t.Context()
	f := newFixture()
	factory := new(MockDisputeUoWFactory)
	factory.On("Create").Return(f.uow).Once()

	id := kernel.NewUUID()
	cmd, err := commands.NewOpenDisputeCommand(id, "buyer-1", "seller", "late", nil)
	require.NoError(t, err)

	f.uow.On("Begin", ctx).Return(nil).Once()
	f.orders.On("Get", ctx, id).Return(orderAt(t, id, order.Cancelled), nil).Once()
	f.uow.On("Rollback", ctx).Return(nil).Once()

	_, err = commands.NewOpenDisputeCommandHandler(factory, f.dispatcher).Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrTransitionIsInvalid)
	f.disputes.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	f.uow.AssertNotCalled(t, "Commit", mock.Anything)
	f.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestOpenDisputeCommandHandler_Handle_SecondDisputeOnDisputedOrder(t *testing.T) {
	ctx := t.Context()
	f := newFixture()
	factory := new(MockDisputeUoWFactory)
	factory.On("Create").Return(f.uow).Once()

	id := kernel.NewUUID()
	cmd, err := commands.NewOpenDisputeCommand(id, "seller-1", "seller", "buyer refuses pickup", nil)
	require.NoError(t, err)

	f.uow.On("Begin", ctx).Return(nil).Once()
	f.orders.On("Get", ctx, id).Return(orderAt(t, id, order.Dispute), nil).Once()
	f.disputes.On("Add", ctx, mock.Anything).Return(nil).Once()
	f.audit.On("Record", ctx, mock.MatchedBy(func(e audit.Entry) bool {
		return e.Action == audit.ActionDisputeOpened
	})).Return(nil).Once()
	f.uow.On("Commit", ctx).Return(nil).Once()
	f.uow.On("Rollback", ctx).Return(nil).Once()

	result, err := commands.NewOpenDisputeCommandHandler(factory, f.dispatcher).Handle(ctx, cmd)

	require.NoError(t, err)
	assert.False(t, result.Changed)
	f.statusLog.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	f.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func openDispute(t *testing.T, orderID kernel.UUID) *dispute.Dispute {
	t.Helper()
	d, err := dispute.NewDispute(kernel.NewUUID(), orderID, "buyer-1", "", "wrong grade", nil, time.Now().UTC())
	require.NoError(t, err)
	return d
}

func TestResolveDisputeCommandHandler_Handle_Resolved(t *testing.T) {
	ctx := t.Context()
	f := newFixture()
	factory := new(MockDisputeUoWFactory)
	factory.On("Create").Return(f.uow).Once()

	orderID := kernel.NewUUID()
	d := openDispute(t, orderID)
	cmd, err := commands.NewResolveDisputeCommand(d.ID(), "resolved", "partial refund agreed", "ops")
	require.NoError(t, err)

	var dispatched []events.Event
	mock.InOrder(
		f.uow.On("Begin", ctx).Return(nil).Once(),
		f.disputes.On("Get", ctx, d.ID()).Return(d, nil).Once(),
		f.orders.On("Get", ctx, orderID).Return(orderAt(t, orderID, order.Dispute), nil).Once(),
		f.orders.On("Update", ctx, mock.Anything).Return(nil).Once(),
		f.statusLog.On("Append", ctx, mock.MatchedBy(func(e order.StatusLogEntry) bool {
			return e.Status == order.Resolved && e.Note == "partial refund agreed"
		})).Return(nil).Once(),
		f.audit.On("Record", ctx, mock.Anything).Return(nil).Once(),
		f.disputes.On("Update", ctx, mock.MatchedBy(func(d *dispute.Dispute) bool {
			return d.State() == dispute.StateResolved && d.ClosedAt() != nil
		})).Return(nil).Once(),
		f.audit.On("Record", ctx, mock.MatchedBy(func(e audit.Entry) bool {
			return e.Action == audit.ActionDisputeResolved && e.Context["outcome"] == "resolved"
		})).Return(nil).Once(),
		f.uow.On("Commit", ctx).Return(nil).Once(),
		f.uow.On("Rollback", ctx).Return(nil).Once(),
		f.dispatcher.On("Dispatch", ctx, mock.Anything).Run(func(args mock.Arguments) {
			dispatched = args.Get(1).([]events.Event)
		}).Return(nil).Once(),
	)

	result, err := commands.NewResolveDisputeCommandHandler(factory, f.dispatcher).Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, order.Resolved, result.Order.Status)
	assert.Equal(t, []events.Kind{events.OrderStatusChanged}, eventKinds(dispatched))
	f.assertExpectations(t)
}

func TestResolveDisputeCommandHandler_Handle_AlreadyResolved(t *testing.T) {
	ctx := t.Context()
	f := newFixture()
	factory := new(MockDisputeUoWFactory)
	factory.On("Create").Return(f.uow).Once()

	d := openDispute(t, kernel.NewUUID())
	require.NoError(t, d.Resolve(dispute.StateClosed, "", time.Now()))
	cmd, err := commands.NewResolveDisputeCommand(d.ID(), "resolved", "", "ops")
	require.NoError(t, err)

	f.uow.On("Begin", ctx).Return(nil).Once()
	f.disputes.On("Get", ctx, d.ID()).Return(d, nil).Once()
	f.uow.On("Rollback", ctx).Return(nil).Once()

	_, err = commands.NewResolveDisputeCommandHandler(factory, f.dispatcher).Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	f.orders.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestPruneAuditLogCommandHandler_Handle(t *testing.T) {
	ctx := t.Context()
	f := newFixture()
	factory := new(MockAuditUoWFactory)
	factory.On("Create").Return(f.uow).Once()

	cmd, err := commands.NewPruneAuditLogCommand(90 * 24 * time.Hour)
	require.NoError(t, err)

	before := time.Now().UTC().Add(-90 * 24 * time.Hour)
	f.uow.On("Begin", ctx).Return(nil).Once()
	f.audit.On("PruneBefore", ctx, mock.MatchedBy(func(cutoff time.Time) bool {
		return !cutoff.Before(before) && cutoff.Before(time.Now().UTC().Add(-89*24*time.Hour))
	})).Return(int64(12), nil).Once()
	f.uow.On("Commit", ctx).Return(nil).Once()
	f.uow.On("Rollback", ctx).Return(nil).Once()

	deleted, err := commands.NewPruneAuditLogCommandHandler(factory).Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, int64(12), deleted)
	f.assertExpectations(t)
}
