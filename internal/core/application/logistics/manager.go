// Package logistics books one shipment per order and keeps its tracking
// history as the order moves through shipping.
package logistics

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tradeflow/internal/core/domain/model/events"
	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/order"
	"tradeflow/internal/core/domain/model/shipment"
	"tradeflow/internal/core/ports"
	"tradeflow/internal/pkg/errs"

	"github.com/jaevor/go-nanoid"
)

const (
	bookingRefAlphabet = "0123456789ABCDEF"
	bookingRefLength   = 6

	shippedNote = "Order marked as shipped."
	closedNote  = "Order closed - shipment delivered."
)

type (
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	UnitOfWork interface {
		TxManager
		OrderRepository() ports.OrderRepository
		ShipmentRepository() ports.ShipmentRepository
	}

	UnitOfWorkFactory interface {
		Create() UnitOfWork
	}
)

// Manager owns shipment creation and tracking updates.
type Manager struct {
	uowFactory UnitOfWorkFactory
	newRef     func() string
	logger     *slog.Logger
}

// NewManager creates the shipment manager. It fails only if the booking
// reference generator cannot be built.
func NewManager(uowFactory UnitOfWorkFactory, logger *slog.Logger) (*Manager, error) {
	newRef, err := nanoid.CustomASCII(bookingRefAlphabet, bookingRefLength)
	if err != nil {
		return nil, err
	}
	return &Manager{
		uowFactory: uowFactory,
		newRef:     newRef,
		logger:     logger.With("component", "shipment_manager"),
	}, nil
}

// EnsureShipment returns the order's shipment, booking it first if none
// exists. Concurrent callers for one order all get the same shipment and
// only the caller whose insert won records the "created" event.
func (m *Manager) EnsureShipment(
	ctx context.Context,
	snapshot order.Snapshot,
	details shipment.Details,
	actor string,
) (*shipment.Shipment, error) {
	if snapshot.ID.IsZero() {
		return nil, errs.NewValueIsRequiredError("order reference")
	}

	existing, err := m.uowFactory.Create().ShipmentRepository().GetByOrder(ctx, snapshot.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, errs.ErrObjectNotFound) {
		return nil, err
	}

	items := snapshot.Items
	if len(items) == 0 {
		o, err := m.uowFactory.Create().OrderRepository().Get(ctx, snapshot.ID)
		if err != nil {
			return nil, err
		}
		items = o.Snapshot().Items
	}

	now := time.Now().UTC()
	candidate, err := shipment.NewShipment(
		kernel.NewUUID(),
		snapshot.ID,
		m.bookingRef(snapshot.ID),
		withOrderDefaults(details, snapshot),
		shipment.CalculateTotals(items),
		now,
	)
	if err != nil {
		return nil, err
	}

	uow := m.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.ShipmentRepository()
	inserted, err := repo.AddIfAbsent(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if inserted {
		event := shipment.NewEvent(candidate.ID(), shipment.EventCreated, "booking "+candidate.BookingRef(), actor, now)
		if err = repo.AppendEvent(ctx, event); err != nil {
			return nil, err
		}
	}

	stored, err := repo.GetByOrder(ctx, snapshot.ID)
	if err != nil {
		return nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	if inserted {
		m.logger.InfoContext(ctx, "Shipment booked",
			"order_id", snapshot.ID.String(), "shipment_id", stored.ID().String(), "booking_ref", stored.BookingRef())
	}
	return stored, nil
}

// UpdateTracking applies a partial update. An event is appended whenever a
// status is given, even an unchanged one, and whenever a field changed or a
// note was given.
func (m *Manager) UpdateTracking(
	ctx context.Context,
	shipmentID kernel.UUID,
	update shipment.TrackingUpdate,
	note, actor string,
) (*shipment.Shipment, error) {
	uow := m.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.ShipmentRepository()
	s, err := repo.Get(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	changed := s.ApplyTracking(update, now)
	if changed {
		if err = repo.Update(ctx, s); err != nil {
			return nil, err
		}
	}
	statusSet := update.Status != nil && strings.TrimSpace(*update.Status) != ""
	if changed || statusSet || note != "" {
		if err = repo.AppendEvent(ctx, shipment.NewEvent(s.ID(), update.EventName(), note, actor, now)); err != nil {
			return nil, err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Kinds lists the events Handle reacts to.
func (m *Manager) Kinds() []events.Kind {
	return []events.Kind{
		events.LogisticsBookingNeeded,
		events.LogisticsTrackingUpdate,
		events.OrderClosed,
	}
}

// Handle implements the dispatcher reactor contract.
func (m *Manager) Handle(ctx context.Context, ev events.Event) error {
	actor := ev.Context.Actor

	switch ev.Kind {
	case events.LogisticsBookingNeeded:
		_, err := m.EnsureShipment(ctx, ev.Order, shipment.Details{}, actor)
		return err

	case events.LogisticsTrackingUpdate:
		s, err := m.EnsureShipment(ctx, ev.Order, shipment.Details{}, actor)
		if err != nil {
			return err
		}
		status := shipment.StatusInTransit
		update := shipment.TrackingUpdate{Status: &status}
		if tn := ev.Order.MetadataString(order.MetadataTrackingNumber); tn != "" {
			update.TrackingNumber = &tn
		}
		_, err = m.UpdateTracking(ctx, s.ID(), update, shippedNote, actor)
		return err

	case events.OrderClosed:
		s, err := m.uowFactory.Create().ShipmentRepository().GetByOrder(ctx, ev.Order.ID)
		if errors.Is(err, errs.ErrObjectNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		status := shipment.StatusDelivered
		_, err = m.UpdateTracking(ctx, s.ID(), shipment.TrackingUpdate{Status: &status}, closedNote, actor)
		return err

	default:
		return nil
	}
}

func (m *Manager) bookingRef(orderID kernel.UUID) string {
	return "BK-" + orderID.Short() + "-" + m.newRef()
}

// withOrderDefaults fills incoterm and locations from order metadata.
func withOrderDefaults(details shipment.Details, snapshot order.Snapshot) shipment.Details {
	if details.Incoterm == "" {
		details.Incoterm = snapshot.MetadataString(order.MetadataIncoterm)
	}
	if details.PickupLocation == "" {
		details.PickupLocation = snapshot.MetadataString(order.MetadataPickupLocation)
	}
	if details.DeliveryLocation == "" {
		details.DeliveryLocation = snapshot.MetadataString(order.MetadataDeliveryLocation)
	}
	return details
}
