package shipmentrepo_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tradeflow/internal/adapters/out/postgres/pgtest"
	"tradeflow/internal/adapters/out/postgres/shipmentrepo"
	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/order"
	"tradeflow/internal/core/domain/model/shipment"
	"tradeflow/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type noTracking struct{}

func (noTracking) TrackAggregate(kernel.UUID, any) {}

var bookedAt = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

type ShipmentRepositoryIntegrationTestSuite struct {
	pgtest.Suite
	repository *shipmentrepo.GormShipmentRepository
	order      *order.Order
}

func (suite *ShipmentRepositoryIntegrationTestSuite) SetupTest() {
	suite.Suite.SetupTest()
	suite.repository = shipmentrepo.NewGormShipmentRepository(suite.DB, noTracking{})
	suite.order = suite.NewOrder(bookedAt)
	suite.InsertOrder(suite.order)
}

func (suite *ShipmentRepositoryIntegrationTestSuite) newShipment(bookingRef string) *shipment.Shipment {
	snapshot := suite.order.Snapshot()
	s, err := shipment.NewShipment(kernel.NewUUID(), snapshot.ID, bookingRef,
		shipment.Details{Carrier: "Maersk", Incoterm: "cif", PickupLocation: "Shenzhen", DeliveryLocation: "Rotterdam"},
		shipment.CalculateTotals(snapshot.Items),
		bookedAt,
	)
	suite.Require().NoError(err)
	return s
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestAddIfAbsent_SecondInsertIsIgnored() {
	ctx := context.Background()

	inserted, err := suite.repository.AddIfAbsent(ctx, suite.newShipment("BK-1"))
	suite.Require().NoError(err)
	suite.True(inserted)

	inserted, err = suite.repository.AddIfAbsent(ctx, suite.newShipment("BK-2"))
	suite.Require().NoError(err)
	suite.False(inserted)

	got, err := suite.repository.GetByOrder(ctx, suite.order.ID())
	suite.Require().NoError(err)
	suite.Equal("BK-1", got.BookingRef())
	suite.Equal(shipment.StatusDraft, got.Status())
	suite.Equal(2, got.Totals().Packages)
	suite.True(got.Totals().TotalWeight.Equal(decimal.NewFromInt(15)))
	suite.True(got.Totals().VolumeCBM.Equal(decimal.RequireFromString("0.5")))
	suite.Equal("CIF", got.State().Incoterm)
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestAddIfAbsent_ConcurrentCallersCreateOne() {
	var (
		wg       sync.WaitGroup
		inserted atomic.Int32
	)
	for i := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := suite.repository.AddIfAbsent(context.Background(),
				suite.newShipment(fmt.Sprintf("BK-C%d", i)))
			suite.NoError(err)
			if ok {
				inserted.Add(1)
			}
		}()
	}
	wg.Wait()

	suite.Equal(int32(1), inserted.Load())
	var count int64
	suite.Require().NoError(suite.DB.Model(&shipmentrepo.ShipmentDTO{}).Count(&count).Error)
	suite.Equal(int64(1), count)
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestUpdateAndEvents() {
	ctx := context.Background()
	s := suite.newShipment("BK-3")
	_, err := suite.repository.AddIfAbsent(ctx, s)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.AppendEvent(ctx,
		shipment.NewEvent(s.ID(), shipment.EventCreated, "Shipment booked", "", bookedAt)))

	status := shipment.StatusInTransit
	tracking := "TRK-42"
	update := shipment.TrackingUpdate{Status: &status, TrackingNumber: &tracking}
	suite.True(s.ApplyTracking(update, bookedAt.Add(time.Hour)))
	suite.Require().NoError(suite.repository.Update(ctx, s))
	suite.Require().NoError(suite.repository.AppendEvent(ctx,
		shipment.NewEvent(s.ID(), update.EventName(), "", "carrier", bookedAt.Add(time.Hour))))

	got, err := suite.repository.Get(ctx, s.ID())
	suite.Require().NoError(err)
	suite.Equal(shipment.StatusInTransit, got.Status())
	suite.Equal("TRK-42", got.TrackingNumber())

	events, err := suite.repository.ListEvents(ctx, s.ID())
	suite.Require().NoError(err)
	suite.Require().Len(events, 2)
	suite.Equal(shipment.EventCreated, events[0].Name)
	suite.Equal("system", events[0].Actor)
	suite.Equal(shipment.StatusInTransit, events[1].Name)
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestGetByOrder_NotFound() {
	_, err := suite.repository.GetByOrder(context.Background(), kernel.NewUUID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func TestShipmentRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(ShipmentRepositoryIntegrationTestSuite))
}
