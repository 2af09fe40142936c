package http

import (
	"net/http"

	"tradeflow/internal/core/application/usecases/queries"
	"tradeflow/internal/core/domain/model/shipment"

	"github.com/labstack/echo/v4"
)

// GetShipment handles GET /api/v1/shipments/:id.
func (s *Server) GetShipment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	query, err := queries.NewGetShipmentQuery(id)
	if err != nil {
		return err
	}
	return s.shipment(c, query)
}

// GetShipmentByOrder handles GET /api/v1/orders/:id/shipment.
func (s *Server) GetShipmentByOrder(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	query, err := queries.NewGetShipmentByOrderQuery(id)
	if err != nil {
		return err
	}
	return s.shipment(c, query)
}

func (s *Server) shipment(c echo.Context, query queries.GetShipmentQuery) error {
	view, err := s.h.Shipments.Get(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, shipmentFromView(view))
}

// ListShipments handles GET /api/v1/shipments?order_id=&limit=.
func (s *Server) ListShipments(c echo.Context) error {
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	orderID, err := optionalID(c, "order_id")
	if err != nil {
		return err
	}
	query, err := queries.NewListShipmentsQuery(limit, orderID)
	if err != nil {
		return err
	}

	views, err := s.h.Shipments.List(c.Request().Context(), query)
	if err != nil {
		return err
	}
	out := make([]Shipment, 0, len(views))
	for _, v := range views {
		out = append(out, shipmentFromView(v))
	}
	return c.JSON(http.StatusOK, out)
}

// UpdateTracking handles PATCH /api/v1/shipments/:id/tracking.
func (s *Server) UpdateTracking(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req TrackingChange
	if err = c.Bind(&req); err != nil {
		return err
	}

	sh, err := s.h.Tracker.UpdateTracking(c.Request().Context(), id, shipment.TrackingUpdate{
		Status:         req.Status,
		TrackingNumber: req.TrackingNumber,
		Carrier:        req.Carrier,
		Metadata:       req.Metadata,
	}, req.Note, req.Actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, shipmentFromDomain(sh))
}
