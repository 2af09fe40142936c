package http

import (
	"net/http"
	"strconv"
	"strings"

	"tradeflow/internal/core/application/usecases/commands"
	"tradeflow/internal/core/application/usecases/queries"
	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/order"
	"tradeflow/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(c echo.Context) error {
	var req NewOrder
	if err := c.Bind(&req); err != nil {
		return err
	}

	lines := make([]commands.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, commands.OrderLine(item))
	}

	actor := req.Actor
	if actor == "" {
		actor = req.BuyerID
	}
	cmd, err := commands.NewCreateOrderCommand(
		kernel.NewUUID(),
		order.Source{
			RequestID:      req.RequestID,
			BuyerID:        req.BuyerID,
			Currency:       req.Currency,
			MembershipTier: req.MembershipTier,
		},
		req.SellerID, req.Currency, lines, req.Metadata, actor,
	)
	if err != nil {
		return err
	}

	snapshot, err := s.h.CreateOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, orderFromSnapshot(snapshot))
}

// ListOrders handles GET /api/v1/orders?limit=&status=.
func (s *Server) ListOrders(c echo.Context) error {
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	query, err := queries.NewListOrdersQuery(limit, c.QueryParam("status"))
	if err != nil {
		return err
	}

	orders, err := s.h.ListOrders.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderFromSummary(o))
	}
	return c.JSON(http.StatusOK, out)
}

// GetOrder handles GET /api/v1/orders/:id.
func (s *Server) GetOrder(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	query, err := queries.NewGetOrderQuery(id)
	if err != nil {
		return err
	}

	view, err := s.h.GetOrder.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orderFromView(view))
}

// TransitionStatus handles POST /api/v1/orders/:id/status.
func (s *Server) TransitionStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req StatusChange
	if err = c.Bind(&req); err != nil {
		return err
	}

	cmd, err := commands.NewTransitionStatusCommand(id, req.Status, req.Note, req.Actor, commands.SourceAPI)
	if err != nil {
		return err
	}
	result, err := s.h.TransitionStatus.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transitionFromResult(result))
}

// OpenDispute handles POST /api/v1/orders/:id/disputes.
func (s *Server) OpenDispute(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req NewDispute
	if err = c.Bind(&req); err != nil {
		return err
	}

	cmd, err := commands.NewOpenDisputeCommand(id, req.OpenedBy, req.Role, req.Reason, req.Evidence)
	if err != nil {
		return err
	}
	result, err := s.h.OpenDispute.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}

	out := transitionFromResult(result.TransitionResult)
	out.DisputeID = result.DisputeID.String()
	return c.JSON(http.StatusCreated, out)
}

// ListDisputes handles GET /api/v1/orders/:id/disputes.
func (s *Server) ListDisputes(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	query, err := queries.NewListDisputesByOrderQuery(id)
	if err != nil {
		return err
	}

	views, err := s.h.Disputes.ListByOrder(c.Request().Context(), query)
	if err != nil {
		return err
	}
	out := make([]Dispute, 0, len(views))
	for _, v := range views {
		out = append(out, disputeFromView(v))
	}
	return c.JSON(http.StatusOK, out)
}

// GetDispute handles GET /api/v1/disputes/:id.
func (s *Server) GetDispute(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	query, err := queries.NewGetDisputeQuery(id)
	if err != nil {
		return err
	}

	view, err := s.h.Disputes.Get(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, disputeFromView(view))
}

// ResolveDispute handles POST /api/v1/disputes/:id/resolve.
func (s *Server) ResolveDispute(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req DisputeResolution
	if err = c.Bind(&req); err != nil {
		return err
	}

	cmd, err := commands.NewResolveDisputeCommand(id, req.Outcome, req.Resolution, req.Actor)
	if err != nil {
		return err
	}
	result, err := s.h.ResolveDispute.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transitionFromResult(result))
}

func pathID(c echo.Context) (kernel.UUID, error) {
	return kernel.UUIDFromString(c.Param("id"))
}

// optionalID parses an id query parameter; absent is nil.
func optionalID(c echo.Context, name string) (*kernel.UUID, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	id, err := kernel.UUIDFromString(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func queryLimit(c echo.Context) (int, error) {
	raw := strings.TrimSpace(c.QueryParam("limit"))
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.NewValueIsInvalidErrorWithCause("limit", err)
	}
	return limit, nil
}
