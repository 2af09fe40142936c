// Package http is the JSON API in front of the order workflow.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"tradeflow/internal/core/application/ledger"
	"tradeflow/internal/core/application/usecases/commands"
	"tradeflow/internal/core/application/usecases/queries"
	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/payment"
	"tradeflow/internal/core/domain/model/shipment"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

// SignatureHeader carries the provider signature of a webhook body.
const SignatureHeader = "X-Catlaq-Signature"

// PaymentLedger is what the API needs from the payment ledger.
type PaymentLedger interface {
	HandleWebhook(ctx context.Context, body []byte, signature string) (ledger.ReconcileResult, error)
	CreateMembershipInvoice(ctx context.Context, userID, planSlug, planLabel string, amount kernel.Money) (*payment.MembershipInvoice, error)
	Refund(ctx context.Context, orderID kernel.UUID) (*payment.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, id kernel.UUID, status string, metadata map[string]any) (*payment.Transaction, error)
}

// ShipmentTracker applies tracking updates.
type ShipmentTracker interface {
	UpdateTracking(ctx context.Context, shipmentID kernel.UUID, update shipment.TrackingUpdate, note, actor string) (*shipment.Shipment, error)
}

// Handlers groups everything the routes delegate to.
type Handlers struct {
	CreateOrder      commands.CreateOrderCommandHandler
	TransitionStatus commands.TransitionStatusCommandHandler
	OpenDispute      commands.OpenDisputeCommandHandler
	ResolveDispute   commands.ResolveDisputeCommandHandler

	GetOrder   queries.GetOrderQueryHandler
	ListOrders queries.ListOrdersQueryHandler
	Disputes   queries.DisputeQueryHandler
	Payments   queries.PaymentQueryHandler
	Shipments  queries.ShipmentQueryHandler

	Ledger  PaymentLedger
	Tracker ShipmentTracker
	Metrics http.Handler
}

// Server binds Handlers to routes.
type Server struct {
	h      Handlers
	logger *slog.Logger
}

// NewServer creates the API server. Routes are bound by Echo.
func NewServer(h Handlers, logger *slog.Logger) *Server {
	return &Server{h: h, logger: logger.With("component", "http")}
}

// Echo builds the router with logging, panic recovery and error mapping.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.ERROR)
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.LogAttrs(c.Request().Context(), slog.LevelInfo, "Request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	s.Register(e)
	return e
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	if s.h.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.h.Metrics))
	}

	v1 := e.Group("/api/v1")

	v1.POST("/orders", s.CreateOrder)
	v1.GET("/orders", s.ListOrders)
	v1.GET("/orders/:id", s.GetOrder)
	v1.POST("/orders/:id/status", s.TransitionStatus)
	v1.POST("/orders/:id/disputes", s.OpenDispute)
	v1.GET("/orders/:id/disputes", s.ListDisputes)
	v1.GET("/orders/:id/shipment", s.GetShipmentByOrder)
	v1.POST("/orders/:id/refund", s.Refund)

	v1.GET("/disputes/:id", s.GetDispute)
	v1.POST("/disputes/:id/resolve", s.ResolveDispute)

	v1.GET("/shipments", s.ListShipments)
	v1.GET("/shipments/:id", s.GetShipment)
	v1.PATCH("/shipments/:id/tracking", s.UpdateTracking)

	v1.GET("/payments", s.ListPayments)
	v1.GET("/payments/:id", s.GetPayment)
	v1.PATCH("/payments/:id", s.UpdatePaymentStatus)
	v1.POST("/payments/webhook", s.Webhook, middleware.BodyLimit(maxWebhookBody))

	v1.POST("/memberships/invoices", s.CreateMembershipInvoice)
	v1.GET("/memberships/invoices", s.ListInvoices)
}
