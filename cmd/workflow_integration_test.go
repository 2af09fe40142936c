package cmd_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"tradeflow/cmd"
	apihttp "tradeflow/internal/adapters/in/http"
	lifecycle "tradeflow/internal/adapters/out/kafka"
	"tradeflow/internal/adapters/out/postgres/pgtest"
	"tradeflow/internal/core/domain/model/events"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/suite"
)

// eventLog captures what the lifecycle publisher would send to Kafka.
type eventLog struct {
	mu     sync.Mutex
	events []lifecycle.LifecycleEvent
}

func (l *eventLog) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range msgs {
		var ev lifecycle.LifecycleEvent
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			return err
		}
		l.events = append(l.events, ev)
	}
	return nil
}

func (l *eventLog) Close() error { return nil }

func (l *eventLog) count(orderID string, kind events.Kind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ev := range l.events {
		if ev.OrderID == orderID && ev.Event == string(kind) {
			n++
		}
	}
	return n
}

type WorkflowSuite struct {
	pgtest.Suite
	api    http.Handler
	events *eventLog
}

func TestWorkflowSuite(t *testing.T) {
	suite.Run(t, new(WorkflowSuite))
}

func (s *WorkflowSuite) SetupTest() {
	s.Suite.SetupTest()

	s.events = &eventLog{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := cmd.NewCompositionRoot(cmd.Config{
		PaymentProvider:    "mock",
		PublicURL:          "http://tradeflow.test",
		AuditRetentionDays: 90,
	}, s.DB, logger, cmd.WithEventWriter(s.events))
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = app.Close() })

	s.api = app.HTTPServer().Echo()
}

func (s *WorkflowSuite) call(method, path string, body any, out any) int {
	var payload io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		payload = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		s.Require().NoError(err)
		payload = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.api.ServeHTTP(rec, req)

	if out != nil && rec.Code < http.StatusBadRequest {
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func (s *WorkflowSuite) createOrder() apihttp.Order {
	var created apihttp.Order
	code := s.call(http.MethodPost, "/api/v1/orders", map[string]any{
		"request_id": "rfq-900",
		"buyer_id":   "buyer-1",
		"seller_id":  "seller-1",
		"currency":   "usd",
		"items": []map[string]any{
			{"product_id": "coil", "description": "steel coil", "quantity": 10, "unit_price": 5, "weight": 10},
			{"product_id": "bolt", "description": "bolts", "quantity": 5, "unit_price": 20, "weight": 5,
				"metadata": map[string]any{"volume_cbm": 0.5}},
		},
		"metadata": map[string]any{"incoterm": "CIF"},
	}, &created)
	s.Require().Equal(http.StatusCreated, code)
	return created
}

func (s *WorkflowSuite) move(orderID, status string) apihttp.Transition {
	var result apihttp.Transition
	code := s.call(http.MethodPost, "/api/v1/orders/"+orderID+"/status",
		map[string]any{"status": status, "actor": "ops"}, &result)
	s.Require().Equal(http.StatusOK, code, status)
	s.Require().Empty(result.ReactorFailures)
	return result
}

func (s *WorkflowSuite) payments(orderID string) []apihttp.Transaction {
	var out []apihttp.Transaction
	s.Require().Equal(http.StatusOK, s.call(http.MethodGet, "/api/v1/payments?order_id="+orderID, nil, &out))
	return out
}

func (s *WorkflowSuite) TestConfirmationHoldsTheOrderTotal() {
	created := s.createOrder()
	s.Equal("proforma", created.Status)
	s.Equal("150.00", created.Total)
	s.Equal("USD", created.Currency)

	result := s.move(created.ID, "confirmed")
	s.True(result.Changed)

	again := s.move(created.ID, "confirmed")
	s.False(again.Changed)

	txs := s.payments(created.ID)
	s.Require().Len(txs, 1)
	s.Equal("escrow_hold", txs[0].Type)
	s.Equal("held", txs[0].Status)
	s.Equal("150.00", txs[0].Amount)
	s.Equal("mock", txs[0].Provider)
	s.Equal(1, s.events.count(created.ID, events.PaymentDepositRequested))
}

func (s *WorkflowSuite) TestWebhookDeliveredTwiceIsAppliedOnce() {
	created := s.createOrder()
	s.move(created.ID, "confirmed")
	hold := s.payments(created.ID)[0]

	body := []byte(`{"provider_ref":"` + hold.ProviderRef + `","status":"funded"}`)
	var first, second apihttp.WebhookAck
	s.Require().Equal(http.StatusOK, s.call(http.MethodPost, "/api/v1/payments/webhook", body, &first))
	s.Require().Equal(http.StatusOK, s.call(http.MethodPost, "/api/v1/payments/webhook", body, &second))

	s.True(first.Applied)
	s.False(second.Applied)
	s.Equal(hold.ID, second.ID)

	txs := s.payments(created.ID)
	s.Require().Len(txs, 1)
	s.Equal("funded", txs[0].Status)

	unknown := []byte(`{"provider_ref":"MOCK-NOPE","status":"funded"}`)
	s.Equal(http.StatusNotFound, s.call(http.MethodPost, "/api/v1/payments/webhook", unknown, nil))
}

func (s *WorkflowSuite) TestReadyToShipBooksOneShipment() {
	created := s.createOrder()
	s.move(created.ID, "confirmed")
	s.move(created.ID, "financed")
	s.move(created.ID, "ready_to_ship")

	var first apihttp.Shipment
	s.Require().Equal(http.StatusOK, s.call(http.MethodGet, "/api/v1/orders/"+created.ID+"/shipment", nil, &first))
	s.Equal(2, first.Packages)
	s.Equal("15", first.TotalWeight)
	s.Equal("CIF", first.Incoterm)
	s.Equal("draft", first.Status)

	s.move(created.ID, "shipped")

	var listed []apihttp.Shipment
	s.Require().Equal(http.StatusOK, s.call(http.MethodGet, "/api/v1/shipments?order_id="+created.ID, nil, &listed))
	s.Require().Len(listed, 1)
	s.Equal(first.ID, listed[0].ID)
	s.Equal("in_transit", listed[0].Status)

	var tracked apihttp.Shipment
	s.Require().Equal(http.StatusOK, s.call(http.MethodPatch, "/api/v1/shipments/"+first.ID+"/tracking",
		map[string]any{"tracking_number": "MSKU7788", "note": "vessel departed", "actor": "carrier"}, &tracked))
	s.Equal("MSKU7788", tracked.TrackingNumber)

	var view apihttp.Shipment
	s.Require().Equal(http.StatusOK, s.call(http.MethodGet, "/api/v1/shipments/"+first.ID, nil, &view))
	s.Len(view.Events, 3)
}

func (s *WorkflowSuite) TestDisputeOnShippedOrder() {
	created := s.createOrder()
	for _, status := range []string{"confirmed", "financed", "ready_to_ship", "shipped"} {
		s.move(created.ID, status)
	}

	var opened apihttp.Transition
	s.Require().Equal(http.StatusCreated, s.call(http.MethodPost, "/api/v1/orders/"+created.ID+"/disputes",
		map[string]any{"opened_by": "buyer-1", "role": "buyer", "reason": "damaged goods",
			"evidence": map[string]any{"photos": 3}}, &opened))
	s.True(opened.Changed)
	s.Equal("dispute", opened.Order.Status)
	s.NotEmpty(opened.DisputeID)
	s.Equal(1, s.events.count(created.ID, events.DisputeRequired))

	var dispute apihttp.Dispute
	s.Require().Equal(http.StatusOK, s.call(http.MethodGet, "/api/v1/disputes/"+opened.DisputeID, nil, &dispute))
	s.Equal("open", dispute.State)
	s.Equal("damaged goods", dispute.Reason)

	holdOnDispute := 0
	for _, tx := range s.payments(created.ID) {
		if tx.Type == "escrow_hold_dispute" {
			holdOnDispute++
			s.Equal("on_hold", tx.Status)
		}
	}
	s.Equal(1, holdOnDispute)

	var resolved apihttp.Transition
	s.Require().Equal(http.StatusOK, s.call(http.MethodPost, "/api/v1/disputes/"+opened.DisputeID+"/resolve",
		map[string]any{"outcome": "resolved", "resolution": "partial credit", "actor": "arbiter"}, &resolved))
	s.Equal("resolved", resolved.Order.Status)

	var view apihttp.Order
	s.Require().Equal(http.StatusOK, s.call(http.MethodGet, "/api/v1/orders/"+created.ID, nil, &view))
	s.Equal("resolved", view.Status)
	s.Require().Len(view.Disputes, 1)
	s.Equal("resolved", view.Disputes[0].State)
	s.Len(view.Items, 2)
	s.NotEmpty(view.History)
}

func (s *WorkflowSuite) TestClosedOrderRejectsConfirmation() {
	created := s.createOrder()

	var opened apihttp.Transition
	s.Require().Equal(http.StatusCreated, s.call(http.MethodPost, "/api/v1/orders/"+created.ID+"/disputes",
		map[string]any{"opened_by": "seller-1", "role": "seller", "reason": "buyer unresponsive"}, &opened))
	s.Require().Equal(http.StatusOK, s.call(http.MethodPost, "/api/v1/disputes/"+opened.DisputeID+"/resolve",
		map[string]any{"outcome": "closed", "actor": "arbiter"}, nil))

	code := s.call(http.MethodPost, "/api/v1/orders/"+created.ID+"/status",
		map[string]any{"status": "confirmed", "actor": "ops"}, nil)
	s.Equal(http.StatusConflict, code)

	var view apihttp.Order
	s.Require().Equal(http.StatusOK, s.call(http.MethodGet, "/api/v1/orders/"+created.ID, nil, &view))
	s.Equal("closed", view.Status)
	s.Equal(1, s.events.count(created.ID, events.OrderClosed))
}

func (s *WorkflowSuite) TestRefundWithoutHeldFundsIsRejected() {
	created := s.createOrder()
	s.move(created.ID, "cancelled")

	code := s.call(http.MethodPost, "/api/v1/orders/"+created.ID+"/refund", nil, nil)

	s.Equal(http.StatusBadRequest, code)
	s.Empty(s.payments(created.ID))
}

func (s *WorkflowSuite) TestRefundIsIssuedOnce() {
	created := s.createOrder()
	s.move(created.ID, "confirmed")

	s.Equal(http.StatusBadRequest, s.call(http.MethodPost, "/api/v1/orders/"+created.ID+"/refund", nil, nil))

	s.move(created.ID, "cancelled")

	var refund apihttp.Transaction
	s.Require().Equal(http.StatusCreated, s.call(http.MethodPost, "/api/v1/orders/"+created.ID+"/refund", nil, &refund))
	s.Equal("escrow_refund", refund.Type)
	s.Equal("150.00", refund.Amount)

	s.Equal(http.StatusBadRequest, s.call(http.MethodPost, "/api/v1/orders/"+created.ID+"/refund", nil, nil))

	refunds := 0
	for _, tx := range s.payments(created.ID) {
		if tx.Type == "escrow_refund" {
			refunds++
		}
	}
	s.Equal(1, refunds)
}

func (s *WorkflowSuite) TestUnknownStatusIsBadRequest() {
	created := s.createOrder()

	code := s.call(http.MethodPost, "/api/v1/orders/"+created.ID+"/status",
		map[string]any{"status": "teleported"}, nil)

	s.Equal(http.StatusBadRequest, code)
}

func (s *WorkflowSuite) TestOverlongIdentifiersAreBadRequests() {
	code := s.call(http.MethodPost, "/api/v1/orders", map[string]any{
		"request_id": "rfq-901",
		"buyer_id":   strings.Repeat("b", 65),
		"seller_id":  "seller-1",
		"items":      []map[string]any{{"quantity": 1, "unit_price": 1}},
	}, nil)
	s.Equal(http.StatusBadRequest, code)

	created := s.createOrder()
	code = s.call(http.MethodPost, "/api/v1/orders/"+created.ID+"/status",
		map[string]any{"status": "confirmed", "actor": strings.Repeat("a", 65)}, nil)
	s.Equal(http.StatusBadRequest, code)
}

func (s *WorkflowSuite) TestMembershipCheckoutAndActivation() {
	var invoice apihttp.Invoice
	s.Require().Equal(http.StatusCreated, s.call(http.MethodPost, "/api/v1/memberships/invoices", map[string]any{
		"user_id": "buyer-1", "plan_slug": "gold", "plan_label": "Gold", "amount": "49.00", "currency": "USD",
	}, &invoice))
	s.Equal("requires_action", invoice.Status)
	s.Contains(invoice.CheckoutURL, "http://tradeflow.test/?mock-membership=")

	var ack apihttp.WebhookAck
	body := []byte(`{"provider_ref":"` + invoice.ProviderRef + `","status":"paid"}`)
	s.Require().Equal(http.StatusOK, s.call(http.MethodPost, "/api/v1/payments/webhook", body, &ack))
	s.True(ack.Applied)
	s.Equal("invoice", ack.Target)

	var plan string
	s.Require().NoError(s.DB.Raw("SELECT plan_slug FROM memberships WHERE user_id = ?", "buyer-1").Scan(&plan).Error)
	s.Equal("gold", plan)

	var listed []apihttp.Invoice
	s.Require().Equal(http.StatusOK, s.call(http.MethodGet, "/api/v1/memberships/invoices?user_id=buyer-1", nil, &listed))
	s.Require().Len(listed, 1)
	s.NotNil(listed[0].PaidAt)
}

func (s *WorkflowSuite) TestMetricsCountTransitions() {
	created := s.createOrder()
	s.move(created.ID, "confirmed")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.api.ServeHTTP(rec, req)

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `order_transitions_total{from="proforma",to="confirmed"} 1`)
}
