// Package gateway holds the escrow payment providers. All of them simulate
// the provider API locally and differ in reference prefix, checkout URL and
// webhook format.
package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/payment"
	"tradeflow/internal/core/ports"
	"tradeflow/internal/pkg/errs"

	"github.com/jaevor/go-nanoid"
)

const (
	refAlphabet = "0123456789ABCDEF"
	refLength   = 8
)

// Provider keys accepted by New.
const (
	ProviderMock       = "mock"
	ProviderStripe     = "stripe"
	ProviderCheckout   = "checkout"
	ProviderWorldFirst = "worldfirst"
)

type Settings struct {
	// WebhookSecret is the HMAC key (stripe, worldfirst) or the expected
	// auth_token (checkout). Empty disables verification.
	WebhookSecret string
	PartnerID     string
	// PublicURL is where mock checkout links point.
	PublicURL string
}

// New returns the provider registered under name. Unknown names fall back to mock.
func New(name string, settings Settings) (ports.PaymentGateway, error) {
	newRef, err := nanoid.CustomASCII(refAlphabet, refLength)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProviderStripe:
		return &Stripe{simulator: simulator{name: ProviderStripe, prefix: "STR", newRef: newRef}, secret: settings.WebhookSecret}, nil
	case ProviderCheckout:
		return &Checkout{simulator: simulator{name: ProviderCheckout, prefix: "CHK", newRef: newRef}, token: settings.WebhookSecret}, nil
	case ProviderWorldFirst:
		return &WorldFirst{
			simulator: simulator{name: ProviderWorldFirst, prefix: "WF", newRef: newRef},
			secret:    settings.WebhookSecret,
			partnerID: settings.PartnerID,
		}, nil
	default:
		publicURL := strings.TrimRight(settings.PublicURL, "/")
		if publicURL == "" {
			publicURL = "http://localhost:8080"
		}
		return &Mock{simulator: simulator{name: ProviderMock, prefix: "MOCK", newRef: newRef}, publicURL: publicURL}, nil
	}
}

// simulator answers escrow calls the way the provider sandbox would.
type simulator struct {
	name   string
	prefix string
	newRef func() string
}

func (s simulator) Name() string {
	return s.name
}

func (s simulator) Hold(_ context.Context, orderID kernel.UUID, amount kernel.Money, _ map[string]any) (ports.GatewayResponse, error) {
	return s.respond(payment.StatusHeld, orderID, amount)
}

func (s simulator) Release(_ context.Context, orderID kernel.UUID, _ string, _ map[string]any) (ports.GatewayResponse, error) {
	return s.respond(payment.StatusReleased, orderID, kernel.Money{})
}

func (s simulator) Refund(_ context.Context, orderID kernel.UUID, _ string, amount kernel.Money, _ map[string]any) (ports.GatewayResponse, error) {
	return s.respond(payment.StatusRefunded, orderID, amount)
}

func (s simulator) checkout(checkout ports.MembershipCheckout) (ports.GatewayResponse, error) {
	return s.respond(payment.StatusRequiresAction, checkout.InvoiceID, checkout.Amount)
}

func (s simulator) respond(status string, entity kernel.UUID, amount kernel.Money) (ports.GatewayResponse, error) {
	if entity.IsZero() {
		return ports.GatewayResponse{}, errs.NewValueIsRequiredError("entity id")
	}
	rounded, err := kernel.NewMoney(amount.Rounded(), amount.Currency())
	if err != nil {
		return ports.GatewayResponse{}, err
	}
	return ports.GatewayResponse{
		ProviderRef: fmt.Sprintf("%s-%s-%s", s.prefix, entity.Short(), s.newRef()),
		Status:      status,
		Amount:      rounded,
		Extra:       map[string]any{},
	}, nil
}

// decode parses a webhook body that must be a JSON object.
func (s simulator) decode(body []byte) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errs.NewPayloadIsInvalidError(s.name, err)
	}
	if payload == nil {
		return nil, errs.NewPayloadIsInvalidError(s.name, errors.New("body is not an object"))
	}
	return payload, nil
}

// webhook builds the normalized notification. A missing reference is
// rejected and a missing status means pending.
func (s simulator) webhook(payload map[string]any, ref, status string) (ports.Webhook, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ports.Webhook{}, errs.NewPayloadIsInvalidError(s.name, errors.New("provider reference is missing"))
	}
	status = sanitizeKey(status)
	if status == "" {
		status = payment.StatusPending
	}
	return ports.Webhook{ProviderRef: ref, Status: status, Payload: payload}, nil
}

// verifyHMAC compares signature with the hex HMAC-SHA256 of body in constant time.
func (s simulator) verifyHMAC(body []byte, signature, secret string) error {
	if secret == "" {
		return nil
	}
	if !hmac.Equal([]byte(Sign(body, secret)), []byte(strings.TrimSpace(signature))) {
		return errs.NewSignatureMismatchError(s.name)
	}
	return nil
}

// Sign returns the signature a provider would send for body.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// lookup walks nested objects and returns the string at path.
func lookup(payload map[string]any, path ...string) string {
	var cur any = payload
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = obj[key]
	}
	switch v := cur.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// sanitizeKey lower-cases and keeps only [a-z0-9_-].
func sanitizeKey(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
