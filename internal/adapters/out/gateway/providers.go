package gateway

import (
	"context"
	"net/url"
	"strings"

	"tradeflow/internal/core/ports"
	"tradeflow/internal/pkg/errs"
)

// Mock accepts any webhook shaped {provider_ref, status}.
type Mock struct {
	simulator
	publicURL string
}

func (m *Mock) CheckoutMembership(_ context.Context, checkout ports.MembershipCheckout) (ports.GatewayResponse, error) {
	resp, err := m.checkout(checkout)
	if err != nil {
		return resp, err
	}
	resp.CheckoutURL = m.publicURL + "/?mock-membership=" + url.QueryEscape(resp.ProviderRef)
	return resp, nil
}

func (m *Mock) ParseWebhook(_ context.Context, body []byte, _ string) (ports.Webhook, error) {
	payload, err := m.decode(body)
	if err != nil {
		return ports.Webhook{}, err
	}
	return m.webhook(payload, lookup(payload, "provider_ref"), lookup(payload, "status"))
}

// Stripe reads the event object and verifies an HMAC signature.
type Stripe struct {
	simulator
	secret string
}

func (s *Stripe) CheckoutMembership(_ context.Context, checkout ports.MembershipCheckout) (ports.GatewayResponse, error) {
	resp, err := s.checkout(checkout)
	if err != nil {
		return resp, err
	}
	resp.CheckoutURL = "https://dashboard.stripe.com/test/checkout/sessions/" + strings.ToLower(resp.ProviderRef)
	return resp, nil
}

func (s *Stripe) ParseWebhook(_ context.Context, body []byte, signature string) (ports.Webhook, error) {
	payload, err := s.decode(body)
	if err != nil {
		return ports.Webhook{}, err
	}
	if err = s.verifyHMAC(body, signature, s.secret); err != nil {
		return ports.Webhook{}, err
	}
	return s.webhook(payload, lookup(payload, "data", "object", "id"), lookup(payload, "data", "object", "status"))
}

// Checkout authenticates webhooks by a shared auth_token inside the body.
type Checkout struct {
	simulator
	token string
}

func (c *Checkout) CheckoutMembership(_ context.Context, checkout ports.MembershipCheckout) (ports.GatewayResponse, error) {
	resp, err := c.checkout(checkout)
	if err != nil {
		return resp, err
	}
	resp.CheckoutURL = "https://portal.checkout.com/payments/" + strings.ToLower(resp.ProviderRef)
	return resp, nil
}

func (c *Checkout) ParseWebhook(_ context.Context, body []byte, _ string) (ports.Webhook, error) {
	payload, err := c.decode(body)
	if err != nil {
		return ports.Webhook{}, err
	}
	if c.token != "" && lookup(payload, "auth_token") != c.token {
		return ports.Webhook{}, errs.NewSignatureMismatchError(c.name)
	}
	return c.webhook(payload, lookup(payload, "id"), lookup(payload, "status"))
}

// WorldFirst verifies an HMAC signature and echoes the partner id on checkout.
type WorldFirst struct {
	simulator
	secret    string
	partnerID string
}

func (w *WorldFirst) CheckoutMembership(_ context.Context, checkout ports.MembershipCheckout) (ports.GatewayResponse, error) {
	resp, err := w.checkout(checkout)
	if err != nil {
		return resp, err
	}
	plan := sanitizeKey(checkout.PlanSlug)
	if plan == "" {
		plan = "membership"
	}
	resp.CheckoutURL = "https://online.worldfirst.com/pay/" + plan + "/" + strings.ToLower(resp.ProviderRef)
	resp.Extra["partner_id"] = w.partnerID
	return resp, nil
}

func (w *WorldFirst) ParseWebhook(_ context.Context, body []byte, signature string) (ports.Webhook, error) {
	payload, err := w.decode(body)
	if err != nil {
		return ports.Webhook{}, err
	}
	if err = w.verifyHMAC(body, signature, w.secret); err != nil {
		return ports.Webhook{}, err
	}
	return w.webhook(payload, lookup(payload, "reference"), lookup(payload, "status"))
}
