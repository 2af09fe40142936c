package gateway_test

import (
	"context"
	"testing"

	"tradeflow/internal/adapters/out/gateway"
	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/ports"
	"tradeflow/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateway(t *testing.T, name string, settings gateway.Settings) ports.PaymentGateway {
	t.Helper()
	gw, err := gateway.New(name, settings)
	require.NoError(t, err)
	return gw
}

func TestNew_SelectsProvider(t *testing.T) {
	cases := map[string]string{
		"stripe":     "stripe",
		" Checkout ": "checkout",
		"worldfirst": "worldfirst",
		"mock":       "mock",
		"paypal":     "mock",
		"":           "mock",
	}
	for input, want := range cases {
		assert.Equal(t, want, newGateway(t, input, gateway.Settings{}).Name(), input)
	}
}

func TestSimulator_EscrowCalls(t *testing.T) {
	ctx := context.Background()
	orderID := kernel.NewUUID()
	amount, err := kernel.NewMoney(decimal.RequireFromString("150.004"), "usd")
	require.NoError(t, err)

	prefixes := map[string]string{"mock": "MOCK", "stripe": "STR", "checkout": "CHK", "worldfirst": "WF"}
	for name, prefix := range prefixes {
		t.Run(name, func(t *testing.T) {
			gw := newGateway(t, name, gateway.Settings{})

			hold, err := gw.Hold(ctx, orderID, amount, nil)
			require.NoError(t, err)
			assert.Equal(t, "held", hold.Status)
			assert.Regexp(t, `^`+prefix+`-`+orderID.Short()+`-[0-9A-F]{8}$`, hold.ProviderRef)
			assert.Equal(t, "150.00", hold.Amount.Amount().StringFixed(2))
			assert.Equal(t, "USD", hold.Amount.Currency())

			again, err := gw.Hold(ctx, orderID, amount, nil)
			require.NoError(t, err)
			assert.NotEqual(t, hold.ProviderRef, again.ProviderRef)

			release, err := gw.Release(ctx, orderID, hold.ProviderRef, nil)
			require.NoError(t, err)
			assert.Equal(t, "released", release.Status)

			refund, err := gw.Refund(ctx, orderID, hold.ProviderRef, amount, nil)
			require.NoError(t, err)
			assert.Equal(t, "refunded", refund.Status)
		})
	}
}

func TestCheckoutMembership(t *testing.T) {
	ctx := context.Background()
	amount, err := kernel.NewMoney(decimal.NewFromInt(99), "USD")
	require.NoError(t, err)
	checkout := ports.MembershipCheckout{InvoiceID: kernel.NewUUID(), UserID: "u-1", PlanSlug: "Pro Plan", Amount: amount}

	t.Run("worldfirst echoes partner id", func(t *testing.T) {
		gw := newGateway(t, "worldfirst", gateway.Settings{PartnerID: "P-77"})

		resp, err := gw.CheckoutMembership(ctx, checkout)

		require.NoError(t, err)
		assert.Equal(t, "requires_action", resp.Status)
		assert.Equal(t, "P-77", resp.Extra["partner_id"])
		assert.Contains(t, resp.CheckoutURL, "https://online.worldfirst.com/pay/proplan/wf-")
	})

	t.Run("mock points at public url", func(t *testing.T) {
		gw := newGateway(t, "mock", gateway.Settings{PublicURL: "https://expo.example/"})

		resp, err := gw.CheckoutMembership(ctx, checkout)

		require.NoError(t, err)
		assert.Equal(t, "https://expo.example/?mock-membership="+resp.ProviderRef, resp.CheckoutURL)
	})

	t.Run("stripe and checkout urls", func(t *testing.T) {
		resp, err := newGateway(t, "stripe", gateway.Settings{}).CheckoutMembership(ctx, checkout)
		require.NoError(t, err)
		assert.Contains(t, resp.CheckoutURL, "https://dashboard.stripe.com/test/checkout/sessions/str-")

		resp, err = newGateway(t, "checkout", gateway.Settings{}).CheckoutMembership(ctx, checkout)
		require.NoError(t, err)
		assert.Contains(t, resp.CheckoutURL, "https://portal.checkout.com/payments/chk-")
	})
}

func TestParseWebhook(t *testing.T) {
	ctx := context.Background()
	const secret = "whsec"

	t.Run("mock", func(t *testing.T) {
		hook, err := newGateway(t, "mock", gateway.Settings{}).
			ParseWebhook(ctx, []byte(`{"provider_ref":"MOCK-1","status":"Held"}`), "")

		require.NoError(t, err)
		assert.Equal(t, "MOCK-1", hook.ProviderRef)
		assert.Equal(t, "held", hook.Status)
		assert.Equal(t, "MOCK-1", hook.Payload["provider_ref"])
	})

	t.Run("status defaults to pending", func(t *testing.T) {
		hook, err := newGateway(t, "mock", gateway.Settings{}).
			ParseWebhook(ctx, []byte(`{"provider_ref":"MOCK-1"}`), "")

		require.NoError(t, err)
		assert.Equal(t, "pending", hook.Status)
	})

	t.Run("stripe verifies hmac", func(t *testing.T) {
		gw := newGateway(t, "stripe", gateway.Settings{WebhookSecret: secret})
		body := []byte(`{"data":{"object":{"id":"STR-9","status":"succeeded"}}}`)

		hook, err := gw.ParseWebhook(ctx, body, gateway.Sign(body, secret))
		require.NoError(t, err)
		assert.Equal(t, "STR-9", hook.ProviderRef)
		assert.Equal(t, "succeeded", hook.Status)

		_, err = gw.ParseWebhook(ctx, body, "deadbeef")
		require.ErrorIs(t, err, errs.ErrSignatureMismatch)
	})

	t.Run("stripe without secret skips verification", func(t *testing.T) {
		_, err := newGateway(t, "stripe", gateway.Settings{}).
			ParseWebhook(ctx, []byte(`{"data":{"object":{"id":"STR-9"}}}`), "")

		require.NoError(t, err)
	})

	t.Run("checkout compares auth token", func(t *testing.T) {
		gw := newGateway(t, "checkout", gateway.Settings{WebhookSecret: secret})

		hook, err := gw.ParseWebhook(ctx, []byte(`{"id":"CHK-1","status":"paid","auth_token":"whsec"}`), "")
		require.NoError(t, err)
		assert.Equal(t, "CHK-1", hook.ProviderRef)

		_, err = gw.ParseWebhook(ctx, []byte(`{"id":"CHK-1","status":"paid","auth_token":"other"}`), "")
		require.ErrorIs(t, err, errs.ErrSignatureMismatch)
	})

	t.Run("worldfirst reads reference", func(t *testing.T) {
		gw := newGateway(t, "worldfirst", gateway.Settings{WebhookSecret: secret})
		body := []byte(`{"reference":"WF-3","status":"completed"}`)

		hook, err := gw.ParseWebhook(ctx, body, gateway.Sign(body, secret))

		require.NoError(t, err)
		assert.Equal(t, "WF-3", hook.ProviderRef)
		assert.Equal(t, "completed", hook.Status)
	})

	t.Run("invalid payloads", func(t *testing.T) {
		gw := newGateway(t, "mock", gateway.Settings{})
		for _, body := range []string{`not json`, `[1,2]`, `null`, `{"status":"held"}`} {
			_, err := gw.ParseWebhook(ctx, []byte(body), "")
			require.ErrorIs(t, err, errs.ErrPayloadIsInvalid, body)
		}
	})
}
