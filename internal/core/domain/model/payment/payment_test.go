package payment_test

import (
	"testing"
	"time"

	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/payment"
	"tradeflow/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 10, 8, 30, 0, 0, time.UTC)

func money(t *testing.T, amount string) kernel.Money {
	t.Helper()
	m, err := kernel.NewMoney(decimal.RequireFromString(amount), "usd")
	require.NoError(t, err)
	return m
}

func TestNewTransaction(t *testing.T) {
	t.Run("blank status defaults to pending", func(t *testing.T) {
		tx, err := payment.NewTransaction(kernel.NewUUID(), kernel.NewUUID(), payment.TypeEscrowHold,
			"", money(t, "150"), "mock", " MOCK-1 ", nil, now)

		require.NoError(t, err)
		assert.Equal(t, payment.StatusPending, tx.Status())
		assert.Equal(t, "MOCK-1", tx.ProviderRef())
		assert.NotNil(t, tx.Metadata())
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		_, err := payment.NewTransaction(kernel.NewUUID(), kernel.NewUUID(), payment.Type("wire"),
			"held", money(t, "1"), "mock", "", nil, now)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestTransaction_UpdateStatus(t *testing.T) {
	tx, err := payment.NewTransaction(kernel.NewUUID(), kernel.NewUUID(), payment.TypeEscrowRelease,
		"held", money(t, "10"), "mock", "", map[string]any{"a": 1}, now)
	require.NoError(t, err)

	assert.False(t, tx.UpdateStatus("HELD", nil, now.Add(time.Minute)))
	assert.Equal(t, now, tx.UpdatedAt())

	assert.True(t, tx.UpdateStatus("released", map[string]any{"b": 2}, now.Add(time.Hour)))
	assert.Equal(t, "released", tx.Status())
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, tx.Metadata())
	assert.Equal(t, now.Add(time.Hour), tx.UpdatedAt())
}

func TestMembershipInvoice(t *testing.T) {
	t.Run("zero amount is complimentary", func(t *testing.T) {
		inv, err := payment.NewMembershipInvoice(kernel.NewUUID(), "u-1", "Gold", "", kernel.ZeroMoney("usd"), now)

		require.NoError(t, err)
		assert.True(t, inv.IsComplimentary())
		assert.Equal(t, "gold", inv.PlanSlug())
		assert.Equal(t, "gold", inv.PlanLabel())
	})

	t.Run("user and plan required", func(t *testing.T) {
		_, err := payment.NewMembershipInvoice(kernel.NewUUID(), "", "", "", money(t, "10"), now)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
		assert.Contains(t, err.Error(), "user")
		assert.Contains(t, err.Error(), "plan")
	})

	t.Run("checkout then paid once", func(t *testing.T) {
		inv, err := payment.NewMembershipInvoice(kernel.NewUUID(), "u-1", "pro", "Pro", money(t, "99"), now)
		require.NoError(t, err)
		assert.Equal(t, payment.StatusPending, inv.Status())

		inv.ApplyCheckout(payment.CheckoutResult{
			Provider: "mock", ProviderRef: "MOCK-X", Status: "requires_action",
			CheckoutURL: "https://pay.example/MOCK-X", Extra: map[string]any{"partner_id": "p"},
		}, now)
		assert.Equal(t, "requires_action", inv.Status())
		assert.Equal(t, "MOCK-X", inv.ProviderRef())
		assert.Equal(t, "p", inv.State().Metadata["partner_id"])

		assert.True(t, inv.MarkPaid("paid", now.Add(time.Hour)))
		assert.False(t, inv.MarkPaid("active", now.Add(2*time.Hour)))
		require.NotNil(t, inv.PaidAt())
		assert.Equal(t, now.Add(time.Hour), *inv.PaidAt())
		assert.Equal(t, "paid", inv.Status())
	})
}

func TestIsSettledStatus(t *testing.T) {
	for _, s := range []string{"paid", "ACTIVE", " completed "} {
		assert.True(t, payment.IsSettledStatus(s), s)
	}
	for _, s := range []string{"", "pending", "requires_action", "failed"} {
		assert.False(t, payment.IsSettledStatus(s), s)
	}
}
