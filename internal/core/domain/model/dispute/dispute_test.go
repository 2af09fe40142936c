package dispute_test

import (
	"testing"
	"time"

	"tradeflow/internal/core/domain/model/dispute"
	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/order"
	"tradeflow/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var openedAt = time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)

func TestNewDispute(t *testing.T) {
	t.Run("defaults role to buyer", func(t *testing.T) {
		d, err := dispute.NewDispute(kernel.NewUUID(), kernel.NewUUID(), "u-1", "", "damaged goods",
			map[string]any{"photos": 3}, openedAt)

		require.NoError(t, err)
		assert.Equal(t, "buyer", d.Role())
		assert.Equal(t, dispute.StateOpen, d.State())
		assert.Equal(t, 3, d.Evidence()["photos"])
		assert.Nil(t, d.ClosedAt())
	})

	t.Run("reason is required", func(t *testing.T) {
		_, err := dispute.NewDispute(kernel.NewUUID(), kernel.NewUUID(), "u-1", "seller", "  ", nil, openedAt)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})
}

func TestDispute_Resolve(t *testing.T) {
	newDispute := func(t *testing.T) *dispute.Dispute {
		d, err := dispute.NewDispute(kernel.NewUUID(), kernel.NewUUID(), "u-1", "seller", "late", nil, openedAt)
		require.NoError(t, err)
		return d
	}

	t.Run("resolves open dispute", func(t *testing.T) {
		d := newDispute(t)
		at := openedAt.Add(48 * time.Hour)

		require.NoError(t, d.Resolve(dispute.StateResolved, " refund issued ", at))

		assert.Equal(t, dispute.StateResolved, d.State())
		assert.Equal(t, "refund issued", d.Resolution())
		require.NotNil(t, d.ClosedAt())
		assert.Equal(t, at, *d.ClosedAt())
	})

	t.Run("cannot resolve twice", func(t *testing.T) {
		d := newDispute(t)
		require.NoError(t, d.Resolve(dispute.StateClosed, "", openedAt))

		err := d.Resolve(dispute.StateResolved, "", openedAt)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Equal(t, dispute.StateClosed, d.State())
	})

	t.Run("open is not an outcome", func(t *testing.T) {
		require.Error(t, newDispute(t).Resolve(dispute.StateOpen, "", openedAt))
	})
}

func TestParseOutcome(t *testing.T) {
	s, err := dispute.ParseOutcome(" Resolved")
	require.NoError(t, err)
	assert.Equal(t, order.Resolved, s.OrderStatus())

	s, err = dispute.ParseOutcome("closed")
	require.NoError(t, err)
	assert.Equal(t, order.Closed, s.OrderStatus())

	_, err = dispute.ParseOutcome("open")
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}
