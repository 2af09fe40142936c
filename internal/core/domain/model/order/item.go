package order

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

const (
	// MetadataVolumeCBM is the item metadata key read by logistics for cubic volume.
	MetadataVolumeCBM = "volume_cbm"

	// AmountScale is the number of decimal places stored for quantities,
	// prices, weights and totals.
	AmountScale = 4
)

// Item is an immutable order line. Its line total is fixed at creation.
type Item struct {
	id          kernel.UUID
	productID   string
	description string
	quantity    decimal.Decimal
	unitPrice   decimal.Decimal
	lineTotal   decimal.Decimal
	weight      decimal.Decimal
	metadata    map[string]any
}

// NewItem validates a line: quantity must be positive, unit price and weight
// must not be negative, and none may carry more than AmountScale decimal
// places. The line total is quantity × unit price rounded to AmountScale.
func NewItem(
	id kernel.UUID,
	productID, description string,
	quantity, unitPrice, weight decimal.Decimal,
	metadata map[string]any,
) (Item, error) {
	if err := id.Validate(); err != nil {
		return Item{}, err
	}

	var problems []error
	if !quantity.IsPositive() {
		problems = append(problems,
			errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%s is not greater than 0", quantity)))
	}
	if unitPrice.IsNegative() {
		problems = append(problems,
			errs.NewValueIsInvalidErrorWithCause("unit price", fmt.Errorf("%s is negative", unitPrice)))
	}
	if weight.IsNegative() {
		problems = append(problems,
			errs.NewValueIsInvalidErrorWithCause("weight", fmt.Errorf("%s is negative", weight)))
	}
	for _, field := range []struct {
		name  string
		value decimal.Decimal
	}{{"quantity", quantity}, {"unit price", unitPrice}, {"weight", weight}} {
		if !field.value.Equal(field.value.Round(AmountScale)) {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause(field.name,
				fmt.Errorf("%s has more than %d decimal places", field.value, AmountScale)))
		}
	}
	if err := errors.Join(problems...); err != nil {
		return Item{}, err
	}

	return Item{
		id:          id,
		productID:   strings.TrimSpace(productID),
		description: strings.TrimSpace(description),
		quantity:    quantity,
		unitPrice:   unitPrice,
		lineTotal:   quantity.Mul(unitPrice).Round(AmountScale),
		weight:      weight,
		metadata:    cloneMap(metadata),
	}, nil
}

// RestoreItem rebuilds a persisted line without recomputing its total.
func RestoreItem(s ItemSnapshot) (Item, error) {
	if err := s.ID.Validate(); err != nil {
		return Item{}, err
	}
	return Item{
		id:          s.ID,
		productID:   s.ProductID,
		description: s.Description,
		quantity:    s.Quantity,
		unitPrice:   s.UnitPrice,
		lineTotal:   s.LineTotal,
		weight:      s.Weight,
		metadata:    cloneMap(s.Metadata),
	}, nil
}

func (i Item) ID() kernel.UUID { return i.id }

func (i Item) ProductID() string { return i.productID }

func (i Item) Description() string { return i.description }

func (i Item) Quantity() decimal.Decimal { return i.quantity }

func (i Item) UnitPrice() decimal.Decimal { return i.unitPrice }

func (i Item) LineTotal() decimal.Decimal { return i.lineTotal }

func (i Item) Weight() decimal.Decimal { return i.weight }

func (i Item) Metadata() map[string]any { return cloneMap(i.metadata) }

func (i Item) Snapshot() ItemSnapshot { return snapshotItem(i) }

func snapshotItem(i Item) ItemSnapshot {
	return ItemSnapshot{
		ID:          i.id,
		ProductID:   i.productID,
		Description: i.description,
		Quantity:    i.quantity,
		UnitPrice:   i.unitPrice,
		LineTotal:   i.lineTotal,
		Weight:      i.weight,
		Metadata:    cloneMap(i.metadata),
	}
}

// decimalFromAny reads numbers that arrived through JSON metadata.
func decimalFromAny(v any) decimal.Decimal {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n)
	case float32:
		return decimal.NewFromFloat32(n)
	case int:
		return decimal.NewFromInt(int64(n))
	case int64:
		return decimal.NewFromInt(n)
	case decimal.Decimal:
		return n
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	maps.Copy(out, m)
	return out
}
