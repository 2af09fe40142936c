package order

import (
	"strings"
	"time"

	"tradeflow/internal/core/domain/model/kernel"

	"github.com/shopspring/decimal"
)

// Snapshot is an immutable copy of an order. It is what events carry to
// reactors and what repositories hand to RestoreOrder.
type Snapshot struct {
	ID         kernel.UUID
	RequestID  string
	BuyerID    string
	SellerID   string
	Status     Status
	Total      kernel.Money
	SubStates  SubStates
	Milestones map[string]*time.Time
	Metadata   map[string]any
	Items      []ItemSnapshot
	Version    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ItemSnapshot is the exported form of an Item.
type ItemSnapshot struct {
	ID          kernel.UUID
	ProductID   string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
	Weight      decimal.Decimal
	Metadata    map[string]any
}

// VolumeCBM reads the cubic volume from item metadata; absent or malformed is zero.
func (s ItemSnapshot) VolumeCBM() decimal.Decimal {
	return decimalFromAny(s.Metadata[MetadataVolumeCBM])
}

// MetadataString returns the trimmed string value stored under key, or "".
func (s Snapshot) MetadataString(key string) string {
	v, ok := s.Metadata[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// MilestoneAt returns when status was first entered.
func (s Snapshot) MilestoneAt(status Status) (time.Time, bool) {
	at, ok := s.Milestones[status.String()]
	if !ok || at == nil {
		return time.Time{}, false
	}
	return *at, true
}
