package order

import (
	"errors"
	"maps"
	"strings"
	"time"

	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned for orders not built by NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder")
)

// Metadata keys the order itself understands.
const (
	MetadataMembershipTier   = "membership_tier"
	MetadataTrackingNumber   = "tracking_number"
	MetadataIncoterm         = "incoterm"
	MetadataPickupLocation   = "pickup_location"
	MetadataDeliveryLocation = "delivery_location"

	DefaultMembershipTier = "standard"
)

// Source is the originating RFQ an order is converted from.
type Source struct {
	RequestID      string
	BuyerID        string
	Currency       string
	MembershipTier string
}

// Order is the trade order aggregate root. It owns its item lines, the
// lifecycle status, the derived escrow/payment/logistics sub-states and the
// milestone timestamps.
//
// Invariants:
//   - status only moves along the lifecycle graph (see Status)
//   - a milestone, once stamped, never changes
//   - total equals the sum of item line totals, fixed at creation
//   - version grows by one with every applied transition
type Order struct {
	id         kernel.UUID
	requestID  string
	buyerID    string
	sellerID   string
	status     Status
	total      kernel.Money
	subStates  SubStates
	milestones map[Status]*time.Time
	metadata   map[string]any
	items      []Item
	version    int
	createdAt  time.Time
	updatedAt  time.Time

	isConstructed bool
}

// milestoneSeed lists the statuses whose milestone keys exist from creation.
func milestoneSeed() []Status {
	return []Status{Proforma, Confirmed, Financed, Production, ReadyToShip, Shipped, Delivered, Closed}
}

// NewOrder converts an RFQ source into an order in proforma status.
//
// Currency resolves to the explicit currency, then the source currency, then
// USD. Metadata is seeded with membership_tier. The proforma milestone is
// stamped with now; other seeded milestones stay empty.
//
// Errors: ValueIsRequiredError for a missing request id, buyer, seller or
// items. All problems are reported together.
func NewOrder(
	id kernel.UUID,
	source Source,
	sellerID string,
	currency string,
	items []Item,
	metadata map[string]any,
	now time.Time,
) (*Order, error) {
	o := &Order{
		status:        Proforma,
		subStates:     InitialSubStates(),
		milestones:    make(map[Status]*time.Time),
		metadata:      cloneMap(metadata),
		version:       1,
		createdAt:     now,
		updatedAt:     now,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setRequestID(source.RequestID),
		o.setBuyerID(source.BuyerID),
		o.setSellerID(sellerID),
		o.setItems(items, kernel.NormalizeCurrency(currency, source.Currency)),
	); err != nil {
		return nil, err
	}

	tier := strings.TrimSpace(source.MembershipTier)
	if tier == "" {
		tier = DefaultMembershipTier
	}
	if _, ok := o.metadata[MetadataMembershipTier]; !ok {
		o.metadata[MetadataMembershipTier] = tier
	}

	for _, s := range milestoneSeed() {
		o.milestones[s] = nil
	}
	stamped := now
	o.milestones[Proforma] = &stamped

	return o, nil
}

// RestoreOrder rebuilds an order from persistence without re-running
// creation rules. Status must be valid.
func RestoreOrder(s Snapshot) (*Order, error) {
	if err := errors.Join(s.ID.Validate(), s.Status.Validate()); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(s.Items))
	for _, is := range s.Items {
		item, err := RestoreItem(is)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	milestones := make(map[Status]*time.Time, len(s.Milestones))
	for name, at := range s.Milestones {
		status, err := ParseStatus(name)
		if err != nil {
			continue
		}
		if at != nil {
			stamped := *at
			at = &stamped
		}
		milestones[status] = at
	}

	return &Order{
		id:            s.ID,
		requestID:     s.RequestID,
		buyerID:       s.BuyerID,
		sellerID:      s.SellerID,
		status:        s.Status,
		total:         s.Total,
		subStates:     s.SubStates,
		milestones:    milestones,
		metadata:      cloneMap(s.Metadata),
		items:         items,
		version:       s.Version,
		createdAt:     s.CreatedAt,
		updatedAt:     s.UpdatedAt,
		isConstructed: true,
	}, nil
}

// Validate ensures the order was built through a constructor.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

func (o *Order) RequestID() string {
	return o.requestID
}

func (o *Order) BuyerID() string {
	return o.buyerID
}

func (o *Order) SellerID() string {
	return o.sellerID
}

func (o *Order) Status() Status {
	return o.status
}

func (o *Order) Total() kernel.Money {
	return o.total
}

func (o *Order) SubStates() SubStates {
	return o.subStates
}

func (o *Order) Items() []Item {
	out := make([]Item, len(o.items))
	copy(out, o.items)
	return out
}

func (o *Order) Metadata() map[string]any {
	return cloneMap(o.metadata)
}

// Version is the optimistic-concurrency counter. After a successful
// Transition it is one ahead of the persisted row.
func (o *Order) Version() int {
	return o.version
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

// MilestoneAt returns the time status was first entered.
func (o *Order) MilestoneAt(status Status) (time.Time, bool) {
	at, ok := o.milestones[status]
	if !ok || at == nil {
		return time.Time{}, false
	}
	return *at, true
}

// Transition moves the order to target.
//
// Re-applying the current status is a no-op and reports changed=false.
// A target outside the lifecycle graph returns TransitionIsInvalidError and
// leaves the order untouched. Otherwise the status, the sub-states and
// updatedAt change, the target milestone is stamped if it was empty, and the
// version is incremented.
func (o *Order) Transition(target Status, now time.Time) (bool, error) {
	if err := target.Validate(); err != nil {
		return false, err
	}
	if target == o.status {
		return false, nil
	}
	if err := o.status.ValidateTransition(target); err != nil {
		return false, err
	}

	o.status = target
	o.subStates = o.subStates.Apply(target)
	if at := o.milestones[target]; at == nil {
		stamped := now
		o.milestones[target] = &stamped
	}
	o.updatedAt = now
	o.version++
	return true, nil
}

// Snapshot returns a deep copy safe to hand to other goroutines.
func (o *Order) Snapshot() Snapshot {
	milestones := make(map[string]*time.Time, len(o.milestones))
	for status, at := range o.milestones {
		if at != nil {
			stamped := *at
			at = &stamped
		}
		milestones[status.String()] = at
	}

	items := make([]ItemSnapshot, 0, len(o.items))
	for _, item := range o.items {
		items = append(items, item.Snapshot())
	}

	return Snapshot{
		ID:         o.id,
		RequestID:  o.requestID,
		BuyerID:    o.buyerID,
		SellerID:   o.sellerID,
		Status:     o.status,
		Total:      o.total,
		SubStates:  o.subStates,
		Milestones: milestones,
		Metadata:   maps.Clone(o.metadata),
		Items:      items,
		Version:    o.version,
		CreatedAt:  o.createdAt,
		UpdatedAt:  o.updatedAt,
	}
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setRequestID(requestID string) error {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return errs.NewValueIsRequiredError("request id")
	}
	o.requestID = requestID
	return nil
}

func (o *Order) setBuyerID(buyerID string) error {
	buyerID = strings.TrimSpace(buyerID)
	if buyerID == "" {
		return errs.NewValueIsRequiredError("buyer")
	}
	o.buyerID = buyerID
	return nil
}

func (o *Order) setSellerID(sellerID string) error {
	sellerID = strings.TrimSpace(sellerID)
	if sellerID == "" {
		return errs.NewValueIsRequiredError("seller")
	}
	o.sellerID = sellerID
	return nil
}

func (o *Order) setItems(items []Item, currency string) error {
	total := kernel.ZeroMoney(currency)
	if len(items) == 0 {
		o.total = total
		return errs.NewValueIsRequiredError("items")
	}

	o.items = make([]Item, len(items))
	copy(o.items, items)
	for _, item := range o.items {
		total = total.Add(item.LineTotal())
	}
	o.total = total
	return nil
}
