package order

import (
	"fmt"
	"strings"

	"tradeflow/internal/pkg/errs"
)

// Status is a lifecycle state of a trade order.
//
//	draft ──> proforma ──> confirmed ──> financed ──┬──> production ──> ready_to_ship ──> shipped ──> delivered ──> closed
//	                                                └─────────────────────^
//
// Every non-terminal state before shipped may be cancelled; every state from
// proforma to delivered may enter dispute; dispute ends in resolved or closed,
// and resolved ends in closed. Closed and cancelled are terminal.
type Status int

const (
	// Unknown catches uninitialised values.
	Unknown Status = iota
	Draft
	Proforma
	Confirmed
	Financed
	Production
	ReadyToShip
	Shipped
	Delivered
	Dispute
	Resolved
	Closed
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:     "unknown",
		Draft:       "draft",
		Proforma:    "proforma",
		Confirmed:   "confirmed",
		Financed:    "financed",
		Production:  "production",
		ReadyToShip: "ready_to_ship",
		Shipped:     "shipped",
		Delivered:   "delivered",
		Dispute:     "dispute",
		Resolved:    "resolved",
		Closed:      "closed",
		Cancelled:   "cancelled",
	}
}

// getAllowedTransitions is the authoritative lifecycle graph.
func getAllowedTransitions() map[Status][]Status {
	return map[Status][]Status{
		Draft:       {Proforma, Cancelled},
		Proforma:    {Confirmed, Cancelled, Dispute},
		Confirmed:   {Financed, Cancelled, Dispute},
		Financed:    {Production, ReadyToShip, Cancelled, Dispute},
		Production:  {ReadyToShip, Cancelled, Dispute},
		ReadyToShip: {Shipped, Cancelled, Dispute},
		Shipped:     {Delivered, Dispute},
		Delivered:   {Closed, Dispute},
		Dispute:     {Resolved, Closed},
		Resolved:    {Closed},
		Closed:      {},
		Cancelled:   {},
	}
}

// Statuses returns every valid status in lifecycle order.
func Statuses() []Status {
	return []Status{
		Draft, Proforma, Confirmed, Financed, Production, ReadyToShip,
		Shipped, Delivered, Dispute, Resolved, Closed, Cancelled,
	}
}

// ParseStatus maps a persisted or client-supplied name onto a Status.
// Matching ignores case and surrounding whitespace.
func ParseStatus(raw string) (Status, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for status, str := range getStatusStrings() {
		if status != Unknown && str == name {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", raw))
}

// Validate rejects Unknown and out-of-range values.
func (s Status) Validate() error {
	if _, ok := getAllowedTransitions()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// AllowedTransitions returns the statuses reachable from s in one step.
func (s Status) AllowedTransitions() []Status {
	allowed := getAllowedTransitions()[s]
	out := make([]Status, len(allowed))
	copy(out, allowed)
	return out
}

// CanTransitionTo reports whether target is a direct successor of s.
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range getAllowedTransitions()[s] {
		if next == target {
			return true
		}
	}
	return false
}

// ValidateTransition returns a TransitionIsInvalidError when target is not a
// direct successor of s. Re-applying the current status is not validated here;
// Order.Transition treats it as a no-op.
func (s Status) ValidateTransition(target Status) error {
	if err := target.Validate(); err != nil {
		return err
	}
	if !s.CanTransitionTo(target) {
		return errs.NewTransitionIsInvalidError(s, target)
	}
	return nil
}

// IsTerminal reports closed and cancelled.
func (s Status) IsTerminal() bool {
	return s == Closed || s == Cancelled
}
