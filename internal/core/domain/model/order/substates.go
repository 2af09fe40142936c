package order

// Sub-state values stored next to the order status.
const (
	EscrowPending   = "pending"
	EscrowFunded    = "funded"
	EscrowFrozen    = "frozen"
	EscrowReleased  = "released"
	EscrowCancelled = "cancelled"

	PaymentPending         = "pending"
	PaymentAwaitingFunding = "awaiting_funding"
	PaymentFunded          = "funded"
	PaymentReleasePending  = "release_pending"
	PaymentReleased        = "released"
	PaymentCancelled       = "cancelled"
	PaymentOnHold          = "on_hold"

	LogisticsUnassigned     = "unassigned"
	LogisticsInProduction   = "in_production"
	LogisticsAwaitingPickup = "awaiting_pickup"
	LogisticsInTransit      = "in_transit"
	LogisticsDelivered      = "delivered"
	LogisticsCancelled      = "cancelled"
)

// SubStates are the escrow, payment and logistics projections of the status.
type SubStates struct {
	Escrow    string
	Payment   string
	Logistics string
}

// InitialSubStates is what a freshly created order carries.
func InitialSubStates() SubStates {
	return SubStates{
		Escrow:    EscrowPending,
		Payment:   PaymentPending,
		Logistics: LogisticsUnassigned,
	}
}

// subStateTable is the single lookup deciding which projection each status
// entry rewrites. Empty fields leave the current value untouched.
var subStateTable = map[Status]SubStates{
	Confirmed:   {Payment: PaymentAwaitingFunding},
	Financed:    {Escrow: EscrowFunded, Payment: PaymentFunded},
	Production:  {Logistics: LogisticsInProduction},
	ReadyToShip: {Logistics: LogisticsAwaitingPickup},
	Shipped:     {Logistics: LogisticsInTransit},
	Delivered:   {Payment: PaymentReleasePending, Logistics: LogisticsDelivered},
	Dispute:     {Escrow: EscrowFrozen, Payment: PaymentOnHold},
	Closed:      {Escrow: EscrowReleased, Payment: PaymentReleased},
	Cancelled:   {Escrow: EscrowCancelled, Payment: PaymentCancelled, Logistics: LogisticsCancelled},
}

// Apply returns current with the projections owned by entering s overwritten.
func (s SubStates) Apply(entered Status) SubStates {
	update, ok := subStateTable[entered]
	if !ok {
		return s
	}
	if update.Escrow != "" {
		s.Escrow = update.Escrow
	}
	if update.Payment != "" {
		s.Payment = update.Payment
	}
	if update.Logistics != "" {
		s.Logistics = update.Logistics
	}
	return s
}
