package shipment

import (
	"strings"
	"time"

	"tradeflow/internal/core/domain/model/kernel"
)

// Event is an append-only entry in a shipment's tracking history.
type Event struct {
	ID         kernel.UUID
	ShipmentID kernel.UUID
	Name       string
	Note       string
	Actor      string
	CreatedAt  time.Time
}

// NewEvent stamps a tracking history entry.
func NewEvent(shipmentID kernel.UUID, name, note, actor string, now time.Time) Event {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		actor = "system"
	}
	return Event{
		ID:         kernel.NewUUID(),
		ShipmentID: shipmentID,
		Name:       name,
		Note:       strings.TrimSpace(note),
		Actor:      actor,
		CreatedAt:  now,
	}
}
