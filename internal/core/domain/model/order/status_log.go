package order

import (
	"strings"
	"time"

	"tradeflow/internal/core/domain/model/kernel"
)

// SystemActor is recorded when no human initiated a change.
const SystemActor = "system"

// StatusLogEntry is one append-only row of an order's status history.
type StatusLogEntry struct {
	ID        kernel.UUID
	OrderID   kernel.UUID
	Status    Status
	Note      string
	Actor     string
	CreatedAt time.Time
}

// NewStatusLogEntry records that orderID entered status. A blank actor is
// stored as SystemActor.
func NewStatusLogEntry(orderID kernel.UUID, status Status, note, actor string, now time.Time) StatusLogEntry {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		actor = SystemActor
	}
	return StatusLogEntry{
		ID:        kernel.NewUUID(),
		OrderID:   orderID,
		Status:    status,
		Note:      strings.TrimSpace(note),
		Actor:     actor,
		CreatedAt: now,
	}
}
