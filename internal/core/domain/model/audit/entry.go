// Package audit models the legal trail written alongside order changes.
package audit

import (
	"maps"
	"strings"
	"time"

	"tradeflow/internal/core/domain/model/kernel"
)

// Actions recorded by the order workflow.
const (
	ActionOrderCreated    = "order_created"
	ActionOrderStatus     = "order_status"
	ActionDisputeOpened   = "dispute_opened"
	ActionDisputeResolved = "dispute_resolved"
)

// Entry is one row of the audit trail.
type Entry struct {
	ID        kernel.UUID
	Actor     string
	Action    string
	Context   map[string]any
	CreatedAt time.Time
}

// NewEntry builds an audit record. A blank actor is stored as "system".
func NewEntry(actor, action string, context map[string]any, now time.Time) Entry {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		actor = "system"
	}
	return Entry{
		ID:        kernel.NewUUID(),
		Actor:     actor,
		Action:    action,
		Context:   maps.Clone(context),
		CreatedAt: now,
	}
}
