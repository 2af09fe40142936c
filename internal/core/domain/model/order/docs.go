// Package order implements the trade order aggregate and its lifecycle rules.
//
// The package includes:
//   - Order: aggregate root holding parties, items, totals, status, derived
//     sub-states, milestones and an optimistic-concurrency version
//   - Status: the lifecycle enum and the authoritative transition graph
//   - SubStates: the single lookup deciding escrow, payment and logistics
//     projections for each status
//   - Item, Snapshot, StatusLogEntry: lines, immutable copies, history rows
//
// Orders are created in proforma (NewOrder) and only ever move through
// Order.Transition, which enforces the graph, stamps milestones once and
// treats re-applying the current status as a no-op.
package order
