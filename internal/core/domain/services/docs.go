// Package services provides domain services that span more than one aggregate.
//
// The package includes:
//   - EventDispatcher: delivers committed order lifecycle events to the
//     reactors registered for them (ledger, logistics, publishers, metrics)
//
// Reactors run synchronously and in registration order. A failing reactor is
// logged and reported back to the caller; it never undoes the transition that
// produced the event and never stops the remaining reactors from running.
package services
