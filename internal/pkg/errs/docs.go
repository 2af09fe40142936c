// Package errs provides the typed errors shared by every layer of the trade
// order service.
//
// Each kind follows the same shape: a sentinel (ErrValueIsRequired,
// ErrTransitionIsInvalid, ...), a struct carrying the details, constructors
// with and without a cause, Error() and Unwrap(). Unwrap returns the sentinel,
// so callers classify failures with errors.Is and read details with errors.As:
//
//	var transitionErr *errs.TransitionIsInvalidError
//	if errors.As(err, &transitionErr) {
//	    log.Printf("rejected %s -> %s", transitionErr.From, transitionErr.To)
//	}
//
// Validation kinds (required, invalid, out of range) come from the domain
// constructors. Workflow kinds cover the order lifecycle (invalid transition,
// optimistic concurrency), the payment boundary (gateway failure, webhook
// signature and payload rejection) and lookups (object not found).
package errs
