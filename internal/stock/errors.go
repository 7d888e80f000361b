package stock

import "errors"

// Sentinel errors returned by Ledger implementations. The engine maps
// the first four onto decline reasons; anything else coming out of a
// ledger is treated as a persistence failure.
var (
	ErrEventNotFound     = errors.New("stock: event not found")
	ErrTierNotFound      = errors.New("stock: tier not found")
	ErrInsufficientStock = errors.New("stock: insufficient stock")
	ErrBusy              = errors.New("stock: tier row busy, lock wait timed out")
	ErrInvalidQuantity   = errors.New("stock: quantity must be at least 1")
)

// Reason is the machine-readable decline code surfaced to callers.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonNotFound          Reason = "NotFound"
	ReasonInsufficientStock Reason = "InsufficientStock"
	ReasonBusy              Reason = "Busy"
)

// reasonFor classifies a ledger error as a decline. The second return
// is false for system faults, which must propagate as errors.
func reasonFor(err error) (Reason, bool) {
	switch {
	case errors.Is(err, ErrEventNotFound), errors.Is(err, ErrTierNotFound):
		return ReasonNotFound, true
	case errors.Is(err, ErrInsufficientStock):
		return ReasonInsufficientStock, true
	case errors.Is(err, ErrBusy):
		return ReasonBusy, true
	default:
		return ReasonNone, false
	}
}
