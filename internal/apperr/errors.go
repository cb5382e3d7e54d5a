// Package apperr defines the error taxonomy shared by the ledger core.
// Callers match with errors.Is; repositories and services wrap these
// sentinels with context.
package apperr

import "errors"

var (
	// ErrNotFound means the referenced product or deduction no longer exists.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientStock means the operation would drive a product's stock
	// negative. No mutation is applied.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrConflict means a concurrent write to the same product was detected.
	// The ledger service retries the whole operation once before surfacing it.
	ErrConflict = errors.New("concurrent write conflict")

	// ErrTransport means the backing store was unreachable or failed
	// mid-flight. Recoverable; the caller decides whether to retry.
	ErrTransport = errors.New("store unavailable")
)
