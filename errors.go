package ogm

import "errors"

var (
	// ErrClientNotInitialized is returned when an operation is attempted
	// before Connect.
	ErrClientNotInitialized = errors.New("ogm: client not connected")

	// ErrTransactionConflict is returned when a transaction is begun while
	// another one is already open on the client.
	ErrTransactionConflict = errors.New("ogm: a transaction is already open")

	// ErrNoActiveTransaction is returned when commit or rollback is called
	// with no open transaction.
	ErrNoActiveTransaction = errors.New("ogm: no active transaction")
)
