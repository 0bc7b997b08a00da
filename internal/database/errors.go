package database

import "errors"

var (
	// ErrNotFound is returned when a referenced user, schedule request or
	// payment no longer exists.
	ErrNotFound = errors.New("record not found")

	// ErrConcurrentModification is returned when a versioned update lost
	// the race against another writer.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrAlreadyLinked is returned when a relationship row already exists
	// for the pair, proposed or linked.
	ErrAlreadyLinked = errors.New("relationship already exists")

	// ErrNoPendingRequest is returned when accepting or rejecting a link
	// that has no proposed row.
	ErrNoPendingRequest = errors.New("no pending link request")

	// ErrNotLinked is returned when an operation requires a linked pair.
	ErrNotLinked = errors.New("users are not linked")
)
