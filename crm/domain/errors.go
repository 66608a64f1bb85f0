package domain

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrTokenConflict is returned when a generated child token is already taken.
	ErrTokenConflict = errors.New("child token conflict")
	// ErrAlreadyLinked is returned when a child is bound to another identity,
	// or the identity is already bound to another child.
	ErrAlreadyLinked = errors.New("child already linked")
	// ErrUnknownAudience is returned for an audience other than parents or children.
	ErrUnknownAudience = errors.New("unknown audience")
)
