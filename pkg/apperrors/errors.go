// Package apperrors defines the sentinel errors shared across the engine.
// Callers branch on these with errors.Is; every layer wraps them with
// fmt.Errorf("…: %w", …) to add context.
package apperrors

import "errors"

var (
	// ErrNotFound signals an unknown island or a missing family group.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientData signals an address cluster with no persons.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrValidation signals a relationship or member that violates an
	// integrity rule (self-relationship, unknown type, confidence range).
	ErrValidation = errors.New("validation failed")
	// ErrConcurrency signals a lost race on the (address, island) group key.
	// Callers are expected to retry.
	ErrConcurrency = errors.New("concurrent modification")
)
