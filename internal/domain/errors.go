package domain

import "errors"

var (
	// ErrKeyNotFound is returned when no catalog entry satisfies a lookup
	ErrKeyNotFound = errors.New("catalog entry not found")

	// ErrDuplicateKey is returned when a catalog entry with the same name already exists
	ErrDuplicateKey = errors.New("catalog entry already exists")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrOrderNotFound is returned when an order number is unknown
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidTransition is returned when an order cannot move to the requested status
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrInvalidUpload is returned when an uploaded file is not an accepted image
	ErrInvalidUpload = errors.New("invalid uploaded file")
)
