package services

import (
	"sports-meetup/internal/repository"

	"github.com/pkg/errors"
)

// Validation errors. Surfaced to the caller, never retried.
var (
	ErrInvalidPairing  = errors.New("sport is not offered at this venue")
	ErrInvalidWindow   = errors.New("start time must be before end time")
	ErrInvalidCapacity = errors.New("capacity must be between 2 and 100")
	ErrUnknownSport    = errors.New("unknown sport")
	ErrUnknownVenue    = errors.New("unknown venue")
	ErrInvalidLocation = errors.New("invalid coordinates")
)

var (
	// ErrNotFound is returned when no venue matches a nearest-venue query
	ErrNotFound = errors.New("no matching venue")

	ErrEventNotFound = repository.ErrEventNotFound
	ErrDuplicateSlot = repository.ErrDuplicateSlot
)

// Malformed chat input. Logged and dropped by the ingestion pipeline.
var (
	ErrMalformedTopic   = errors.New("malformed topic")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrUnknownChannel   = repository.ErrUnknownChannel
)

// IsValidationError reports whether err should be answered as a bad request
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidPairing,
		ErrInvalidWindow,
		ErrInvalidCapacity,
		ErrUnknownSport,
		ErrUnknownVenue,
		ErrInvalidLocation,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
