package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidUUID     = errors.New("invalid UUID format")
	ErrNotUUIDv7       = errors.New("UUID must be version 7")
	ErrFutureTimestamp = errors.New("UUID timestamp is too far in the future")
)

// NewPurchaseID returns a time-ordered UUIDv7, so purchases recorded at the
// same instant still read back in insertion order.
func NewPurchaseID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate purchase id: %w", err)
	}
	return id.String(), nil
}

// ValidatePurchaseID checks a client-supplied purchase id: it must be a
// UUIDv7 whose embedded time is no more than tolerance past now.
func ValidatePurchaseID(id string, now time.Time, tolerance time.Duration) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidUUID, err)
	}

	if parsed.Version() != 7 {
		return fmt.Errorf("%w: got version %d", ErrNotUUIDv7, parsed.Version())
	}

	if ts := purchaseIDTime(parsed); ts.After(now.Add(tolerance)) {
		return fmt.Errorf("%w: %v is more than %s ahead",
			ErrFutureTimestamp, ts.Format(time.RFC3339), tolerance)
	}

	return nil
}

func purchaseIDTime(id uuid.UUID) time.Time {
	sec, nsec := id.Time().UnixTime()
	return time.Unix(sec, nsec)
}
