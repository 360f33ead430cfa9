package status

import "errors"

var (
	ErrNotFound       = errors.New("record not found")
	ErrFlightNotFound = errors.New("booking: flight not found")
	ErrBookingFailed  = errors.New("booking: booking failed")
)
