package domain

import "errors"

var (
	// ErrNotFound is returned by repositories when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUsageExhausted is returned when a redemption loses the race for the
	// last remaining use of a capped coupon.
	ErrUsageExhausted = errors.New("coupon usage limit exhausted")
)
