package recovery

import (
	"errors"
	"time"
)

// Config carries the abandonment threshold and the reminder checkpoint
// offsets. Offsets are measured from the moment the cart was flagged
// abandoned and must be strictly ascending.
type Config struct {
	IdleThreshold       time.Duration
	FirstReminderAfter  time.Duration
	SecondReminderAfter time.Duration
	FinalReminderAfter  time.Duration
}

const (
	defaultIdleThreshold       = time.Hour
	defaultFirstReminderAfter  = time.Hour
	defaultSecondReminderAfter = 24 * time.Hour
	defaultFinalReminderAfter  = 72 * time.Hour
)

func DefaultConfig() Config {
	return Config{
		IdleThreshold:       defaultIdleThreshold,
		FirstReminderAfter:  defaultFirstReminderAfter,
		SecondReminderAfter: defaultSecondReminderAfter,
		FinalReminderAfter:  defaultFinalReminderAfter,
	}
}

func (c Config) Validate() error {
	if c.IdleThreshold <= 0 {
		return errors.New("idle threshold must be positive")
	}
	if c.FirstReminderAfter <= 0 {
		return errors.New("first reminder offset must be positive")
	}
	if c.SecondReminderAfter <= c.FirstReminderAfter {
		return errors.New("second reminder offset must be after the first")
	}
	if c.FinalReminderAfter <= c.SecondReminderAfter {
		return errors.New("final reminder offset must be after the second")
	}
	return nil
}
