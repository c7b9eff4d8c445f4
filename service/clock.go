package service

import (
	"time"
)

// systemClock is the production Clock, truncating to whole seconds since
// the accrual formula works in elapsed seconds.
type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// SystemClock returns the wall-clock implementation of Clock.
func SystemClock() Clock {
	return systemClock{}
}
