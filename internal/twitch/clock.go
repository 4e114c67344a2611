package twitch

import "time"

// Clock abstracts the current time so token expiry can be tested
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system time
type RealClock struct{}

// Now returns the current time
func (RealClock) Now() time.Time {
	return time.Now()
}

var _ Clock = RealClock{}
