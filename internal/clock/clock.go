package clock

import "time"

// Clock abstracts wall time so lease and bucket logic can be tested
// against a fake.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}
