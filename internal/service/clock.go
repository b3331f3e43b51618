package service

import "time"

// SystemClock reads the local wall clock at second precision.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().Truncate(time.Second)
}

// FixedClock always reports the same instant.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time {
	return c.At.Truncate(time.Second)
}
