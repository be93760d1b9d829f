// Package schedule repairs the scheduled timing fields of flight records so
// that departure, arrival and elapsed time agree, and normalizes elapsed-time
// outliers within each route.
//
// The consistency checks relate six timing fields through five equations:
//
//	D    DepTime    = SchDep + DepDelay                  (mod 1440)
//	A    ArrTime    = SchArr + ArrDelay                  (mod 1440)
//	ACT  ActualTime = SchTime + ArrDelay - DepDelay      (mod 1440)
//	TZ   ActualTime = ArrTime - DepTime                  (mod 60)
//	SCH  SchTime    = SchArr - SchDep                    (mod 60)
//
// TZ and SCH only hold modulo 60 because local clock times on either end of a
// flight may sit in different time zones.
package schedule

import (
	"errors"
	"fmt"
)

const (
	minutesPerDay  = 1440
	minutesPerHour = 60
)

var (
	// ErrInvalidTimeFormat reports a clock value outside 0000..2400 or with
	// a minute part of 60 or more.
	ErrInvalidTimeFormat = errors.New("invalid clock time")

	// ErrMalformedBatch reports a non-empty batch in which no record carries
	// any usable timing field. The period should be skipped or re-acquired.
	ErrMalformedBatch = errors.New("malformed batch: no usable timing fields")
)

// ToMinutes converts an hhmm clock value to minutes after midnight.
func ToMinutes(clock int) int {
	return 60*(clock/100) + clock%100
}

// ToClock converts minutes after midnight to an hhmm clock value. Callers
// reduce minutes modulo 1440 first when the value may wrap.
func ToClock(minutes int) int {
	return 100*(minutes/60) + minutes%60
}

// ValidClock reports whether clock is a well-formed hhmm value. 2400 is
// accepted because the source files use it for midnight at the end of a day.
func ValidClock(clock int) bool {
	if clock < 0 || clock > 2400 {
		return false
	}
	return clock%100 < 60
}

// ParseClock validates an hhmm value.
func ParseClock(clock int) (int, error) {
	if !ValidClock(clock) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidTimeFormat, clock)
	}
	return clock, nil
}

// mod is the floored modulo; the result always has the sign of m.
func mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

// shiftClock returns the clock value of (clock - delay) wrapped into one day.
func shiftClock(clock, delay int) int {
	return ToClock(mod(ToMinutes(clock)-delay, minutesPerDay))
}
