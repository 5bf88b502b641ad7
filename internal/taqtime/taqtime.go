// Package taqtime converts TAQ participant timestamps into absolute times
// and models the intraday session windows used to trim the tape.
package taqtime

import (
	"fmt"
	"time"
)

// packedDigits is the fixed width a participant timestamp is zero-padded
// to before slicing: HHMMSS followed by nine fractional-second digits.
const packedDigits = 15

// MalformedTimestampError reports a participant timestamp that cannot be
// decomposed into a valid time of day.
type MalformedTimestampError struct {
	Value  int64
	Reason string
}

func (e *MalformedTimestampError) Error() string {
	return fmt.Sprintf("malformed participant timestamp %d: %s", e.Value, e.Reason)
}

// ParseParticipant combines a trading date with a packed intraday offset.
// The offset carries hours, minutes, seconds and up to nine fractional
// digits packed left-to-right; it is zero-padded on the left to 15 digits,
// and precision beyond microseconds is truncated.
//
// The date's location is preserved. Midnight (offset 0) is valid.
func ParseParticipant(date time.Time, packed int64) (time.Time, error) {
	if packed < 0 {
		return time.Time{}, &MalformedTimestampError{Value: packed, Reason: "negative offset"}
	}

	var digits [packedDigits]int64
	v := packed
	for i := packedDigits - 1; i >= 0; i-- {
		digits[i] = v % 10
		v /= 10
	}
	if v != 0 {
		return time.Time{}, &MalformedTimestampError{Value: packed, Reason: "more than 15 digits"}
	}

	hour := digits[0]*10 + digits[1]
	minute := digits[2]*10 + digits[3]
	second := digits[4]*10 + digits[5]

	if hour > 23 {
		return time.Time{}, &MalformedTimestampError{Value: packed, Reason: fmt.Sprintf("hour %d out of range", hour)}
	}
	if minute > 59 {
		return time.Time{}, &MalformedTimestampError{Value: packed, Reason: fmt.Sprintf("minute %d out of range", minute)}
	}
	if second > 59 {
		return time.Time{}, &MalformedTimestampError{Value: packed, Reason: fmt.Sprintf("second %d out of range", second)}
	}

	// Nine fractional digits follow the seconds; keep microsecond
	// precision and drop the rest.
	var micros int64
	for i := 6; i < 12; i++ {
		micros = micros*10 + digits[i]
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	offset := time.Duration(hour)*time.Hour +
		time.Duration(minute)*time.Minute +
		time.Duration(second)*time.Second +
		time.Duration(micros)*time.Microsecond

	return day.Add(offset), nil
}

// ParseDate parses a trading date in "2006-01-02" form, interpreted as UTC.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse trading date %q: %w", date, err)
	}
	return t, nil
}
