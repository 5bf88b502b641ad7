package taqtime

import (
	"fmt"
	"time"
)

// Session is an intraday time-of-day window, inclusive on both ends.
// Rows exactly on a boundary are retained by the trimming passes.
type Session struct {
	open  time.Duration // offset from midnight
	close time.Duration
}

// Default session boundaries. The market session trims the raw tape; the
// regular session trims the reconstructed-event input. They are distinct
// passes applied at different pipeline stages.
const (
	DefaultMarketOpen   = "09:30:00"
	DefaultMarketClose  = "16:00:00"
	DefaultRegularOpen  = "09:15:00"
	DefaultRegularClose = "15:45:00"
)

// NewSession builds a session from "HH:MM:SS" boundaries.
func NewSession(open, close string) (Session, error) {
	o, err := parseTimeOfDay(open)
	if err != nil {
		return Session{}, err
	}
	c, err := parseTimeOfDay(close)
	if err != nil {
		return Session{}, err
	}
	if c < o {
		return Session{}, fmt.Errorf("session close %s before open %s", close, open)
	}
	return Session{open: o, close: c}, nil
}

// MustSession is NewSession for literal boundaries; panics on bad input.
func MustSession(open, close string) Session {
	s, err := NewSession(open, close)
	if err != nil {
		panic(err)
	}
	return s
}

// Contains reports whether t's time-of-day falls inside the session,
// boundaries included.
func (s Session) Contains(t time.Time) bool {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	tod := t.Sub(midnight)
	return tod >= s.open && tod <= s.close
}

func parseTimeOfDay(v string) (time.Duration, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(v, "%d:%d:%d", &h, &m, &sec); err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", v, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("time of day %q out of range", v)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
}
