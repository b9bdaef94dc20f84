package member

import (
	"fmt"
	"time"
)

// MonthDay is a recurring calendar date without a year.
type MonthDay struct {
	Month time.Month
	Day   int
}

// MonthDayOf extracts the month and day of t in t's own location.
func MonthDayOf(t time.Time) MonthDay {
	return MonthDay{Month: t.Month(), Day: t.Day()}
}

// Key packs the pair into a single integer (MMDD), used for index lookups.
func (md MonthDay) Key() int64 {
	return int64(md.Month)*100 + int64(md.Day)
}

func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", int(md.Month), md.Day)
}

// CandidateWindow holds the UTC month/day pairs around a reference instant.
// Anyone whose local date is "today" has a UTC date inside this window.
type CandidateWindow struct {
	Yesterday MonthDay
	Today     MonthDay
	Tomorrow  MonthDay
}

// Pairs returns the three pairs in chronological order.
func (w CandidateWindow) Pairs() []MonthDay {
	return []MonthDay{w.Yesterday, w.Today, w.Tomorrow}
}

// Contains reports whether md is one of the window's pairs.
func (w CandidateWindow) Contains(md MonthDay) bool {
	return md == w.Yesterday || md == w.Today || md == w.Tomorrow
}
