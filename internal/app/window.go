package app

import (
	"time"

	"birthday_notification_bot/internal/domain/member"
)

// BuildWindow returns the UTC month/day of instant and of the days either side.
// UTC offsets span at most -12h to +14h, so a member whose local date is
// "today" always has a UTC date within one day of instant's UTC date.
func BuildWindow(instant time.Time) member.CandidateWindow {
	u := instant.UTC()
	return member.CandidateWindow{
		Yesterday: member.MonthDayOf(u.Add(-24 * time.Hour)),
		Today:     member.MonthDayOf(u),
		Tomorrow:  member.MonthDayOf(u.Add(24 * time.Hour)),
	}
}
