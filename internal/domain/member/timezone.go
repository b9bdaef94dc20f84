package member

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"birthday_notification_bot/internal/domain/failure"
)

var ErrInvalidTimezone = errors.New("invalid timezone")

// LocalTime is the civil date and hour observed in a timezone at some instant.
type LocalTime struct {
	Year  int
	Month time.Month
	Day   int
	Hour  int
}

// MonthDay drops the year and hour.
func (lt LocalTime) MonthDay() MonthDay {
	return MonthDay{Month: lt.Month, Day: lt.Day}
}

// Resolved locations keyed by IANA name.
var locationCache sync.Map // map[string]*time.Location

// Localize converts instant into the calendar date and hour observed in tz.
// tz must be an IANA identifier; "" and "Local" are rejected because they do
// not name a fixed zone.
func Localize(instant time.Time, tz string) (LocalTime, error) {
	loc, err := loadLocation(tz)
	if err != nil {
		return LocalTime{}, err
	}
	t := instant.In(loc)
	return LocalTime{Year: t.Year(), Month: t.Month(), Day: t.Day(), Hour: t.Hour()}, nil
}

// ValidateTimezone reports whether tz can be resolved by the timezone database.
func ValidateTimezone(tz string) error {
	_, err := loadLocation(tz)
	return err
}

func loadLocation(tz string) (*time.Location, error) {
	if tz == "" || tz == "Local" {
		return nil, failure.New(failure.KindInvalid, "localize", fmt.Errorf("%w: %q", ErrInvalidTimezone, tz))
	}
	if cached, ok := locationCache.Load(tz); ok {
		return cached.(*time.Location), nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, failure.New(failure.KindInvalid, "localize", fmt.Errorf("%w: %q: %v", ErrInvalidTimezone, tz, err))
	}
	locationCache.Store(tz, loc)
	return loc, nil
}
