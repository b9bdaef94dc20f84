package member

import (
	"time"
)

// Member is a person whose birthday is tracked.
// The delivery pipeline treats it as a read-only snapshot for one cycle.
type Member struct {
	ID        string
	Name      string
	Contact   string    // Delivery address, e.g. a Telegram chat ID
	Birthday  time.Time // Only month and day are meaningful
	Timezone  string    // IANA identifier, e.g. "Europe/Berlin"
	CreatedAt time.Time
}

// Anniversary returns the year-independent part of the birthday.
func (m Member) Anniversary() MonthDay {
	return MonthDayOf(m.Birthday)
}
