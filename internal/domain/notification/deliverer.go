package notification

import (
	"context"
	"fmt"

	"birthday_notification_bot/internal/domain/member"
)

// Deliverer sends a birthday greeting to a single member.
// This decouples the delivery pipeline from the concrete messaging transport.
// Errors classified as failure.KindPermanent are not retried; anything else is.
type Deliverer interface {
	Deliver(ctx context.Context, m member.Member) error
}

// GreetingText is the message every transport sends.
func GreetingText(m member.Member) string {
	return fmt.Sprintf("Happy birthday, %s! 🎉 Wishing you a wonderful day.", m.Name)
}
