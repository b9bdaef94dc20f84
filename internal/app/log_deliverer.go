package app

import (
	"context"

	"birthday_notification_bot/internal/domain/member"
	"birthday_notification_bot/internal/domain/notification"

	"github.com/sirupsen/logrus"
)

// LogDeliverer only logs the greeting. It is used when no messaging transport
// is configured, e.g. in development.
type LogDeliverer struct {
	logger *logrus.Entry
}

func NewLogDeliverer(logger *logrus.Entry) *LogDeliverer {
	return &LogDeliverer{logger: logger}
}

func (d *LogDeliverer) Deliver(ctx context.Context, m member.Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.logger.WithFields(logrus.Fields{
		"member_id": m.ID,
		"contact":   m.Contact,
	}).Infof("Would send: %s", notification.GreetingText(m))
	return nil
}
