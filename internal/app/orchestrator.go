package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"birthday_notification_bot/internal/domain/member"
	"birthday_notification_bot/internal/domain/notification"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Sender runs one member's complete delivery sequence.
type Sender interface {
	Send(ctx context.Context, m member.Member) SendResult
}

// Dispatcher fans a Sender out over the matched members of a cycle.
// Each member runs in its own goroutine; one member's failure, panic or
// backoff never affects another member.
//
// With maxConcurrency == 0 the fan-out is unbounded, one goroutine per member.
// Large matched sets should set a cap.
type Dispatcher struct {
	sender         Sender
	maxConcurrency int
	logger         *logrus.Entry
}

func NewDispatcher(sender Sender, maxConcurrency int, logger *logrus.Entry) *Dispatcher {
	if maxConcurrency < 0 {
		maxConcurrency = 0
	}
	return &Dispatcher{
		sender:         sender,
		maxConcurrency: maxConcurrency,
		logger:         logger,
	}
}

// Run delivers to every member and waits for all sequences to finish.
// Only the delivery fields of the returned summary are filled in.
func (d *Dispatcher) Run(ctx context.Context, matched []member.Member) notification.CycleSummary {
	var (
		succeeded, retried, failed atomic.Int64
		mu                         sync.Mutex
		failures                   []notification.MemberFailure
	)

	var g errgroup.Group
	if d.maxConcurrency > 0 {
		g.SetLimit(d.maxConcurrency)
	}

	for _, m := range matched {
		m := m
		g.Go(func() error {
			res := d.sendIsolated(ctx, m)
			if res.OK() {
				succeeded.Add(1)
				if res.Retried() {
					retried.Add(1)
				}
				return nil
			}

			failed.Add(1)
			d.logger.WithFields(logrus.Fields{
				"member_id": m.ID,
				"contact":   m.Contact,
				"timezone":  m.Timezone,
				"attempts":  res.Attempts,
			}).WithError(res.Err).Warn("Birthday greeting permanently failed")

			mu.Lock()
			failures = append(failures, notification.MemberFailure{
				MemberID: m.ID,
				Attempts: res.Attempts,
				Error:    res.Err.Error(),
			})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // Goroutines never return errors

	return notification.CycleSummary{
		Matched:   len(matched),
		Succeeded: int(succeeded.Load()),
		Retried:   int(retried.Load()),
		Failed:    int(failed.Load()),
		Failures:  failures,
	}
}

// sendIsolated guards against Sender implementations that panic outside a
// delivery attempt. The attempt count is unknown there, so one is reported.
func (d *Dispatcher) sendIsolated(ctx context.Context, m member.Member) (res SendResult) {
	defer func() {
		if r := recover(); r != nil {
			res = SendResult{MemberID: m.ID, Attempts: 1, Err: fmt.Errorf("send panicked: %v", r)}
		}
	}()
	return d.sender.Send(ctx, m)
}
