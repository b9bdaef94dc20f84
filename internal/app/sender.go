package app

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"birthday_notification_bot/internal/domain/failure"
	"birthday_notification_bot/internal/domain/member"
	"birthday_notification_bot/internal/domain/notification"

	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxRetries = 5
	DefaultBaseDelay  = time.Second
)

// RetryPolicy bounds the attempts made for one member.
type RetryPolicy struct {
	MaxRetries int           // Retries after the first attempt
	BaseDelay  time.Duration // Wait after the first failed attempt, before jitter
}

// DefaultRetryPolicy returns the policy used when nothing is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: DefaultMaxRetries, BaseDelay: DefaultBaseDelay}
}

// Backoff returns the wait after failed attempt number attempt (1-based):
// BaseDelay * 2^(attempt-1) * jitter. jitter is expected in [0.5, 1.0).
func (p RetryPolicy) Backoff(attempt int, jitter float64) time.Duration {
	return time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt-1)) * jitter)
}

// SendResult is the terminal state of one member's delivery sequence.
type SendResult struct {
	MemberID string
	Attempts int
	Err      error // nil on success, otherwise the last delivery error
}

// OK reports whether the member was delivered to.
func (r SendResult) OK() bool {
	return r.Err == nil
}

// Retried reports a success that needed more than one attempt.
func (r SendResult) Retried() bool {
	return r.Err == nil && r.Attempts > 1
}

// deliveryAttempt is the mutable state of one member's sequence.
type deliveryAttempt struct {
	count     int
	lastErr   error
	nextDelay time.Duration
}

// RetryingSender wraps a Deliverer with bounded retries and jittered
// exponential backoff.
type RetryingSender struct {
	deliverer notification.Deliverer
	policy    RetryPolicy
	logger    *logrus.Entry
	jitter    func() float64
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewRetryingSender(d notification.Deliverer, policy RetryPolicy, logger *logrus.Entry) *RetryingSender {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = DefaultBaseDelay
	}
	return &RetryingSender{
		deliverer: d,
		policy:    policy,
		logger:    logger,
		jitter:    defaultJitter,
		sleep:     sleepContext,
	}
}

// Policy returns the effective retry policy.
func (s *RetryingSender) Policy() RetryPolicy {
	return s.policy
}

// Send delivers to m, retrying failures until the delivery succeeds, an error
// is classified permanent, MaxRetries+1 attempts have failed, or ctx ends
// during a backoff wait.
func (s *RetryingSender) Send(ctx context.Context, m member.Member) SendResult {
	log := s.logger.WithField("member_id", m.ID)
	var state deliveryAttempt

	for state.count <= s.policy.MaxRetries {
		state.count++
		err := s.deliver(ctx, m)
		if err == nil {
			if state.count > 1 {
				log.WithField("attempts", state.count).Info("Birthday greeting delivered after retry")
			} else {
				log.Debug("Birthday greeting delivered")
			}
			return SendResult{MemberID: m.ID, Attempts: state.count}
		}
		state.lastErr = err

		attemptLog := log.WithError(err).WithField("attempt", state.count)
		if failure.IsPermanent(err) {
			attemptLog.Debug("Delivery error is permanent, not retrying")
			break
		}
		if state.count > s.policy.MaxRetries {
			break
		}

		state.nextDelay = s.policy.Backoff(state.count, s.jitter())
		attemptLog.WithField("delay", state.nextDelay).Debug("Delivery failed, backing off")
		if err := s.sleep(ctx, state.nextDelay); err != nil {
			state.lastErr = fmt.Errorf("retry abandoned: %w (last error: %v)", err, state.lastErr)
			break
		}
	}

	return SendResult{MemberID: m.ID, Attempts: state.count, Err: state.lastErr}
}

// deliver calls the deliverer, turning a panic into a permanent error for this attempt.
func (s *RetryingSender) deliver(ctx context.Context, m member.Member) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = failure.Permanent("deliver", fmt.Errorf("delivery panicked: %v", r))
		}
	}()
	return s.deliverer.Deliver(ctx, m)
}

// defaultJitter draws uniformly from [0.5, 1.0).
func defaultJitter() float64 {
	return 0.5 + rand.Float64()/2
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
