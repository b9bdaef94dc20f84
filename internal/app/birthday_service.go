// internal/app/birthday_service.go
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"birthday_notification_bot/internal/domain/member"
	"birthday_notification_bot/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BirthdayService runs the birthday check: fetch candidates for the window,
// match them in their own timezones, then deliver.
type BirthdayService struct {
	lookup     member.Lookup
	matcher    *Matcher
	dispatcher *Dispatcher
	logger     *logrus.Entry
	now        func() time.Time

	mu   sync.Mutex
	last *notification.CycleSummary
}

func NewBirthdayService(
	lookup member.Lookup,
	matcher *Matcher,
	dispatcher *Dispatcher,
	logger *logrus.Entry,
) *BirthdayService {
	return &BirthdayService{
		lookup:     lookup,
		matcher:    matcher,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// RunCycle runs one cycle at the current time. It never panics and never
// returns an error; problems are logged and reported in the summary.
// Concurrent calls are not serialized.
func (s *BirthdayService) RunCycle(ctx context.Context) notification.CycleSummary {
	return s.RunCycleAt(ctx, s.now())
}

// RunCycleAt runs one cycle with instant as the reference time.
func (s *BirthdayService) RunCycleAt(ctx context.Context, instant time.Time) (summary notification.CycleSummary) {
	started := time.Now()
	summary.CycleID = uuid.NewString()
	summary.Instant = instant.UTC()

	log := s.logger.WithFields(logrus.Fields{
		"cycle_id": summary.CycleID,
		"instant":  summary.Instant.Format(time.RFC3339),
	})

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Birthday cycle panicked")
			summary.Error = fmt.Sprintf("cycle panicked: %v", r)
		}
		summary.DurationMS = time.Since(started).Milliseconds()
		s.remember(summary)
		s.logSummary(log, summary)
	}()

	window := BuildWindow(instant)
	log.WithField("window", window.Pairs()).Debug("Fetching birthday candidates")

	candidates, err := s.lookup.FetchCandidates(ctx, window)
	if err != nil {
		log.WithError(err).WithField("window", window.Pairs()).Error("Birthday cycle failed: could not fetch candidates")
		summary.Error = fmt.Sprintf("fetch candidates: %v", err)
		return summary
	}
	summary.Candidates = len(candidates)

	result := s.matcher.Match(instant, candidates)
	for _, me := range result.Errors {
		log.WithFields(logrus.Fields{
			"member_id": me.Member.ID,
			"timezone":  me.Member.Timezone,
		}).WithError(me.Err).Warn("Skipping member whose timezone cannot be resolved")
	}
	summary.InvalidTimezones = len(result.Errors)

	if len(result.Matched) == 0 {
		return summary
	}
	log.WithField("matched", len(result.Matched)).Info("Delivering birthday greetings")

	delivery := s.dispatcher.Run(ctx, result.Matched)
	summary.Matched = delivery.Matched
	summary.Succeeded = delivery.Succeeded
	summary.Retried = delivery.Retried
	summary.Failed = delivery.Failed
	summary.Failures = delivery.Failures
	return summary
}

// LastSummary returns the summary of the most recently finished cycle.
func (s *BirthdayService) LastSummary() (notification.CycleSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return notification.CycleSummary{}, false
	}
	return *s.last, true
}

func (s *BirthdayService) remember(summary notification.CycleSummary) {
	s.mu.Lock()
	s.last = &summary
	s.mu.Unlock()
}

func (s *BirthdayService) logSummary(log *logrus.Entry, summary notification.CycleSummary) {
	entry := log.WithFields(logrus.Fields{
		"candidates":        summary.Candidates,
		"invalid_timezones": summary.InvalidTimezones,
		"matched":           summary.Matched,
		"succeeded":         summary.Succeeded,
		"retried":           summary.Retried,
		"failed":            summary.Failed,
		"duration_ms":       summary.DurationMS,
	})
	switch {
	case !summary.OK():
		entry.WithField("error", summary.Error).Error("Birthday cycle aborted")
	case summary.Failed > 0:
		entry.Warn("Birthday cycle finished with failures")
	default:
		entry.Info("Birthday cycle finished")
	}
}
