package scheduler

import (
	"context"
	"fmt"
	"time"

	"birthday_notification_bot/internal/domain/notification"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CycleRunner is the operation fired on every tick.
type CycleRunner interface {
	RunCycle(ctx context.Context) notification.CycleSummary
}

// BirthdayScheduler fires the birthday cycle on a cron schedule.
//
// By default a tick fires even if the previous cycle is still running, so
// cycles may overlap when one takes longer than the period. Setting
// skipOverlapping drops such ticks instead.
type BirthdayScheduler struct {
	cronEngine      *cron.Cron
	service         CycleRunner
	logger          *logrus.Entry
	cronSpec        string // e.g., "0 * * * *" (top of every hour)
	cycleTimeout    time.Duration
	skipOverlapping bool
	entryID         cron.EntryID
}

func NewBirthdayScheduler(
	service CycleRunner,
	logger *logrus.Entry,
	cronSpec string,
	cycleTimeout time.Duration,
	skipOverlapping bool,
) *BirthdayScheduler {
	cronLogger := cron.PrintfLogger(logger)

	// Recover keeps a panicking cycle from killing the process; the next tick still fires.
	wrappers := []cron.JobWrapper{cron.Recover(cronLogger)}
	if skipOverlapping {
		wrappers = append(wrappers, cron.SkipIfStillRunning(cronLogger))
	}

	return &BirthdayScheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLogger),
			cron.WithChain(wrappers...),
		),
		service:         service,
		logger:          logger,
		cronSpec:        cronSpec,
		cycleTimeout:    cycleTimeout,
		skipOverlapping: skipOverlapping,
	}
}

func (s *BirthdayScheduler) Start() error {
	s.logger.Info("Starting birthday scheduler...")

	id, err := s.cronEngine.AddJob(s.cronSpec, cron.FuncJob(s.runCycle))
	if err != nil {
		return fmt.Errorf("could not add birthday cron job %q: %w", s.cronSpec, err)
	}
	s.entryID = id

	s.cronEngine.Start()
	s.logger.WithFields(logrus.Fields{
		"cron_spec":        s.cronSpec,
		"skip_overlapping": s.skipOverlapping,
		"next_run":         s.NextRun().Format(time.RFC3339),
	}).Info("Birthday scheduler started")
	return nil
}

// NextRun returns when the birthday job fires next, or the zero time if the
// scheduler has not been started.
func (s *BirthdayScheduler) NextRun() time.Time {
	return s.cronEngine.Entry(s.entryID).Next
}

func (s *BirthdayScheduler) runCycle() {
	s.logger.Debug("Cron job triggered for birthday check.")

	ctx := context.Background()
	if s.cycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cycleTimeout)
		defer cancel()
	}
	s.service.RunCycle(ctx)
}

// Stop stops firing new cycles and waits for running ones to finish.
func (s *BirthdayScheduler) Stop() {
	s.logger.Info("Stopping birthday scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Birthday scheduler gracefully stopped.")
}
