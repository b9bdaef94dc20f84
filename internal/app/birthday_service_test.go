package app

import (
	"context"
	"testing"
	"time"

	"birthday_notification_bot/internal/domain/member"
	"birthday_notification_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
)

func newTestService(lookup *MockLookup, d *MockDeliverer) (*BirthdayService, *recordingSleep) {
	dispatcher, rec := newTestDispatcher(d, 0)
	logger, _ := testLogger()
	return NewBirthdayService(lookup, NewMatcher(AnyHour), dispatcher, logger), rec
}

func TestRunCycleDeliversToMatchedMembers(t *testing.T) {
	lookup := &MockLookup{Members: []member.Member{
		newMember("a", "America/New_York", time.January, 15),
		newMember("b", "Pacific/Kiritimati", time.January, 16),
		newMember("c", "Europe/Berlin", time.March, 3),
		newMember("d", "UTC", time.January, 14),
	}}
	d := NewMockDeliverer()
	svc, _ := newTestService(lookup, d)

	// 2023-01-15 09:00 in New York, 2023-01-16 04:00 in Kiritimati.
	summary := svc.RunCycleAt(context.Background(), mustTime(t, time.RFC3339, "2023-01-15T14:00:00Z"))

	if !summary.OK() {
		t.Fatalf("summary.Error = %q", summary.Error)
	}
	if summary.Candidates != 3 {
		t.Errorf("Candidates = %d, want 3", summary.Candidates)
	}
	if summary.Matched != 2 || summary.Succeeded != 2 || summary.Failed != 0 {
		t.Errorf("summary = %+v, want 2 matched and delivered", summary)
	}
	if d.CallCount("a") != 1 || d.CallCount("b") != 1 || d.CallCount("d") != 0 {
		t.Errorf("calls = %v, want a and b once each", d.Calls)
	}
	if summary.CycleID == "" {
		t.Error("CycleID is empty")
	}
	want := BuildWindow(mustTime(t, time.RFC3339, "2023-01-15T14:00:00Z"))
	if lookup.LastWindow != want {
		t.Errorf("lookup window = %+v, want %+v", lookup.LastWindow, want)
	}
}

func TestRunCyclePartialFailure(t *testing.T) {
	lookup := &MockLookup{Members: []member.Member{
		newMember("a", "UTC", time.May, 5),
		newMember("b", "UTC", time.May, 5),
		newMember("c", "UTC", time.May, 5),
	}}
	d := NewMockDeliverer()
	d.AlwaysFail["b"] = true
	svc, _ := newTestService(lookup, d)

	summary := svc.RunCycleAt(context.Background(), mustTime(t, time.RFC3339, "2023-05-05T10:00:00Z"))
	if summary.Matched != 3 || summary.Succeeded != 2 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want {matched:3 succeeded:2 failed:1}", summary)
	}
}

func TestRunCycleInvalidTimezone(t *testing.T) {
	lookup := &MockLookup{Members: []member.Member{
		newMember("bad", "Not/AZone", time.May, 5),
		newMember("good", "UTC", time.May, 5),
	}}
	d := NewMockDeliverer()
	svc, _ := newTestService(lookup, d)
	logger, hook := testLogger()
	svc.logger = logger

	summary := svc.RunCycleAt(context.Background(), mustTime(t, time.RFC3339, "2023-05-05T10:00:00Z"))
	if !summary.OK() {
		t.Fatalf("summary.Error = %q", summary.Error)
	}
	if summary.InvalidTimezones != 1 || summary.Matched != 1 || summary.Succeeded != 1 {
		t.Errorf("summary = %+v, want 1 invalid timezone and 1 delivery", summary)
	}
	if d.CallCount("bad") != 0 {
		t.Error("member with invalid timezone was delivered to")
	}

	var logged bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["member_id"] == "bad" {
			logged = true
		}
	}
	if !logged {
		t.Error("expected a warning for the invalid timezone")
	}
}

func TestRunCycleLookupFailureIsNotFatal(t *testing.T) {
	lookup := &MockLookup{Err: ErrMockLookup}
	d := NewMockDeliverer()
	svc, _ := newTestService(lookup, d)
	logger, hook := testLogger()
	svc.logger = logger

	summary := svc.RunCycleAt(context.Background(), mustTime(t, time.RFC3339, "2023-05-05T10:00:00Z"))
	if summary.OK() {
		t.Fatal("summary.OK() = true, want cycle-level error")
	}
	if summary.Matched != 0 || summary.Succeeded != 0 {
		t.Errorf("summary = %+v, want no deliveries", summary)
	}

	var errorLogged bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			errorLogged = true
		}
	}
	if !errorLogged {
		t.Error("expected an error-level log entry")
	}

	// The next cycle is unaffected.
	lookup.Err = nil
	lookup.Members = []member.Member{newMember("a", "UTC", time.May, 5)}
	summary = svc.RunCycleAt(context.Background(), mustTime(t, time.RFC3339, "2023-05-05T11:00:00Z"))
	if !summary.OK() || summary.Succeeded != 1 {
		t.Errorf("second cycle = %+v, want one delivery", summary)
	}
}

func TestRunCycleRecoversPanic(t *testing.T) {
	lookup := &MockLookup{PanicWith: "storage exploded"}
	svc, _ := newTestService(lookup, NewMockDeliverer())

	summary := svc.RunCycle(context.Background())
	if summary.OK() {
		t.Fatal("summary.OK() = true after panic")
	}
	last, ok := svc.LastSummary()
	if !ok || last.CycleID != summary.CycleID {
		t.Errorf("LastSummary = %+v, %v; want the panicked cycle", last, ok)
	}
}

func TestRunCycleEmptyPopulation(t *testing.T) {
	lookup := &MockLookup{}
	svc, _ := newTestService(lookup, NewMockDeliverer())

	summary := svc.RunCycle(context.Background())
	if !summary.OK() {
		t.Fatalf("summary.Error = %q", summary.Error)
	}
	if summary.Candidates != 0 || summary.Matched != 0 || summary.Succeeded != 0 || summary.Failed != 0 {
		t.Errorf("summary = %+v, want zero counts", summary)
	}
}

func TestRunCycleUsesClock(t *testing.T) {
	lookup := &MockLookup{Members: []member.Member{newMember("a", "UTC", time.August, 8)}}
	d := NewMockDeliverer()
	svc, _ := newTestService(lookup, d)
	svc.now = func() time.Time { return time.Date(2023, time.August, 8, 12, 0, 0, 0, time.UTC) }

	summary := svc.RunCycle(context.Background())
	if summary.Succeeded != 1 {
		t.Errorf("Succeeded = %d, want 1", summary.Succeeded)
	}
	if !summary.Instant.Equal(svc.now()) {
		t.Errorf("Instant = %v, want %v", summary.Instant, svc.now())
	}
}

func TestLastSummary(t *testing.T) {
	svc, _ := newTestService(&MockLookup{}, NewMockDeliverer())
	if _, ok := svc.LastSummary(); ok {
		t.Error("LastSummary ok before any cycle")
	}
	first := svc.RunCycle(context.Background())
	second := svc.RunCycle(context.Background())

	last, ok := svc.LastSummary()
	if !ok {
		t.Fatal("LastSummary not ok after cycles")
	}
	if last.CycleID != second.CycleID || last.CycleID == first.CycleID {
		t.Errorf("LastSummary.CycleID = %q, want %q", last.CycleID, second.CycleID)
	}
}

func TestLogDeliverer(t *testing.T) {
	logger, hook := testLogger()
	d := NewLogDeliverer(logger)

	if err := d.Deliver(context.Background(), newMember("a", "UTC", time.January, 1)); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if entry := hook.LastEntry(); entry == nil || entry.Data["member_id"] != "a" {
		t.Errorf("last entry = %+v, want member a", entry)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Deliver(ctx, newMember("b", "UTC", time.January, 1)); err == nil {
		t.Error("Deliver with cancelled context = nil, want error")
	}
}

// With the shipped hourly schedule and default local-hour gate, every member
// is greeted exactly once on their birthday.
func TestRunCycleHourlyDefaultsGreetOncePerBirthday(t *testing.T) {
	lookup := &MockLookup{Members: []member.Member{
		newMember("utc", "UTC", time.March, 10),
		newMember("tokyo", "Asia/Tokyo", time.March, 10),
		newMember("honolulu", "Pacific/Honolulu", time.March, 10),
	}}
	d := NewMockDeliverer()
	dispatcher, _ := newTestDispatcher(d, 0)
	logger, _ := testLogger()
	svc := NewBirthdayService(lookup, NewMatcher(config.DefaultNotifyLocalHour), dispatcher, logger)

	// Two UTC days cover the local March 10 of every member.
	start := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	for h := 0; h < 48; h++ {
		svc.RunCycleAt(context.Background(), start.Add(time.Duration(h)*time.Hour))
	}

	for _, id := range []string{"utc", "tokyo", "honolulu"} {
		if got := d.CallCount(id); got != 1 {
			t.Errorf("%s greeted %d times, want 1", id, got)
		}
	}
}

func TestRunCycleWithoutHourGateGreetsEveryFiring(t *testing.T) {
	lookup := &MockLookup{Members: []member.Member{newMember("utc", "UTC", time.March, 10)}}
	d := NewMockDeliverer()
	svc, _ := newTestService(lookup, d)

	start := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	for h := 0; h < 24; h++ {
		svc.RunCycleAt(context.Background(), start.Add(time.Duration(h)*time.Hour))
	}
	if got := d.CallCount("utc"); got != 24 {
		t.Errorf("greeted %d times, want 24 with AnyHour", got)
	}
}
