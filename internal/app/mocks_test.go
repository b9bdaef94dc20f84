package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"birthday_notification_bot/internal/domain/failure"
	"birthday_notification_bot/internal/domain/member"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

var (
	ErrMockDelivery = errors.New("mock delivery error")
	ErrMockLookup   = errors.New("mock lookup error")
)

func testLogger() (*logrus.Entry, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logrus.NewEntry(logger), hook
}

// MockDeliverer implements notification.Deliverer for testing.
type MockDeliverer struct {
	mu          sync.Mutex
	DeliverFunc func(ctx context.Context, m member.Member) error
	FailFirst   int             // Fail this many calls per member, then succeed (0 = never fail)
	AlwaysFail  map[string]bool // Member IDs whose delivery always fails
	Permanent   bool            // Return failure.KindPermanent errors instead of plain ones
	Calls       map[string]int  // Calls per member ID
	CallTimes   map[string][]time.Time
}

func NewMockDeliverer() *MockDeliverer {
	return &MockDeliverer{
		AlwaysFail: make(map[string]bool),
		Calls:      make(map[string]int),
		CallTimes:  make(map[string][]time.Time),
	}
}

func (m *MockDeliverer) Deliver(ctx context.Context, mem member.Member) error {
	m.mu.Lock()
	m.Calls[mem.ID]++
	n := m.Calls[mem.ID]
	m.CallTimes[mem.ID] = append(m.CallTimes[mem.ID], time.Now())
	fn := m.DeliverFunc
	fail := m.AlwaysFail[mem.ID] || n <= m.FailFirst
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, mem)
	}
	if fail {
		if m.Permanent {
			return failure.Permanent("mock deliver", ErrMockDelivery)
		}
		return ErrMockDelivery
	}
	return nil
}

func (m *MockDeliverer) CallCount(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[id]
}

// MockLookup implements member.Lookup for testing.
type MockLookup struct {
	mu         sync.Mutex
	Members    []member.Member
	Err        error
	PanicWith  any
	CallCount  int
	LastWindow member.CandidateWindow
}

func (m *MockLookup) FetchCandidates(ctx context.Context, window member.CandidateWindow) ([]member.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	m.LastWindow = window
	if m.PanicWith != nil {
		panic(m.PanicWith)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	// Behave like the database: only members whose stored month/day is in the window.
	var out []member.Member
	for _, mem := range m.Members {
		if window.Contains(mem.Anniversary()) {
			out = append(out, mem)
		}
	}
	return out, nil
}

// recordingSleep captures backoff delays without waiting.
type recordingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func newMember(id, tz string, month time.Month, day int) member.Member {
	return member.Member{
		ID:       id,
		Name:     "Member " + id,
		Contact:  "contact-" + id,
		Birthday: time.Date(1990, month, day, 0, 0, 0, 0, time.UTC),
		Timezone: tz,
	}
}

func mustTime(t interface{ Fatalf(string, ...any) }, layout, value string) time.Time {
	ts, err := time.Parse(layout, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return ts
}
