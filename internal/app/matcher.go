package app

import (
	"time"

	"birthday_notification_bot/internal/domain/member"
)

// AnyHour disables the local-hour gate.
const AnyHour = -1

// MemberError is a per-member problem found while matching.
type MemberError struct {
	Member member.Member
	Err    error
}

// MatchResult is the outcome of one match pass.
type MatchResult struct {
	Matched []member.Member
	Errors  []MemberError
}

// Matcher selects the candidates whose birthday is today in their own timezone.
type Matcher struct {
	// LocalHour, when not AnyHour, additionally requires the member's local
	// hour to equal it. With an hourly trigger this gives one match per member
	// per birthday, except on a DST transition day when LocalHour falls inside
	// the shifted hour: it matches twice on fall-back and never on spring-forward.
	LocalHour int
}

// NewMatcher returns a Matcher with the given local-hour gate.
func NewMatcher(localHour int) *Matcher {
	if localHour < 0 || localHour > 23 {
		localHour = AnyHour
	}
	return &Matcher{LocalHour: localHour}
}

// Match compares each candidate's own anniversary against the date observed in
// the candidate's timezone at instant. The window used to fetch candidates is
// not consulted: near the date line the UTC and local dates differ.
// Candidates are returned in input order; a repeated ID is matched once.
func (m *Matcher) Match(instant time.Time, candidates []member.Member) MatchResult {
	var result MatchResult
	seen := make(map[string]struct{}, len(candidates))

	for _, c := range candidates {
		if c.ID != "" {
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
		}

		local, err := member.Localize(instant, c.Timezone)
		if err != nil {
			result.Errors = append(result.Errors, MemberError{Member: c, Err: err})
			continue
		}
		if local.MonthDay() != c.Anniversary() {
			continue
		}
		if m.LocalHour != AnyHour && local.Hour != m.LocalHour {
			continue
		}
		result.Matched = append(result.Matched, c)
	}
	return result
}

// Match is Matcher.Match without an hour gate.
func Match(instant time.Time, candidates []member.Member) MatchResult {
	return (&Matcher{LocalHour: AnyHour}).Match(instant, candidates)
}
