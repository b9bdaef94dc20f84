package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"birthday_notification_bot/internal/domain/failure"
	"birthday_notification_bot/internal/domain/member"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Custom errors
var ErrMemberNotFound = errors.New("member not found")
var ErrDuplicateContact = errors.New("member with this contact already exists")

const birthdayLayout = time.DateOnly

const memberColumns = `id, name, contact, birthday, timezone, created_at`

// MemberRepository stores members and answers the birthday candidate lookup.
type MemberRepository struct {
	db *DB
}

func NewMemberRepository(db *DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Create inserts m, assigning an ID and creation time when they are unset.
func (r *MemberRepository) Create(ctx context.Context, m *member.Member) error {
	const op = "create member"

	if strings.TrimSpace(m.Name) == "" {
		return failure.New(failure.KindInvalid, op, errors.New("name is empty"))
	}
	if strings.TrimSpace(m.Contact) == "" {
		return failure.New(failure.KindInvalid, op, errors.New("contact is empty"))
	}
	if m.Birthday.IsZero() {
		return failure.New(failure.KindInvalid, op, errors.New("birthday is not set"))
	}
	if err := member.ValidateTimezone(m.Timezone); err != nil {
		return failure.New(failure.KindInvalid, op, err)
	}

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	md := m.Anniversary()

	ph := r.db.Dialect.Placeholder
	query := fmt.Sprintf(`INSERT INTO members (id, name, contact, birthday, birth_month, birth_day, timezone, created_at)
               VALUES (%s, %s, %s, %s, %s, %s, %s, %s)`,
		ph(1), ph(2), ph(3), ph(4), ph(5), ph(6), ph(7), ph(8))

	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.Name, m.Contact, m.Birthday.Format(birthdayLayout), int(md.Month), md.Day, m.Timezone, m.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return failure.New(failure.KindDuplicateKey, op, ErrDuplicateContact)
		}
		return fmt.Errorf("error creating member: %w", err)
	}
	return nil
}

func (r *MemberRepository) GetByID(ctx context.Context, id string) (*member.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = ` + r.db.Dialect.Placeholder(1)

	m, err := scanMember(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, failure.New(failure.KindNotFound, "get member", ErrMemberNotFound)
		}
		return nil, fmt.Errorf("error getting member by ID: %w", err)
	}
	return m, nil
}

// FetchCandidates returns every member whose stored month/day is one of the
// window's pairs, ordered by ID.
func (r *MemberRepository) FetchCandidates(ctx context.Context, window member.CandidateWindow) ([]member.Member, error) {
	pairs := window.Pairs()
	conds := make([]string, 0, len(pairs))
	args := make([]any, 0, 2*len(pairs))
	for i, p := range pairs {
		conds = append(conds, fmt.Sprintf("(%s, %s)", r.db.Dialect.Placeholder(2*i+1), r.db.Dialect.Placeholder(2*i+2)))
		args = append(args, int(p.Month), p.Day)
	}
	query := `SELECT ` + memberColumns + ` FROM members
               WHERE (birth_month, birth_day) IN (` + strings.Join(conds, ", ") + `)
               ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error fetching birthday candidates: %w", err)
	}
	defer rows.Close()

	members := make([]member.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning birthday candidate: %w", err)
		}
		members = append(members, *m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating birthday candidates: %w", err)
	}
	return members, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*member.Member, error) {
	var (
		m        member.Member
		birthday string
	)
	if err := row.Scan(&m.ID, &m.Name, &m.Contact, &birthday, &m.Timezone, &m.CreatedAt); err != nil {
		return nil, err
	}
	b, err := time.Parse(birthdayLayout, birthday)
	if err != nil {
		return nil, fmt.Errorf("member %s has malformed birthday %q: %w", m.ID, birthday, err)
	}
	m.Birthday = b
	return &m, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "unique_violation"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT: // Extended result codes disabled
			return strings.Contains(liteErr.Error(), "UNIQUE")
		}
	}
	return false
}
