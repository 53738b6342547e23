// Package quota decides whether a user may run a generation now and tracks how many
// generations they have left in the current rolling 24-hour window.
package quota

import (
	"context"
	"time"

	"github.com/fitlooks/tryon/internal/model"
	"github.com/fitlooks/tryon/logging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logging.GetLogger().WithFields(logrus.Fields{"package": "quota"})

// WindowDuration is the length of a quota window. A window older than this has
// lapsed; a window exactly this old has not.
const WindowDuration = 24 * time.Hour

// ErrUserNotFound indicates that no record exists for the requested user.
var ErrUserNotFound = errors.New("user not found")

// UserStore is the subset of the user directory that the quota manager needs.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ResetQuotaWindow(ctx context.Context, email string, resetTime time.Time) error
	IncrementGenerationCount(ctx context.Context, email string, limit int) (int, error)
}

// Reservation is the outcome of a pre-generation quota check.
type Reservation struct {
	// Whether the generation may proceed.
	Allowed bool

	// The allowance left after the generation this reservation is for.
	Remaining int
}

// Manager enforces the per-user generation quota.
type Manager struct {
	store UserStore
	limit int
	now   func() time.Time
}

// NewManager creates a quota manager with the given daily generation limit.
func NewManager(store UserStore, limit int) *Manager {
	return &Manager{store: store, limit: limit, now: time.Now}
}

// windowLapsed reports whether the user's quota window has expired. The comparison is
// strictly greater-than: a window that is exactly 24 hours old has not lapsed yet.
func windowLapsed(user *model.User, now time.Time) bool {
	return now.Sub(user.LastResetTime) > WindowDuration
}

// CheckAndReserve determines whether the user may run a generation now. If the quota
// window has lapsed, the reset is persisted immediately, whether or not the caller
// goes on to generate. The stored count is not advanced here; that happens in Commit,
// after the inference call has succeeded, so a failed generation never consumes
// quota.
func (m *Manager) CheckAndReserve(ctx context.Context, email string) (*Reservation, error) {
	wrapMsg := "unable to check the generation quota"

	user, err := m.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	now := m.now()
	effectiveCount := user.GenerationCount
	if windowLapsed(user, now) {
		effectiveCount = 0
		if err := m.store.ResetQuotaWindow(ctx, email, now); err != nil {
			return nil, errors.Wrap(err, wrapMsg)
		}
		log.WithFields(logrus.Fields{"user": email}).Debug("started a new quota window")
	}

	if effectiveCount >= m.limit {
		return &Reservation{Allowed: false, Remaining: 0}, nil
	}

	// Remaining already accounts for the generation about to be consumed.
	return &Reservation{Allowed: true, Remaining: m.limit - effectiveCount - 1}, nil
}

// Commit advances the stored generation count after a successful generation and
// returns the user's remaining allowance. The increment is guarded at the store so
// that concurrent commits can never drive the count past the limit.
func (m *Manager) Commit(ctx context.Context, email string) (int, error) {
	wrapMsg := "unable to commit the generation"

	newCount, err := m.store.IncrementGenerationCount(ctx, email, m.limit)
	if err != nil {
		return 0, errors.Wrap(err, wrapMsg)
	}

	return m.clampRemaining(newCount), nil
}

// PeekRemaining returns the user's current allowance without mutating any persisted
// state; a lapsed window counts as a full allowance here but is only committed on the
// reserve path. An unknown user is presumed to have a full allowance until they
// authenticate.
func (m *Manager) PeekRemaining(ctx context.Context, email string) (int, error) {
	wrapMsg := "unable to look up the remaining allowance"

	user, err := m.store.GetUserByEmail(ctx, email)
	if err != nil {
		return 0, errors.Wrap(err, wrapMsg)
	}
	if user == nil {
		return m.limit, nil
	}

	if windowLapsed(user, m.now()) {
		return m.limit, nil
	}

	return m.clampRemaining(user.GenerationCount), nil
}

// clampRemaining converts a stored count to a remaining allowance in [0, limit].
func (m *Manager) clampRemaining(count int) int {
	remaining := m.limit - count
	if remaining < 0 {
		remaining = 0
	}
	if remaining > m.limit {
		remaining = m.limit
	}
	return remaining
}
