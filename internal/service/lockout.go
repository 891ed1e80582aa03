package service

import (
	"context"
	"time"

	"github.com/iliyamo/ticketflow/internal/model"
)

// DefaultLockoutThreshold is the number of consecutive failed logins
// that locks an account.
const DefaultLockoutThreshold = 5

// Lockout is the failed-login policy. The counter lives in the
// credential store and only an administrator clears a lock; there is
// no time-based expiry.
type Lockout struct {
	store     FailureCounter
	threshold uint32
	now       func() time.Time
}

func NewLockout(store FailureCounter, threshold uint32) *Lockout {
	if threshold == 0 {
		threshold = DefaultLockoutThreshold
	}
	return &Lockout{store: store, threshold: threshold, now: time.Now}
}

// Threshold returns the configured failure limit.
func (l *Lockout) Threshold() uint32 { return l.threshold }

// IsLocked reports whether the credential has reached the threshold.
func (l *Lockout) IsLocked(u model.User) bool { return u.FailedAttempts >= l.threshold }

// RecordFailure counts one failed login and reports the new count and
// whether the account is now locked.
func (l *Lockout) RecordFailure(ctx context.Context, userID uint64) (uint32, bool, error) {
	n, err := l.store.IncrementFailedAttempts(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	return n, n >= l.threshold, nil
}

// RecordSuccess resets the counter and stamps the login time.
func (l *Lockout) RecordSuccess(ctx context.Context, userID uint64) error {
	return l.store.RecordLogin(ctx, userID, l.now())
}

// Unlock clears the counter. Admin only.
func (l *Lockout) Unlock(ctx context.Context, userID uint64) error {
	return l.store.ResetFailedAttempts(ctx, userID)
}
