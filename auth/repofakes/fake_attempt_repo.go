package fakeattemptrepo

import (
	"context"
	"sync"
	"time"

	"github.com/taxbyte/go-identity-server/auth"
)

var _ auth.LoginAttemptRepo = (*FakeLoginAttemptRepo)(nil)

type FakeLoginAttemptRepo struct {
	attempts []*auth.LoginAttempt
	lock     sync.RWMutex
}

func NewFakeLoginAttemptRepo() *FakeLoginAttemptRepo {
	return &FakeLoginAttemptRepo{}
}

func (r *FakeLoginAttemptRepo) Create(_ context.Context, attempt *auth.LoginAttempt) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	copied := *attempt
	r.attempts = append(r.attempts, &copied)
	return nil
}

func (r *FakeLoginAttemptRepo) CountFailuresByEmail(_ context.Context, email string, since time.Time) (int, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	count := 0
	for _, attempt := range r.attempts {
		if !attempt.Success && attempt.Email == email && !attempt.AttemptedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *FakeLoginAttemptRepo) CountFailuresByIP(_ context.Context, ipAddress string, since time.Time) (int, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	count := 0
	for _, attempt := range r.attempts {
		if !attempt.Success && attempt.IPAddress == ipAddress && !attempt.AttemptedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// All returns a snapshot of the recorded attempts (test helper).
func (r *FakeLoginAttemptRepo) All() []*auth.LoginAttempt {
	r.lock.RLock()
	defer r.lock.RUnlock()

	out := make([]*auth.LoginAttempt, len(r.attempts))
	copy(out, r.attempts)
	return out
}
