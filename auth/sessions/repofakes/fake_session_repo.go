package fakesessionrepo

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/taxbyte/go-identity-server/auth/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

type FakeSessionRepo struct {
	byID map[uuid.UUID]*sessions.Session
	lock sync.RWMutex
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{byID: make(map[uuid.UUID]*sessions.Session)}
}

func (r *FakeSessionRepo) Create(_ context.Context, session *sessions.Session) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	copied := *session
	r.byID[session.ID] = &copied
	return nil
}

func (r *FakeSessionRepo) FindByTokenHash(_ context.Context, tokenHash string) (*sessions.Session, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	for _, session := range r.byID {
		if session.TokenHash == tokenHash {
			copied := *session
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *FakeSessionRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	delete(r.byID, id)
	return nil
}

func (r *FakeSessionRepo) DeleteAllForUser(_ context.Context, userID uuid.UUID) (int, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	deleted := 0
	for id, session := range r.byID {
		if session.UserID == userID {
			delete(r.byID, id)
			deleted++
		}
	}
	return deleted, nil
}

// Count reports the number of stored sessions (test helper).
func (r *FakeSessionRepo) Count() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.byID)
}
