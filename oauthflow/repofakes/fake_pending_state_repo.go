package fakependingstaterepo

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/taxbyte/go-identity-server/oauthflow"
)

var _ oauthflow.PendingStateRepo = (*FakePendingStateRepo)(nil)

type FakePendingStateRepo struct {
	byState map[string]*oauthflow.PendingState
	lock    sync.Mutex
}

func NewFakePendingStateRepo() *FakePendingStateRepo {
	return &FakePendingStateRepo{byState: make(map[string]*oauthflow.PendingState)}
}

func (r *FakePendingStateRepo) Create(_ context.Context, state *oauthflow.PendingState) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	copied := *state
	r.byState[state.State] = &copied
	return nil
}

// Consume deletes and returns the row under one lock acquisition, matching
// the atomic delete-and-return contract.
func (r *FakePendingStateRepo) Consume(_ context.Context, state string) (*oauthflow.PendingState, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	pending, ok := r.byState[state]
	if !ok {
		return nil, nil
	}
	delete(r.byState, state)
	return pending, nil
}

func (r *FakePendingStateRepo) DeleteAllForCompany(_ context.Context, companyID uuid.UUID) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	for state, pending := range r.byState {
		if pending.CompanyID == companyID {
			delete(r.byState, state)
		}
	}
	return nil
}

// Len reports the number of pending rows (test helper).
func (r *FakePendingStateRepo) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.byState)
}
