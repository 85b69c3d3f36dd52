package fakeuserrepo

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/taxbyte/go-identity-server/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

var DuplicateEmailErr = errors.New("duplicate email")

type FakeUserRepo struct {
	byID map[uuid.UUID]*users.User
	lock sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{byID: make(map[uuid.UUID]*users.User)}
}

func (r *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	for _, existing := range r.byID {
		if existing.Email == user.Email && !existing.IsDeleted() {
			return DuplicateEmailErr
		}
	}
	copied := *user
	r.byID[user.ID] = &copied
	return nil
}

func (r *FakeUserRepo) Update(_ context.Context, user *users.User) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.byID[user.ID]; !ok {
		return errors.New("not found")
	}
	copied := *user
	r.byID[user.ID] = &copied
	return nil
}

func (r *FakeUserRepo) FindByEmail(_ context.Context, email string) (*users.User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	for _, user := range r.byID {
		if user.Email == email && !user.IsDeleted() {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *FakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*users.User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	user, ok := r.byID[id]
	if !ok || user.IsDeleted() {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}
