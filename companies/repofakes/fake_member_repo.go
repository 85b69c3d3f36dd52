package fakecompanyrepo

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/taxbyte/go-identity-server/companies"
)

type memberKey struct {
	companyID uuid.UUID
	userID    uuid.UUID
}

type FakeMemberRepo struct {
	mu      sync.RWMutex
	members map[memberKey]*companies.Member
}

var _ companies.MemberRepo = (*FakeMemberRepo)(nil)

func NewFakeMemberRepo() *FakeMemberRepo {
	return &FakeMemberRepo{members: make(map[memberKey]*companies.Member)}
}

func (r *FakeMemberRepo) Seed(member *companies.Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *member
	r.members[memberKey{member.CompanyID, member.UserID}] = &copied
}

func (r *FakeMemberRepo) FindMember(_ context.Context, companyID, userID uuid.UUID) (*companies.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	member, ok := r.members[memberKey{companyID, userID}]
	if !ok {
		return nil, nil
	}
	copied := *member
	return &copied, nil
}
