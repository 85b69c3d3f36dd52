package fakecompanyrepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/taxbyte/go-identity-server/companies"
)

type FakeCompanyRepo struct {
	mu        sync.RWMutex
	companies map[uuid.UUID]*companies.Company
}

var _ companies.Repo = (*FakeCompanyRepo)(nil)

func NewFakeCompanyRepo() *FakeCompanyRepo {
	return &FakeCompanyRepo{companies: make(map[uuid.UUID]*companies.Company)}
}

// Seed inserts a company directly, bypassing any lifecycle rules.
func (r *FakeCompanyRepo) Seed(company *companies.Company) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *company
	r.companies[company.ID] = &copied
}

func (r *FakeCompanyRepo) FindByID(_ context.Context, id uuid.UUID) (*companies.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	company, ok := r.companies[id]
	if !ok {
		return nil, nil
	}
	copied := *company
	return &copied, nil
}

func (r *FakeCompanyRepo) UpdateConnection(_ context.Context, id uuid.UUID, fields companies.ConnectionFields) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	company, ok := r.companies[id]
	if !ok {
		return companies.CompanyNotFoundErr
	}
	expiresAt := fields.ExpiresAt
	connectedBy := fields.ConnectedBy
	connectedAt := fields.ConnectedAt
	company.DriveAccessToken = fields.AccessToken
	company.DriveRefreshToken = fields.RefreshToken
	company.DriveTokenExpiresAt = &expiresAt
	company.DriveConnectedBy = &connectedBy
	company.DriveConnectedAt = &connectedAt
	company.DriveAccountEmail = fields.AccountEmail
	company.UpdatedAt = time.Now()
	return nil
}

func (r *FakeCompanyRepo) ClearConnection(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	company, ok := r.companies[id]
	if !ok {
		return companies.CompanyNotFoundErr
	}
	company.DriveAccessToken = ""
	company.DriveRefreshToken = ""
	company.DriveTokenExpiresAt = nil
	company.DriveConnectedBy = nil
	company.DriveConnectedAt = nil
	company.DriveAccountEmail = ""
	company.UpdatedAt = time.Now()
	return nil
}
