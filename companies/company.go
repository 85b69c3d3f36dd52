package companies

import (
	"time"

	"github.com/google/uuid"
)

// RoleType represents a user's role within a company.
type RoleType string

const (
	RoleOwner  RoleType = "owner"
	RoleAdmin  RoleType = "admin"
	RoleMember RoleType = "member"
)

// CanManageStorage reports whether the role may connect or disconnect the
// company's cloud storage.
func (r RoleType) CanManageStorage() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Company is the tenant aggregate owning the Drive connection. The token
// fields hold ciphertext only; plaintext never reaches storage.
type Company struct {
	ID   uuid.UUID
	Name string

	// Drive connection. Access token and expiry are either both present or
	// both absent; the refresh token allows regenerating an access token
	// without user interaction.
	DriveAccessToken    string
	DriveRefreshToken   string
	DriveTokenExpiresAt *time.Time
	DriveConnectedBy    *uuid.UUID
	DriveConnectedAt    *time.Time
	DriveAccountEmail   string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsDriveConnected reports whether the company has a usable connection.
func (c *Company) IsDriveConnected() bool {
	return c.DriveAccessToken != "" && c.DriveTokenExpiresAt != nil
}

// Member is a user's membership in a company.
type Member struct {
	CompanyID uuid.UUID
	UserID    uuid.UUID
	Role      RoleType
	JoinedAt  time.Time
}

// ConnectionFields is the token tuple written back after a completed
// exchange or refresh.
type ConnectionFields struct {
	AccessToken  string // encrypted
	RefreshToken string // encrypted
	ExpiresAt    time.Time
	ConnectedBy  uuid.UUID
	ConnectedAt  time.Time
	AccountEmail string
}
