package users

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id,omitempty"`    // Unique identifier for the user
	Email        string    `json:"email,omitempty"` // Normalized email address (unique among non-deleted users)
	PasswordHash string    `json:"-"`               // Argon2id hash - never serialize
	FullName     string    `json:"full_name,omitempty"`

	EmailVerified               bool       `json:"email_verified,omitempty"`
	EmailVerificationToken      string     `json:"-"`
	EmailVerificationExpiresAt  *time.Time `json:"-"`
	PasswordResetToken          string     `json:"-"`
	PasswordResetTokenExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time  `json:"created_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at,omitempty"`
	DeletedAt *time.Time `json:"-"` // Soft-delete marker; users are never hard-deleted
}

// New creates a user from a normalized email and an already-hashed password.
func New(email, passwordHash, fullName string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsDeleted reports whether the user has been soft-deleted.
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// MarkDeleted soft-deletes the user.
func (u *User) MarkDeleted(now time.Time) {
	u.DeletedAt = &now
	u.UpdatedAt = now
}

// SetEmailVerificationToken stores a verification token with an expiry.
func (u *User) SetEmailVerificationToken(token string, expiresAt time.Time) {
	u.EmailVerificationToken = token
	u.EmailVerificationExpiresAt = &expiresAt
	u.UpdatedAt = time.Now().UTC()
}

// VerifyEmail marks the email verified and clears the verification token.
func (u *User) VerifyEmail() {
	u.EmailVerified = true
	u.EmailVerificationToken = ""
	u.EmailVerificationExpiresAt = nil
	u.UpdatedAt = time.Now().UTC()
}

// EmailVerificationTokenValid checks the presented token against the stored
// one and its expiry.
func (u *User) EmailVerificationTokenValid(token string, now time.Time) bool {
	if u.EmailVerificationToken == "" || u.EmailVerificationExpiresAt == nil {
		return false
	}
	return u.EmailVerificationToken == token && u.EmailVerificationExpiresAt.After(now)
}

// SetPasswordResetToken stores a reset token with an expiry.
func (u *User) SetPasswordResetToken(token string, expiresAt time.Time) {
	u.PasswordResetToken = token
	u.PasswordResetTokenExpiresAt = &expiresAt
	u.UpdatedAt = time.Now().UTC()
}

// PasswordResetTokenValid checks the presented token against the stored one
// and its expiry.
func (u *User) PasswordResetTokenValid(token string, now time.Time) bool {
	if u.PasswordResetToken == "" || u.PasswordResetTokenExpiresAt == nil {
		return false
	}
	return u.PasswordResetToken == token && u.PasswordResetTokenExpiresAt.After(now)
}

// UpdatePassword replaces the password hash and clears any reset token.
func (u *User) UpdatePassword(newHash string) {
	u.PasswordHash = newHash
	u.PasswordResetToken = ""
	u.PasswordResetTokenExpiresAt = nil
	u.UpdatedAt = time.Now().UTC()
}

// NormalizeEmail lowercases and trims an email address and validates its
// shape. All lookups and uniqueness checks run on the normalized form.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("invalid email format")
	}
	return email, nil
}

// ValidatePasswordStrength checks the configured minimum length and an upper
// bound that keeps hashing cost predictable.
func ValidatePasswordStrength(password string, minLength int) error {
	if len(password) < minLength {
		return fmt.Errorf("password must be at least %d characters long", minLength)
	}
	if len(password) > 128 {
		return fmt.Errorf("password must be at most 128 characters long")
	}
	return nil
}
