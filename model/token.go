// file: model/token.go

package model

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken holds the data for a refresh token in the database. Only the
// SHA-256 hash of the raw secret is stored; the raw value exists server-side
// only for the instant it is issued or verified.
type RefreshToken struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	TokenHash string    `json:"-"`
	// Family is shared by every token produced by successive rotations of
	// one login session. It never changes across the rotation chain.
	Family    uuid.UUID  `json:"family"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	// ReplacedByID points to the token that replaced this one during
	// rotation, forming a singly linked chain.
	ReplacedByID *uuid.UUID `json:"replaced_by_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Expired reports whether the token is past its expiry.
func (t *RefreshToken) Expired() bool {
	return !time.Now().Before(t.ExpiresAt)
}

// Revoked reports whether the token has been revoked, either by rotation,
// logout, or a reuse-detection cascade.
func (t *RefreshToken) Revoked() bool {
	return t.RevokedAt != nil
}

// Active reports whether the token can still be rotated.
func (t *RefreshToken) Active() bool {
	return !t.Expired() && !t.Revoked()
}

// VerificationPurpose distinguishes the uses of a VerificationToken.
type VerificationPurpose string

const (
	PurposeEmailVerification VerificationPurpose = "email_verification"
	PurposePasswordReset     VerificationPurpose = "password_reset"
)

// VerificationToken is a unified single-use token for email verification and
// password reset. Stored as a SHA-256 hash, consumed at most once.
type VerificationToken struct {
	ID        uuid.UUID           `json:"id"`
	UserID    uuid.UUID           `json:"user_id"`
	TokenHash string              `json:"-"`
	Purpose   VerificationPurpose `json:"purpose"`
	ExpiresAt time.Time           `json:"expires_at"`
	UsedAt    *time.Time          `json:"used_at,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// Valid reports whether the token can still be consumed.
func (t *VerificationToken) Valid() bool {
	return time.Now().Before(t.ExpiresAt) && t.UsedAt == nil
}
