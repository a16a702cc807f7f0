// file: service/refresh_service.go

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"manga-auth-api/config"
	"manga-auth-api/logger"
	"manga-auth-api/model"
	"manga-auth-api/repository"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidRefreshToken covers every lookup failure with one generic
	// message so callers cannot probe which secrets exist.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrRefreshTokenReused is the security event: an already-rotated secret
	// was presented, so the whole family has been revoked. Callers must
	// force a full re-login and drop all client-held credentials.
	ErrRefreshTokenReused  = errors.New("refresh token reuse detected, all sessions revoked")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrAccountDeactivated  = errors.New("account has been deactivated")
)

// RefreshService owns the refresh token lifecycle: initial issue, rotation
// with reuse detection, and revocation.
type RefreshService struct {
	db        *sql.DB
	tokenRepo repository.ITokenRepository
	userRepo  repository.IUserRepository
}

func NewRefreshService(db *sql.DB, tokenRepo repository.ITokenRepository, userRepo repository.IUserRepository) *RefreshService {
	return &RefreshService{
		db:        db,
		tokenRepo: tokenRepo,
		userRepo:  userRepo,
	}
}

func refreshTokenTTL() time.Duration {
	return time.Duration(config.AppConfig.JWT.RefreshTokenDays) * 24 * time.Hour
}

// IssueInitialToken starts a new rotation family for a fresh login session
// and returns the raw secret plus its expiry. The raw value is never stored.
func (s *RefreshService) IssueInitialToken(userID uuid.UUID) (string, time.Time, error) {
	raw, err := NewRefreshSecret()
	if err != nil {
		return "", time.Time{}, err
	}

	token := &model.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: HashToken(raw),
		Family:    uuid.New(),
		ExpiresAt: time.Now().Add(refreshTokenTTL()),
	}
	if err := s.tokenRepo.Create(token); err != nil {
		return "", time.Time{}, err
	}
	return raw, token.ExpiresAt, nil
}

// Rotate exchanges a presented refresh secret for a new one in the same
// family. The lookup, revoke and replacement insert run in one transaction so
// concurrent duplicate presentations cannot fork the family into two live
// chains. Presenting an already-revoked secret is treated as theft and
// revokes the entire family.
func (s *RefreshService) Rotate(ctx context.Context, rawSecret string) (string, time.Time, *model.User, error) {
	tokenHash := HashToken(rawSecret)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", time.Time{}, nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	stored, err := s.tokenRepo.GetByTokenHashForUpdate(tx, tokenHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", time.Time{}, nil, ErrInvalidRefreshToken
		}
		return "", time.Time{}, nil, err
	}

	if stored.Revoked() {
		// Reuse detected: the secret was already rotated or revoked, so
		// someone is replaying it. Kill every live token in the family.
		revoked, err := s.tokenRepo.RevokeFamily(tx, stored.Family)
		if err != nil {
			return "", time.Time{}, nil, err
		}
		if err := tx.Commit(); err != nil {
			return "", time.Time{}, nil, fmt.Errorf("could not commit family revocation: %w", err)
		}
		logger.Log.WithFields(logrus.Fields{
			"user_id":        stored.UserID,
			"family":         stored.Family,
			"tokens_revoked": revoked,
		}).Warn("Refresh token reuse detected, family revoked")
		return "", time.Time{}, nil, ErrRefreshTokenReused
	}

	if stored.Expired() {
		return "", time.Time{}, nil, ErrRefreshTokenExpired
	}

	user, err := s.userRepo.GetByID(stored.UserID)
	if err != nil {
		return "", time.Time{}, nil, err
	}
	if !user.IsActive {
		return "", time.Time{}, nil, ErrAccountDeactivated
	}

	didRevoke, err := s.tokenRepo.MarkRevoked(tx, stored.ID)
	if err != nil {
		return "", time.Time{}, nil, err
	}
	if !didRevoke {
		// A concurrent rotation of the same secret won the race between our
		// read and this write. We did not cause the revocation, so this is a
		// benign duplicate request, not theft; fail generically, no cascade.
		logger.Log.WithField("family", stored.Family).Info("Lost rotation race, treating as duplicate request")
		return "", time.Time{}, nil, ErrInvalidRefreshToken
	}

	newRaw, err := NewRefreshSecret()
	if err != nil {
		return "", time.Time{}, nil, err
	}
	replacement := &model.RefreshToken{
		ID:        uuid.New(),
		UserID:    stored.UserID,
		TokenHash: HashToken(newRaw),
		Family:    stored.Family, // family never changes across the chain
		ExpiresAt: time.Now().Add(refreshTokenTTL()),
	}
	if err := s.tokenRepo.CreateInTx(tx, replacement); err != nil {
		return "", time.Time{}, nil, err
	}
	if err := s.tokenRepo.SetReplacedBy(tx, stored.ID, replacement.ID); err != nil {
		return "", time.Time{}, nil, err
	}

	if err := tx.Commit(); err != nil {
		return "", time.Time{}, nil, fmt.Errorf("could not commit rotation: %w", err)
	}

	return newRaw, replacement.ExpiresAt, user, nil
}

// RevokeToken revokes exactly the session matching the presented secret.
// Unknown secrets are ignored; logout must not become an oracle.
func (s *RefreshService) RevokeToken(rawSecret string) error {
	return s.tokenRepo.RevokeByTokenHash(HashToken(rawSecret))
}

// RevokeAllForUser revokes every live session for a user.
func (s *RefreshService) RevokeAllForUser(userID uuid.UUID) error {
	return s.tokenRepo.RevokeAllForUser(userID)
}
