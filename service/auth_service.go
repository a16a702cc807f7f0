// file: service/auth_service.go

package service

import (
	"context"
	"database/sql"
	"errors"
	"manga-auth-api/config"
	"manga-auth-api/logger"
	"manga-auth-api/model"
	"manga-auth-api/repository"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidCredentials is deliberately generic: unknown email and wrong
	// password are indistinguishable to prevent account enumeration.
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrUsernameTaken            = errors.New("username is already taken")
	ErrEmailTaken               = errors.New("email is already registered")
	ErrInvalidVerificationToken = errors.New("invalid or expired verification link")
)

// AuthService orchestrates login, registration, refresh, logout and the
// verification/reset flows on top of the token issuer, the rotation engine
// and the revocation cache.
type AuthService struct {
	userRepo         repository.IUserRepository
	verificationRepo repository.IVerificationTokenRepository
	refresh          *RefreshService
	blacklist        *TokenBlacklist
	email            EmailSender
}

func NewAuthService(
	userRepo repository.IUserRepository,
	verificationRepo repository.IVerificationTokenRepository,
	refresh *RefreshService,
	blacklist *TokenBlacklist,
	email EmailSender,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		verificationRepo: verificationRepo,
		refresh:          refresh,
		blacklist:        blacklist,
		email:            email,
	}
}

// Register creates a new user with the default reader role and queues an
// email verification token.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) error {
	if taken, err := s.userRepo.UsernameExists(req.Username); err != nil {
		return err
	} else if taken {
		return ErrUsernameTaken
	}
	if taken, err := s.userRepo.EmailExists(req.Email); err != nil {
		return err
	} else if taken {
		return ErrEmailTaken
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		return err
	}

	user := &model.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		IsActive:     true,
	}
	if err := s.userRepo.Create(user, model.RoleReader); err != nil {
		return err
	}

	rawToken, err := NewVerificationSecret()
	if err != nil {
		return err
	}
	verification := &model.VerificationToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: HashToken(rawToken),
		Purpose:   model.PurposeEmailVerification,
		ExpiresAt: time.Now().Add(time.Duration(config.AppConfig.JWT.VerificationTokenHours) * time.Hour),
	}
	if err := s.verificationRepo.Create(verification); err != nil {
		return err
	}

	logger.Log.WithField("user_id", user.ID).Info("User registered")
	return s.email.SendVerificationEmail(ctx, user.Email, user.Username, rawToken, user.ID)
}

// Login checks credentials and, on success, issues an access token plus an
// initial refresh token starting a new rotation family.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResult, error) {
	user, err := s.userRepo.GetByEmail(req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	result, err := s.issueSession(user, func() (string, time.Time, error) {
		return s.refresh.IssueInitialToken(user.ID)
	})
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateLastLogin(user.ID); err != nil {
		// Login already succeeded; the timestamp is best-effort.
		logger.Log.WithError(err).WithField("user_id", user.ID).Warn("Failed to update last login timestamp")
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("User logged in")
	return result, nil
}

// Refresh rotates the presented refresh secret and issues a fresh access
// token. Failures pass through the rotation engine's taxonomy, including the
// distinguishable reuse-detected case.
func (s *AuthService) Refresh(ctx context.Context, rawSecret string) (*model.LoginResult, error) {
	newRaw, refreshExpiresAt, user, err := s.refresh.Rotate(ctx, rawSecret)
	if err != nil {
		return nil, err
	}
	return s.issueSession(user, func() (string, time.Time, error) {
		return newRaw, refreshExpiresAt, nil
	})
}

// issueSession builds the access token and response for an authenticated
// user, taking the refresh secret from the supplied source.
func (s *AuthService) issueSession(user *model.User, refreshSecret func() (string, time.Time, error)) (*model.LoginResult, error) {
	permissions := model.ResolvePermissions(user.Roles)
	accessToken, _, expiresAt, err := IssueAccessToken(user.ID, user.Username, user.Roles, permissions)
	if err != nil {
		return nil, err
	}

	rawSecret, refreshExpiresAt, err := refreshSecret()
	if err != nil {
		return nil, err
	}

	return &model.LoginResult{
		Auth: model.AuthResponse{
			AccessToken: accessToken,
			ExpiresAt:   expiresAt,
			User:        user.Profile(),
		},
		RawRefreshSecret: rawSecret,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// Logout blacklists the presented access token for its remaining lifetime
// and revokes every refresh token the user holds.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, jti string, accessExpiresAt time.Time) error {
	remaining := time.Until(accessExpiresAt)
	if err := s.blacklist.Revoke(ctx, jti, remaining); err != nil {
		return err
	}
	if err := s.refresh.RevokeAllForUser(userID); err != nil {
		return err
	}
	logger.Log.WithField("user_id", userID).Info("User logged out, sessions revoked")
	return nil
}

// VerifyEmail consumes an email verification token exactly once.
func (s *AuthService) VerifyEmail(ctx context.Context, userID uuid.UUID, rawToken string) error {
	token, err := s.verificationRepo.GetByTokenHash(HashToken(rawToken), userID, model.PurposeEmailVerification)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrInvalidVerificationToken
		}
		return err
	}
	if !token.Valid() {
		return ErrInvalidVerificationToken
	}

	if err := s.verificationRepo.MarkUsed(token.ID); err != nil {
		return err
	}
	return s.userRepo.SetEmailVerified(userID)
}

// ForgotPassword creates a password reset token and queues the mail. Unknown
// emails succeed silently to prevent enumeration.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return err
	}

	rawToken, err := NewVerificationSecret()
	if err != nil {
		return err
	}
	token := &model.VerificationToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: HashToken(rawToken),
		Purpose:   model.PurposePasswordReset,
		ExpiresAt: time.Now().Add(time.Duration(config.AppConfig.JWT.PasswordResetTokenHours) * time.Hour),
	}
	if err := s.verificationRepo.Create(token); err != nil {
		return err
	}
	return s.email.SendPasswordResetEmail(ctx, user.Email, user.Username, rawToken, user.ID)
}

// ResetPassword consumes a reset token, replaces the password hash and
// revokes every refresh token so all devices must log in again.
func (s *AuthService) ResetPassword(ctx context.Context, userID uuid.UUID, rawToken, newPassword string) error {
	token, err := s.verificationRepo.GetByTokenHash(HashToken(rawToken), userID, model.PurposePasswordReset)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrInvalidVerificationToken
		}
		return err
	}
	if !token.Valid() {
		return ErrInvalidVerificationToken
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.verificationRepo.MarkUsed(token.ID); err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(userID, passwordHash); err != nil {
		return err
	}
	if err := s.refresh.RevokeAllForUser(userID); err != nil {
		return err
	}

	logger.Log.WithField("user_id", userID).Info("Password reset, all sessions revoked")
	return nil
}

// CurrentUser loads the profile of the authenticated user.
func (s *AuthService) CurrentUser(userID uuid.UUID) (*model.User, error) {
	return s.userRepo.GetByID(userID)
}
