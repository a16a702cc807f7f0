// file: service/auth_service_test.go

package service

import (
	"context"
	"database/sql"
	"manga-auth-api/model"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// mockVerificationRepo is a mock for IVerificationTokenRepository.
type mockVerificationRepo struct{ mock.Mock }

func (m *mockVerificationRepo) Create(token *model.VerificationToken) error {
	args := m.Called(token)
	return args.Error(0)
}
func (m *mockVerificationRepo) GetByTokenHash(tokenHash string, userID uuid.UUID, purpose model.VerificationPurpose) (*model.VerificationToken, error) {
	args := m.Called(tokenHash, userID, purpose)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VerificationToken), args.Error(1)
}
func (m *mockVerificationRepo) MarkUsed(id uuid.UUID) error {
	args := m.Called(id)
	return args.Error(0)
}

func newAuthServiceForTest(userRepo *mockUserRepo, verificationRepo *mockVerificationRepo, tokenRepo *mockTokenRepo, blacklist *TokenBlacklist) *AuthService {
	refresh := NewRefreshService(nil, tokenRepo, userRepo)
	return NewAuthService(userRepo, verificationRepo, refresh, blacklist, LogEmailSender{})
}

func TestAuthService_Login_ReaderClaims(t *testing.T) {
	password := "password12345"
	passwordHash, err := HashPassword(password)
	assert.NoError(t, err)

	userID := uuid.New()
	user := activeTestUser(userID)
	user.PasswordHash = passwordHash

	userRepo := new(mockUserRepo)
	tokenRepo := new(mockTokenRepo)
	userRepo.On("GetByEmail", user.Email).Return(user, nil).Once()
	userRepo.On("UpdateLastLogin", userID).Return(nil).Once()
	tokenRepo.On("Create", mock.AnythingOfType("*model.RefreshToken")).Return(nil).Once()

	svc := newAuthServiceForTest(userRepo, new(mockVerificationRepo), tokenRepo, nil)
	result, err := svc.Login(context.Background(), model.LoginRequest{Email: user.Email, Password: password})

	assert.NoError(t, err)
	assert.NotEmpty(t, result.RawRefreshSecret)
	assert.Equal(t, "alice", result.Auth.User.Username)

	// A reader's token carries exactly the reader permissions.
	claims := parseAccessToken(t, result.Auth.AccessToken)
	assert.Equal(t, []string{"reader"}, claims.Roles)
	assert.ElementsMatch(t, []string{"comment:create", "comment:update", "attachment:upload"}, claims.Permissions)
	assert.NotContains(t, claims.Permissions, "manga:delete")

	userRepo.AssertExpectations(t)
	tokenRepo.AssertExpectations(t)
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	passwordHash, _ := HashPassword("the-real-password")
	user := activeTestUser(uuid.New())
	user.PasswordHash = passwordHash

	userRepo := new(mockUserRepo)
	userRepo.On("GetByEmail", user.Email).Return(user, nil).Once()

	svc := newAuthServiceForTest(userRepo, new(mockVerificationRepo), new(mockTokenRepo), nil)
	_, err := svc.Login(context.Background(), model.LoginRequest{Email: user.Email, Password: "a-wrong-password"})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	userRepo := new(mockUserRepo)
	userRepo.On("GetByEmail", "nobody@example.com").Return(nil, sql.ErrNoRows).Once()

	svc := newAuthServiceForTest(userRepo, new(mockVerificationRepo), new(mockTokenRepo), nil)
	_, err := svc.Login(context.Background(), model.LoginRequest{Email: "nobody@example.com", Password: "password12345"})

	// Same failure as a wrong password, to block account enumeration.
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_DeactivatedAccount(t *testing.T) {
	password := "password12345"
	passwordHash, _ := HashPassword(password)
	user := activeTestUser(uuid.New())
	user.PasswordHash = passwordHash
	user.IsActive = false

	userRepo := new(mockUserRepo)
	userRepo.On("GetByEmail", user.Email).Return(user, nil).Once()

	svc := newAuthServiceForTest(userRepo, new(mockVerificationRepo), new(mockTokenRepo), nil)
	_, err := svc.Login(context.Background(), model.LoginRequest{Email: user.Email, Password: password})

	assert.ErrorIs(t, err, ErrAccountDeactivated)
}

func TestAuthService_Logout_BlacklistsRemainingLifetime(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	userID := uuid.New()
	tokenRepo := new(mockTokenRepo)
	tokenRepo.On("RevokeAllForUser", userID).Return(nil).Once()

	svc := newAuthServiceForTest(new(mockUserRepo), new(mockVerificationRepo), tokenRepo, NewTokenBlacklist(client))

	// Access token with 600 seconds of life left.
	err = svc.Logout(context.Background(), userID, "logout-jti", time.Now().Add(600*time.Second))
	assert.NoError(t, err)

	ttl := mr.TTL("blacklist:logout-jti")
	assert.InDelta(t, 600, ttl.Seconds(), 5)
	tokenRepo.AssertExpectations(t)
}

func TestAuthService_Register(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		verificationRepo := new(mockVerificationRepo)
		userRepo.On("UsernameExists", "bob").Return(false, nil).Once()
		userRepo.On("EmailExists", "bob@example.com").Return(false, nil).Once()
		userRepo.On("Create", mock.AnythingOfType("*model.User"), model.RoleReader).Return(nil).Once()

		var verification *model.VerificationToken
		verificationRepo.On("Create", mock.AnythingOfType("*model.VerificationToken")).
			Run(func(args mock.Arguments) {
				verification = args.Get(0).(*model.VerificationToken)
			}).Return(nil).Once()

		svc := newAuthServiceForTest(userRepo, verificationRepo, new(mockTokenRepo), nil)
		err := svc.Register(context.Background(), model.RegisterRequest{
			Username: "bob",
			Email:    "bob@example.com",
			Password: "password12345",
		})

		assert.NoError(t, err)
		assert.Equal(t, model.PurposeEmailVerification, verification.Purpose)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), verification.ExpiresAt, 5*time.Second)
		userRepo.AssertExpectations(t)
		verificationRepo.AssertExpectations(t)
	})

	t.Run("username taken", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		userRepo.On("UsernameExists", "bob").Return(true, nil).Once()

		svc := newAuthServiceForTest(userRepo, new(mockVerificationRepo), new(mockTokenRepo), nil)
		err := svc.Register(context.Background(), model.RegisterRequest{
			Username: "bob",
			Email:    "bob@example.com",
			Password: "password12345",
		})

		assert.ErrorIs(t, err, ErrUsernameTaken)
		userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAuthService_VerifyEmail(t *testing.T) {
	userID := uuid.New()
	raw := "raw-verification-secret"

	t.Run("valid token", func(t *testing.T) {
		token := &model.VerificationToken{
			ID:        uuid.New(),
			UserID:    userID,
			TokenHash: HashToken(raw),
			Purpose:   model.PurposeEmailVerification,
			ExpiresAt: time.Now().Add(time.Hour),
		}

		userRepo := new(mockUserRepo)
		verificationRepo := new(mockVerificationRepo)
		verificationRepo.On("GetByTokenHash", HashToken(raw), userID, model.PurposeEmailVerification).Return(token, nil).Once()
		verificationRepo.On("MarkUsed", token.ID).Return(nil).Once()
		userRepo.On("SetEmailVerified", userID).Return(nil).Once()

		svc := newAuthServiceForTest(userRepo, verificationRepo, new(mockTokenRepo), nil)
		assert.NoError(t, svc.VerifyEmail(context.Background(), userID, raw))
		verificationRepo.AssertExpectations(t)
		userRepo.AssertExpectations(t)
	})

	t.Run("already used", func(t *testing.T) {
		usedAt := time.Now().Add(-time.Minute)
		token := &model.VerificationToken{
			ID:        uuid.New(),
			UserID:    userID,
			TokenHash: HashToken(raw),
			Purpose:   model.PurposeEmailVerification,
			ExpiresAt: time.Now().Add(time.Hour),
			UsedAt:    &usedAt,
		}

		verificationRepo := new(mockVerificationRepo)
		verificationRepo.On("GetByTokenHash", mock.Anything, userID, model.PurposeEmailVerification).Return(token, nil).Once()

		svc := newAuthServiceForTest(new(mockUserRepo), verificationRepo, new(mockTokenRepo), nil)
		err := svc.VerifyEmail(context.Background(), userID, raw)

		assert.ErrorIs(t, err, ErrInvalidVerificationToken)
		verificationRepo.AssertNotCalled(t, "MarkUsed", mock.Anything)
	})
}

func TestAuthService_ResetPassword(t *testing.T) {
	userID := uuid.New()
	raw := "raw-reset-secret"
	token := &model.VerificationToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: HashToken(raw),
		Purpose:   model.PurposePasswordReset,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	userRepo := new(mockUserRepo)
	verificationRepo := new(mockVerificationRepo)
	tokenRepo := new(mockTokenRepo)
	verificationRepo.On("GetByTokenHash", HashToken(raw), userID, model.PurposePasswordReset).Return(token, nil).Once()
	verificationRepo.On("MarkUsed", token.ID).Return(nil).Once()
	userRepo.On("UpdatePassword", userID, mock.AnythingOfType("string")).Return(nil).Once()
	// Every live session dies with the old password.
	tokenRepo.On("RevokeAllForUser", userID).Return(nil).Once()

	svc := newAuthServiceForTest(userRepo, verificationRepo, tokenRepo, nil)
	assert.NoError(t, svc.ResetPassword(context.Background(), userID, raw, "new-password-123"))

	userRepo.AssertExpectations(t)
	verificationRepo.AssertExpectations(t)
	tokenRepo.AssertExpectations(t)
}

func TestAuthService_ForgotPassword_UnknownEmail(t *testing.T) {
	userRepo := new(mockUserRepo)
	verificationRepo := new(mockVerificationRepo)
	userRepo.On("GetByEmail", "ghost@example.com").Return(nil, sql.ErrNoRows).Once()

	svc := newAuthServiceForTest(userRepo, verificationRepo, new(mockTokenRepo), nil)

	// Succeeds silently so callers cannot probe for registered addresses.
	assert.NoError(t, svc.ForgotPassword(context.Background(), "ghost@example.com"))
	verificationRepo.AssertNotCalled(t, "Create", mock.Anything)
}
