// file: service/refresh_service_test.go

package service

import (
	"context"
	"database/sql"
	"errors"
	"manga-auth-api/model"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// mockTokenRepo is a mock for ITokenRepository.
type mockTokenRepo struct{ mock.Mock }

func (m *mockTokenRepo) Create(token *model.RefreshToken) error {
	args := m.Called(token)
	return args.Error(0)
}
func (m *mockTokenRepo) GetByTokenHashForUpdate(tx *sql.Tx, tokenHash string) (*model.RefreshToken, error) {
	args := m.Called(tx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RefreshToken), args.Error(1)
}
func (m *mockTokenRepo) MarkRevoked(tx *sql.Tx, id uuid.UUID) (bool, error) {
	args := m.Called(tx, id)
	return args.Bool(0), args.Error(1)
}
func (m *mockTokenRepo) CreateInTx(tx *sql.Tx, token *model.RefreshToken) error {
	args := m.Called(tx, token)
	return args.Error(0)
}
func (m *mockTokenRepo) SetReplacedBy(tx *sql.Tx, id, replacedByID uuid.UUID) error {
	args := m.Called(tx, id, replacedByID)
	return args.Error(0)
}
func (m *mockTokenRepo) RevokeFamily(tx *sql.Tx, family uuid.UUID) (int64, error) {
	args := m.Called(tx, family)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockTokenRepo) RevokeByTokenHash(tokenHash string) error {
	args := m.Called(tokenHash)
	return args.Error(0)
}
func (m *mockTokenRepo) RevokeAllForUser(userID uuid.UUID) error {
	args := m.Called(userID)
	return args.Error(0)
}

// mockUserRepo is a mock for IUserRepository.
type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) GetByID(id uuid.UUID) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
func (m *mockUserRepo) GetByEmail(email string) (*model.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
func (m *mockUserRepo) GetRoles(userID uuid.UUID) ([]model.Role, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Role), args.Error(1)
}
func (m *mockUserRepo) Create(user *model.User, role model.Role) error {
	args := m.Called(user, role)
	return args.Error(0)
}
func (m *mockUserRepo) ReplaceRoles(userID uuid.UUID, roles []model.Role) error {
	args := m.Called(userID, roles)
	return args.Error(0)
}
func (m *mockUserRepo) UpdatePassword(userID uuid.UUID, passwordHash string) error {
	args := m.Called(userID, passwordHash)
	return args.Error(0)
}
func (m *mockUserRepo) SetEmailVerified(userID uuid.UUID) error {
	args := m.Called(userID)
	return args.Error(0)
}
func (m *mockUserRepo) SetActive(userID uuid.UUID, active bool) error {
	args := m.Called(userID, active)
	return args.Error(0)
}
func (m *mockUserRepo) UpdateLastLogin(userID uuid.UUID) error {
	args := m.Called(userID)
	return args.Error(0)
}
func (m *mockUserRepo) UsernameExists(username string) (bool, error) {
	args := m.Called(username)
	return args.Bool(0), args.Error(1)
}
func (m *mockUserRepo) EmailExists(email string) (bool, error) {
	args := m.Called(email)
	return args.Bool(0), args.Error(1)
}

func activeTestUser(id uuid.UUID) *model.User {
	return &model.User{
		ID:       id,
		Username: "alice",
		Email:    "alice@example.com",
		IsActive: true,
		Roles:    []model.Role{model.RoleReader},
	}
}

func TestRefreshService_IssueInitialToken(t *testing.T) {
	tokenRepo := new(mockTokenRepo)
	userID := uuid.New()

	var created *model.RefreshToken
	tokenRepo.On("Create", mock.AnythingOfType("*model.RefreshToken")).
		Run(func(args mock.Arguments) {
			created = args.Get(0).(*model.RefreshToken)
		}).Return(nil).Once()

	svc := NewRefreshService(nil, tokenRepo, nil)
	raw, expiresAt, err := svc.IssueInitialToken(userID)

	assert.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Equal(t, userID, created.UserID)
	assert.NotEqual(t, uuid.Nil, created.Family)
	// Only the hash hits the database.
	assert.Equal(t, HashToken(raw), created.TokenHash)
	assert.NotEqual(t, raw, created.TokenHash)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiresAt, 5*time.Second)
	tokenRepo.AssertExpectations(t)
}

func TestRefreshService_Rotate_Success(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	dbMock.ExpectBegin()
	dbMock.ExpectCommit()

	userID := uuid.New()
	stored := &model.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: HashToken("old-secret"),
		Family:    uuid.New(),
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}

	tokenRepo := new(mockTokenRepo)
	userRepo := new(mockUserRepo)

	tokenRepo.On("GetByTokenHashForUpdate", mock.Anything, HashToken("old-secret")).Return(stored, nil).Once()
	userRepo.On("GetByID", userID).Return(activeTestUser(userID), nil).Once()
	tokenRepo.On("MarkRevoked", mock.Anything, stored.ID).Return(true, nil).Once()

	var replacement *model.RefreshToken
	tokenRepo.On("CreateInTx", mock.Anything, mock.AnythingOfType("*model.RefreshToken")).
		Run(func(args mock.Arguments) {
			replacement = args.Get(1).(*model.RefreshToken)
		}).Return(nil).Once()
	tokenRepo.On("SetReplacedBy", mock.Anything, stored.ID, mock.AnythingOfType("uuid.UUID")).Return(nil).Once()

	svc := NewRefreshService(db, tokenRepo, userRepo)
	newRaw, expiresAt, user, err := svc.Rotate(context.Background(), "old-secret")

	assert.NoError(t, err)
	assert.NotEmpty(t, newRaw)
	assert.Equal(t, userID, user.ID)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiresAt, 5*time.Second)

	// The replacement stays in the same family and is linked from the old row.
	assert.Equal(t, stored.Family, replacement.Family)
	assert.Equal(t, HashToken(newRaw), replacement.TokenHash)
	tokenRepo.AssertCalled(t, "SetReplacedBy", mock.Anything, stored.ID, replacement.ID)

	tokenRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestRefreshService_Rotate_NotFound(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	dbMock.ExpectBegin()
	dbMock.ExpectRollback()

	tokenRepo := new(mockTokenRepo)
	tokenRepo.On("GetByTokenHashForUpdate", mock.Anything, mock.Anything).Return(nil, sql.ErrNoRows).Once()

	svc := NewRefreshService(db, tokenRepo, new(mockUserRepo))
	_, _, _, err = svc.Rotate(context.Background(), "unknown-secret")

	// Generic failure, indistinguishable from any other invalid secret.
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	tokenRepo.AssertNotCalled(t, "RevokeFamily", mock.Anything, mock.Anything)
}

func TestRefreshService_Rotate_ReuseCascades(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	dbMock.ExpectBegin()
	dbMock.ExpectCommit()

	revokedAt := time.Now().Add(-time.Hour)
	stored := &model.RefreshToken{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		TokenHash: HashToken("stolen-secret"),
		Family:    uuid.New(),
		ExpiresAt: time.Now().Add(24 * time.Hour),
		RevokedAt: &revokedAt,
	}

	tokenRepo := new(mockTokenRepo)
	tokenRepo.On("GetByTokenHashForUpdate", mock.Anything, HashToken("stolen-secret")).Return(stored, nil).Once()
	tokenRepo.On("RevokeFamily", mock.Anything, stored.Family).Return(int64(2), nil).Once()

	svc := NewRefreshService(db, tokenRepo, new(mockUserRepo))
	_, _, _, err = svc.Rotate(context.Background(), "stolen-secret")

	// The security failure is distinguishable from ordinary invalidity.
	assert.ErrorIs(t, err, ErrRefreshTokenReused)
	assert.NotErrorIs(t, err, ErrInvalidRefreshToken)
	tokenRepo.AssertExpectations(t)
	// The cascade must be durable even though the call fails.
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestRefreshService_Rotate_Expired(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	dbMock.ExpectBegin()
	dbMock.ExpectRollback()

	stored := &model.RefreshToken{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		TokenHash: HashToken("old-secret"),
		Family:    uuid.New(),
		ExpiresAt: time.Now().Add(-time.Minute),
	}

	tokenRepo := new(mockTokenRepo)
	tokenRepo.On("GetByTokenHashForUpdate", mock.Anything, mock.Anything).Return(stored, nil).Once()

	svc := NewRefreshService(db, tokenRepo, new(mockUserRepo))
	_, _, _, err = svc.Rotate(context.Background(), "old-secret")

	assert.ErrorIs(t, err, ErrRefreshTokenExpired)
	// Expiry is not a security event; the family stays untouched.
	tokenRepo.AssertNotCalled(t, "RevokeFamily", mock.Anything, mock.Anything)
	tokenRepo.AssertNotCalled(t, "MarkRevoked", mock.Anything, mock.Anything)
}

func TestRefreshService_Rotate_DeactivatedUser(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	dbMock.ExpectBegin()
	dbMock.ExpectRollback()

	userID := uuid.New()
	stored := &model.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: HashToken("old-secret"),
		Family:    uuid.New(),
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	user := activeTestUser(userID)
	user.IsActive = false

	tokenRepo := new(mockTokenRepo)
	userRepo := new(mockUserRepo)
	tokenRepo.On("GetByTokenHashForUpdate", mock.Anything, mock.Anything).Return(stored, nil).Once()
	userRepo.On("GetByID", userID).Return(user, nil).Once()

	svc := NewRefreshService(db, tokenRepo, userRepo)
	_, _, _, err = svc.Rotate(context.Background(), "old-secret")

	assert.ErrorIs(t, err, ErrAccountDeactivated)
	tokenRepo.AssertNotCalled(t, "MarkRevoked", mock.Anything, mock.Anything)
}

func TestRefreshService_Rotate_LostRaceIsBenign(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	dbMock.ExpectBegin()
	dbMock.ExpectRollback()

	userID := uuid.New()
	stored := &model.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: HashToken("old-secret"),
		Family:    uuid.New(),
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}

	tokenRepo := new(mockTokenRepo)
	userRepo := new(mockUserRepo)
	tokenRepo.On("GetByTokenHashForUpdate", mock.Anything, mock.Anything).Return(stored, nil).Once()
	userRepo.On("GetByID", userID).Return(activeTestUser(userID), nil).Once()
	// A concurrent rotation revoked the row between our read and our write.
	tokenRepo.On("MarkRevoked", mock.Anything, stored.ID).Return(false, nil).Once()

	svc := NewRefreshService(db, tokenRepo, userRepo)
	_, _, _, err = svc.Rotate(context.Background(), "old-secret")

	// A duplicate in-flight request is not theft: generic failure, no cascade.
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.NotErrorIs(t, err, ErrRefreshTokenReused)
	tokenRepo.AssertNotCalled(t, "RevokeFamily", mock.Anything, mock.Anything)
	tokenRepo.AssertNotCalled(t, "CreateInTx", mock.Anything, mock.Anything)
}

func TestRefreshService_RevokeToken(t *testing.T) {
	tokenRepo := new(mockTokenRepo)
	tokenRepo.On("RevokeByTokenHash", HashToken("session-secret")).Return(nil).Once()

	svc := NewRefreshService(nil, tokenRepo, nil)
	assert.NoError(t, svc.RevokeToken("session-secret"))
	tokenRepo.AssertExpectations(t)
}

func TestRefreshService_RevokeAllForUser(t *testing.T) {
	userID := uuid.New()
	tokenRepo := new(mockTokenRepo)
	tokenRepo.On("RevokeAllForUser", userID).Return(nil).Once()

	svc := NewRefreshService(nil, tokenRepo, nil)
	assert.NoError(t, svc.RevokeAllForUser(userID))

	// Idempotent: revoking again is still fine.
	tokenRepo.On("RevokeAllForUser", userID).Return(nil).Once()
	assert.NoError(t, svc.RevokeAllForUser(userID))
	tokenRepo.AssertExpectations(t)
}

func TestRefreshService_Rotate_LookupError(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	dbMock.ExpectBegin()
	dbMock.ExpectRollback()

	tokenRepo := new(mockTokenRepo)
	tokenRepo.On("GetByTokenHashForUpdate", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection reset")).Once()

	svc := NewRefreshService(db, tokenRepo, new(mockUserRepo))
	_, _, _, err = svc.Rotate(context.Background(), "old-secret")

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidRefreshToken)
}
