package service

import (
	"errors"
	"manga-auth-api/logger"
	"manga-auth-api/model"
	"manga-auth-api/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrInvalidRole rejects role values outside the known set.
var ErrInvalidRole = errors.New("invalid role specified")

// UserService handles the administrative user operations that feed the
// authorization gate: role assignment and account status.
type UserService struct {
	userRepo repository.IUserRepository
	refresh  *RefreshService
}

func NewUserService(userRepo repository.IUserRepository, refresh *RefreshService) *UserService {
	return &UserService{userRepo: userRepo, refresh: refresh}
}

// UpdateUserRoles validates and replaces a user's role set. The change takes
// effect on the next gated request since the gate resolves roles per request.
func (s *UserService) UpdateUserRoles(userID uuid.UUID, roles []model.Role) error {
	for _, role := range roles {
		if !model.ValidRole(role) {
			return ErrInvalidRole
		}
	}

	if err := s.userRepo.ReplaceRoles(userID, roles); err != nil {
		return err
	}
	logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"roles":   roles,
	}).Info("User roles updated")
	return nil
}

// SetUserStatus activates or deactivates an account. Deactivation also
// revokes the user's refresh tokens so live sessions end at access-token
// expiry rather than lingering for days.
func (s *UserService) SetUserStatus(userID uuid.UUID, active bool) error {
	if err := s.userRepo.SetActive(userID, active); err != nil {
		return err
	}
	if !active {
		if err := s.refresh.RevokeAllForUser(userID); err != nil {
			return err
		}
	}
	logger.Log.WithFields(logrus.Fields{
		"user_id":   userID,
		"is_active": active,
	}).Info("User status updated")
	return nil
}
