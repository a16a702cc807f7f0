package handler

import (
	"errors"
	"manga-auth-api/common"
	"manga-auth-api/logger"
	"manga-auth-api/model"
	"manga-auth-api/service"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// UserHandler exposes the administrative user management endpoints that feed
// the authorization gate.
type UserHandler struct {
	service *service.UserService
}

func NewUserHandler(service *service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// UpdateRoles replaces a user's role set. Gated behind user:manage-roles.
func (h *UserHandler) UpdateRoles(w http.ResponseWriter, r *http.Request) *common.AppError {
	targetID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid user id", nil)
	}

	var req model.UpdateUserRoleRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	log := logger.Log.WithFields(logrus.Fields{
		"target_user_id": targetID,
		"roles":          req.Roles,
	})
	log.Info("Update user roles request received")

	if err := h.service.UpdateUserRoles(targetID, req.Roles); err != nil {
		if errors.Is(err, service.ErrInvalidRole) {
			return common.NewAppError(http.StatusBadRequest, err.Error(), nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not update user roles", err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// UpdateStatus activates or deactivates an account. Gated behind
// admin:manage-users.
func (h *UserHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) *common.AppError {
	targetID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid user id", nil)
	}

	var req model.UpdateUserStatusRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	log := logger.Log.WithFields(logrus.Fields{
		"target_user_id": targetID,
		"is_active":      *req.IsActive,
	})
	log.Info("Update user status request received")

	if err := h.service.SetUserStatus(targetID, *req.IsActive); err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not update user status", err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
