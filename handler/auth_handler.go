// file: handler/auth_handler.go

package handler

import (
	"encoding/json"
	"errors"
	"manga-auth-api/common"
	"manga-auth-api/logger"
	"manga-auth-api/model"
	"manga-auth-api/service"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const refreshCookieName = "refresh_token"
const refreshCookiePath = "/api/auth"

// AuthHandler exposes the authentication endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register handles new user sign-up.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RegisterRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	if err := h.auth.Register(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken), errors.Is(err, service.ErrEmailTaken):
			return common.NewAppError(http.StatusConflict, err.Error(), nil)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not register user", err)
		}
	}

	w.WriteHeader(http.StatusCreated)
	return nil
}

// Login authenticates with email and password. The access token is returned
// in the body; the refresh secret only ever travels in an HTTP-only cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	result, err := h.auth.Login(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			return common.NewAppError(http.StatusUnauthorized, "Invalid credentials", nil)
		case errors.Is(err, service.ErrAccountDeactivated):
			return common.NewAppError(http.StatusForbidden, "Account has been deactivated", nil)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not log in", err)
		}
	}

	setRefreshCookie(w, result.RawRefreshSecret, result.RefreshExpiresAt)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result.Auth)
	return nil
}

// Refresh rotates the refresh secret from the cookie and returns a fresh
// access token. Any rotation failure clears the cookie; the reuse-detected
// case carries a distinct message so clients drop all stored credentials.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return common.NewAppError(http.StatusUnauthorized, "Refresh token required", nil)
	}

	result, err := h.auth.Refresh(r.Context(), cookie.Value)
	if err != nil {
		clearRefreshCookie(w)
		switch {
		case errors.Is(err, service.ErrRefreshTokenReused):
			return common.NewAppError(http.StatusUnauthorized, "Token reuse detected. All sessions revoked.", nil)
		case errors.Is(err, service.ErrRefreshTokenExpired):
			return common.NewAppError(http.StatusUnauthorized, "Refresh token expired", nil)
		case errors.Is(err, service.ErrAccountDeactivated):
			return common.NewAppError(http.StatusForbidden, "Account has been deactivated", nil)
		case errors.Is(err, service.ErrInvalidRefreshToken):
			return common.NewAppError(http.StatusUnauthorized, "Invalid refresh token", nil)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not refresh session", err)
		}
	}

	setRefreshCookie(w, result.RawRefreshSecret, result.RefreshExpiresAt)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result.Auth)
	return nil
}

// Logout revokes the current access token and every refresh session, then
// clears the cookie. Declared with the Authenticated requirement.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(uuid.UUID)
	claims, claimsOK := r.Context().Value(ClaimsKey).(*model.AppClaims)
	if !ok || !claimsOK {
		return common.NewAppError(http.StatusUnauthorized, "Authentication required", nil)
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	if err := h.auth.Logout(r.Context(), userID, claims.ID, expiresAt); err != nil {
		if errors.Is(err, service.ErrBlacklistUnavailable) {
			return common.NewAppError(http.StatusServiceUnavailable, "Service temporarily unavailable", err)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not log out", err)
	}

	clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// VerifyEmail consumes an email verification token.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.VerifyEmailRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid user id", nil)
	}

	if err := h.auth.VerifyEmail(r.Context(), userID, req.Token); err != nil {
		if errors.Is(err, service.ErrInvalidVerificationToken) {
			return common.NewAppError(http.StatusBadRequest, err.Error(), nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not verify email", err)
	}

	w.WriteHeader(http.StatusOK)
	return nil
}

// ForgotPassword starts the reset flow. Always 200, to prevent probing for
// registered addresses.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.ForgotPasswordRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	if err := h.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		logger.Log.WithError(err).Error("Forgot password flow failed")
	}

	w.WriteHeader(http.StatusOK)
	return nil
}

// ResetPassword completes the reset flow and force-logs-out all devices.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.ResetPasswordRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid user id", nil)
	}

	if err := h.auth.ResetPassword(r.Context(), userID, req.Token, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidVerificationToken) {
			return common.NewAppError(http.StatusBadRequest, err.Error(), nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not reset password", err)
	}

	w.WriteHeader(http.StatusOK)
	return nil
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(uuid.UUID)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Authentication required", nil)
	}

	user, err := h.auth.CurrentUser(userID)
	if err != nil {
		return common.NewAppError(http.StatusNotFound, "User not found", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(user.Profile())
	return nil
}

func setRefreshCookie(w http.ResponseWriter, rawSecret string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    rawSecret,
		Path:     refreshCookiePath,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
