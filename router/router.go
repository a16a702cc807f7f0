package router

import (
	"manga-auth-api/handler"
	"manga-auth-api/model"
	"net/http"
)

// NewRouter registers every route together with its declarative requirement.
// This table is the single place where operations state what they demand;
// the gate enforces it before any handler logic runs.
func NewRouter(authHandler *handler.AuthHandler, userHandler *handler.UserHandler, gate *handler.Gate) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)

	mux.Handle("POST /api/auth/register", gate.Require(handler.Requirement{}, authHandler.Register))
	mux.Handle("POST /api/auth/login", gate.Require(handler.Requirement{}, authHandler.Login))
	mux.Handle("POST /api/auth/refresh", gate.Require(handler.Requirement{}, authHandler.Refresh))
	mux.Handle("POST /api/auth/logout", gate.Require(handler.Authenticated(), authHandler.Logout))
	mux.Handle("POST /api/auth/verify-email", gate.Require(handler.Requirement{}, authHandler.VerifyEmail))
	mux.Handle("POST /api/auth/forgot-password", gate.Require(handler.Requirement{}, authHandler.ForgotPassword))
	mux.Handle("POST /api/auth/reset-password", gate.Require(handler.Requirement{}, authHandler.ResetPassword))
	mux.Handle("GET /api/auth/me", gate.Require(handler.Authenticated(), authHandler.Me))

	mux.Handle("PUT /api/users/{id}/roles",
		gate.Require(handler.RequirePermissions(model.PermissionUserManageRoles), userHandler.UpdateRoles))
	mux.Handle("PUT /api/users/{id}/status",
		gate.Require(handler.RequirePermissions(model.PermissionAdminManageUsers), userHandler.UpdateStatus))

	return mux
}
