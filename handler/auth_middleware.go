package handler

import (
	"context"
	"errors"
	"manga-auth-api/common"
	"manga-auth-api/config"
	"manga-auth-api/logger"
	"manga-auth-api/model"
	"manga-auth-api/service"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const (
	UserIDKey contextKey = "userID"
	ClaimsKey contextKey = "claims"
)

// AuthMiddleware resolves the caller's identity from a bearer access token.
// Requests without an Authorization header pass through unauthenticated; the
// authorization gate decides per operation whether that is acceptable.
//
// Authenticated requests are checked against the revocation cache before
// anything else runs. A revoked token is rejected exactly like an invalid one
// (distinguishable only in logs), and an unreachable cache fails closed with
// 503 rather than admitting a possibly revoked token.
func AuthMiddleware(blacklist *service.TokenBlacklist, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		headerParts := strings.Split(authHeader, " ")
		if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
			appErr := common.NewAppError(http.StatusUnauthorized, "Invalid authorization header format", nil)
			appErr.Send(w)
			return
		}

		claims := &model.AppClaims{}
		jwtKey := []byte(config.AppConfig.JWT.SecretKey)

		token, err := jwt.ParseWithClaims(headerParts[1], claims, func(token *jwt.Token) (interface{}, error) {
			return jwtKey, nil
		})
		if err != nil || !token.Valid {
			appErr := common.NewAppError(http.StatusUnauthorized, "Invalid or expired token", err)
			appErr.Send(w)
			return
		}

		revoked, err := blacklist.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			if errors.Is(err, service.ErrBlacklistUnavailable) {
				appErr := common.NewAppError(http.StatusServiceUnavailable, "Service temporarily unavailable", err)
				appErr.Send(w)
				return
			}
			appErr := common.NewAppError(http.StatusInternalServerError, "Could not verify token", err)
			appErr.Send(w)
			return
		}
		if revoked {
			logger.Log.WithField("jti", claims.ID).Warn("Rejected revoked access token")
			appErr := common.NewAppError(http.StatusUnauthorized, "Invalid or expired token", nil)
			appErr.Send(w)
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			appErr := common.NewAppError(http.StatusUnauthorized, "Invalid or expired token", err)
			appErr.Send(w)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		ctx = context.WithValue(ctx, ClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
