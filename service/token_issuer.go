// file: service/token_issuer.go

package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"manga-auth-api/config"
	"manga-auth-api/logger"
	"manga-auth-api/model"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func getJwtKey() []byte {
	return []byte(config.AppConfig.JWT.SecretKey)
}

// IssueAccessToken builds and signs a short-lived access token carrying the
// user's roles and derived permissions. Returns the signed string, the jti
// (used later as the revocation-cache key) and the absolute expiry.
func IssueAccessToken(userID uuid.UUID, username string, roles []model.Role, permissions []model.Permission) (string, string, time.Time, error) {
	jti := uuid.NewString()
	expiresAt := time.Now().Add(time.Duration(config.AppConfig.JWT.AccessTokenMinutes) * time.Minute)

	roleNames := make([]string, len(roles))
	for i, r := range roles {
		roleNames[i] = string(r)
	}
	permNames := make([]string, len(permissions))
	for i, p := range permissions {
		permNames[i] = string(p)
	}

	claims := &model.AppClaims{
		Username:    username,
		Roles:       roleNames,
		Permissions: permNames,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        jti,
			Issuer:    config.AppConfig.JWT.Issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(getJwtKey())
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to sign access token")
		return "", "", time.Time{}, fmt.Errorf("failed to sign token string: %w", err)
	}

	return signed, jti, expiresAt, nil
}

// NewRefreshSecret returns a fresh opaque refresh secret: 64 bytes of
// cryptographic randomness, base64 encoded. Only its SHA-256 hash is ever
// persisted.
func NewRefreshSecret() (string, error) {
	return randomSecret(64, base64.StdEncoding)
}

// NewVerificationSecret returns a fresh verification secret safe to embed in
// an email link query string without escaping.
func NewVerificationSecret() (string, error) {
	return randomSecret(32, base64.RawURLEncoding)
}

func randomSecret(n int, enc *base64.Encoding) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		logger.Log.WithError(err).Error("Failed to read random bytes for token secret")
		return "", fmt.Errorf("failed to generate token secret: %w", err)
	}
	return enc.EncodeToString(bytes), nil
}
