package model

import "github.com/golang-jwt/jwt/v5"

// AppClaims is the claim set carried by an access token. The registered
// claims hold the subject (user id), jti, issue and expiry times.
type AppClaims struct {
	Username    string   `json:"name"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}
