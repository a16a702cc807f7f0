// file: model/response.go

package model

import "time"

// UserProfile is the public view of a user returned by auth endpoints.
type UserProfile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	Roles       []Role `json:"roles"`
}

// AuthResponse is the body returned on successful login and refresh. The new
// refresh secret travels separately in an HTTP-only cookie, never in the body.
type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        UserProfile `json:"user"`
}

// LoginResult bundles everything the transport layer needs after a successful
// login or refresh: the response body plus the raw refresh secret and its
// expiry for the cookie.
type LoginResult struct {
	Auth             AuthResponse
	RawRefreshSecret string
	RefreshExpiresAt time.Time
}

// Profile builds the public profile view of a user.
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:          u.ID.String(),
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Roles:       u.Roles,
	}
}
