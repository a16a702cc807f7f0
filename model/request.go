// file: model/request.go

package model

// RegisterRequest defines the payload for creating a new user.
// It includes validation tags to ensure data integrity at the entry point.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest defines the payload for user authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// VerifyEmailRequest carries the raw verification secret from the email link.
type VerifyEmailRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Token  string `json:"token" validate:"required"`
}

// ForgotPasswordRequest starts the password reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes the password reset flow.
type ResetPasswordRequest struct {
	UserID      string `json:"user_id" validate:"required,uuid"`
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// UpdateUserRoleRequest defines the payload for replacing a user's roles.
// Using a dedicated struct instead of an inline anonymous struct in the
// handler improves code clarity and reusability.
type UpdateUserRoleRequest struct {
	Roles []Role `json:"roles" validate:"required,min=1,dive,oneof=reader uploader moderator admin"`
}

// UpdateUserStatusRequest activates or deactivates an account.
type UpdateUserStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}
