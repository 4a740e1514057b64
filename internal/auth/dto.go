package auth

import (
	"time"

	"github.com/angelmondragon/foodstore/pkg/enums"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

// LoginResponse is returned after a successful sign-in.
type LoginResponse struct {
	AccessToken string     `json:"access_token"`
	ExpiresAt   time.Time  `json:"expires_at"`
	Username    string     `json:"username"`
	Role        enums.Role `json:"role"`
	UserID      int64      `json:"user_id"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=200"`
}

type ForgotPasswordRequest struct {
	EmailOrUsername string `json:"email_or_username" validate:"required,max=200"`
}

type VerifyOTPRequest struct {
	EmailOrUsername string `json:"email_or_username" validate:"required,max=200"`
	OTP             string `json:"otp" validate:"required,max=12"`
}

type ResetPasswordRequest struct {
	EmailOrUsername string `json:"email_or_username" validate:"required,max=200"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=200"`
}
