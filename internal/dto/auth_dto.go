package dto

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/models"
	"github.com/google/uuid"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// IDTokenSignInRequest carries a provider identity token from a native client.
type IDTokenSignInRequest struct {
	IDToken string `json:"id_token"`
	Name    string `json:"name,omitempty"`
}

type AuthResponse struct {
	User      auth.Identity `json:"user"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
}

type SessionResponse struct {
	User      UserResponse `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type RegisterResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

type UserResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	AvatarURL     string    `json:"avatar_url"`
	Role          auth.Role `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	HasPassword   bool      `json:"has_password"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		AvatarURL:     u.AvatarURL,
		Role:          u.Role,
		EmailVerified: u.EmailVerifiedAt != nil,
		HasPassword:   u.HasPassword(),
		CreatedAt:     u.CreatedAt,
	}
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
	Redis     string `json:"redis"`
}

type LandingResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
