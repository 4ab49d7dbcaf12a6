package models

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name" validate:"required"`
	Email     string    `json:"email" validate:"required,email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// for registration
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name"`
	// AdminToken must match ADMIN_SIGNUP_TOKEN to register an address listed
	// in ADMIN_EMAILS.
	AdminToken string `json:"admin_token,omitempty"`
}

// for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// for login response
type LoginResponse struct {
	Success        bool   `json:"success"`
	Token          string `json:"token,omitempty"`
	ExpiresIn      int    `json:"expires_in,omitempty"`
	RemainingTries int    `json:"remaining_tries,omitempty"`
	RetryAfter     int    `json:"retry_after,omitempty"`
	Message        string `json:"message,omitempty"`
}

// Identity is who is calling: the signed-in user and whether they administer
// the store. Services take it explicitly instead of reading ambient session state.
type Identity struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	IsAdmin     bool      `json:"is_admin"`
}

// Name is the display name, or the local part of the email when there is none.
func (i *Identity) Name() string {
	if name := strings.TrimSpace(i.DisplayName); name != "" {
		return name
	}

	local, _, _ := strings.Cut(i.Email, "@")

	return local
}

// JWT claims structure
type Claims struct {
	UserID  uuid.UUID `json:"user_id"`
	Email   string    `json:"email"`
	Name    string    `json:"name,omitempty"`
	IsAdmin bool      `json:"is_admin,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() *Identity {
	return &Identity{
		UserID:      c.UserID,
		Email:       c.Email,
		DisplayName: c.Name,
		IsAdmin:     c.IsAdmin,
	}
}
