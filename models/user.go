package models

import (
	"errors"
	"strings"
	"time"
)

// MinPasswordLen is the shortest password Register accepts.
const MinPasswordLen = 6

var (
	ErrMissingCredentials = errors.New("username, display name and password are required")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
)

// User is an account; its ID is the owner id of every reminder, report and
// chat session it creates.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type UserResponse struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

type RegisterRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

// Normalize trims the username and display name. Usernames are
// case-insensitive.
func (r *RegisterRequest) Normalize() {
	r.Username = strings.ToLower(strings.TrimSpace(r.Username))
	r.DisplayName = strings.TrimSpace(r.DisplayName)
}

func (r RegisterRequest) Validate() error {
	if r.Username == "" || r.DisplayName == "" || r.Password == "" {
		return ErrMissingCredentials
	}
	if len(r.Password) < MinPasswordLen {
		return ErrPasswordTooShort
	}
	return nil
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}
