package dto

import "time"

// LoginRequest is the body of POST /login (form) and POST /api/v1/auth/login (JSON).
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
	Next     string `json:"-" form:"next"`
}

// RegisterRequest is the body of POST /register and POST /api/v1/auth/register.
type RegisterRequest struct {
	Username string `json:"username" form:"username" binding:"required,username"`
	Email    string `json:"email" form:"email" binding:"omitempty,email,max=254"`
	Password string `json:"password" form:"password" binding:"required,min=8,max=72"`
}

// SessionResponse describes the caller's session on GET /api/v1/auth/session.
type SessionResponse struct {
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is returned when user info is needed (e.g. after login).
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
