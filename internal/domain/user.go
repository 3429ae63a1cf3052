package domain

import "time"

// User is the domain entity for a user account.
// Profile fields are nullable in the users table and stay nil until the user fills them in.
type User struct {
	ID           int64
	Email        *string
	Username     *string
	Fullname     *string
	ProfileImage *string
	PasswordHash string
	CreatedAt    time.Time
}
