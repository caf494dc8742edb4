package models

import "time"

// User represents the structure of the users table
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"` // Exclude password hash from JSON responses
	CreatedAt    time.Time `json:"created_at"`
}
