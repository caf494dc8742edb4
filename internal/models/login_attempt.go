package models

import "time"

// LoginAttempt is one append-only row of login_logs.
// UserID is nil when the attempted username did not resolve to a user.
type LoginAttempt struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id"`
	LoginTime time.Time `json:"login_time"`
	IPAddress string    `json:"ip_address,omitempty"`
	Success   bool      `json:"success"`
}
