package models

import "time"

// User is a registered account on the processing backend.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserInfo is the profile surface shown to the client: the login name plus
// the email claim extracted from the bearer token (best effort).
type UserInfo struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}
