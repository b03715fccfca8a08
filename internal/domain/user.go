package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account. The avatar PNG is stored alongside the record but only
// loaded through UserRepository.GetAvatar; HasAvatar reflects its presence.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Age          int       `json:"age"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Tokens       []string  `json:"-"`
	HasAvatar    bool      `json:"has_avatar"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasToken reports whether token is one of the user's active sessions.
func (u *User) HasToken(token string) bool {
	for _, t := range u.Tokens {
		if t == token {
			return true
		}
	}
	return false
}
