// Package staff manages the accounts clinicians and administrative users
// sign in with. It backs the login endpoint's credential check.
package staff

import (
	"time"

	"github.com/google/uuid"
)

// Member maps to the staff_member table. PasswordHash is a bcrypt hash
// and never leaves the service layer.
type Member struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	FullName     string    `db:"full_name" json:"full_name"`
	Roles        []string  `db:"roles" json:"roles"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
