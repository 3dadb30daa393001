package domain

import "time"

// RoleUser is the role every registered account starts with.
const RoleUser = "user"

type User struct {
	ID           string // ULID
	Username     string
	Email        string
	PasswordHash string // argon2id PHC string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
