package domain

import "time"

type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// SessionToken is a verified, self-contained bearer token. There is no
// server-side record of it; it is valid until ExpiresAt.
type SessionToken struct {
	Raw       string
	Subject   string // username
	Kind      TokenKind
	Fresh     bool // minted directly by a password login
	IssuedAt  time.Time
	ExpiresAt time.Time
}
