package domain

import "time"

type User struct {
	ID            string
	Email         string
	Name          string
	PasswordHash  string
	Role          string
	EmailVerified bool
	CreatedAt     time.Time
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type TokenType string

const (
	TokenTypeEmailVerification TokenType = "email_verification"
	TokenTypePasswordReset     TokenType = "password_reset"
)

// TTL returns how long a freshly issued token of this type stays redeemable.
func (t TokenType) TTL() time.Duration {
	if t == TokenTypePasswordReset {
		return time.Hour
	}
	return 24 * time.Hour
}

// VerificationToken is a single-use credential. Only the sha256 hash of the
// raw token is ever stored; the raw value exists once, in the email sent to
// the user.
type VerificationToken struct {
	ID        int64
	UserID    string
	Email     string
	TokenHash string
	Type      TokenType
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
