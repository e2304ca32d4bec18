package model

import "time"

// Role names stored in the accounts.role column. A single account row
// carries its capability as a flag rather than living in a separate
// subtype table: game owners can do everything a plain user can plus
// manage games and the loans tied to them.
const (
	RoleUser      = "USER"
	RoleGameOwner = "GAME_OWNER"
)

// Account represents an application account as stored in the
// `accounts` table. Each field corresponds to a column. The password
// hash never serializes.
//
// Fields:
//  ID           – primary key identifier of the account.
//  Email        – unique email address.
//  DisplayName  – name shown to other members.
//  PasswordHash – bcrypt hashed password.
//  Role         – capability flag (USER or GAME_OWNER).
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Account struct {
	ID           uint64    `json:"id"`           // accounts.id
	Email        string    `json:"email"`        // accounts.email
	DisplayName  string    `json:"display_name"` // accounts.display_name
	PasswordHash string    `json:"-"`            // accounts.password_hash
	Role         string    `json:"role"`         // accounts.role
	IsActive     bool      `json:"is_active"`    // accounts.is_active
	CreatedAt    time.Time `json:"created_at"`   // accounts.created_at
	UpdatedAt    time.Time `json:"updated_at"`   // accounts.updated_at
}

// IsGameOwner reports whether the account carries the game-owner
// capability.
func (a Account) IsGameOwner() bool { return a.Role == RoleGameOwner }

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to an account and contains metadata for
// expiry and revocation. The plain token is never stored; only its
// SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  AccountID – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     `json:"id"`         // refresh_tokens.id
	AccountID uint64     `json:"account_id"` // refresh_tokens.account_id
	TokenHash string     `json:"-"`          // refresh_tokens.token_hash
	ExpiresAt time.Time  `json:"expires_at"` // refresh_tokens.expires_at
	RevokedAt *time.Time `json:"revoked_at"` // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  `json:"created_at"` // refresh_tokens.created_at
}
