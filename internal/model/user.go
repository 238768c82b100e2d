package model

import "time"

// Roles assignable to a user. Admins manage the catalog, the weekly
// time-slot templates and every reservation; customers only manage
// their own profile and reservations.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// User represents an application user as stored in the `users` table.
// Accounts are created lazily on the first successful LINE login, so
// there is no password column: identity comes from the LINE platform
// and is keyed by the stable LineID.
//
// Fields:
//  ID         – primary key identifier.
//  LineID     – unique subject id issued by the identity provider.
//  Name       – display name taken from the LINE profile.
//  PictureURL – avatar URL taken from the LINE profile.
//  Phone      – Taiwanese mobile number (09 followed by 8 digits).
//  License    – vehicle license plate, normalized to upper case.
//  Role       – CUSTOMER or ADMIN.
//  CreatedAt  – timestamp of creation.
//  UpdatedAt  – timestamp of last update.
type User struct {
	ID         uint64    // users.id
	LineID     string    // users.line_id
	Name       string    // users.name
	PictureURL string    // users.picture_url
	Phone      string    // users.phone
	License    string    // users.license
	Role       string    // users.role
	CreatedAt  time.Time // users.created_at
	UpdatedAt  time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user; only its SHA-256 hash is stored.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
