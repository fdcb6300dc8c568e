package model

import "time"

// User represents an application account as stored in the `users` table.
// Each field corresponds to a column.  The json tags are omitted here
// because these structs are used internally by the repository layer;
// handlers define separate response types with appropriate JSON tags so
// that the password hash can never leak into a response by accident.
//
// Fields:
//  ID             – primary key identifier of the user.
//  Email          – unique email address, used as the login identifier.
//  Username       – unique public display name.
//  PasswordHash   – bcrypt hashed password.
//  Bio            – free text biography, may be empty.
//  ProfilePicture – relative media path of the uploaded avatar (nullable).
//  IsActive       – whether the account may authenticate.
//  CreatedAt      – timestamp of registration (date joined).
//  UpdatedAt      – timestamp of last profile change.
type User struct {
    ID             uint64     // users.id
    Email          string     // users.email
    Username       string     // users.username
    PasswordHash   string     // users.password_hash
    Bio            string     // users.bio
    ProfilePicture *string    // users.profile_picture (nullable)
    IsActive       bool       // users.is_active
    CreatedAt      time.Time  // users.created_at
    UpdatedAt      time.Time  // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Every
// refresh JWT carries a jti claim; the row keyed by that jti is the
// server-side record that decides whether the token is still honored.
// Blacklisting a token means setting RevokedAt; the one-way transition
// valid → revoked is never undone.
//
// Fields:
//  ID        – primary key identifier.
//  JTI       – unique token identifier embedded in the refresh JWT.
//  UserID    – owner of the token.
//  ExpiresAt – expiration timestamp mirrored from the JWT exp claim.
//  RevokedAt – when the token was blacklisted (null if still active).
//  CreatedAt – timestamp of issuance.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    JTI       string     // refresh_tokens.jti
    UserID    uint64     // refresh_tokens.user_id
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
