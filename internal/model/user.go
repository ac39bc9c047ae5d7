package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column in the database.  JSON tags are
// omitted here because these structs are used internally by the repository
// layer; handlers define separate response types with appropriate tags.
//
// Fields:
//  ID            – primary key identifier of the user.
//  Username      – unique login name.
//  Email         – unique email address.
//  PasswordHash  – bcrypt hashed password.
//  EmailVerified – whether a verification token for this exact id+email pair
//                  has been consumed.  False until then.
//  TermsAccepted – whether the user accepted the terms at signup.
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type User struct {
    ID            uint64    // users.id
    Username      string    // users.username
    Email         string    // users.email
    PasswordHash  string    // users.password_hash
    EmailVerified bool      // users.email_verified
    TermsAccepted bool      // users.terms_accepted
    CreatedAt     time.Time // users.created_at
    UpdatedAt     time.Time // users.updated_at
}

// Role represents a row in the `roles` table.  Roles are free-form unique
// names rather than a closed enum so the catalog stays operator-extensible;
// "user" and "admin" are seeded at process start.
//
// Fields:
//  ID          – numeric identifier of the role.
//  Name        – unique role name (e.g. user, admin).
//  Description – optional human-readable description.
type Role struct {
    ID          uint64 // roles.id
    Name        string // roles.name
    Description string // roles.description
}

// SessionToken models an entry in the `session_tokens` table.  Each session
// token belongs to a user and carries metadata for expiry and revocation.
// The plain token is not stored; only its SHA-256 hash.  Revocation is
// permanent for a token value: a revoked row never authenticates again, and
// a fresh login produces a fresh row.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token (null in the database if the user is
//              removed; modeled as zero here).
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type SessionToken struct {
    ID        uint64     // session_tokens.id
    UserID    uint64     // session_tokens.user_id
    TokenHash string     // session_tokens.token_hash
    ExpiresAt time.Time  // session_tokens.expires_at
    RevokedAt *time.Time // session_tokens.revoked_at (nullable)
    CreatedAt time.Time  // session_tokens.created_at
}
