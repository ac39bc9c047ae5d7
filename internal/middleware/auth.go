package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "context"                // request-scoped lookups against the stores
    "errors"                 // sentinel comparisons
    "database/sql"           // sql.ErrNoRows signals absent session/user rows
    "net/http"               // HTTP status codes for responses
    "strings"                // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/user-auth-service/internal/auth"
)

// Context keys under which the middleware stashes request identity state.
const (
    identityKey    = "identity"     // Identity of the authenticated caller
    sessionHashKey = "session_hash" // hash of the presented session token, for logout
)

// Identity is the authenticated caller attached to the request context after
// the full verification chain succeeds: signature, expiry, claim presence,
// session-store lookup and role load.
type Identity struct {
    ID       uint64
    Username string
    Verified bool
    Roles    []string
}

// SessionValidator is the slice of the session store the middleware needs:
// given a token hash, return the owning user id or sql.ErrNoRows when the
// token is unknown, revoked or expired.
type SessionValidator interface {
    Validate(ctx context.Context, tokenHash string) (uint64, error)
}

// RoleLoader loads the role names of a user; sql.ErrNoRows when the user
// itself is absent.
type RoleLoader interface {
    RolesOf(ctx context.Context, userID uint64) ([]string, error)
}

// Authenticate returns an Echo middleware that validates a Bearer session
// token and injects the caller's identity into the request context.  The
// chain is deliberately longer than a signature check: a token that parses
// and verifies is still rejected when its identity claims are incomplete,
// when its hash is missing or revoked in the session store, or when the user
// it names no longer exists.  All failures are 401; the message varies only
// for operability.
func Authenticate(keys *auth.Keys, sessions SessionValidator, roles RoleLoader) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // Read the Authorization header.  A valid header starts with
            // "Bearer " followed by the JWT.
            header := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(header, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(header, "Bearer ")

            claims, err := keys.VerifySessionToken(raw)
            if err != nil {
                if errors.Is(err, auth.ErrMalformedClaims) {
                    // Valid signature, incomplete identity. Surfaced with its
                    // own message so operators can tell it apart from forgery.
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing required user information"})
                }
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            ctx := c.Request().Context()

            // The store is an allow-list: a token absent from it, or present
            // but revoked, never authenticates again even though its
            // signature stays valid until exp.
            userID, err := sessions.Validate(ctx, auth.HashToken(raw))
            if err != nil {
                if errors.Is(err, sql.ErrNoRows) {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "blacklisted token"})
                }
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session lookup failed"})
            }
            if userID != claims.UserID {
                // The stored row is immutably bound to one user at creation;
                // a mismatch means the token was spliced.
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "blacklisted token"})
            }

            names, err := roles.RolesOf(ctx, claims.UserID)
            if err != nil {
                if errors.Is(err, sql.ErrNoRows) {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown user"})
                }
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "role lookup failed"})
            }

            c.Set(identityKey, Identity{
                ID:       claims.UserID,
                Username: claims.Username,
                Verified: claims.Verified,
                Roles:    names,
            })
            c.Set(sessionHashKey, auth.HashToken(raw))
            return next(c)
        }
    }
}

// CurrentIdentity returns the identity attached by Authenticate, if any.
func CurrentIdentity(c echo.Context) (Identity, bool) {
    id, ok := c.Get(identityKey).(Identity)
    return id, ok
}

// SessionHash returns the hash of the session token that authenticated this
// request.  Empty when the request did not pass Authenticate.
func SessionHash(c echo.Context) string {
    h, _ := c.Get(sessionHashKey).(string)
    return h
}
