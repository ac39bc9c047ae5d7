package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes
    "github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// RequireRole returns a middleware function that enforces that the
// authenticated user holds at least one of the specified roles.  It is a
// pure predicate over the identity attached by Authenticate and always
// answers 403, never 401: by the time it runs, authentication has already
// succeeded or the request was rejected upstream.  A missing identity gets
// its own message, distinct from an insufficient role set.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    // Build a set of allowed roles for constant‑time lookups.
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id, ok := CurrentIdentity(c)
            if !ok {
                // No identity in context at all: Authenticate never ran or
                // was bypassed. Deny rather than fall through.
                return c.JSON(http.StatusForbidden, echo.Map{"error": "Access denied"})
            }
            for _, name := range id.Roles {
                if allowed[name] {
                    return next(c)
                }
            }
            return c.JSON(http.StatusForbidden, echo.Map{"error": "Insufficient permissions"})
        }
    }
}
