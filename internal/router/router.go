package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/user-auth-service/internal/auth"       // key material for the token verifier
	"github.com/iliyamo/user-auth-service/internal/config"     // rate-limit configuration
	"github.com/iliyamo/user-auth-service/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/user-auth-service/internal/middleware" // import middleware for authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check, used by
// load balancers and monitoring to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the whole authentication surface.
//
// Three tiers of routes exist:
//   - public credential endpoints (login, signup, verification, resets),
//     optionally behind the Redis token-bucket limiter;
//   - bearer-protected endpoints, wrapped in the Authenticate middleware
//     which runs the full verification chain (signature, expiry, claims,
//     session store, roles) before any handler executes;
//   - admin endpoints, which additionally require the "admin" role.
func RegisterAuth(
	e *echo.Echo,
	a *handler.AuthHandler,
	u *handler.UserHandler,
	r *handler.RoleHandler,
	keys *auth.Keys,
	sessions middleware.SessionValidator,
	roles middleware.RoleLoader,
	rl config.RateLimitConfig,
	rdb *redis.Client,
) {
	limiter := middleware.NewTokenBucket(rl, rdb)

	// Credential endpoints: no session required. The limiter shields the
	// two endpoints that grind bcrypt.
	e.POST("/login", a.Login, limiter)
	e.POST("/signup", a.Signup, limiter)
	e.POST("/resend-verification", a.ResendVerification)
	e.GET("/verification/:token", a.VerifyEmail)
	e.POST("/forgot-password", a.ForgotPassword)
	e.POST("/reset-password/:token", a.ResetPassword)

	// Bearer-protected endpoints.
	authed := e.Group("")
	authed.Use(middleware.Authenticate(keys, sessions, roles))
	authed.GET("/verify", a.CheckSession)
	authed.GET("/logout", a.Logout)
	authed.GET("/user", u.Profile)
	authed.PUT("/user", u.Update)
	authed.POST("/user/change-password", u.ChangePassword)

	// Admin endpoints: authenticated AND holding the admin role. RequireRole
	// answers 403 on a role miss, never 401.
	admin := e.Group("")
	admin.Use(middleware.Authenticate(keys, sessions, roles))
	admin.Use(middleware.RequireRole("admin"))
	admin.POST("/roles", r.Create)
	admin.POST("/assign-role", r.Assign)
	admin.GET("/user/:userId/roles", r.UserRoles)
}
