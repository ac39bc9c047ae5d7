package handler

import (
    "context"      // provides context with cancellation for DB calls
    "database/sql" // SQL database interactions
    "errors"       // sentinel comparisons
    "log"          // best-effort notification failures are logged, not returned
    "net/http"     // HTTP status codes and primitives
    "strings"      // string manipulation utilities
    "time"         // timeouts for DB calls

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/user-auth-service/internal/auth"       // token issuing and verification
    "github.com/iliyamo/user-auth-service/internal/config"     // app configuration
    "github.com/iliyamo/user-auth-service/internal/middleware" // request identity helpers
    "github.com/iliyamo/user-auth-service/internal/repository" // sentinel errors
    "github.com/iliyamo/user-auth-service/internal/utils"      // helper functions (hashing)
)

// AuthHandler bundles dependencies for the credential and session endpoints.
type AuthHandler struct {
    Cfg      config.Config
    Users    UserStore
    Sessions SessionStore
    Roles    RoleStore
    Keys     *auth.Keys
    Notify   Notifier
}

func NewAuthHandler(cfg config.Config, u UserStore, s SessionStore, r RoleStore, k *auth.Keys, n Notifier) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Sessions: s, Roles: r, Keys: k, Notify: n}
}

// ----- DTOs -----

type loginReq struct {
    Username string `json:"username"`
    Email    string `json:"email"`
    Password string `json:"password"`
}
type signupReq struct {
    Username string `json:"username"`
    Email    string `json:"email"`
    Password string `json:"password"`
    Terms    bool   `json:"terms"`
}
type emailReq struct {
    Email string `json:"email"`
}
type resetReq struct {
    NewPassword string `json:"newPassword"`
}

type userPart struct {
    ID       uint64   `json:"id"`
    Username string   `json:"username"`
    Email    string   `json:"email,omitempty"`
    Verified bool     `json:"verified"`
    Roles    []string `json:"roles,omitempty"`
}

// Login: verify credentials and hand out a fresh session token.  The session
// record is persisted before the response carrying the token is sent, and
// only after the password check passed — a failed login never leaves a row
// behind.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    // The login identifier is either a username or an email address; both
    // arrive through the same form field in most clients.
    ident := strings.TrimSpace(req.Username)
    if ident == "" {
        ident = strings.ToLower(strings.TrimSpace(req.Email))
    }
    if ident == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "username and password are required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByUsername(ctx, ident)
    if errors.Is(err, sql.ErrNoRows) {
        u, err = h.Users.GetByEmail(ctx, ident)
    }
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }

    tok, err := h.Keys.NewSessionToken(u.ID, u.Username, u.EmailVerified, h.Cfg.SessionTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
    }
    if err := h.Sessions.Create(ctx, u.ID, auth.HashToken(tok.Token), tok.Exp); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save session failed"})
    }

    return c.JSON(http.StatusOK, echo.Map{
        "token":   tok.Token,
        "expires": tok.Exp,
        "user":    userPart{ID: u.ID, Username: u.Username, Email: u.Email, Verified: u.EmailVerified},
    })
}

// Signup: create the identity, attach the default role and kick off email
// verification.  The verification mail is best effort: a publish failure is
// logged and the account stays — /resend-verification is the recovery path.
func (h *AuthHandler) Signup(c echo.Context) error {
    var req signupReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Username = strings.TrimSpace(req.Username)
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Username == "" || req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "username, email and password are required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
    }

    uid, err := h.Users.Create(ctx, req.Username, req.Email, hash, req.Terms)
    if err != nil {
        if errors.Is(err, repository.ErrEmailExists) || errors.Is(err, repository.ErrUsernameExists) {
            return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
    }

    // Every fresh account starts with the default role.
    role, err := h.Roles.GetByName(ctx, "user")
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign role failed"})
    }
    if err := h.Roles.Assign(ctx, uid, role.ID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign role failed"})
    }

    if err := h.sendVerification(ctx, uid, req.Email); err != nil {
        log.Printf("signup: verification mail for user %d not sent: %v", uid, err)
    }

    return c.JSON(http.StatusCreated, echo.Map{
        "message": "Account created. Check your email to verify your address.",
    })
}

// ResendVerification issues a fresh verification token for an unverified
// account.  Unlike signup, a delivery failure here is the whole point of the
// call, so it surfaces as a 500.
func (h *AuthHandler) ResendVerification(c echo.Context) error {
    var req emailReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "email not registered"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if u.EmailVerified {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already verified"})
    }
    if err := h.sendVerification(ctx, u.ID, u.Email); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send verification failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Verification email sent"})
}

// VerifyEmail consumes a verification action token.  The token must decode
// under the action key with the verify-email purpose AND name an existing
// user whose current email matches the one baked into the token; anything
// else is the same generic failure so the link leaks nothing.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
    claims, err := h.Keys.VerifyActionToken(c.Param("token"), auth.PurposeVerify)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid or expired verification link"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, claims.UserID)
    if err != nil || !strings.EqualFold(u.Email, claims.Email) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid or expired verification link"})
    }
    if err := h.Users.MarkVerified(ctx, u.ID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Email verified successfully"})
}

// CheckSession reports the identity behind a valid bearer token.  All the
// heavy lifting already happened in the Authenticate middleware.
func (h *AuthHandler) CheckSession(c echo.Context) error {
    id, ok := middleware.CurrentIdentity(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message": "Session is valid",
        "user":    userPart{ID: id.ID, Username: id.Username, Verified: id.Verified, Roles: id.Roles},
    })
}

// ForgotPassword issues a reset action token and mails the reset link.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
    var req emailReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "email not registered"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    tok, err := h.Keys.NewResetPasswordToken(u.ID, u.Username, h.Cfg.ActionTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
    }
    link := h.Cfg.BaseURL + "/reset-password/" + tok
    if err := h.Notify.SendPasswordResetEmail(ctx, u.Email, link); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send reset email failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Password reset email sent"})
}

// ResetPassword consumes a reset action token and replaces the password.
// All live sessions are revoked afterwards: a reset usually means the old
// credential is considered compromised.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
    var req resetReq
    if err := c.Bind(&req); err != nil || req.NewPassword == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "newPassword is required"})
    }
    claims, err := h.Keys.VerifyActionToken(c.Param("token"), auth.PurposeResetPass)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid or expired reset link"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, claims.UserID)
    if err != nil || u.Username != claims.Username {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid or expired reset link"})
    }

    hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
    }
    if err := h.Users.SetPassword(ctx, u.ID, hash); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update password failed"})
    }
    if err := h.Sessions.RevokeAllForUser(ctx, u.ID); err != nil {
        log.Printf("reset-password: revoke sessions for user %d failed: %v", u.ID, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Password updated successfully"})
}

// Logout revokes the session token that authenticated this request.  The
// revocation is permanent for that token value; logging back in mints a new
// one.  Other sessions of the same user stay alive.
func (h *AuthHandler) Logout(c echo.Context) error {
    id, ok := middleware.CurrentIdentity(c)
    hash := middleware.SessionHash(c)
    if !ok || hash == "" {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Sessions.Revoke(ctx, hash, id.ID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

// sendVerification mints a verify-email action token and hands the link to
// the notifier.
func (h *AuthHandler) sendVerification(ctx context.Context, userID uint64, email string) error {
    tok, err := h.Keys.NewVerifyEmailToken(userID, email, h.Cfg.ActionTTLMin)
    if err != nil {
        return err
    }
    return h.Notify.SendVerificationEmail(ctx, email, h.Cfg.BaseURL+"/verification/"+tok)
}
