package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-auth-service/internal/config"
	"github.com/iliyamo/user-auth-service/internal/middleware"
	"github.com/iliyamo/user-auth-service/internal/repository"
	"github.com/iliyamo/user-auth-service/internal/utils"
)

// UserHandler serves the authenticated profile endpoints. All routes assume
// the Authenticate middleware already ran.
type UserHandler struct {
	Cfg    config.Config
	Users  UserStore
	Keys   keyIssuer
	Notify Notifier
}

// keyIssuer is the slice of internal/auth.Keys the profile endpoints need:
// minting a fresh verification token after an email change.
type keyIssuer interface {
	NewVerifyEmailToken(userID uint64, email string, ttlMin int) (string, error)
}

func NewUserHandler(cfg config.Config, u UserStore, k keyIssuer, n Notifier) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u, Keys: k, Notify: n}
}

type updateReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}
type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type profileResp struct {
	ID            uint64    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Verified      bool      `json:"verified"`
	TermsAccepted bool      `json:"terms_accepted"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Profile returns the caller's user record.
func (h *UserHandler) Profile(c echo.Context) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, profileResp{
		ID: u.ID, Username: u.Username, Email: u.Email,
		Verified: u.EmailVerified, TermsAccepted: u.TermsAccepted,
		CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	})
}

// Update applies a partial profile update (username and/or email). Changing
// the email clears the verified flag and triggers a fresh verification mail;
// the session token keeps claiming the old verified state until re-login,
// but the store is the source of truth for every new token issued.
func (h *UserHandler) Update(c echo.Context) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" && req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no fields to update"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	before, err := h.Users.GetByID(ctx, id.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	u, err := h.Users.UpdateProfile(ctx, id.ID, req.Username, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) || errors.Is(err, repository.ErrUsernameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	if req.Email != "" && !strings.EqualFold(before.Email, req.Email) {
		if tok, err := h.Keys.NewVerifyEmailToken(u.ID, u.Email, h.Cfg.ActionTTLMin); err == nil {
			if err := h.Notify.SendVerificationEmail(ctx, u.Email, h.Cfg.BaseURL+"/verification/"+tok); err != nil {
				log.Printf("profile update: verification mail for user %d not sent: %v", u.ID, err)
			}
		}
	}

	return c.JSON(http.StatusOK, profileResp{
		ID: u.ID, Username: u.Username, Email: u.Email,
		Verified: u.EmailVerified, TermsAccepted: u.TermsAccepted,
		CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	})
}

// ChangePassword replaces the password after re-checking the current one.
// A wrong current password is a 400, not a 401: the caller is already
// authenticated, the input is what is wrong.
func (h *UserHandler) ChangePassword(c echo.Context) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "currentPassword and newPassword are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Current password is incorrect"})
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}
	if err := h.Users.SetPassword(ctx, u.ID, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update password failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password changed successfully"})
}
