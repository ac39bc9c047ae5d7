package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-auth-service/internal/repository"
)

// RoleHandler serves the admin-only role management endpoints. Routes are
// gated by Authenticate + RequireRole("admin") in the router.
type RoleHandler struct {
	Roles RoleStore
}

func NewRoleHandler(r RoleStore) *RoleHandler { return &RoleHandler{Roles: r} }

type createRoleReq struct {
	RoleName    string `json:"roleName"`
	Description string `json:"description"`
}
type assignRoleReq struct {
	UserID uint64 `json:"userId"`
	RoleID uint64 `json:"roleId"`
}

// Create adds a role to the catalog. Role names are free-form unique
// strings, so operators can extend the set without a deploy.
func (h *RoleHandler) Create(c echo.Context) error {
	var req createRoleReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RoleName) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "roleName is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	role, err := h.Roles.Create(ctx, req.RoleName, req.Description)
	if err != nil {
		if errors.Is(err, repository.ErrRoleExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "role already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create role failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id": role.ID, "name": role.Name, "description": role.Description,
	})
}

// Assign links a user to a role. Both ids must reference existing rows.
func (h *RoleHandler) Assign(c echo.Context) error {
	var req assignRoleReq
	if err := c.Bind(&req); err != nil || req.UserID == 0 || req.RoleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId and roleId are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Roles.Assign(ctx, req.UserID, req.RoleID); err != nil {
		if errors.Is(err, repository.ErrConstraint) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "user or role does not exist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign role failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Role assigned"})
}

// UserRoles lists the role names held by a user.
func (h *RoleHandler) UserRoles(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil || userID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	names, err := h.Roles.RolesOf(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, names)
}
