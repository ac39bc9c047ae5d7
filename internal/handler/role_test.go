package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRole(t *testing.T) {
	v := newEnv(t)

	rec := v.request(t, v.roleH.Create, http.MethodPost, "/roles",
		`{"roleName":"moderator","description":"Can moderate"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"name":"moderator"`)

	// Role names are unique.
	rec = v.request(t, v.roleH.Create, http.MethodPost, "/roles",
		`{"roleName":"moderator"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = v.request(t, v.roleH.Create, http.MethodPost, "/roles", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignRole(t *testing.T) {
	v := newEnv(t)
	id := v.seedUser(t, "alice", "alice@x.com", "secret1")
	admin, err := v.roles.GetByName(context.Background(), "admin")
	require.NoError(t, err)

	rec := v.request(t, v.roleH.Assign, http.MethodPost, "/assign-role",
		fmt.Sprintf(`{"userId":%d,"roleId":%d}`, id, admin.ID), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	names, err := v.roles.RolesOf(context.Background(), id)
	require.NoError(t, err)
	assert.Contains(t, names, "admin")

	// Both sides must pre-exist.
	rec = v.request(t, v.roleH.Assign, http.MethodPost, "/assign-role",
		fmt.Sprintf(`{"userId":%d,"roleId":9999}`, id), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = v.request(t, v.roleH.Assign, http.MethodPost, "/assign-role",
		fmt.Sprintf(`{"userId":9999,"roleId":%d}`, admin.ID), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserRoles(t *testing.T) {
	v := newEnv(t)
	id := v.seedUser(t, "alice", "alice@x.com", "secret1")

	rec := v.request(t, v.roleH.UserRoles, http.MethodGet, fmt.Sprintf("/user/%d/roles", id),
		"", "", "userId", fmt.Sprintf("%d", id))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "user")

	rec = v.request(t, v.roleH.UserRoles, http.MethodGet, "/user/9999/roles",
		"", "", "userId", "9999")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = v.request(t, v.roleH.UserRoles, http.MethodGet, "/user/abc/roles",
		"", "", "userId", "abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
