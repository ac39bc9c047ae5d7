package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/user-auth-service/internal/utils"
)

func TestProfile(t *testing.T) {
	v := newEnv(t)
	v.seedUser(t, "alice", "alice@x.com", "secret1")
	token := v.login(t, "alice", "secret1")

	rec := v.request(t, v.userH.Profile, http.MethodGet, "/user", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)
	assert.Contains(t, rec.Body.String(), `"email":"alice@x.com"`)
}

func TestUpdateProfileEmailChangeClearsVerified(t *testing.T) {
	v := newEnv(t)
	id := v.seedUser(t, "alice", "alice@x.com", "secret1")
	require.NoError(t, v.users.MarkVerified(context.Background(), id))
	token := v.login(t, "alice", "secret1")

	rec := v.request(t, v.userH.Update, http.MethodPut, "/user",
		`{"email":"new@x.com"}`, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	u, err := v.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", u.Email)
	assert.False(t, u.EmailVerified, "a changed address has never been verified")

	// A fresh verification mail for the new address went out.
	require.Len(t, v.notify.verificationLinks, 1)
}

func TestUpdateProfileNoFields(t *testing.T) {
	v := newEnv(t)
	v.seedUser(t, "alice", "alice@x.com", "secret1")
	token := v.login(t, "alice", "secret1")

	rec := v.request(t, v.userH.Update, http.MethodPut, "/user", `{}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangePassword(t *testing.T) {
	v := newEnv(t)
	id := v.seedUser(t, "alice", "alice@x.com", "secret1")
	token := v.login(t, "alice", "secret1")

	rec := v.request(t, v.userH.ChangePassword, http.MethodPost, "/user/change-password",
		`{"currentPassword":"secret1","newPassword":"secret2"}`, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	u, err := v.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "secret2"))
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	v := newEnv(t)
	id := v.seedUser(t, "alice", "alice@x.com", "secret1")
	token := v.login(t, "alice", "secret1")

	before, err := v.users.GetByID(context.Background(), id)
	require.NoError(t, err)

	rec := v.request(t, v.userH.ChangePassword, http.MethodPost, "/user/change-password",
		`{"currentPassword":"wrong","newPassword":"secret2"}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Current password is incorrect")

	// The stored hash is untouched.
	after, err := v.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
}

func TestChangePasswordMissingFields(t *testing.T) {
	v := newEnv(t)
	v.seedUser(t, "alice", "alice@x.com", "secret1")
	token := v.login(t, "alice", "secret1")

	rec := v.request(t, v.userH.ChangePassword, http.MethodPost, "/user/change-password",
		`{"newPassword":"secret2"}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
