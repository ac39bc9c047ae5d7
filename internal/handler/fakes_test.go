package handler_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/user-auth-service/internal/auth"
	"github.com/iliyamo/user-auth-service/internal/config"
	"github.com/iliyamo/user-auth-service/internal/handler"
	"github.com/iliyamo/user-auth-service/internal/middleware"
	"github.com/iliyamo/user-auth-service/internal/model"
	"github.com/iliyamo/user-auth-service/internal/repository"
	"github.com/iliyamo/user-auth-service/internal/utils"
)

// ----- in-memory stores -----

type memUsers struct {
	nextID uint64
	byID   map[uint64]model.User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[uint64]model.User{}} }

func (m *memUsers) Create(_ context.Context, username, email, passwordHash string, terms bool) (uint64, error) {
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			return 0, repository.ErrEmailExists
		}
		if u.Username == username {
			return 0, repository.ErrUsernameExists
		}
	}
	m.nextID++
	now := time.Now().UTC()
	m.byID[m.nextID] = model.User{
		ID: m.nextID, Username: username, Email: email, PasswordHash: passwordHash,
		TermsAccepted: terms, CreatedAt: now, UpdatedAt: now,
	}
	return m.nextID, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
	for _, u := range m.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (m *memUsers) MarkVerified(_ context.Context, id uint64) error {
	u, ok := m.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.EmailVerified = true
	m.byID[id] = u
	return nil
}

func (m *memUsers) SetPassword(_ context.Context, id uint64, passwordHash string) error {
	u, ok := m.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = passwordHash
	m.byID[id] = u
	return nil
}

func (m *memUsers) UpdateProfile(_ context.Context, id uint64, username, email string) (model.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	if username != "" {
		u.Username = username
	}
	if email != "" && !strings.EqualFold(u.Email, email) {
		u.Email = email
		u.EmailVerified = false
	}
	m.byID[id] = u
	return u, nil
}

type memSession struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

type memSessions struct{ byHash map[string]*memSession }

func newMemSessions() *memSessions { return &memSessions{byHash: map[string]*memSession{}} }

func (m *memSessions) Create(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	m.byHash[tokenHash] = &memSession{userID: userID, exp: exp}
	return nil
}

func (m *memSessions) Validate(_ context.Context, tokenHash string) (uint64, error) {
	s, ok := m.byHash[tokenHash]
	if !ok || s.revoked || time.Now().UTC().After(s.exp) {
		return 0, sql.ErrNoRows
	}
	return s.userID, nil
}

func (m *memSessions) Revoke(_ context.Context, tokenHash string, userID uint64) error {
	if s, ok := m.byHash[tokenHash]; ok && s.userID == userID {
		s.revoked = true
	}
	return nil
}

func (m *memSessions) RevokeAllForUser(_ context.Context, userID uint64) error {
	for _, s := range m.byHash {
		if s.userID == userID {
			s.revoked = true
		}
	}
	return nil
}

func (m *memSessions) active(userID uint64) int {
	n := 0
	for _, s := range m.byHash {
		if s.userID == userID && !s.revoked {
			n++
		}
	}
	return n
}

type memRoles struct {
	users       *memUsers
	nextID      uint64
	byName      map[string]model.Role
	assignments map[uint64][]uint64 // userID -> role ids
}

func newMemRoles(users *memUsers) *memRoles {
	m := &memRoles{users: users, byName: map[string]model.Role{}, assignments: map[uint64][]uint64{}}
	_, _ = m.Create(context.Background(), "user", "")
	_, _ = m.Create(context.Background(), "admin", "")
	return m
}

func (m *memRoles) Create(_ context.Context, name, description string) (model.Role, error) {
	if _, ok := m.byName[name]; ok {
		return model.Role{}, repository.ErrRoleExists
	}
	m.nextID++
	role := model.Role{ID: m.nextID, Name: name, Description: description}
	m.byName[name] = role
	return role, nil
}

func (m *memRoles) GetByName(_ context.Context, name string) (model.Role, error) {
	role, ok := m.byName[name]
	if !ok {
		return model.Role{}, sql.ErrNoRows
	}
	return role, nil
}

func (m *memRoles) Assign(_ context.Context, userID, roleID uint64) error {
	if _, ok := m.users.byID[userID]; !ok {
		return repository.ErrConstraint
	}
	found := false
	for _, r := range m.byName {
		if r.ID == roleID {
			found = true
		}
	}
	if !found {
		return repository.ErrConstraint
	}
	m.assignments[userID] = append(m.assignments[userID], roleID)
	return nil
}

func (m *memRoles) RolesOf(_ context.Context, userID uint64) ([]string, error) {
	if _, ok := m.users.byID[userID]; !ok {
		return nil, sql.ErrNoRows
	}
	names := []string{}
	for _, id := range m.assignments[userID] {
		for _, r := range m.byName {
			if r.ID == id {
				names = append(names, r.Name)
			}
		}
	}
	return names, nil
}

// memNotifier records every mail request instead of publishing it.
type memNotifier struct {
	verificationLinks []string
	resetLinks        []string
	fail              error
}

func (m *memNotifier) SendVerificationEmail(_ context.Context, _, link string) error {
	if m.fail != nil {
		return m.fail
	}
	m.verificationLinks = append(m.verificationLinks, link)
	return nil
}

func (m *memNotifier) SendPasswordResetEmail(_ context.Context, _, link string) error {
	if m.fail != nil {
		return m.fail
	}
	m.resetLinks = append(m.resetLinks, link)
	return nil
}

// ----- environment -----

type env struct {
	e        *echo.Echo
	cfg      config.Config
	keys     *auth.Keys
	users    *memUsers
	sessions *memSessions
	roles    *memRoles
	notify   *memNotifier
	authH    *handler.AuthHandler
	userH    *handler.UserHandler
	roleH    *handler.RoleHandler
}

func newEnv(t *testing.T) *env {
	t.Helper()
	session, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	action, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keys := &auth.Keys{
		SessionPrivate: session,
		SessionPublic:  &session.PublicKey,
		ActionPrivate:  action,
		ActionPublic:   &action.PublicKey,
	}
	cfg := config.Config{
		Env:           "test",
		BaseURL:       "http://app.test",
		SessionTTLMin: 60,
		ActionTTLMin:  60,
		BcryptCost:    bcrypt.MinCost,
	}
	users := newMemUsers()
	sessions := newMemSessions()
	roles := newMemRoles(users)
	notify := &memNotifier{}
	return &env{
		e:        echo.New(),
		cfg:      cfg,
		keys:     keys,
		users:    users,
		sessions: sessions,
		roles:    roles,
		notify:   notify,
		authH:    handler.NewAuthHandler(cfg, users, sessions, roles, keys, notify),
		userH:    handler.NewUserHandler(cfg, users, keys, notify),
		roleH:    handler.NewRoleHandler(roles),
	}
}

// seedUser creates a user with a known password and the default role.
func (v *env) seedUser(t *testing.T, username, email, password string) uint64 {
	t.Helper()
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	id, err := v.users.Create(context.Background(), username, email, hash, true)
	require.NoError(t, err)
	role, err := v.roles.GetByName(context.Background(), "user")
	require.NoError(t, err)
	require.NoError(t, v.roles.Assign(context.Background(), id, role.ID))
	return id
}

// request runs a handler (optionally behind Authenticate) and returns the
// response recorder.
func (v *env) request(t *testing.T, h echo.HandlerFunc, method, path, body, bearer string, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
		h = middleware.Authenticate(v.keys, v.sessions, v.roles)(h)
	}
	rec := httptest.NewRecorder()
	c := v.e.NewContext(req, rec)
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(params[i])
		c.SetParamValues(params[i+1])
	}
	require.NoError(t, h(c))
	return rec
}

// login performs a full login and returns the raw session token.
func (v *env) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := v.request(t, v.authH.Login, http.MethodPost, "/login",
		`{"username":"`+username+`","password":"`+password+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}
