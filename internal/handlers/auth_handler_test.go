package handlers

import (
	"encoding/json"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, int64(1), s.register(t, "alice", "alice@x.com", "pass123"))

	status, body := s.doJSON(t, fiber.MethodPost, "/api/v1/auth/register", "", fiber.Map{
		"username": "alice", "email": "other@x.com", "password": "pass123",
	})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Contains(t, string(body), "username already exists")

	status, body = s.doJSON(t, fiber.MethodPost, "/api/v1/auth/register", "", fiber.Map{
		"username": "bob", "email": "not-an-email", "password": "pw",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.NotContains(t, string(body), `"pw"`, "password values are never echoed")

	status, _ = s.doJSON(t, fiber.MethodPost, "/api/v1/auth/register", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestLogin_FailuresLookAlike(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "alice@x.com", "pass123")

	wrongStatus, wrongBody := s.doJSON(t, fiber.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"username": "alice", "password": "wrong",
	})
	unknownStatus, unknownBody := s.doJSON(t, fiber.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"username": "mallory", "password": "wrong",
	})

	assert.Equal(t, fiber.StatusUnauthorized, wrongStatus)
	assert.Equal(t, wrongStatus, unknownStatus)
	assert.JSONEq(t, string(wrongBody), string(unknownBody))
}

func TestLogin_IssuesSessionToken(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "alice@x.com", "pass123")

	status, body := s.doJSON(t, fiber.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"username": "alice", "password": "pass123",
	})
	require.Equal(t, fiber.StatusOK, status)

	var out struct {
		Token  string `json:"token"`
		UserID int64  `json:"user_id"`
		View   string `json:"view"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, int64(1), out.UserID)
	assert.Equal(t, "demo", out.View)
	assert.Equal(t, 1, s.sessions.Count())
}

func TestLogout_RevokesToken(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "alice@x.com", "pass123")
	token := s.login(t, "alice", "pass123")

	status, _ := s.doJSON(t, fiber.MethodGet, "/api/v1/profile", token, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = s.doJSON(t, fiber.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = s.doJSON(t, fiber.MethodGet, "/api/v1/profile", token, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	status, _ = s.doJSON(t, fiber.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestProfile(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "alice@x.com", "pass123")
	_, _ = s.doJSON(t, fiber.MethodPost, "/api/v1/auth/login", "", fiber.Map{"username": "alice", "password": "nope"})
	token := s.login(t, "alice", "pass123")

	status, body := s.doJSON(t, fiber.MethodGet, "/api/v1/profile", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), `"username":"alice"`)
	assert.NotContains(t, string(body), "password")
	assert.NotContains(t, string(body), "$2a$")

	status, body = s.doJSON(t, fiber.MethodGet, "/api/v1/profile/logins", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	var attempts []struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(body, &attempts))
	require.Len(t, attempts, 2)
	assert.False(t, attempts[0].Success)
	assert.True(t, attempts[1].Success)

	status, _ = s.doJSON(t, fiber.MethodGet, "/api/v1/profile", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}
