package handlers

import (
	"encoding/json"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type viewResponse struct {
	View          string `json:"view"`
	Authenticated bool   `json:"authenticated"`
}

func TestNavigation(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "alice@x.com", "pass123")
	token := s.login(t, "alice", "pass123")

	status, body := s.doJSON(t, fiber.MethodGet, "/api/v1/session/view", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	var view viewResponse
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, "demo", view.View)
	assert.True(t, view.Authenticated)

	status, body = s.doJSON(t, fiber.MethodPost, "/api/v1/session/view", token, fiber.Map{"trigger": "show_contact"})
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, "contact", view.View)

	status, _ = s.doJSON(t, fiber.MethodPost, "/api/v1/session/view", token, fiber.Map{"trigger": "fly"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	for _, outcome := range []string{"signup_succeeded", "login_succeeded"} {
		status, body = s.doJSON(t, fiber.MethodPost, "/api/v1/session/view", token, fiber.Map{"trigger": outcome})
		assert.Equal(t, fiber.StatusBadRequest, status, outcome)
		assert.Contains(t, string(body), "reserved for credential outcomes", outcome)
	}

	status, body = s.doJSON(t, fiber.MethodGet, "/api/v1/session/view", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, "contact", view.View, "rejected triggers leave the view unchanged")

	status, _ = s.doJSON(t, fiber.MethodPost, "/api/v1/session/view", token, fiber.Map{})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = s.doJSON(t, fiber.MethodPost, "/api/v1/session/view", token, fiber.Map{"trigger": "logout"})
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, "home", view.View)
	assert.False(t, view.Authenticated)

	status, _ = s.doJSON(t, fiber.MethodGet, "/api/v1/session/view", token, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}
