package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vision-webapi/internal/navigation"
)

func newTestSessions(t *testing.T) (*testEnv, *SessionManager) {
	env := newTestEnv(t)
	_, err := env.auth.Register(context.Background(), "alice", "alice@x.com", "pass123")
	require.NoError(t, err)
	return env, NewSessionManager(env.auth, env.auditor, time.Hour, zap.NewNop())
}

func TestSessionManager_LoginOpensAuditedSession(t *testing.T) {
	env, sm := newTestSessions(t)

	sess, err := sm.Login(context.Background(), "alice", "pass123", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, sess.Authenticated)
	assert.Equal(t, int64(1), sess.UserID)
	assert.Equal(t, "alice", sess.Username)
	assert.Equal(t, navigation.Demo, sess.View)
	assert.NotEmpty(t, sess.ID)

	got, err := sm.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	history, err := env.auditor.History(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
	assert.Equal(t, "10.0.0.1", history[0].IPAddress)
}

func TestSessionManager_FailedLoginsAreAudited(t *testing.T) {
	env, sm := newTestSessions(t)
	ctx := context.Background()

	_, err := sm.Login(ctx, "alice", "wrong-password", "10.0.0.2")
	var failure *AuthFailure
	require.True(t, errors.As(err, &failure))

	_, err = sm.Login(ctx, "nobody", "pass123", "10.0.0.3")
	require.True(t, errors.As(err, &failure))

	assert.Equal(t, 0, sm.Count())
	assert.Equal(t, 2, env.count(t, "login_logs"))

	history, err := env.auditor.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.False(t, history[0].Success)
}

func TestSessionManager_Logout(t *testing.T) {
	_, sm := newTestSessions(t)

	sess, err := sm.Login(context.Background(), "alice", "pass123", "")
	require.NoError(t, err)

	require.NoError(t, sm.Logout(sess.ID))
	_, err = sm.Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, sm.Logout(sess.ID), ErrSessionNotFound)
}

func TestSessionManager_Navigate(t *testing.T) {
	_, sm := newTestSessions(t)
	sess, err := sm.Login(context.Background(), "alice", "pass123", "")
	require.NoError(t, err)

	state, err := sm.Navigate(sess.ID, navigation.ShowContact)
	require.NoError(t, err)
	assert.Equal(t, navigation.Contact, state)

	got, err := sm.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, navigation.Contact, got.View)

	_, err = sm.Navigate(sess.ID, navigation.SignupSucceeded)
	assert.ErrorIs(t, err, navigation.ErrInvalidTransition)

	state, err = sm.Navigate(sess.ID, navigation.Logout)
	require.NoError(t, err)
	assert.Equal(t, navigation.Home, state)
	assert.Equal(t, 0, sm.Count())
}

func TestSessionManager_Expiry(t *testing.T) {
	_, sm := newTestSessions(t)
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	sm.now = func() time.Time { return now }

	a, err := sm.Login(context.Background(), "alice", "pass123", "")
	require.NoError(t, err)
	_, err = sm.Login(context.Background(), "alice", "pass123", "")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = sm.Get(a.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 1, sm.PruneExpired())
	assert.Equal(t, 0, sm.Count())
}
