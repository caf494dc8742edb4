package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigator_StartsOnHome(t *testing.T) {
	n := New()
	assert.Equal(t, Home, n.State())
	assert.False(t, n.Authenticated())
}

func TestNavigator_SignupLoginLogoutFlow(t *testing.T) {
	n := New()
	steps := []struct {
		trigger Trigger
		want    State
	}{
		{ShowSignup, Signup},
		{SignupSucceeded, Login},
		{LoginSucceeded, Demo},
		{ShowContact, Contact},
		{ShowLogin, Demo},
		{Logout, Home},
	}
	for _, s := range steps {
		got, err := n.Fire(s.trigger)
		require.NoError(t, err, s.trigger)
		assert.Equal(t, s.want, got, s.trigger)
	}
	assert.False(t, n.Authenticated())
}

func TestNavigator_DemoRequiresLogin(t *testing.T) {
	n := New()
	got, err := n.Fire(ShowDemo)
	require.NoError(t, err)
	assert.Equal(t, Login, got)
}

func TestNavigator_InvalidTransitionsKeepState(t *testing.T) {
	n := New()

	_, err := n.Fire(LoginSucceeded)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, Home, n.State())

	_, err = n.Fire(Logout)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = n.Fire(SignupSucceeded)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = n.Fire(Trigger("teleport"))
	assert.ErrorIs(t, err, ErrUnknownTrigger)
	assert.Equal(t, Home, n.State())
}

func TestParseTrigger(t *testing.T) {
	tr, err := ParseTrigger("show_demo")
	require.NoError(t, err)
	assert.Equal(t, ShowDemo, tr)

	_, err = ParseTrigger("SHOW_DEMO")
	assert.ErrorIs(t, err, ErrUnknownTrigger)
}

func TestParseClientTrigger(t *testing.T) {
	for _, s := range []string{"show_home", "show_contact", "show_login", "show_signup", "show_demo", "logout"} {
		tr, err := ParseClientTrigger(s)
		require.NoError(t, err, s)
		assert.False(t, tr.IsOutcome(), s)
	}

	for _, s := range []string{"signup_succeeded", "login_succeeded"} {
		_, err := ParseClientTrigger(s)
		assert.ErrorIs(t, err, ErrOutcomeTrigger, s)
	}

	_, err := ParseClientTrigger("teleport")
	assert.ErrorIs(t, err, ErrUnknownTrigger)
}
