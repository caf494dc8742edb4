// Package navigation models the demo UI's page flow as a finite state machine.
// It knows nothing about credentials; callers tell it when a signup or login succeeded.
package navigation

import (
	"errors"
	"fmt"
)

// State is a page the client can be on.
type State string

const (
	Home    State = "home"
	Contact State = "contact"
	Login   State = "login"
	Signup  State = "signup"
	Demo    State = "demo"
)

// Trigger is an event that may move the navigator to another state.
type Trigger string

const (
	ShowHome        Trigger = "show_home"
	ShowContact     Trigger = "show_contact"
	ShowLogin       Trigger = "show_login"
	ShowSignup      Trigger = "show_signup"
	ShowDemo        Trigger = "show_demo"
	SignupSucceeded Trigger = "signup_succeeded"
	LoginSucceeded  Trigger = "login_succeeded"
	Logout          Trigger = "logout"
)

var (
	ErrUnknownTrigger    = errors.New("unknown navigation trigger")
	ErrInvalidTransition = errors.New("invalid navigation transition")
	ErrOutcomeTrigger    = errors.New("navigation trigger is reserved for credential outcomes")
)

var knownTriggers = map[Trigger]bool{
	ShowHome: true, ShowContact: true, ShowLogin: true, ShowSignup: true,
	ShowDemo: true, SignupSucceeded: true, LoginSucceeded: true, Logout: true,
}

// ParseTrigger converts client input into a Trigger.
func ParseTrigger(s string) (Trigger, error) {
	t := Trigger(s)
	if !knownTriggers[t] {
		return "", fmt.Errorf("%w: %q", ErrUnknownTrigger, s)
	}
	return t, nil
}

// IsOutcome reports whether t records a credential result rather than a page request.
// Outcome triggers are fired by whoever checked the credentials, never by the client.
func (t Trigger) IsOutcome() bool {
	return t == SignupSucceeded || t == LoginSucceeded
}

// ParseClientTrigger is ParseTrigger restricted to page requests.
func ParseClientTrigger(s string) (Trigger, error) {
	t, err := ParseTrigger(s)
	if err != nil {
		return "", err
	}
	if t.IsOutcome() {
		return "", fmt.Errorf("%w: %q", ErrOutcomeTrigger, s)
	}
	return t, nil
}

// Navigator holds the current page and whether the owner is logged in.
// It is not safe for concurrent use.
type Navigator struct {
	state         State
	authenticated bool
}

// New returns a navigator on Home, logged out.
func New() *Navigator {
	return &Navigator{state: Home}
}

func (n *Navigator) State() State { return n.state }

func (n *Navigator) Authenticated() bool { return n.authenticated }

// Fire applies t. On error the state is unchanged.
func (n *Navigator) Fire(t Trigger) (State, error) {
	next, auth, err := n.next(t)
	if err != nil {
		return n.state, err
	}
	n.state, n.authenticated = next, auth
	return n.state, nil
}

func (n *Navigator) next(t Trigger) (State, bool, error) {
	auth := n.authenticated
	switch t {
	case ShowHome:
		return Home, auth, nil
	case ShowContact:
		return Contact, auth, nil
	case ShowLogin, ShowSignup:
		if auth {
			return Demo, auth, nil
		}
		if t == ShowLogin {
			return Login, auth, nil
		}
		return Signup, auth, nil
	case ShowDemo:
		if !auth {
			return Login, auth, nil
		}
		return Demo, auth, nil
	case SignupSucceeded:
		if n.state != Signup {
			return "", auth, n.invalid(t)
		}
		return Login, auth, nil
	case LoginSucceeded:
		if n.state != Login || auth {
			return "", auth, n.invalid(t)
		}
		return Demo, true, nil
	case Logout:
		if !auth {
			return "", auth, n.invalid(t)
		}
		return Home, false, nil
	default:
		return "", auth, fmt.Errorf("%w: %q", ErrUnknownTrigger, string(t))
	}
}

func (n *Navigator) invalid(t Trigger) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, t, n.state)
}
