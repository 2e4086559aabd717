// Package guard decides whether a command may run for the current identity.
package guard

import (
	"context"
	"errors"

	"github.com/spigell/hirectl/internal/session"
)

// ErrAccessDenied means the user is logged in but with the wrong role.
var ErrAccessDenied = errors.New("access denied: your role cannot use this command")

type Decision int

const (
	Loading Decision = iota
	RedirectLogin
	AccessDenied
	Allow
)

func (d Decision) String() string {
	switch d {
	case Loading:
		return "loading"
	case RedirectLogin:
		return "redirect_login"
	case AccessDenied:
		return "access_denied"
	case Allow:
		return "allow"
	default:
		return "unknown"
	}
}

// Err maps a decision to the error shown to the user. Allow and Loading map to nil.
func (d Decision) Err() error {
	switch d {
	case RedirectLogin:
		return session.ErrLoginRequired
	case AccessDenied:
		return ErrAccessDenied
	default:
		return nil
	}
}

// IdentitySource is the read side of session.Store.
type IdentitySource interface {
	Identity() *session.Identity
	Ready() <-chan struct{}
}

type Guard struct {
	source IdentitySource
}

func New(source IdentitySource) *Guard {
	return &Guard{source: source}
}

// Evaluate returns the decision for the current identity without blocking.
// Until the store finished restoring the answer is always Loading.
func (g *Guard) Evaluate(roles ...session.Role) Decision {
	select {
	case <-g.source.Ready():
	default:
		return Loading
	}

	identity := g.source.Identity()
	if identity == nil {
		return RedirectLogin
	}

	if !identity.HasRole(roles...) {
		return AccessDenied
	}

	return Allow
}

// Wait blocks until the store is ready, then evaluates.
func (g *Guard) Wait(ctx context.Context, roles ...session.Role) (Decision, error) {
	select {
	case <-g.source.Ready():
	case <-ctx.Done():
		return Loading, ctx.Err()
	}

	return g.Evaluate(roles...), nil
}
