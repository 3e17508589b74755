// Package guard decides whether the current session may enter a protected
// operation or view. Checks are pure over a session snapshot; role matches
// are exact, with no implied hierarchy between roles.
package guard

import "github.com/jrsteele09/go-api-client/session"

// Requirement describes what a protected entry point demands.
type Requirement struct {
	role session.Role
	any  bool
}

// Role requires the session to hold exactly r.
func Role(r session.Role) Requirement {
	return Requirement{role: r}
}

// AnyAuthenticated requires any valid authenticated session.
func AnyAuthenticated() Requirement {
	return Requirement{any: true}
}

// Allowed reports whether s satisfies req.
func Allowed(s session.Session, req Requirement) bool {
	if !s.Authenticated() {
		return false
	}
	if req.any {
		return true
	}
	return s.Role == req.role
}

// SessionSource yields the current session snapshot.
// session.Store.Current satisfies it.
type SessionSource func() session.Session

// Guard binds a session source to a deny route so callers get a single
// Check call that both answers and redirects.
type Guard struct {
	current SessionSource
	onDeny  func()
}

// New creates a Guard. onDeny routes the caller to its unauthenticated
// entry point and may be nil.
func New(current SessionSource, onDeny func()) *Guard {
	return &Guard{current: current, onDeny: onDeny}
}

// Check evaluates req against the current session, invoking the deny route
// when the answer is no.
func (g *Guard) Check(req Requirement) bool {
	if Allowed(g.current(), req) {
		return true
	}
	if g.onDeny != nil {
		g.onDeny()
	}
	return false
}
