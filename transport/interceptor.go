package transport

import (
	"net/http"
	"sync"

	"github.com/rs/zerolog"
)

// RequestHook is an outgoing-stage interceptor. Hooks may mutate the
// request (typically its headers) before it is sent.
type RequestHook func(*http.Request)

// ResponseHook is an incoming-stage interceptor. Exactly one of resp/err is
// non-nil: resp for any completed exchange, err for transport-level
// failures. Hooks observe and classify; they never rewrite the outcome.
type ResponseHook func(resp *Response, err error)

// CredentialSource yields the current bearer credential, reporting ok=false
// when no authenticated session exists. session.Store.Token satisfies it.
type CredentialSource func() (token string, ok bool)

// BearerHook attaches the session credential as an Authorization header.
// Requests issued without an active session go out with no header at all.
func BearerHook(creds CredentialSource) RequestHook {
	return func(req *http.Request) {
		if token, ok := creds(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

// UnauthorizedWatcher turns 401 responses into a single forced-logout.
// Under N near-simultaneous 401s (stale credential shared by concurrent
// in-flight requests) the logout and redirect callbacks each run exactly
// once; the watcher re-arms on the next authenticated session.
type UnauthorizedWatcher struct {
	mu       sync.Mutex
	armed    bool
	logout   func()
	redirect func()
	log      zerolog.Logger
}

// NewUnauthorizedWatcher creates an armed watcher. logout must clear the
// session (session.Store.Logout); redirect routes the caller context to its
// unauthenticated entry point. Either may be nil.
func NewUnauthorizedWatcher(logout, redirect func(), log zerolog.Logger) *UnauthorizedWatcher {
	return &UnauthorizedWatcher{
		armed:    true,
		logout:   logout,
		redirect: redirect,
		log:      log,
	}
}

// Hook returns the incoming-stage interceptor feeding this watcher.
func (w *UnauthorizedWatcher) Hook() ResponseHook {
	return func(resp *Response, err error) {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			w.trip()
		}
	}
}

// Rearm makes the watcher eligible to fire again. Wire it to the session
// store so a fresh login resets the debounce.
func (w *UnauthorizedWatcher) Rearm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.armed = true
}

// Trip forces the logout transition directly, for callers that detect an
// invalid credential without a server round trip (local expiry check).
func (w *UnauthorizedWatcher) Trip() {
	w.trip()
}

func (w *UnauthorizedWatcher) trip() {
	w.mu.Lock()
	if !w.armed {
		w.mu.Unlock()
		return
	}
	w.armed = false
	w.mu.Unlock()

	w.log.Warn().Msg("invalid session detected, forcing logout")
	if w.logout != nil {
		w.logout()
	}
	if w.redirect != nil {
		w.redirect()
	}
}
