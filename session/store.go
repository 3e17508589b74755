package session

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Watcher is notified after every session state transition with the new
// snapshot. Watchers run synchronously on the goroutine performing the
// transition and must not call back into the Store.
type Watcher func(Session)

// Store owns the process-wide session state. All mutation goes through
// Login/Logout; every other component only ever sees immutable snapshots.
// Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	current  Session
	repo     Repo
	watchers []Watcher
	log      zerolog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for rehydration and persistence warnings.
func WithLogger(log zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.log = log
	}
}

// NewStore creates a Store backed by the given Repo and rehydrates the
// session persisted from a previous run. Malformed persisted data is
// self-healed: it is logged, cleared, and the store starts unauthenticated.
func NewStore(repo Repo, options ...StoreOption) (*Store, error) {
	if repo == nil {
		return nil, errors.New("[NewStore] repo is required")
	}

	store := &Store{
		repo: repo,
		log:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(store)
	}

	persisted, ok, err := repo.Load()
	if err != nil {
		return nil, errors.Wrap(err, "[NewStore] loading persisted session")
	}
	if ok {
		if persisted.validate() != nil {
			// Structurally present but not a usable session. Treat as absent.
			store.log.Error().Msg("discarding invalid persisted session")
			_ = repo.Clear()
		} else {
			store.current = persisted
		}
	}

	return store, nil
}

// Login validates and atomically installs a new authenticated session,
// persisting it before returning. The returned Session is the installed
// snapshot.
func (s *Store) Login(identityID, token string, role Role) (Session, error) {
	next := Session{IdentityID: identityID, Token: token, Role: role}
	if err := next.validate(); err != nil {
		return Session{}, errors.Wrap(err, "[Login] validating session")
	}

	s.mu.Lock()
	prior := s.current
	s.current = next
	watchers := s.watchers
	if err := s.repo.Save(next); err != nil {
		// Persistence failed, so the swap never happened: the caller keeps
		// whatever session was installed before.
		s.current = prior
		s.mu.Unlock()
		return Session{}, errors.Wrap(err, "[Login] persisting session")
	}
	s.mu.Unlock()

	s.log.Debug().Str("identity", identityID).Str("role", string(role)).Msg("session established")
	notify(watchers, next)
	return next, nil
}

// LoginOAuth2 installs a session from a token obtained through an external
// OAuth2 flow. Only the access token is carried into the session; refresh
// handling stays with the flow that produced the token.
func (s *Store) LoginOAuth2(identityID string, tok *oauth2.Token, role Role) (Session, error) {
	if tok == nil || !tok.Valid() {
		return Session{}, errors.New("[LoginOAuth2] token is missing or expired")
	}
	return s.Login(identityID, tok.AccessToken, role)
}

// Logout atomically clears the session and its persisted record. It is
// idempotent: logging out while unauthenticated is a no-op.
func (s *Store) Logout() {
	s.mu.Lock()
	if !s.current.Authenticated() {
		s.mu.Unlock()
		return
	}
	s.current = Session{}
	watchers := s.watchers
	if err := s.repo.Clear(); err != nil {
		s.log.Error().Err(err).Msg("clearing persisted session")
	}
	s.mu.Unlock()

	s.log.Debug().Msg("session cleared")
	notify(watchers, Session{})
}

// Current returns a read-only snapshot of the session state.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Token returns the current credential token, reporting ok=false when
// unauthenticated. It satisfies the transport layer's credential source.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token, s.current.Authenticated()
}

// Watch registers a watcher invoked on every login/logout transition.
func (s *Store) Watch(w Watcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, w)
}

func notify(watchers []Watcher, snapshot Session) {
	for _, w := range watchers {
		w(snapshot)
	}
}
