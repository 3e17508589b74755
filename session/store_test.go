package session_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-api-client/session"
	"github.com/jrsteele09/go-api-client/session/repofakes"
)

func newStore(t *testing.T) (*session.Store, *repofakes.FakeSessionRepo) {
	t.Helper()

	repo := repofakes.NewFakeSessionRepo()
	store, err := session.NewStore(repo)
	require.NoError(t, err)
	return store, repo
}

func TestLoginLogoutRoundTrip(t *testing.T) {
	store, repo := newStore(t)

	s, err := store.Login("u1", "t1", session.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, session.Session{IdentityID: "u1", Token: "t1", Role: session.RoleAdmin}, s)
	require.Equal(t, s, store.Current())

	persisted, ok, err := repo.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, s, persisted)

	store.Logout()
	require.Equal(t, session.Session{}, store.Current())
	require.False(t, store.Current().Authenticated())

	_, ok, err = repo.Load()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLoginRejectsInvalidInput(t *testing.T) {
	store, repo := newStore(t)

	_, err := store.Login("u1", "t1", session.Role("SUPERUSER"))
	require.ErrorIs(t, err, session.ErrInvalidRole)

	_, err = store.Login("u1", "", session.RoleStaff)
	require.ErrorIs(t, err, session.ErrEmptyToken)

	_, err = store.Login("", "t1", session.RoleStaff)
	require.ErrorIs(t, err, session.ErrEmptyIdentity)

	require.Zero(t, repo.SaveCalls)
	require.False(t, store.Current().Authenticated())
}

func TestLogoutIsIdempotent(t *testing.T) {
	store, repo := newStore(t)

	store.Logout()
	store.Logout()
	require.Zero(t, repo.ClearCalls)

	_, err := store.Login("u1", "t1", session.RoleDriver)
	require.NoError(t, err)

	store.Logout()
	store.Logout()
	require.Equal(t, 1, repo.ClearCalls)
}

func TestFailedPersistenceKeepsPriorSession(t *testing.T) {
	store, repo := newStore(t)

	first, err := store.Login("u1", "t1", session.RoleAdmin)
	require.NoError(t, err)

	var transitions int
	store.Watch(func(session.Session) { transitions++ })

	repo.SaveErr = errors.New("disk full")
	_, err = store.Login("u2", "t2", session.RoleStaff)
	require.Error(t, err)

	// The swap never happened: the first session is still installed and
	// watchers saw no transition.
	require.Equal(t, first, store.Current())
	require.True(t, store.Current().Authenticated())
	require.Zero(t, transitions)

	token, ok := store.Token()
	require.True(t, ok)
	require.Equal(t, "t1", token)
}

func TestRehydratesPersistedSession(t *testing.T) {
	repo := repofakes.NewFakeSessionRepo()
	repo.Seed(session.Session{IdentityID: "u1", Token: "t1", Role: session.RoleStaff})

	store, err := session.NewStore(repo)
	require.NoError(t, err)
	require.Equal(t, session.RoleStaff, store.Current().Role)
	require.True(t, store.Current().Authenticated())
}

func TestMalformedPersistedSessionTreatedAsAbsent(t *testing.T) {
	repo := repofakes.NewFakeSessionRepo()
	repo.Seed(session.Session{IdentityID: "u1", Token: "", Role: "GHOST"})

	store, err := session.NewStore(repo)
	require.NoError(t, err)
	require.False(t, store.Current().Authenticated())
	require.Equal(t, 1, repo.ClearCalls)
}

func TestWatchersSeeEveryTransition(t *testing.T) {
	store, _ := newStore(t)

	var transitions []session.Session
	store.Watch(func(s session.Session) {
		transitions = append(transitions, s)
	})

	_, err := store.Login("u1", "t1", session.RoleAdmin)
	require.NoError(t, err)
	store.Logout()

	require.Len(t, transitions, 2)
	require.True(t, transitions[0].Authenticated())
	require.False(t, transitions[1].Authenticated())
}

func TestTokenReportsCredential(t *testing.T) {
	store, _ := newStore(t)

	_, ok := store.Token()
	require.False(t, ok)

	_, err := store.Login("u1", "t1", session.RoleDriver)
	require.NoError(t, err)

	token, ok := store.Token()
	require.True(t, ok)
	require.Equal(t, "t1", token)
}

func TestLoginOAuth2(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.LoginOAuth2("u1", nil, session.RoleAdmin)
	require.Error(t, err)

	expired := &oauth2.Token{AccessToken: "t1", Expiry: time.Now().Add(-time.Hour)}
	_, err = store.LoginOAuth2("u1", expired, session.RoleAdmin)
	require.Error(t, err)

	tok := &oauth2.Token{AccessToken: "t1", Expiry: time.Now().Add(time.Hour)}
	s, err := store.LoginOAuth2("u1", tok, session.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, "t1", s.Token)
	require.Equal(t, session.RoleAdmin, s.Role)
}
