package repofile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-api-client/session"
	"github.com/jrsteele09/go-api-client/session/repofile"
)

func newRepo(t *testing.T) (*repofile.Repo, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "state", "session.json")
	repo, err := repofile.New(path)
	require.NoError(t, err)
	return repo, path
}

func TestSaveLoadClear(t *testing.T) {
	repo, _ := newRepo(t)

	_, ok, err := repo.Load()
	require.NoError(t, err)
	require.False(t, ok)

	want := session.Session{IdentityID: "u1", Token: "t1", Role: session.RoleAdmin}
	require.NoError(t, repo.Save(want))

	got, ok, err := repo.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, got)

	require.NoError(t, repo.Clear())
	_, ok, err = repo.Load()
	require.NoError(t, err)
	require.False(t, ok)

	// Clearing twice is fine.
	require.NoError(t, repo.Clear())
}

func TestCorruptFileTreatedAsAbsent(t *testing.T) {
	repo, path := newRepo(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, ok, err := repo.Load()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVersionMismatchTreatedAsAbsent(t *testing.T) {
	repo, path := newRepo(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"version":99,"session":{"identity_id":"u1","token":"t1","role":"ADMIN"}}`), 0o600))

	_, ok, err := repo.Load()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSaveReplacesPreviousRecord(t *testing.T) {
	repo, _ := newRepo(t)

	require.NoError(t, repo.Save(session.Session{IdentityID: "u1", Token: "t1", Role: session.RoleDriver}))
	require.NoError(t, repo.Save(session.Session{IdentityID: "u2", Token: "t2", Role: session.RoleStaff}))

	got, ok, err := repo.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "u2", got.IdentityID)
	require.Equal(t, session.RoleStaff, got.Role)
}
