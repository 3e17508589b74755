// Package repofile persists the session as a small versioned JSON file,
// the closest server-less analog to a browser's local storage.
package repofile

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/jrsteele09/go-api-client/session"
	"github.com/pkg/errors"
)

var _ session.Repo = (*Repo)(nil)

type record struct {
	Version int             `json:"version"`
	Session session.Session `json:"session"`
}

// Repo stores the session record at a fixed path. Writes go through a
// temp-file rename so a crash never leaves a half-written record.
type Repo struct {
	path string
}

// New creates a file-backed session repo at path, creating parent
// directories as needed.
func New(path string) (*Repo, error) {
	if path == "" {
		return nil, errors.New("[New] path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(err, "[New] creating session directory")
	}
	return &Repo{path: path}, nil
}

func (r *Repo) Save(s session.Session) error {
	data, err := json.Marshal(record{Version: session.SchemaVersion, Session: s})
	if err != nil {
		return errors.Wrap(err, "[Save] encoding session")
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "[Save] writing session file")
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return errors.Wrap(err, "[Save] replacing session file")
	}
	return nil
}

func (r *Repo) Load() (session.Session, bool, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return session.Session{}, false, nil
		}
		return session.Session{}, false, errors.Wrap(err, "[Load] reading session file")
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		// Corrupt persisted state is absent state, not a startup failure.
		return session.Session{}, false, nil
	}
	if rec.Version != session.SchemaVersion {
		return session.Session{}, false, nil
	}
	return rec.Session, true, nil
}

func (r *Repo) Clear() error {
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[Clear] removing session file")
	}
	return nil
}
