// Package reposqlite persists the session in a single-row SQLite table,
// for clients that already carry a local database.
package reposqlite

import (
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/jrsteele09/go-api-client/session"
)

var _ session.Repo = (*Repo)(nil)

// Repo stores the session record in the current_session table. The table
// holds at most one row, keyed by a fixed id.
type Repo struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dsn and prepares the
// session table.
func New(dsn string) (*Repo, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "[New] opening sqlite database")
	}
	r := &Repo{db: db}
	if err := r.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) init() error {
	if _, err := r.db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		return errors.Wrap(err, "[init] enabling WAL")
	}
	_, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS current_session (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		version INTEGER NOT NULL,
		record TEXT NOT NULL
	);`)
	return errors.Wrap(err, "[init] creating session table")
}

func (r *Repo) Save(s session.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "[Save] encoding session")
	}
	_, err = r.db.Exec(
		`INSERT INTO current_session (id, version, record) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET version = excluded.version, record = excluded.record;`,
		session.SchemaVersion, string(data),
	)
	return errors.Wrap(err, "[Save] upserting session row")
}

func (r *Repo) Load() (session.Session, bool, error) {
	var version int
	var record string
	err := r.db.QueryRow(`SELECT version, record FROM current_session WHERE id = 1;`).Scan(&version, &record)
	if err == sql.ErrNoRows {
		return session.Session{}, false, nil
	}
	if err != nil {
		return session.Session{}, false, errors.Wrap(err, "[Load] reading session row")
	}
	if version != session.SchemaVersion {
		return session.Session{}, false, nil
	}

	var s session.Session
	if err := json.Unmarshal([]byte(record), &s); err != nil {
		return session.Session{}, false, nil
	}
	return s, true, nil
}

func (r *Repo) Clear() error {
	_, err := r.db.Exec(`DELETE FROM current_session WHERE id = 1;`)
	return errors.Wrap(err, "[Clear] deleting session row")
}

// Close releases the underlying database handle.
func (r *Repo) Close() error {
	return r.db.Close()
}
