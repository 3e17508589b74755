package repofakes

import (
	"sync"

	"github.com/jrsteele09/go-api-client/session"
)

var _ session.Repo = (*FakeSessionRepo)(nil)

// FakeSessionRepo is an in-memory session.Repo for tests. It counts
// operations so tests can assert how often persistence was touched.
type FakeSessionRepo struct {
	lock    sync.Mutex
	stored  session.Session
	present bool

	SaveCalls  int
	ClearCalls int

	// SaveErr / ClearErr, when set, are returned by the matching operation.
	SaveErr  error
	ClearErr error
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{}
}

func (fr *FakeSessionRepo) Save(s session.Session) error {
	fr.lock.Lock()
	defer fr.lock.Unlock()

	fr.SaveCalls++
	if fr.SaveErr != nil {
		return fr.SaveErr
	}
	fr.stored = s
	fr.present = true
	return nil
}

func (fr *FakeSessionRepo) Load() (session.Session, bool, error) {
	fr.lock.Lock()
	defer fr.lock.Unlock()
	return fr.stored, fr.present, nil
}

func (fr *FakeSessionRepo) Clear() error {
	fr.lock.Lock()
	defer fr.lock.Unlock()

	fr.ClearCalls++
	if fr.ClearErr != nil {
		return fr.ClearErr
	}
	fr.stored = session.Session{}
	fr.present = false
	return nil
}

// Seed pre-populates the repo as if a previous run had persisted s.
func (fr *FakeSessionRepo) Seed(s session.Session) {
	fr.lock.Lock()
	defer fr.lock.Unlock()
	fr.stored = s
	fr.present = true
}
