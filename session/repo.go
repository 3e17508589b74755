package session

// SchemaVersion is the version stamped onto persisted session records.
// A persisted record with any other version is treated as absent.
const SchemaVersion = 1

// Repo defines the interface for durable session persistence. A Repo stores
// at most one session record. Load reporting ok=false means "no usable
// session persisted" - implementations must map malformed or
// version-mismatched data to that case rather than returning an error, so a
// corrupt record never blocks startup.
type Repo interface {
	// Save persists the session, replacing any previous record
	Save(s Session) error

	// Load retrieves the persisted session, if a structurally valid one exists
	Load() (Session, bool, error)

	// Clear removes the persisted session. Clearing an empty repo is a no-op
	Clear() error
}
