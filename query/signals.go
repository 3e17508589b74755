package query

import "sync"

// Reason identifies which environment signal fired.
type Reason string

const (
	ReasonFocus     Reason = "focus"     // Visibility regained
	ReasonReconnect Reason = "reconnect" // Connectivity regained
)

// Signals is the hub for the two abstract refresh triggers. The embedding
// environment (a UI shell, a daemon's netlink watcher) reports the raw
// events; subscribers react. Safe for concurrent use.
type Signals struct {
	mu   sync.Mutex
	subs []func(Reason)
}

// NewSignals creates an empty hub.
func NewSignals() *Signals {
	return &Signals{}
}

// Subscribe registers a callback for both signals. Callbacks run
// synchronously on the goroutine reporting the signal.
func (s *Signals) Subscribe(fn func(Reason)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// FocusRegained reports that the caller's window or view became visible
// again.
func (s *Signals) FocusRegained() {
	s.emit(ReasonFocus)
}

// ConnectivityRegained reports that network connectivity came back.
func (s *Signals) ConnectivityRegained() {
	s.emit(ReasonReconnect)
}

func (s *Signals) emit(reason Reason) {
	s.mu.Lock()
	subs := make([]func(Reason), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(reason)
	}
}

// BindSignals subscribes the cache to the hub so a regained focus or
// connection marks every entry stale for refetch on its next read.
func (c *Cache) BindSignals(s *Signals) {
	s.Subscribe(func(reason Reason) {
		c.log.Debug().Str("reason", string(reason)).Msg("marking all cache entries stale")
		c.InvalidateAll()
	})
}
