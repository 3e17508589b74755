package api

import "github.com/rs/zerolog"

// NoticeKind distinguishes the two user-facing notification flavours.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notifier receives the user-facing side channel: every facade failure and
// every default-success write emits exactly one notification. The facade
// only depends on this narrow interface so the request logic stays
// testable without a UI.
type Notifier interface {
	Notify(kind NoticeKind, message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(kind NoticeKind, message string)

func (f NotifierFunc) Notify(kind NoticeKind, message string) {
	f(kind, message)
}

// NopNotifier discards all notifications.
func NopNotifier() Notifier {
	return NotifierFunc(func(NoticeKind, string) {})
}

// LogNotifier routes notifications to a logger, for headless callers such
// as the CLI.
func LogNotifier(log zerolog.Logger) Notifier {
	return NotifierFunc(func(kind NoticeKind, message string) {
		switch kind {
		case NoticeError:
			log.Error().Msg(message)
		default:
			log.Info().Msg(message)
		}
	})
}
