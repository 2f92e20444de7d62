package console

import (
	"fmt"
	"time"
)

// Notification is a failure the user must acknowledge.
type Notification struct {
	Message  string    `json:"message"`
	Endpoint string    `json:"endpoint"`
	Time     time.Time `json:"time"`
	Err      error     `json:"-"`
}

// Text is the user-facing alert text.
func (n Notification) Text() string {
	return fmt.Sprintf("Backend Connection Failed to %s: %s", n.Endpoint, n.Message)
}

func newNotification(endpoint string, err error, now time.Time) *Notification {
	return &Notification{
		Message:  err.Error(),
		Endpoint: endpoint,
		Time:     now,
		Err:      err,
	}
}

// Notifier surfaces failures to the user.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Listener observes every state transition.
type Listener interface {
	StateChanged(Snapshot)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Snapshot)

func (f ListenerFunc) StateChanged(s Snapshot) { f(s) }

// Recorder counts search attempts.
type Recorder interface {
	RecordSearch(kind OutcomeKind, elapsed time.Duration)
}
