package drafts

import (
	"time"

	"catalog-admin/apperr"

	"github.com/google/uuid"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Event is a structured notice for the host UI. Info events accompany advisory
// failures where local state stays authoritative.
type Event struct {
	Level      Level       `json:"level"`
	Kind       apperr.Kind `json:"kind"`
	Message    string      `json:"message"`
	VariantKey uuid.UUID   `json:"variantKey,omitzero"`
	ImageID    uuid.UUID   `json:"imageId,omitzero"`
	Filename   string      `json:"filename,omitempty"`
	At         time.Time   `json:"at"`
}

type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

func notify(n Notifier, e Event) {
	if n == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	n.Notify(e)
}
