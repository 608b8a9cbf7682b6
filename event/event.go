package event

import (
	"github.com/denismitr/docshift/migration"
	"sync"
)

const (
	Resolved      = "migrations:resolved"
	Migrated      = "migration:up"
	RolledBack    = "migration:down"
	LedgerUpdated = "ledger:updated"
)

// Observer receives progress milestones of a migration run.
// Implementations must not block for long, they are called inline.
type Observer interface {
	Notify(event string, payload interface{})
}

type ObserverFunc func(event string, payload interface{})

func (f ObserverFunc) Notify(event string, payload interface{}) {
	f(event, payload)
}

type nop struct{}

func (nop) Notify(string, interface{}) {}

// Nop discards every notification
var Nop Observer = nop{}

type multi []Observer

func (m multi) Notify(event string, payload interface{}) {
	for _, o := range m {
		o.Notify(event, payload)
	}
}

// Multi fans notifications out to every non nil observer in order
func Multi(observers ...Observer) Observer {
	var m multi
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}

	if len(m) == 0 {
		return Nop
	}

	return m
}

type UnitPayload struct {
	Direction migration.Direction
	Unit      migration.Unit
}

type ResolvedPayload struct {
	Direction migration.Direction
	Count     int
}

type LedgerPayload struct {
	Direction migration.Direction
	Table     string
	Entries   int
}

type Record struct {
	Name    string
	Payload interface{}
}

// Recorder keeps every notification it receives, it is safe for concurrent use
type Recorder struct {
	mu     sync.Mutex
	events []Record
}

var _ Observer = (*Recorder)(nil)

func (r *Recorder) Notify(event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Record{Name: event, Payload: payload})
}

func (r *Recorder) Events() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]Record, len(r.events))
	copy(result, r.events)

	return result
}

// Names returns recorded event names in order of arrival
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]string, 0, len(r.events))
	for i := range r.events {
		result = append(result, r.events[i].Name)
	}

	return result
}
