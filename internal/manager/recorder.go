package manager

import (
	"strings"
	"sync"
)

// EventRecorder keeps every published event in order. The lifecycle and
// request tests use it to check what a drain or a translation reported.
type EventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func NewEventRecorder() *EventRecorder { return &EventRecorder{} }

func (r *EventRecorder) Publish(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *EventRecorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Sequence joins the recorded event names with commas, e.g.
// "serving,translated,drain_start".
func (r *EventRecorder) Sequence() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.Name
	}
	return strings.Join(names, ",")
}

// Last returns the most recent event with the given name.
func (r *EventRecorder) Last(name string) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Name == name {
			return r.events[i], true
		}
	}
	return Event{}, false
}
