package events

import (
	"context"
	"sync"
	"time"
)

// Routing keys.
const (
	ProjectCreated    = "project.created"
	ProjectUpdated    = "project.updated"
	ProjectDeleted    = "project.deleted"
	SuggestionCreated = "suggestion.created"
	SuggestionVoted   = "suggestion.voted"
)

type Event struct {
	Type       string      `json:"type"`
	SubjectID  string      `json:"subjectId"`
	OccurredAt time.Time   `json:"occurredAt"`
	Data       interface{} `json:"data,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *Recorder) Types() []string {
	var types []string
	for _, e := range r.Events() {
		types = append(types, e.Type)
	}
	return types
}
