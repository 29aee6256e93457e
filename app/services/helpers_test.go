package services

import (
	"sync"
	"time"

	"voicematch/app/models"
)

func testTimeouts() SessionTimeouts {
	return SessionTimeouts{
		Handshake:       15 * time.Second,
		Signaling:       30 * time.Second,
		MaxCallDuration: 10 * time.Minute,
		RatingWindow:    time.Minute,
		IceGraceWindow:  5 * time.Second,
		EndedRetention:  time.Minute,
	}
}

// fakeTransport records emitted events in order, standing in for a socket
type fakeTransport struct {
	mu     sync.Mutex
	id     string
	events []fakeEvent
}

type fakeEvent struct {
	name string
	data interface{}
}

func newFakeTransport(id string) *fakeTransport {
	return &fakeTransport{id: id}
}

func (f *fakeTransport) ID() string {
	return f.id
}

func (f *fakeTransport) Emit(event string, data interface{}) error {
	f.mu.Lock()
	f.events = append(f.events, fakeEvent{name: event, data: data})
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) eventsNamed(name string) []fakeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []fakeEvent
	for _, event := range f.events {
		if event.name == name {
			matched = append(matched, event)
		}
	}
	return matched
}

// fakeHistory captures every summary handed to the history sink
type fakeHistory struct {
	mu        sync.Mutex
	summaries []models.SessionSummary
}

func (f *fakeHistory) RecordCall(summary models.SessionSummary) {
	f.mu.Lock()
	f.summaries = append(f.summaries, summary)
	f.mu.Unlock()
}

func (f *fakeHistory) recorded() []models.SessionSummary {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.SessionSummary(nil), f.summaries...)
}
