package eventlogger

import (
	"fmt"
	"sync"
)

type InMemoryBackend struct {
	Events []interface{}
	mu     sync.Mutex
}

func NewInMemoryBackend() (*InMemoryBackend, error) {
	return &InMemoryBackend{}, nil
}

func (l *InMemoryBackend) Open() error {
	return nil
}

func (l *InMemoryBackend) Write(event interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.Events = append(l.Events, event)

	return nil
}

func (l *InMemoryBackend) Close() error {
	return nil
}

// SimplifiedEvents renders every event as a short human readable line.
func (l *InMemoryBackend) SimplifiedEvents(includeOutput bool) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	lines := []string{}

	for _, event := range l.Events {
		switch e := event.(type) {
		case *ConversationStartedEvent:
			lines = append(lines, fmt.Sprintf("started %s (%d steps)", e.Name, e.Steps))
		case *OutputEvent:
			if includeOutput {
				lines = append(lines, fmt.Sprintf("%s: %s", e.Stream, e.Output))
			}
		case *ResponseSentEvent:
			lines = append(lines, fmt.Sprintf("step %d: %s -> %s", e.Step, e.Trigger, e.Response))
		case *StateChangedEvent:
			lines = append(lines, fmt.Sprintf("state: %s -> %s", e.From, e.To))
		case *ConversationFinishedEvent:
			lines = append(lines, fmt.Sprintf("finished: %s", e.State))
		default:
			lines = append(lines, fmt.Sprintf("unknown event %T", e))
		}
	}

	return lines
}
