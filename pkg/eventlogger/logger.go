package eventlogger

import (
	"time"

	log "github.com/sirupsen/logrus"
)

type Logger struct {
	Backend Backend
}

func NewLogger(backend Backend) (*Logger, error) {
	return &Logger{Backend: backend}, nil
}

func (l *Logger) Open() error {
	return l.Backend.Open()
}

func (l *Logger) Close() error {
	return l.Backend.Close()
}

func (l *Logger) LogConversationStarted(id, name string, steps int) {
	event := &ConversationStartedEvent{
		Timestamp: int(time.Now().Unix()),
		Event:     EventConversationStarted,
		ID:        id,
		Name:      name,
		Steps:     steps,
	}

	err := l.Backend.Write(event)
	if err != nil {
		log.Errorf("Error writing %s log: %v", EventConversationStarted, err)
	}
}

func (l *Logger) LogOutput(stream, output string) {
	event := &OutputEvent{
		Timestamp: int(time.Now().Unix()),
		Event:     EventOutput,
		Stream:    stream,
		Output:    output,
	}

	err := l.Backend.Write(event)
	if err != nil {
		log.Errorf("Error writing %s log: %v", EventOutput, err)
	}
}

// LogResponseSent expects the response already masked, if it was secret.
func (l *Logger) LogResponseSent(step int, trigger, response string) {
	event := &ResponseSentEvent{
		Timestamp: int(time.Now().Unix()),
		Event:     EventResponseSent,
		Step:      step,
		Trigger:   trigger,
		Response:  response,
	}

	err := l.Backend.Write(event)
	if err != nil {
		log.Errorf("Error writing %s log: %v", EventResponseSent, err)
	}
}

func (l *Logger) LogStateChanged(from, to string) {
	event := &StateChangedEvent{
		Timestamp: int(time.Now().Unix()),
		Event:     EventStateChanged,
		From:      from,
		To:        to,
	}

	err := l.Backend.Write(event)
	if err != nil {
		log.Errorf("Error writing %s log: %v", EventStateChanged, err)
	}
}

func (l *Logger) LogConversationFinished(state, outcome, url, reason string, exitCode int) {
	event := &ConversationFinishedEvent{
		Timestamp: int(time.Now().Unix()),
		Event:     EventConversationFinished,
		State:     state,
		Outcome:   outcome,
		URL:       url,
		Reason:    reason,
		ExitCode:  exitCode,
	}

	err := l.Backend.Write(event)
	if err != nil {
		log.Errorf("Error writing %s log: %v", EventConversationFinished, err)
	}
}
