package eventlogger

const (
	EventConversationStarted  = "conversation_started"
	EventOutput               = "output"
	EventResponseSent         = "response_sent"
	EventStateChanged         = "state_changed"
	EventConversationFinished = "conversation_finished"
)

type ConversationStartedEvent struct {
	Event     string `json:"event"`
	Timestamp int    `json:"timestamp"`
	ID        string `json:"id"`
	Name      string `json:"name"`
	Steps     int    `json:"steps"`
}

type OutputEvent struct {
	Event     string `json:"event"`
	Timestamp int    `json:"timestamp"`
	Stream    string `json:"stream"`
	Output    string `json:"output"`
}

type ResponseSentEvent struct {
	Event     string `json:"event"`
	Timestamp int    `json:"timestamp"`
	Step      int    `json:"step"`
	Trigger   string `json:"trigger"`
	Response  string `json:"response"`
}

type StateChangedEvent struct {
	Event     string `json:"event"`
	Timestamp int    `json:"timestamp"`
	From      string `json:"from"`
	To        string `json:"to"`
}

type ConversationFinishedEvent struct {
	Event     string `json:"event"`
	Timestamp int    `json:"timestamp"`
	State     string `json:"state"`
	Outcome   string `json:"outcome,omitempty"`
	URL       string `json:"url,omitempty"`
	Reason    string `json:"reason,omitempty"`
	ExitCode  int    `json:"exit_code"`
}
