package conversation

type State string

const (
	StateRunning         State = "running"
	StateScriptExhausted State = "script-exhausted"
	StateCompleted       State = "completed"
	StateFailed          State = "failed"
	StateTimedOut        State = "timed-out"
)

func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateTimedOut
}

// Reason tells why a conversation failed or timed out.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonExitCode     Reason = "exit-code"
	ReasonExitedEarly  Reason = "exited-before-completion"
	ReasonStderr       Reason = "stderr"
	ReasonStreamClosed Reason = "stream-closed"
	ReasonStepTimeout  Reason = "step-timeout"
	ReasonCancelled    Reason = "cancelled"
)

type Result struct {
	ID    string
	Name  string
	State State

	// Outcome names how a completed conversation ended,
	// e.g. "exported", "not found" or "already logged out".
	Outcome string
	URL     string

	// ExitCode is -1 while the process is still running.
	ExitCode int

	StepsCompleted int
	Reason         Reason
	Err            error
}

func (r Result) Completed() bool {
	return r.State == StateCompleted
}
