package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/semaphoreci/clidriver/pkg/eventlogger"
	"github.com/semaphoreci/clidriver/pkg/extract"
	"github.com/semaphoreci/clidriver/pkg/script"
	log "github.com/sirupsen/logrus"
)

const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"
)

// Injector writes a scripted response to the process.
type Injector interface {
	Send(text string) error
}

type Options struct {
	Name       string
	Script     *script.Script
	Completion Completion

	// Injector is used by the Handle* methods.
	// Run uses the subprocess it receives when this is nil.
	Injector Injector

	// FailOnStderr fails the conversation on any non-blank stderr output.
	// StderrPatterns fails it only when one of the patterns shows up.
	FailOnStderr   bool
	StderrPatterns []string

	// StepTimeout bounds the wait for each trigger and for the completion.
	// Zero waits forever.
	StepTimeout time.Duration

	// Logger receives the conversation transcript. Optional.
	Logger *eventlogger.Logger
}

//
// Driver runs one conversation with one process.
//
// The Handle* methods are the state machine. They are not safe for
// concurrent use: every event of a conversation has to be handled
// in the order the process produced it, from a single goroutine.
// Run takes care of that.
//
type Driver struct {
	options  Options
	matcher  *script.Matcher
	injector Injector
	log      *log.Entry

	state          State
	stdout         strings.Builder
	stderr         strings.Builder
	sinceExhausted strings.Builder
	result         Result

	// set when the cursor moves or the state changes,
	// consumed by Run to reset the step timer.
	progressed bool
}

func New(options Options) (*Driver, error) {
	if options.Script == nil {
		return nil, fmt.Errorf("conversation requires a script")
	}

	if options.Completion == nil {
		return nil, fmt.Errorf("conversation requires a completion condition")
	}

	if options.Name == "" {
		options.Name = "conversation"
	}

	id := uuid.NewString()

	// With nothing to answer, everything the process prints
	// counts towards the completion.
	state := StateRunning
	if options.Script.Len() == 0 {
		state = StateScriptExhausted
	}

	d := &Driver{
		options:  options,
		matcher:  script.NewMatcher(options.Script),
		injector: options.Injector,
		state:    state,
		log:      log.WithFields(log.Fields{"conversation": options.Name}),
		result: Result{
			ID:       id,
			Name:     options.Name,
			State:    state,
			ExitCode: -1,
		},
	}

	if options.Logger != nil {
		options.Logger.LogConversationStarted(id, options.Name, options.Script.Len())
	}

	return d, nil
}

func (d *Driver) State() State {
	return d.state
}

func (d *Driver) Cursor() int {
	return d.matcher.Cursor()
}

func (d *Driver) Result() Result {
	d.result.State = d.state
	d.result.StepsCompleted = d.matcher.Cursor()
	return d.result
}

// Stdout is everything the process wrote to stdout so far.
func (d *Driver) Stdout() string {
	return d.stdout.String()
}

func (d *Driver) Stderr() string {
	return d.stderr.String()
}

func (d *Driver) HandleStdout(chunk string) {
	if d.state.Terminal() {
		return
	}

	d.logOutput(StreamStdout, chunk)
	d.stdout.WriteString(chunk)

	if d.state == StateScriptExhausted {
		d.sinceExhausted.WriteString(chunk)
		d.checkCompletion()
		return
	}

	answered := d.answer(chunk)
	if d.state.Terminal() {
		return
	}

	if d.matcher.Exhausted() {
		d.transition(StateScriptExhausted)

		// Whatever followed the last trigger counts as output
		// after the script was exhausted.
		if answered {
			d.sinceExhausted.WriteString(d.matcher.Pending())
		} else {
			d.sinceExhausted.WriteString(chunk)
		}

		d.checkCompletion()
	}
}

// answer feeds the chunk to the matcher and sends every response it
// yields. A single chunk can contain several prompts in order.
func (d *Driver) answer(chunk string) bool {
	answered := false

	step, ok := d.matcher.Feed(chunk)
	for ok {
		index := d.matcher.Cursor() - 1

		d.log.Infof("Step %d/%d: %q seen, answering %q", index+1, d.matcher.Len(), step.Trigger, step.LogResponse())

		if d.injector == nil {
			d.fail(ReasonStreamClosed, fmt.Errorf("no injector to answer step %d", index))
			return answered
		}

		err := d.injector.Send(step.Response)
		if err != nil {
			d.log.Errorf("Failed to answer step %d: %v", index+1, err)
			d.fail(ReasonStreamClosed, err)
			return answered
		}

		if d.options.Logger != nil {
			d.options.Logger.LogResponseSent(index, step.Trigger, step.LogResponse())
		}

		answered = true
		d.progressed = true

		step, ok = d.matcher.Feed("")
	}

	return answered
}

func (d *Driver) checkCompletion() {
	outcome, ok := d.options.Completion.OnOutput(d.sinceExhausted.String())
	if ok {
		d.complete(outcome)
	}
}

func (d *Driver) HandleStderr(chunk string) {
	if d.state.Terminal() {
		return
	}

	d.logOutput(StreamStderr, chunk)
	d.stderr.WriteString(chunk)

	if d.options.FailOnStderr && strings.TrimSpace(extract.Strip(chunk)) != "" {
		d.fail(ReasonStderr, fmt.Errorf("unexpected output on stderr: %s", strings.TrimSpace(chunk)))
		return
	}

	accumulated := extract.Strip(d.stderr.String())
	for _, pattern := range d.options.StderrPatterns {
		if strings.Contains(accumulated, pattern) {
			d.fail(ReasonStderr, fmt.Errorf("stderr matched %q", pattern))
			return
		}
	}
}

func (d *Driver) HandleExit(exitCode int) {
	d.result.ExitCode = exitCode

	if d.state.Terminal() {
		return
	}

	d.log.Infof("Process exited with %d in state %s", exitCode, d.state)

	outcome, ok := d.options.Completion.OnEnd(d.stdout.String(), d.sinceExhausted.String(), exitCode)
	if ok {
		d.complete(outcome)
		return
	}

	if exitCode != 0 {
		d.fail(ReasonExitCode, fmt.Errorf("process exited with code %d", exitCode))
		return
	}

	d.fail(ReasonExitedEarly, fmt.Errorf("process exited after %d of %d steps without completing", d.matcher.Cursor(), d.matcher.Len()))
}

func (d *Driver) HandleTimeout() {
	if d.state.Terminal() {
		return
	}

	if d.state == StateScriptExhausted {
		outcome, ok := d.options.Completion.OnEnd(d.stdout.String(), d.sinceExhausted.String(), -1)
		if ok {
			d.complete(outcome)
			return
		}
	}

	var err error
	if d.matcher.Exhausted() {
		err = fmt.Errorf("no completion within %v after the last step", d.options.StepTimeout)
	} else {
		trigger := d.options.Script.Step(d.matcher.Cursor()).Trigger
		err = fmt.Errorf("no output containing %q within %v", trigger, d.options.StepTimeout)
	}

	d.log.Errorf("Conversation timed out: %v", err)

	d.result.Reason = ReasonStepTimeout
	d.result.Err = err
	d.transition(StateTimedOut)
}

func (d *Driver) complete(outcome Outcome) {
	d.result.Outcome = outcome.Name
	d.result.URL = outcome.URL

	d.log.Infof("Conversation completed: %s %s", outcome.Name, outcome.URL)
	d.transition(StateCompleted)
}

func (d *Driver) fail(reason Reason, err error) {
	d.result.Reason = reason
	d.result.Err = err

	d.log.Errorf("Conversation failed (%s): %v", reason, err)
	d.transition(StateFailed)
}

func (d *Driver) transition(to State) {
	from := d.state
	if from == to {
		return
	}

	d.state = to
	d.progressed = true

	d.log.Debugf("State %s -> %s", from, to)

	if d.options.Logger == nil {
		return
	}

	d.options.Logger.LogStateChanged(string(from), string(to))

	if to.Terminal() {
		reason := string(d.result.Reason)
		if d.result.Err != nil {
			reason = fmt.Sprintf("%s: %v", reason, d.result.Err)
		}

		d.options.Logger.LogConversationFinished(string(to), d.result.Outcome, d.result.URL, reason, d.result.ExitCode)
	}
}

// Terminals echo what we type, so secrets can come back in the output.
func (d *Driver) logOutput(stream, chunk string) {
	for _, step := range d.options.Script.Steps() {
		if step.Secret && step.Response != "" {
			chunk = strings.ReplaceAll(chunk, step.Response, step.LogResponse())
		}
	}

	d.log.Debugf("(%s) %q", stream, chunk)

	if d.options.Logger != nil {
		d.options.Logger.LogOutput(stream, chunk)
	}
}

func (d *Driver) consumeProgress() bool {
	progressed := d.progressed
	d.progressed = false
	return progressed
}
