package conversation

import (
	"strings"

	"github.com/semaphoreci/clidriver/pkg/extract"
)

const OutcomeNotFound = "not found"

type Outcome struct {
	Name string
	URL  string
}

// Completion decides when a conversation is done.
type Completion interface {
	// OnOutput receives the output accumulated since the script was exhausted.
	OnOutput(output string) (Outcome, bool)

	//
	// OnEnd is called once no more output is expected, with the whole
	// stdout and the part of it printed after the script was exhausted.
	// exitCode is -1 when the process is still running, which happens
	// when the last step timed out.
	//
	OnEnd(stdout, sinceExhausted string, exitCode int) (Outcome, bool)
}

//
// MarkerCompletion completes the conversation when the marker shows up
// after the last scripted answer. The result is the first URL printed
// from the marker onwards, so URLs printed earlier in the conversation
// (login pages, for example) are not picked up.
//
// Output arrives in fragments, and a long success line can be split
// anywhere, even inside the URL. A URL is only taken once something
// follows it. Until then, the conversation waits for more output or
// for the process to end.
//
type MarkerCompletion struct {
	Marker  string
	Outcome string
}

func (c MarkerCompletion) OnOutput(output string) (Outcome, bool) {
	rest, ok := c.fromMarker(output)
	if !ok {
		return Outcome{}, false
	}

	result := extract.Extract(rest)
	if !result.Found {
		return Outcome{}, false
	}

	end := strings.Index(rest, result.URL) + len(result.URL)
	if end >= len(rest) {
		return Outcome{}, false
	}

	return Outcome{Name: c.Outcome, URL: result.URL}, true
}

func (c MarkerCompletion) OnEnd(stdout, sinceExhausted string, exitCode int) (Outcome, bool) {
	rest, ok := c.fromMarker(sinceExhausted)
	if !ok {
		return Outcome{}, false
	}

	result := extract.Extract(rest)
	if !result.Found {
		return Outcome{Name: OutcomeNotFound}, true
	}

	return Outcome{Name: c.Outcome, URL: result.URL}, true
}

func (c MarkerCompletion) fromMarker(output string) (string, bool) {
	cleaned := extract.Strip(output)

	index := strings.Index(cleaned, c.Marker)
	if index < 0 {
		return "", false
	}

	return cleaned[index:], true
}

type ExitOutcome struct {
	Substring string
	Name      string
}

// ExitCompletion looks at the output once the process ends.
// The first outcome found in stdout wins, regardless of the exit code.
type ExitCompletion struct {
	Outcomes []ExitOutcome
}

func (c ExitCompletion) OnOutput(output string) (Outcome, bool) {
	return Outcome{}, false
}

func (c ExitCompletion) OnEnd(stdout, sinceExhausted string, exitCode int) (Outcome, bool) {
	cleaned := extract.Strip(stdout)

	for _, outcome := range c.Outcomes {
		if strings.Contains(cleaned, outcome.Substring) {
			return Outcome{Name: outcome.Name}, true
		}
	}

	return Outcome{}, false
}
