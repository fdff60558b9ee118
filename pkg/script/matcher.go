package script

import (
	"strings"
)

// MaxPendingBytes caps the output kept while waiting for a trigger.
const MaxPendingBytes = 64 * 1024

//
// The matcher owns the cursor into a script.
//
// Output is appended to a pending window holding everything seen
// since the cursor last moved. A trigger split across two chunks
// is still found, but a trigger is never matched against output
// that was consumed by the previous step.
//
// Only the trigger under the cursor is checked. Triggers of later
// steps are ignored until the cursor reaches them.
//
type Matcher struct {
	script  *Script
	cursor  int
	pending strings.Builder
}

func NewMatcher(s *Script) *Matcher {
	return &Matcher{script: s}
}

func (m *Matcher) Feed(chunk string) (PromptStep, bool) {
	if m.Exhausted() {
		return PromptStep{}, false
	}

	m.pending.WriteString(chunk)
	window := m.pending.String()

	step := m.script.Step(m.cursor)
	index := strings.Index(window, step.Trigger)
	if index < 0 {
		m.trim(window)
		return PromptStep{}, false
	}

	m.cursor++

	rest := window[index+len(step.Trigger):]
	m.pending.Reset()
	m.pending.WriteString(rest)

	return step, true
}

func (m *Matcher) trim(window string) {
	if len(window) <= MaxPendingBytes {
		return
	}

	m.pending.Reset()
	m.pending.WriteString(window[len(window)-MaxPendingBytes:])
}

// Pending is the output seen since the cursor last moved.
func (m *Matcher) Pending() string {
	return m.pending.String()
}

func (m *Matcher) Cursor() int {
	return m.cursor
}

func (m *Matcher) Len() int {
	return m.script.Len()
}

func (m *Matcher) Exhausted() bool {
	return m.cursor >= m.script.Len()
}
