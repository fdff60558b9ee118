package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testScript() *Script {
	return MustNew(
		PromptStep{Trigger: "first?", Response: "1"},
		PromptStep{Trigger: "second?", Response: "2"},
		PromptStep{Trigger: "third?", Response: "3"},
	)
}

func Test__Matcher__AdvancesInOrder(t *testing.T) {
	m := NewMatcher(testScript())

	step, ok := m.Feed("the first? question")
	assert.True(t, ok)
	assert.Equal(t, "1", step.Response)
	assert.Equal(t, 1, m.Cursor())
	assert.Equal(t, " question", m.Pending())

	_, ok = m.Feed("no prompt here")
	assert.False(t, ok)
	assert.Equal(t, 1, m.Cursor())

	step, ok = m.Feed("second?")
	assert.True(t, ok)
	assert.Equal(t, "2", step.Response)

	step, ok = m.Feed("third?")
	assert.True(t, ok)
	assert.Equal(t, "3", step.Response)
	assert.True(t, m.Exhausted())

	_, ok = m.Feed("first? second? third?")
	assert.False(t, ok)
	assert.Equal(t, 3, m.Cursor())
}

func Test__Matcher__IgnoresLaterTriggers(t *testing.T) {
	m := NewMatcher(testScript())

	_, ok := m.Feed("third?")
	assert.False(t, ok)
	_, ok = m.Feed("second?")
	assert.False(t, ok)

	assert.Equal(t, 0, m.Cursor())
}

func Test__Matcher__TriggerAcrossChunks(t *testing.T) {
	m := NewMatcher(testScript())

	_, ok := m.Feed("fir")
	assert.False(t, ok)

	step, ok := m.Feed("st?")
	assert.True(t, ok)
	assert.Equal(t, "1", step.Response)
}

func Test__Matcher__ConsumedOutputIsNotMatchedAgain(t *testing.T) {
	m := NewMatcher(MustNew(
		PromptStep{Trigger: "(y/n)", Response: "y"},
		PromptStep{Trigger: "(y/n)", Response: "n"},
	))

	step, ok := m.Feed("continue? (y/n)")
	assert.True(t, ok)
	assert.Equal(t, "y", step.Response)

	_, ok = m.Feed("")
	assert.False(t, ok)

	step, ok = m.Feed("really? (y/n)")
	assert.True(t, ok)
	assert.Equal(t, "n", step.Response)
}

func Test__Matcher__SeveralTriggersInOneChunk(t *testing.T) {
	m := NewMatcher(testScript())

	responses := []string{}

	step, ok := m.Feed("first? second? third?")
	for ok {
		responses = append(responses, step.Response)
		step, ok = m.Feed("")
	}

	assert.Equal(t, []string{"1", "2", "3"}, responses)
	assert.True(t, m.Exhausted())
}

func Test__Matcher__PendingIsCapped(t *testing.T) {
	m := NewMatcher(testScript())

	m.Feed(strings.Repeat("x", MaxPendingBytes+100))
	assert.Equal(t, MaxPendingBytes, len(m.Pending()))

	_, ok := m.Feed("first?")
	assert.True(t, ok)
}

func Test__Matcher__EmptyScriptIsExhausted(t *testing.T) {
	m := NewMatcher(MustNew())

	assert.True(t, m.Exhausted())

	_, ok := m.Feed("anything")
	assert.False(t, ok)
}
