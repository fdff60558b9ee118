package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test__New__RejectsEmptyTrigger(t *testing.T) {
	_, err := New(PromptStep{Trigger: "ok", Response: "y"}, PromptStep{Trigger: "", Response: "n"})
	assert.ErrorContains(t, err, "step 1 has an empty trigger")
}

func Test__New__CopiesSteps(t *testing.T) {
	steps := []PromptStep{{Trigger: "a", Response: "1"}}
	s := MustNew(steps...)

	steps[0].Response = "changed"
	assert.Equal(t, "1", s.Step(0).Response)

	returned := s.Steps()
	returned[0].Response = "changed"
	assert.Equal(t, "1", s.Step(0).Response)
}

func Test__LogResponse(t *testing.T) {
	assert.Equal(t, "y", PromptStep{Response: "y"}.LogResponse())
	assert.Equal(t, "***", PromptStep{Response: "secret", Secret: true}.LogResponse())
}

func Test__Parse__YAML(t *testing.T) {
	content := `
steps:
  - trigger: "sign in?"
    response: "Y"
  - trigger: "Token:"
    response: "{{token}}"
`

	s, err := Parse([]byte(content), "abc")
	require.Nil(t, err)
	require.Equal(t, 2, s.Len())

	assert.Equal(t, PromptStep{Trigger: "sign in?", Response: "Y"}, s.Step(0))
	assert.Equal(t, PromptStep{Trigger: "Token:", Response: "abc", Secret: true}, s.Step(1))
}

func Test__Parse__JSON(t *testing.T) {
	content := `{"steps": [{"trigger": "log out?", "response": "Y"}]}`

	s, err := Parse([]byte(content), "")
	require.Nil(t, err)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, "log out?", s.Step(0).Trigger)
}

func Test__Parse__Errors(t *testing.T) {
	_, err := Parse([]byte("steps: []"), "")
	assert.ErrorContains(t, err, "no steps")

	_, err = Parse([]byte("steps: [{response: \"n\"}]"), "")
	assert.ErrorContains(t, err, "empty trigger")

	_, err = Parse([]byte("steps: {"), "")
	assert.ErrorContains(t, err, "error parsing script")
}

func Test__LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.yml")
	err := os.WriteFile(path, []byte("steps:\n  - trigger: 'Token:'\n    response: '{{token}}'\n"), 0600)
	require.Nil(t, err)

	s, err := LoadFile(path, "tok")
	require.Nil(t, err)
	assert.Equal(t, "tok", s.Step(0).Response)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yml"), "")
	assert.ErrorContains(t, err, "error reading script file")
}

func Test__Dump__MasksSecrets(t *testing.T) {
	s := MustNew(
		PromptStep{Trigger: "sign in?", Response: "Y"},
		PromptStep{Trigger: "Token:", Response: "abc", Secret: true},
	)

	out, err := s.Dump()
	require.Nil(t, err)

	assert.Contains(t, string(out), "{{token}}")
	assert.NotContains(t, string(out), "abc")

	parsed, err := Parse(out, "abc")
	require.Nil(t, err)
	assert.Equal(t, s.Steps(), parsed.Steps())
}
