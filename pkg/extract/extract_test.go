package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test__Extract__SingleURL(t *testing.T) {
	result := Extract("[success] https://codesandbox.io/s/abc123")
	assert.True(t, result.Found)
	assert.Equal(t, "https://codesandbox.io/s/abc123", result.URL)
}

func Test__Extract__NoURL(t *testing.T) {
	result := Extract("[success] nothing to see here")
	assert.False(t, result.Found)
	assert.Equal(t, "", result.URL)
	assert.Equal(t, "not found", result.String())
}

func Test__Extract__ReturnsFirstURL(t *testing.T) {
	result := Extract("first ftp://files.example.com/a then https://codesandbox.io/s/xyz")
	assert.True(t, result.Found)
	assert.Equal(t, "ftp://files.example.com/a", result.URL)
}

func Test__Extract__StripsEscapeSequences(t *testing.T) {
	text := "\x1b[32m[success]\x1b[39m \x1b[1mhttps://codesandbox.io/s/abc123\x1b[22m\n"

	result := Extract(text)
	assert.True(t, result.Found)
	assert.Equal(t, "https://codesandbox.io/s/abc123", result.URL)
}

func Test__Extract__HostNeedsADot(t *testing.T) {
	assert.False(t, Extract("http://localhost:8000/").Found)
}

func Test__Extract__SchemeIsCaseInsensitive(t *testing.T) {
	result := Extract("HTTPS://CodeSandbox.io/s/ABC")
	assert.True(t, result.Found)
	assert.Equal(t, "HTTPS://CodeSandbox.io/s/ABC", result.URL)
}

func Test__Extract__IsIdempotent(t *testing.T) {
	text := "\x1b[2K[success] https://codesandbox.io/s/abc123 done"
	assert.Equal(t, Extract(text), Extract(text))
}

func Test__Strip(t *testing.T) {
	assert.Equal(t, "Token:", Strip("\x1b[?25l\x1b[1mToken:\x1b[22m"))
}
