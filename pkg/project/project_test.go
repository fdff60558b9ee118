package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func writePackageJSON(t *testing.T, dir, content string) {
	err := os.WriteFile(filepath.Join(dir, PackageJSON), []byte(content), 0644)
	require.Nil(t, err)
}

func readPackageJSON(t *testing.T, dir string) string {
	content, err := os.ReadFile(filepath.Join(dir, PackageJSON))
	require.Nil(t, err)
	return string(content)
}

func Test__ReadSandboxURL__MissingFile(t *testing.T) {
	url, err := ReadSandboxURL(t.TempDir())
	assert.Nil(t, err)
	assert.Equal(t, "", url)
}

func Test__ReadSandboxURL__NeverExported(t *testing.T) {
	dir := t.TempDir()
	writePackageJSON(t, dir, `{"name": "hello"}`)

	url, err := ReadSandboxURL(dir)
	assert.Nil(t, err)
	assert.Equal(t, "", url)
}

func Test__ReadSandboxURL__InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writePackageJSON(t, dir, `{"name": `)

	_, err := ReadSandboxURL(dir)
	assert.NotNil(t, err)
}

func Test__WriteSandboxURL__KeepsOtherKeys(t *testing.T) {
	dir := t.TempDir()
	writePackageJSON(t, dir, `{
  "name": "hello",
  "dependencies": {"react": "^18.0.0"},
  "guppy": {"id": "abc", "color": "#ff0000"}
}`)

	err := WriteSandboxURL(dir, "https://codesandbox.io/s/abc123?x=1&y=2")
	require.Nil(t, err)

	content := readPackageJSON(t, dir)
	assert.Equal(t, "hello", gjson.Get(content, "name").String())
	assert.Equal(t, "^18.0.0", gjson.Get(content, "dependencies.react").String())
	assert.Equal(t, "abc", gjson.Get(content, "guppy.id").String())
	assert.Equal(t, "#ff0000", gjson.Get(content, "guppy.color").String())
	assert.Contains(t, content, "x=1&y=2")

	url, err := ReadSandboxURL(dir)
	require.Nil(t, err)
	assert.Equal(t, "https://codesandbox.io/s/abc123?x=1&y=2", url)
}

func Test__WriteSandboxURL__OverwritesPreviousURL(t *testing.T) {
	dir := t.TempDir()
	writePackageJSON(t, dir, `{"guppy": {"codesandboxUrl": "https://codesandbox.io/s/old"}}`)

	require.Nil(t, WriteSandboxURL(dir, "https://codesandbox.io/s/new"))

	url, err := ReadSandboxURL(dir)
	require.Nil(t, err)
	assert.Equal(t, "https://codesandbox.io/s/new", url)
}

func Test__WriteSandboxURL__MissingOrBrokenFile(t *testing.T) {
	dir := t.TempDir()
	require.Nil(t, WriteSandboxURL(dir, "https://codesandbox.io/s/a"))
	assert.JSONEq(t, `{"guppy": {"codesandboxUrl": "https://codesandbox.io/s/a"}}`, readPackageJSON(t, dir))

	writePackageJSON(t, dir, `not json`)
	require.Nil(t, WriteSandboxURL(dir, "https://codesandbox.io/s/b"))
	assert.JSONEq(t, `{"guppy": {"codesandboxUrl": "https://codesandbox.io/s/b"}}`, readPackageJSON(t, dir))
}

func Test__WriteSandboxURL__KeepsKeyOrder(t *testing.T) {
	dir := t.TempDir()
	writePackageJSON(t, dir, `{
  "name": "hello",
  "version": "1.0.0",
  "dependencies": {
    "react": "^18.0.0"
  }
}
`)

	require.Nil(t, WriteSandboxURL(dir, "https://codesandbox.io/s/abc123"))

	content := readPackageJSON(t, dir)
	name := strings.Index(content, `"name"`)
	version := strings.Index(content, `"version"`)
	dependencies := strings.Index(content, `"dependencies"`)
	guppy := strings.Index(content, `"guppy"`)

	assert.True(t, name >= 0 && name < version, content)
	assert.True(t, version < dependencies, content)
	assert.True(t, dependencies < guppy, content)
	assert.Contains(t, content, "\n  \"guppy\": {\n    \"codesandboxUrl\": \"https://codesandbox.io/s/abc123\"\n  }\n")
}

func Test__WriteSandboxURL__ReplacesURLInPlace(t *testing.T) {
	dir := t.TempDir()
	original := `{
    "name":    "hello",
    "guppy": { "codesandboxUrl": "https://codesandbox.io/s/old" },
    "scripts": { "start": "react-scripts start" }
}
`
	writePackageJSON(t, dir, original)

	require.Nil(t, WriteSandboxURL(dir, "https://codesandbox.io/s/new"))

	expected := strings.Replace(original, "https://codesandbox.io/s/old", "https://codesandbox.io/s/new", 1)
	assert.Equal(t, expected, readPackageJSON(t, dir))
}
