package process

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
)

type Environment struct {
	env map[string]string
}

func HostEnvironment() *Environment {
	return CreateEnvironment(os.Environ())
}

func CreateEnvironment(vars []string) *Environment {
	environment := Environment{env: map[string]string{}}

	for _, line := range vars {
		nameAndValue := strings.SplitN(line, "=", 2)
		if len(nameAndValue) == 2 {
			environment.Set(nameAndValue[0], nameAndValue[1])
		}
	}

	return &environment
}

/*
 * The CLI is usually installed as a dev dependency of the project,
 * so the project's node_modules/.bin directory goes first in the PATH.
 */
func ProjectEnvironment(projectPath string) *Environment {
	env := HostEnvironment()

	pathKey := "PATH"
	if runtime.GOOS == "windows" {
		pathKey = "Path"
	}

	binDir := filepath.Join(projectPath, "node_modules", ".bin")
	current, ok := env.Get(pathKey)
	if !ok || current == "" {
		env.Set(pathKey, binDir)
		return env
	}

	env.Set(pathKey, binDir+string(os.PathListSeparator)+current)
	return env
}

func (e *Environment) Set(name, value string) {
	if e.env == nil {
		e.env = map[string]string{}
	}

	e.env[name] = value
}

func (e *Environment) Get(key string) (string, bool) {
	v, ok := e.env[key]
	return v, ok
}

func (e *Environment) Remove(key string) {
	delete(e.env, key)
}

func (e *Environment) IsEmpty() bool {
	return len(e.env) == 0
}

func (e *Environment) Keys() []string {
	var keys []string
	for k := range e.env {
		keys = append(keys, k)
	}

	sort.Strings(keys)
	return keys
}

// Append copies the variables of otherEnv into e, overwriting existing ones.
func (e *Environment) Append(otherEnv *Environment) {
	for _, name := range otherEnv.Keys() {
		value, _ := otherEnv.Get(name)
		e.Set(name, value)
	}
}

func (e *Environment) ToSlice() []string {
	arr := []string{}
	for _, name := range e.Keys() {
		value, _ := e.Get(name)
		arr = append(arr, fmt.Sprintf("%s=%s", name, value))
	}

	return arr
}

func shellQuote(s string) string {
	pattern := regexp.MustCompile(`[^\w@%+=:,./-]`)

	if len(s) == 0 {
		return "''"
	}
	if pattern.MatchString(s) {
		return "'" + strings.Replace(s, "'", "'\"'\"'", -1) + "'"
	}

	return s
}
